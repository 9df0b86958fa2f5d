package alert

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const emailSubject = "FIVB Scraper Error"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email mails the message as plain text through an unauthenticated SMTP
// relay.
type Email struct {
	addr     string
	from     string
	to       string
	sendMail sendMailFunc
}

func NewEmail(host string, port int, from, to string) *Email {
	return &Email{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		from:     from,
		to:       to,
		sendMail: smtp.SendMail,
	}
}

// Notify is a no-op when no recipient is configured. net/smtp takes no
// context, so a cancelled ctx abandons the send instead of aborting it.
func (e *Email) Notify(ctx context.Context, msg string) error {
	if e == nil || e.to == "" {
		return nil
	}

	body := e.message(msg, time.Now())
	done := make(chan error, 1)
	go func() {
		done <- e.sendMail(e.addr, nil, e.from, []string{e.to}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to mail alert to %s: %w", e.to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Email) message(msg string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + e.from + "\r\n")
	b.WriteString("To: " + e.to + "\r\n")
	b.WriteString("Subject: " + emailSubject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
