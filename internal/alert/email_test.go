package alert

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func capture(sent *[]sentMail, err error) sendMailFunc {
	return func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return err
	}
}

func TestEmail_Notify(t *testing.T) {
	var sent []sentMail
	e := NewEmail("mail.example", 2525, "scraper@localhost", "ops@example.com")
	e.sendMail = capture(&sent, nil)

	require.NoError(t, e.Notify(context.Background(), "crawl failed\nfeed down"))
	require.Len(t, sent, 1)
	assert.Equal(t, "mail.example:2525", sent[0].addr)
	assert.Equal(t, "scraper@localhost", sent[0].from)
	assert.Equal(t, []string{"ops@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].msg, "Subject: FIVB Scraper Error\r\n")
	assert.Contains(t, sent[0].msg, "To: ops@example.com\r\n")
	assert.Contains(t, sent[0].msg, "\r\n\r\ncrawl failed\r\nfeed down\r\n")
}

func TestEmail_SendError(t *testing.T) {
	var sent []sentMail
	e := NewEmail("localhost", 25, "a@localhost", "ops@example.com")
	e.sendMail = capture(&sent, errors.New("connection refused"))

	err := e.Notify(context.Background(), "x")
	assert.ErrorContains(t, err, "connection refused")
}

func TestEmail_CancelledContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	e := NewEmail("localhost", 25, "a@localhost", "ops@example.com")
	e.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-block
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Notify(ctx, "x"), context.DeadlineExceeded)
}

func TestEmail_Unconfigured(t *testing.T) {
	assert.NoError(t, NewEmail("localhost", 25, "a@localhost", "").Notify(context.Background(), "x"))
	var e *Email
	assert.NoError(t, e.Notify(context.Background(), "x"))
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, string) error {
	f.calls++
	return errors.New("down")
}

func TestNotifyAll_KeepsGoingAfterFailure(t *testing.T) {
	var sent []sentMail
	e := NewEmail("localhost", 25, "a@localhost", "ops@example.com")
	e.sendMail = capture(&sent, nil)
	first := &failingNotifier{}

	err := NotifyAll(context.Background(), "crawl failed", first, NewWebhook(""), e)
	assert.ErrorContains(t, err, "down")
	assert.Equal(t, 1, first.calls)
	assert.Len(t, sent, 1)
}
