// Package vis talks to the FIVB VIS XML web service.
package vis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PetLahev/fivb-monitor/internal/metrics"
)

const (
	DefaultEndpoint      = "https://www.fivb.org/vis2009/XmlRequest.asmx"
	DefaultApplicationID = "FIVB.12ndr.WithdrawnMonitor"

	userAgent = "FIVB-Fetcher/1.0 (+go; contact=dev)"
)

// ErrRequestBudget is returned once a client has issued its maximum number
// of requests. It is never retried.
var ErrRequestBudget = errors.New("request budget exhausted")

// Client issues VIS requests. Each logical request is retried on transport
// errors, bad statuses, empty bodies and unparsable XML, waiting between
// attempts. Retries happen before anything is handed to the caller.
type Client struct {
	endpoint    string
	appID       string
	httpClient  *http.Client
	maxAttempts int
	retryWait   time.Duration
	maxRequests int
	metrics     *metrics.Manager

	mu       sync.Mutex
	requests int
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithApplicationID sets the Application header VIS asks clients to send.
func WithApplicationID(id string) Option {
	return func(c *Client) {
		c.appID = id
	}
}

func WithRetry(maxAttempts int, wait time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if wait >= 0 {
			c.retryWait = wait
		}
	}
}

// WithRequestBudget caps the logical requests of one client. Zero or less
// disables the cap.
func WithRequestBudget(n int) Option {
	return func(c *Client) {
		c.maxRequests = n
	}
}

func WithMetrics(m *metrics.Manager) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:    endpoint,
		appID:       DefaultApplicationID,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxAttempts: 3,
		retryWait:   15 * time.Minute,
		maxRequests: 61,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Requests reports how many logical requests the client has issued.
func (c *Client) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

func (c *Client) track() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	if c.maxRequests > 0 && c.requests > c.maxRequests {
		return fmt.Errorf("%w: %d > %d, narrow the event window or raise the limit",
			ErrRequestBudget, c.requests, c.maxRequests)
	}
	return nil
}

// do sends one request document and hands the response body to decode.
func (c *Client) do(ctx context.Context, requestType, document string, decode func([]byte) error) error {
	if err := c.track(); err != nil {
		return err
	}
	u := c.endpoint + "?" + url.Values{"Request": {document}}.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		start := time.Now()
		err := c.fetch(ctx, u, decode)
		c.metrics.FeedRequest(requestType, err, time.Since(start))
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		slog.Warn("feed request failed",
			"type", requestType, "attempt", attempt, "max_attempts", c.maxAttempts, "error", err)

		if attempt < c.maxAttempts {
			slog.Info("waiting before retry", "type", requestType, "wait", c.retryWait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryWait):
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", requestType, c.maxAttempts, lastErr)
}

func (c *Client) fetch(ctx context.Context, u string, decode func([]byte) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.appID != "" {
		req.Header.Set("Application", c.appID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty body")
	}
	if err := decode(body); err != nil {
		return fmt.Errorf("failed to parse XML: %w", err)
	}
	return nil
}
