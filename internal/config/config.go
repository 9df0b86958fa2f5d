// Package config holds the settings shared by the crawler and the API.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	// Addr is the API listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel is one of debug, info, warn, error. LogFormat is text or json.
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// DatabaseDriver is sqlite3 or postgres; DatabaseURL is the driver DSN.
	DatabaseDriver string `koanf:"database_driver"`
	DatabaseURL    string `koanf:"database_url"`

	// Timezone decides which calendar day a run belongs to.
	Timezone string `koanf:"timezone"`

	// WindowDays bounds how far ahead events are crawled.
	WindowDays int `koanf:"window_days"`

	// MaxRequests caps the VIS requests of one crawl.
	MaxRequests int `koanf:"max_requests"`

	VISEndpoint   string        `koanf:"vis_endpoint"`
	ApplicationID string        `koanf:"application_id"`
	HTTPTimeout   time.Duration `koanf:"http_timeout"`
	RetryWait     time.Duration `koanf:"retry_wait"`
	MaxAttempts   int           `koanf:"max_attempts"`

	// EventCodeLength and EventCodePrefix shape composite tournament codes:
	// with 3 and "BVB-", MITA2025 addresses event BVB-ITA2025.
	EventCodeLength int    `koanf:"event_code_length"`
	EventCodePrefix string `koanf:"event_code_prefix"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// PushgatewayURL, when set, receives the crawler's metrics.
	PushgatewayURL string `koanf:"pushgateway_url"`

	// AlertWebhookURL, when set, is posted a message on crawl failure.
	AlertWebhookURL string `koanf:"alert_webhook_url"`

	// AlertEmailTo, when set, is also mailed on crawl failure through the
	// SMTP server at SMTPHost:SMTPPort.
	AlertEmailTo string `koanf:"alert_email_to"`
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPFrom     string `koanf:"smtp_from"`
}

func New() *Config {
	return &Config{
		Addr:               ":8080",
		LogLevel:           "info",
		LogFormat:          "text",
		DatabaseDriver:     "sqlite3",
		DatabaseURL:        "fivb.db",
		Timezone:           "Europe/Prague",
		WindowDays:         28,
		MaxRequests:        61,
		VISEndpoint:        "https://www.fivb.org/vis2009/XmlRequest.asmx",
		ApplicationID:      "FIVB.12ndr.WithdrawnMonitor",
		HTTPTimeout:        30 * time.Second,
		RetryWait:          15 * time.Minute,
		MaxAttempts:        3,
		EventCodeLength:    3,
		EventCodePrefix:    "BVB-",
		CORSAllowedOrigins: []string{"*"},
		SMTPHost:           "localhost",
		SMTPPort:           25,
		SMTPFrom:           "scraper@localhost",
	}
}

// Location returns the configured time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
