package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FIVB_"

// listKeys are read from the environment as comma separated lists.
var listKeys = map[string]struct{}{
	"cors_allowed_origins": {},
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Load layers, from low to high precedence: defaults, the YAML file named by
// FIVB_CONFIG if set, and FIVB_* environment variables (FIVB_WINDOW_DAYS ->
// window_days).
func Load() (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	switch c.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return invalid("unsupported database_driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return invalid("database_url must not be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return invalid("unknown timezone %q", c.Timezone)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return invalid("unknown log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.WindowDays < 0 {
		return invalid("window_days must not be negative")
	}
	if c.MaxAttempts < 1 {
		return invalid("max_attempts must be at least 1")
	}
	if c.RetryWait < 0 || c.HTTPTimeout <= 0 {
		return invalid("retry_wait must not be negative and http_timeout must be positive")
	}
	if c.EventCodeLength < 1 {
		return invalid("event_code_length must be at least 1")
	}
	if c.AlertEmailTo != "" && (c.SMTPHost == "" || c.SMTPPort < 1 || c.SMTPPort > 65535) {
		return invalid("alert_email_to needs smtp_host and a valid smtp_port")
	}
	return nil
}
