package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PetLahev/fivb-monitor/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars(t)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DatabaseDriver, convey.ShouldEqual, "sqlite3")
				convey.So(cfg.Timezone, convey.ShouldEqual, "Europe/Prague")
				convey.So(cfg.WindowDays, convey.ShouldEqual, 28)
				convey.So(cfg.MaxRequests, convey.ShouldEqual, 61)
				convey.So(cfg.RetryWait, convey.ShouldEqual, 15*time.Minute)
				convey.So(cfg.EventCodeLength, convey.ShouldEqual, 3)
				convey.So(cfg.EventCodePrefix, convey.ShouldEqual, "BVB-")
				convey.So(cfg.Location().String(), convey.ShouldEqual, "Europe/Prague")
			})
		})

		convey.Convey("When environment variables are set", func() {
			t.Setenv("FIVB_ADDR", ":9090")
			t.Setenv("FIVB_WINDOW_DAYS", "14")
			t.Setenv("FIVB_HTTP_TIMEOUT", "5s")
			t.Setenv("FIVB_DATABASE_DRIVER", "postgres")
			t.Setenv("FIVB_DATABASE_URL", "postgres://localhost/fivb?sslmode=disable")
			t.Setenv("FIVB_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

			cfg, err := config.Load()

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WindowDays, convey.ShouldEqual, 14)
				convey.So(cfg.HTTPTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.DatabaseDriver, convey.ShouldEqual, "postgres")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When a YAML file is given", func() {
			path := filepath.Join(t.TempDir(), "fivb.yaml")
			yamlContent := `
timezone: "UTC"
max_requests: 120
event_code_prefix: "XYZ-"
retry_wait: "1m"
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			t.Setenv("FIVB_CONFIG", path)
			t.Setenv("FIVB_MAX_REQUESTS", "90")

			cfg, err := config.Load()

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Timezone, convey.ShouldEqual, "UTC")
				convey.So(cfg.EventCodePrefix, convey.ShouldEqual, "XYZ-")
				convey.So(cfg.RetryWait, convey.ShouldEqual, time.Minute)
				convey.So(cfg.MaxRequests, convey.ShouldEqual, 90)
			})
		})

		convey.Convey("When the file does not exist", func() {
			t.Setenv("FIVB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load()

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an alert email is configured", func() {
			t.Setenv("FIVB_ALERT_EMAIL_TO", "ops@example.com")
			t.Setenv("FIVB_SMTP_PORT", "587")

			cfg, err := config.Load()

			convey.Convey("Then the SMTP settings keep their defaults unless overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AlertEmailTo, convey.ShouldEqual, "ops@example.com")
				convey.So(cfg.SMTPHost, convey.ShouldEqual, "localhost")
				convey.So(cfg.SMTPPort, convey.ShouldEqual, 587)
				convey.So(cfg.SMTPFrom, convey.ShouldEqual, "scraper@localhost")
			})

			convey.Convey("Then an unusable port is rejected", func() {
				t.Setenv("FIVB_SMTP_PORT", "70000")

				_, err := config.Load()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values are invalid", func() {
			cases := map[string]string{
				"FIVB_DATABASE_DRIVER": "mysql",
				"FIVB_TIMEZONE":        "Mars/Olympus",
				"FIVB_MAX_ATTEMPTS":    "0",
				"FIVB_LOG_FORMAT":      "xml",
			}
			for key, value := range cases {
				clearConfigEnvVars(t)
				t.Setenv(key, value)

				_, err := config.Load()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FIVB_CONFIG", "FIVB_ADDR", "FIVB_LOG_LEVEL", "FIVB_LOG_FORMAT", "FIVB_DATABASE_DRIVER",
		"FIVB_DATABASE_URL", "FIVB_TIMEZONE", "FIVB_WINDOW_DAYS", "FIVB_MAX_REQUESTS", "FIVB_HTTP_TIMEOUT",
		"FIVB_RETRY_WAIT", "FIVB_MAX_ATTEMPTS", "FIVB_CORS_ALLOWED_ORIGINS", "FIVB_ALERT_EMAIL_TO",
		"FIVB_SMTP_HOST", "FIVB_SMTP_PORT", "FIVB_SMTP_FROM",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}
