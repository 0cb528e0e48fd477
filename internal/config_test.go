package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/ceylonix/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"auth token missing", func(c *Config) { c.Auth.Mode = AuthModeToken }, "token is empty"},
		{"bad port", func(c *Config) { c.App.HTTP.Port = 70000 }, "app"},
		{"bad timezone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }, "app"},
		{"unknown driver", func(c *Config) { c.Data.Driver = "postgres" }, "data"},
		{"sqlite without path", func(c *Config) { c.Data.Driver = DriverSQLite; c.Data.SQLitePath = "" }, "data"},
		{"cloudinary without url", func(c *Config) { c.Uploads.Backend = "cloudinary" }, "uploads"},
		{"mail without host", func(c *Config) { c.Mail.Enabled = true; c.Mail.From = "a@b.io"; c.Mail.Recipient = "c@d.io" }, "mail"},
		{"mail bad recipient", func(c *Config) {
			c.Mail = MailConfig{Enabled: true, Host: "smtp.example.com", From: "a@b.io", Recipient: "nobody"}
		}, "mail"},
		{"limiter without window", func(c *Config) { c.RateLimit.RedisAddr = "localhost:6379"; c.RateLimit.Window = 0 }, "rate_limit"},
		{"short seed title", func(c *Config) {
			c.Services = []ServiceSeed{{ID: 1, Title: "x", Description: "A long enough description"}}
		}, "services[0]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			c.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("err = %v, want mention of %q", err, c.want)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("CEYLONIX_TEST_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  http:
    port: 8081
  timezone: UTC
data:
  driver: sqlite
  sqlite_path: /tmp/site.db
auth:
  mode: token
  token: ${CEYLONIX_TEST_TOKEN}
rate_limit:
  redis_addr: localhost:6379
  limit: 5
  window: 1m
services:
  - id: 1
    title: Wedding Photography
    description: Timeless wedding coverage.
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 8081 || cfg.Data.Driver != DriverSQLite || cfg.Auth.Token != "from-env" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RateLimit.Window != time.Minute || !cfg.RateLimit.Enabled() {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Uploads.Path != "./uploads" {
		t.Errorf("unset section lost its default: %+v", cfg.Uploads)
	}
	seeds := cfg.SeedServices()
	if len(seeds) != 1 || seeds[0].Title != "Wedding Photography" {
		t.Errorf("seeds = %+v", seeds)
	}
}
