package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/validate"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Data drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Data      DataConfig        `yaml:"data"`
	Uploads   UploadsConfig     `yaml:"uploads"`
	Mail      MailConfig        `yaml:"mail"`
	Auth      AuthConfig        `yaml:"auth"`
	CORS      CORSConfig        `yaml:"cors"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Services  []ServiceSeed     `yaml:"services"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if err := c.Uploads.Validate(); err != nil {
		return fmt.Errorf("uploads: %w", err)
	}
	if err := c.Mail.Validate(); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	for i := range c.Services {
		if err := c.Services[i].Validate(); err != nil {
			return fmt.Errorf("services[%d]: %w", i, err)
		}
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// Timezone is the IANA zone that defines "today" for booking dates. Empty means server local time.
	Timezone string `yaml:"timezone"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := c.Location()
			return err
		})),
	)
}

// Location resolves Timezone.
func (c *ApplicationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig selects where collections are persisted.
type DataConfig struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	SQLitePath string `yaml:"sqlite_path"`
	// Watch publishes events for edits made to the JSON files outside the API.
	Watch bool `yaml:"watch"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverJSON, DriverSQLite)),
		validation.Field(&c.Path, validation.When(c.Driver == DriverJSON, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == DriverSQLite, validation.Required)),
	)
}

// UploadsConfig holds portfolio media storage configuration.
type UploadsConfig struct {
	Path          string `yaml:"path"`
	MaxBytes      int64  `yaml:"max_bytes"`
	Backend       string `yaml:"backend"`
	CloudinaryURL string `yaml:"cloudinary_url"`
	Folder        string `yaml:"folder"`
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Backend, validation.Required, validation.In(media.BackendLocal, media.BackendCloudinary)),
		validation.Field(&c.CloudinaryURL, validation.When(c.Backend == media.BackendCloudinary, validation.Required)),
	)
}

// MailConfig holds SMTP notification configuration. When disabled, messages are logged instead.
type MailConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	From        string        `yaml:"from"`
	Recipient   string        `yaml:"recipient"`
	QueueSize   int           `yaml:"queue_size"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Validate validates the mail configuration.
func (c *MailConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.From, validation.When(c.Enabled, validation.Required, is.EmailFormat)),
		validation.Field(&c.Recipient, validation.When(c.Enabled, validation.Required, is.EmailFormat)),
		validation.Field(&c.QueueSize, validation.Min(0)),
		validation.Field(&c.MaxAttempts, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how admin routes are protected:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig configures the Redis fixed-window limiter on public submissions.
// An empty RedisAddr disables limiting.
type RateLimitConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	Prefix        string        `yaml:"prefix"`
	Limit         int           `yaml:"limit"`
	Window        time.Duration `yaml:"window"`
}

// Enabled reports whether a limiter should be built.
func (c *RateLimitConfig) Enabled() bool { return c.RedisAddr != "" }

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Limit, validation.When(c.Enabled(), validation.Required, validation.Min(1))),
		validation.Field(&c.Window, validation.When(c.Enabled(), validation.Required, validation.Min(time.Second))),
	)
}

// ServiceSeed is one catalog entry written on first start.
type ServiceSeed struct {
	ID          int64  `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Validate validates the seed entry.
func (c *ServiceSeed) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Title, validation.Required, validation.RuneLength(2, 100)),
		validation.Field(&c.Description, validation.Required, validation.RuneLength(10, 1000)),
	)
}

// SeedServices converts the configured seeds; nil when none are configured.
func (c *Config) SeedServices() []models.Service {
	if len(c.Services) == 0 {
		return nil
	}
	out := make([]models.Service, len(c.Services))
	for i, s := range c.Services {
		out[i] = models.Service{ID: s.ID, Title: s.Title, Description: s.Description}
	}
	return out
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 5000,
			},
		},
		Data: DataConfig{
			Driver:     DriverJSON,
			Path:       "./data",
			SQLitePath: "./ceylonix.db",
			Watch:      true,
		},
		Uploads: UploadsConfig{
			Path:     "./uploads",
			MaxBytes: validate.DefaultMaxUpload,
			Backend:  media.BackendLocal,
			Folder:   "portfolio",
		},
		Mail: MailConfig{
			Port:        587,
			QueueSize:   64,
			MaxAttempts: 3,
			RetryDelay:  5 * time.Second,
			Timeout:     15 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5000"},
		},
		RateLimit: RateLimitConfig{
			Prefix: "ceylonix:ratelimit",
			Limit:  20,
			Window: 15 * time.Minute,
		},
	}
}
