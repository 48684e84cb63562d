package internal

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/fubuki/internal/anilist"
	"github.com/starford/fubuki/internal/recognition"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	AniList     AniListConfig     `yaml:"anilist"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Queue       QueueConfig       `yaml:"queue"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Auth        AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.AniList.Validate(); err != nil {
		return fmt.Errorf("anilist: %w", err)
	}
	if err := c.Recognition.Validate(); err != nil {
		return fmt.Errorf("recognition: %w", err)
	}
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AniListConfig holds the remote catalog client settings. Token may be
// empty; the tracker then only recognizes and never pushes.
type AniListConfig struct {
	Token             string        `yaml:"token"`
	Endpoint          string        `yaml:"endpoint"`
	MaxRetries        int           `yaml:"max_retries"`
	DefaultRetryAfter time.Duration `yaml:"default_retry_after"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// Validate validates the AniList configuration.
func (c *AniListConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, validation.By(httpURL)),
		validation.Field(&c.MaxRetries, validation.Min(1), validation.Max(20)),
		validation.Field(&c.DefaultRetryAfter, validation.Min(time.Second)),
		validation.Field(&c.RequestsPerMinute, validation.Min(1), validation.Max(90)),
		validation.Field(&c.Timeout, validation.Min(time.Second)),
	)
}

func httpURL(v any) error {
	u, err := url.Parse(v.(string))
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("validation_http_url", "must be an http(s) URL")
	}
	return nil
}

// Client returns the client settings.
func (c *AniListConfig) Client() anilist.Config {
	return anilist.Config{
		Endpoint:          c.Endpoint,
		MaxRetries:        c.MaxRetries,
		DefaultRetryAfter: c.DefaultRetryAfter,
		RequestsPerMinute: c.RequestsPerMinute,
		Timeout:           c.Timeout,
	}
}

// RecognitionConfig holds pattern files and the polling loop settings.
type RecognitionConfig struct {
	// Patterns is the default pattern file; it must exist.
	Patterns string `yaml:"patterns"`
	// CustomPatterns is an optional user file appended after the defaults.
	CustomPatterns string        `yaml:"custom_patterns"`
	Interval       time.Duration `yaml:"interval"`
	// Watch reloads the pattern files when they change.
	Watch bool `yaml:"watch"`
	// WindowCommand lists window titles, one per line. Empty runs wmctrl -l.
	WindowCommand []string `yaml:"window_command"`
}

// Validate validates the recognition configuration.
func (c *RecognitionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Patterns, validation.Required),
		validation.Field(&c.Interval, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// Source returns the pattern file source.
func (c *RecognitionConfig) Source() recognition.Source {
	return recognition.Source{Default: c.Patterns, Custom: c.CustomPatterns}
}

// QueueConfig holds update queue settings.
type QueueConfig struct {
	// UpdateDelaySeconds is how long an update waits before it is sent.
	// It can be changed at runtime.
	UpdateDelaySeconds int `yaml:"update_delay_seconds"`
}

// Validate validates the queue configuration.
func (c *QueueConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.UpdateDelaySeconds, validation.Min(0), validation.Max(3600)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the local API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for localhost.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8765,
			},
		},
		AniList: AniListConfig{
			Endpoint:          anilist.DefaultEndpoint,
			MaxRetries:        5,
			DefaultRetryAfter: 60 * time.Second,
			RequestsPerMinute: 90,
			Timeout:           15 * time.Second,
		},
		Recognition: RecognitionConfig{
			Patterns: "config/recognition.yaml",
			Interval: 2 * time.Second,
			Watch:    true,
		},
		Queue: QueueConfig{
			UpdateDelaySeconds: 5,
		},
		SQLite: SQLiteConfig{
			Path: "./fubuki.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
