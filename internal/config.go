package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayblocks/internal/auth"
	"github.com/starford/dayblocks/internal/reminder"
	"github.com/starford/dayblocks/internal/store"
	"github.com/starford/dayblocks/internal/telemetry"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Reminders RemindersConfig   `yaml:"reminders"`
	Palette   PaletteConfig     `yaml:"palette"`
	Telemetry telemetry.Config  `yaml:"telemetry"`
	MCP       MCPConfig         `yaml:"mcp"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Reminders.Validate()
}

// ApplicationConfig holds application-level configuration. When LogFile is
// set the log is also written to a rotated file.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  string     `yaml:"log_file"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
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

// SQLiteConfig holds SQLite database configuration. Driver is "sqlite3"
// (cgo) or "sqlite" (pure Go).
type SQLiteConfig struct {
	Path   string `yaml:"path"`
	Driver string `yaml:"driver"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = store.DriverCGO
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Driver, validation.In(store.DriverCGO, store.DriverPureGo)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how the acting user is resolved:
//   - "disabled" (default): every request acts as DefaultUser, suitable for local use.
//   - "header": the X-User-ID header set by a trusted proxy.
//   - "jwt": HS256 bearer tokens signed with JWTSecret.
type AuthConfig struct {
	Mode        string `yaml:"mode"`
	DefaultUser string `yaml:"default_user"`
	JWTSecret   string `yaml:"jwt_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = auth.ModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(auth.ModeDisabled, auth.ModeHeader, auth.ModeJWT)),
	); err != nil {
		return err
	}
	if c.Mode == auth.ModeDisabled && c.DefaultUser == "" {
		return fmt.Errorf("auth: mode is %q but default_user is empty", auth.ModeDisabled)
	}
	if c.Mode == auth.ModeJWT && c.JWTSecret == "" {
		return fmt.Errorf("auth: mode is %q but jwt_secret is empty", auth.ModeJWT)
	}
	return nil
}

// RemindersConfig controls the reminder scheduler.
type RemindersConfig struct {
	Interval time.Duration `yaml:"interval"`
	Window   time.Duration `yaml:"window"`
}

// Validate validates the reminder configuration.
func (c *RemindersConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Min(time.Second)),
		validation.Field(&c.Window, validation.Min(time.Second)),
	)
}

// PaletteConfig points at the label presets file.
type PaletteConfig struct {
	Path string `yaml:"path"`
}

// MCPConfig holds the MCP server settings.
type MCPConfig struct {
	// UserID is the user whose ledger the MCP tools operate on. It falls
	// back to auth.default_user.
	UserID string `yaml:"user_id"`
}

func (c *Config) mcpUser() string {
	if c.MCP.UserID != "" {
		return c.MCP.UserID
	}
	return c.Auth.DefaultUser
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path:   "./data/dayblocks.db",
			Driver: store.DriverCGO,
		},
		Auth: AuthConfig{
			Mode:        auth.ModeDisabled,
			DefaultUser: "local",
		},
		Reminders: RemindersConfig{
			Interval: reminder.DefaultInterval,
			Window:   reminder.DefaultInterval,
		},
	}
}
