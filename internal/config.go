package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/timeline"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig    `yaml:"app"`
	Vault      VaultConfig          `yaml:"vault"`
	SQLite     SQLiteConfig         `yaml:"sqlite"`
	Auth       AuthConfig           `yaml:"auth"`
	Timeline   TimelineConfig       `yaml:"timeline"`
	EventTypes []timeline.EventType `yaml:"event_types"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Timeline.Validate()
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

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
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

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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

// TimelineConfig holds export and regeneration settings.
type TimelineConfig struct {
	// Namespace keys the metadata block written into exported canvases.
	Namespace string `yaml:"namespace"`
	// EventsFolder restricts event discovery to one vault folder; empty
	// means the whole vault.
	EventsFolder string `yaml:"events_folder"`
	// OutputFolder is where bare document names given to the API, MCP tools
	// and CLI are placed.
	OutputFolder string           `yaml:"output_folder"`
	Defaults     timeline.Options `yaml:"defaults"`
	// AutoRegenerate rebuilds every exported timeline when event notes change.
	AutoRegenerate     bool          `yaml:"auto_regenerate"`
	RegenerateDebounce time.Duration `yaml:"regenerate_debounce"`
	YearMarkers        string        `yaml:"year_markers_on_regenerate"`
}

// Validate validates the timeline configuration.
func (c *TimelineConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Namespace, validation.Required),
		validation.Field(&c.RegenerateDebounce, validation.Min(time.Duration(0))),
		validation.Field(&c.YearMarkers, validation.Required, validation.In(
			string(exportservice.MarkersRecompute),
			string(exportservice.MarkersPreserve),
			string(exportservice.MarkersDrop),
		)),
	); err != nil {
		return err
	}
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("timeline defaults: %w", err)
	}
	return nil
}

// MarkerMode returns the configured year marker handling.
func (c *TimelineConfig) MarkerMode() exportservice.MarkerMode {
	return exportservice.MarkerMode(c.YearMarkers)
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
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./chartedroots.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Timeline: TimelineConfig{
			Namespace:          exportservice.DefaultNamespace,
			OutputFolder:       "Timelines",
			Defaults:           timeline.DefaultOptions(),
			RegenerateDebounce: 500 * time.Millisecond,
			YearMarkers:        string(exportservice.MarkersRecompute),
		},
	}
}
