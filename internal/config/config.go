package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete seedit-challenge configuration
type Config struct {
	TUI       TUIConfig       `mapstructure:"tui"`
	Challenge ChallengeConfig `mapstructure:"challenge"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Transport TransportConfig `mapstructure:"transport"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// Theme is the color theme for the challenge modal (default: "default")
	// Options: "default", "dracula", "nord", "solarized-light"
	Theme string `mapstructure:"theme"`
	// AltScreen renders the modal on the alternate screen buffer
	AltScreen bool `mapstructure:"alt_screen"`
	// ShowQueueBadge shows how many challenges are waiting behind the current one
	ShowQueueBadge bool `mapstructure:"show_queue_badge"`
	// Width is the modal width in columns (default: 64, min: 40, max: 120)
	Width int `mapstructure:"width"`
}

// ChallengeConfig controls how challenges are presented
type ChallengeConfig struct {
	// PreviewLength caps the publication excerpt shown under the title, in characters (default: 50)
	PreviewLength int `mapstructure:"preview_length"`
	// ImageMode controls how image challenges are shown: "placeholder" or "base64" (default: "placeholder")
	ImageMode string `mapstructure:"image_mode"`
	// MaskAnswers hides typed answers behind bullets
	MaskAnswers bool `mapstructure:"mask_answers"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where log files are written. Empty means <config dir>/logs
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Enabled serves /metrics while a session runs (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Addr is the listen address (default: "127.0.0.1:9464")
	Addr string `mapstructure:"addr"`
}

// TransportConfig controls how challenge rounds reach the coordinator
type TransportConfig struct {
	// InboxBuffer is how many undelivered challenge requests may be buffered (default: 16)
	InboxBuffer int `mapstructure:"inbox_buffer"`
	// Scenario is the default scenario file replayed by `present`
	Scenario string `mapstructure:"scenario"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		TUI: TUIConfig{
			Theme:          "default",
			AltScreen:      false,
			ShowQueueBadge: true,
			Width:          64,
		},
		Challenge: ChallengeConfig{
			PreviewLength: 50,
			ImageMode:     ImageModePlaceholder,
			MaskAnswers:   false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Transport: TransportConfig{
			InboxBuffer: 16,
		},
	}
}

// Image display modes
const (
	ImageModePlaceholder = "placeholder"
	ImageModeBase64      = "base64"
)

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// TUI defaults
	viper.SetDefault("tui.theme", defaults.TUI.Theme)
	viper.SetDefault("tui.alt_screen", defaults.TUI.AltScreen)
	viper.SetDefault("tui.show_queue_badge", defaults.TUI.ShowQueueBadge)
	viper.SetDefault("tui.width", defaults.TUI.Width)

	// Challenge defaults
	viper.SetDefault("challenge.preview_length", defaults.Challenge.PreviewLength)
	viper.SetDefault("challenge.image_mode", defaults.Challenge.ImageMode)
	viper.SetDefault("challenge.mask_answers", defaults.Challenge.MaskAnswers)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)

	// Transport defaults
	viper.SetDefault("transport.inbox_buffer", defaults.Transport.InboxBuffer)
	viper.SetDefault("transport.scenario", defaults.Transport.Scenario)
}

// Load reads the configuration from viper and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "seedit-challenge")
	}
	// Fall back to ~/.config/seedit-challenge
	home, err := os.UserHomeDir()
	if err != nil {
		return ".seedit-challenge"
	}
	return filepath.Join(home, ".config", "seedit-challenge")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LogDir returns the directory log files are written to
func (c *LoggingConfig) LogDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(ConfigDir(), "logs")
}
