package config

import (
	"fmt"
	"net"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "logging.max_size_mb")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidThemes returns the built-in theme names.
// Must match styles.BuiltinThemes (defined separately to avoid an import cycle).
func ValidThemes() []string {
	return []string{"default", "dracula", "nord", "solarized-light"}
}

// ValidImageModes returns the list of valid image display modes
func ValidImageModes() []string {
	return []string{ImageModePlaceholder, ImageModeBase64}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateChallenge()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateTransport()...)

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.Theme != "" && !slices.Contains(ValidThemes(), c.TUI.Theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   c.TUI.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemes(), ", ")),
		})
	}

	// 0 means use the default width
	const minWidth = 40
	const maxWidth = 120
	if c.TUI.Width != 0 {
		if c.TUI.Width < minWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.width",
				Value:   c.TUI.Width,
				Message: fmt.Sprintf("must be at least %d columns", minWidth),
			})
		}
		if c.TUI.Width > maxWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.width",
				Value:   c.TUI.Width,
				Message: fmt.Sprintf("exceeds maximum of %d columns", maxWidth),
			})
		}
	}

	return errors
}

// validateChallenge validates the ChallengeConfig
func (c *Config) validateChallenge() []ValidationError {
	var errors []ValidationError

	if c.Challenge.PreviewLength < 0 {
		errors = append(errors, ValidationError{
			Field:   "challenge.preview_length",
			Value:   c.Challenge.PreviewLength,
			Message: "must be non-negative",
		})
	}

	if c.Challenge.ImageMode != "" && !slices.Contains(ValidImageModes(), c.Challenge.ImageMode) {
		errors = append(errors, ValidationError{
			Field:   "challenge.image_mode",
			Value:   c.Challenge.ImageMode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidImageModes(), ", ")),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateMetrics validates the MetricsConfig
func (c *Config) validateMetrics() []ValidationError {
	var errors []ValidationError

	if !c.Metrics.Enabled {
		return errors
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
		errors = append(errors, ValidationError{
			Field:   "metrics.addr",
			Value:   c.Metrics.Addr,
			Message: "must be a host:port listen address",
		})
	}

	return errors
}

// validateTransport validates the TransportConfig
func (c *Config) validateTransport() []ValidationError {
	var errors []ValidationError

	if c.Transport.InboxBuffer < 0 {
		errors = append(errors, ValidationError{
			Field:   "transport.inbox_buffer",
			Value:   c.Transport.InboxBuffer,
			Message: "must be non-negative",
		})
	}

	const maxInboxBuffer = 10000
	if c.Transport.InboxBuffer > maxInboxBuffer {
		errors = append(errors, ValidationError{
			Field:   "transport.inbox_buffer",
			Value:   c.Transport.InboxBuffer,
			Message: fmt.Sprintf("exceeds maximum of %d", maxInboxBuffer),
		})
	}

	return errors
}
