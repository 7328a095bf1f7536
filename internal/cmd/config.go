package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seedit/seedit-challenge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View seedit-challenge configuration",
	Long: `View seedit-challenge configuration.

Without arguments, displays the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/seedit-challenge/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	writeConfig(cmd.OutOrStdout(), cfg, viper.ConfigFileUsed())
	return nil
}

func writeConfig(w io.Writer, cfg *config.Config, source string) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	// Show where config is being read from
	if source != "" {
		fmt.Fprintf(w, "Config file: %s\n", source)
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "tui:")
	fmt.Fprintf(w, "  theme: %s\n", cfg.TUI.Theme)
	fmt.Fprintf(w, "  alt_screen: %v\n", cfg.TUI.AltScreen)
	fmt.Fprintf(w, "  show_queue_badge: %v\n", cfg.TUI.ShowQueueBadge)
	fmt.Fprintf(w, "  width: %d\n", cfg.TUI.Width)

	fmt.Fprintln(w, "challenge:")
	fmt.Fprintf(w, "  preview_length: %d\n", cfg.Challenge.PreviewLength)
	fmt.Fprintf(w, "  image_mode: %s\n", cfg.Challenge.ImageMode)
	fmt.Fprintf(w, "  mask_answers: %v\n", cfg.Challenge.MaskAnswers)

	fmt.Fprintln(w, "logging:")
	fmt.Fprintf(w, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(w, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  dir: %s\n", cfg.Logging.LogDir())
	fmt.Fprintf(w, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(w, "  max_backups: %d\n", cfg.Logging.MaxBackups)

	fmt.Fprintln(w, "metrics:")
	fmt.Fprintf(w, "  enabled: %v\n", cfg.Metrics.Enabled)
	fmt.Fprintf(w, "  addr: %s\n", cfg.Metrics.Addr)

	fmt.Fprintln(w, "transport:")
	fmt.Fprintf(w, "  inbox_buffer: %d\n", cfg.Transport.InboxBuffer)
	fmt.Fprintf(w, "  scenario: %s\n", cfg.Transport.Scenario)
}

const defaultConfigContent = `# seedit-challenge configuration

# Terminal modal settings
tui:
  # Color theme: default, dracula, nord, solarized-light
  theme: default
  # Render on the alternate screen buffer
  alt_screen: false
  # Show how many challenges are waiting behind the current one
  show_queue_badge: true
  # Modal width in columns (40-120)
  width: 64

# Challenge presentation
challenge:
  # Characters of the publication shown under the title
  preview_length: 50
  # How image challenges are shown: placeholder or base64
  image_mode: placeholder
  # Hide typed answers behind bullets
  mask_answers: false

# Log files (rotated by size)
logging:
  enabled: true
  # debug, info, warn, error
  level: info
  max_size_mb: 10
  max_backups: 3

# Prometheus endpoint, served while a session runs
metrics:
  enabled: false
  addr: 127.0.0.1:9464

# Challenge delivery
transport:
  # Undelivered challenge rounds that may be buffered
  inbox_buffer: 16
  # Scenario replayed by "seedit-challenge present" when no file is given
  scenario: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize seedit-challenge.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: SEEDIT_CHALLENGE_* (e.g., SEEDIT_CHALLENGE_TUI_THEME)")

	return nil
}
