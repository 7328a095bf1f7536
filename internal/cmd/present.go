package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/config"
	"github.com/seedit/seedit-challenge/internal/event"
	"github.com/seedit/seedit-challenge/internal/logging"
	"github.com/seedit/seedit-challenge/internal/metrics"
	"github.com/seedit/seedit-challenge/internal/publication"
	"github.com/seedit/seedit-challenge/internal/transport"
	"github.com/seedit/seedit-challenge/internal/tui"
	"github.com/seedit/seedit-challenge/internal/tui/styles"
)

var presentCmd = &cobra.Command{
	Use:   "present [scenario.yaml]",
	Short: "Replay a challenge scenario in the terminal modal",
	Long: `Replay a scripted exchange with a subplebbit and answer its challenges.

The scenario lists publications and the challenge rounds issued for each.
Rounds are queued in arrival order; a wrong answer may be followed by
another round for the same publication. A summary is printed on exit.

Examples:
  # Replay a scenario file
  seedit-challenge present ./scenarios/reply.yaml

  # Replay the scenario named by transport.scenario, with metrics
  seedit-challenge present --metrics`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresent,
}

var (
	presentTheme   string
	presentMetrics bool
)

func init() {
	presentCmd.Flags().StringVar(&presentTheme, "theme", "", "color theme (overrides tui.theme)")
	presentCmd.Flags().BoolVar(&presentMetrics, "metrics", false, "serve Prometheus metrics (overrides metrics.enabled)")
	rootCmd.AddCommand(presentCmd)
}

func runPresent(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if presentTheme != "" {
		if !styles.IsValidTheme(presentTheme) {
			return fmt.Errorf("unknown theme %q (valid: %s)", presentTheme, strings.Join(styles.BuiltinThemes(), ", "))
		}
		cfg.TUI.Theme = presentTheme
	}
	if presentMetrics {
		cfg.Metrics.Enabled = true
	}

	path := cfg.Transport.Scenario
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no scenario given: pass a file or set transport.scenario")
	}
	scenario, err := transport.LoadScenario(path)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus := event.NewBus(logger)
	coord := challenge.NewCoordinator(challenge.WithBus(bus), challenge.WithLogger(logger))
	defer coord.Close()

	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		collector.Attach(bus)
		defer collector.Detach()

		srv, err := metrics.Listen(cfg.Metrics.Addr, collector, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				logger.Error("metrics server stopped", "error", err.Error())
			}
		}()
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving metrics on http://%s/metrics\n", srv.Addr())
	}

	inbox := transport.NewInbox(cfg.Transport.InboxBuffer, logger)
	defer inbox.Close()
	go func() {
		if err := inbox.Run(ctx, coord); err != nil && ctx.Err() == nil {
			logger.Warn("challenge inbox stopped", "error", err.Error())
		}
	}()

	sim := transport.NewSimulator(scenario, inbox,
		transport.WithSimulatorBus(bus),
		transport.WithSimulatorLogger(logger))
	defer sim.Stop()

	listener := tui.Listen(bus)
	defer listener.Close()

	model := tui.New(coord, modelOptions(cfg, scenario, listener, logger))
	var programOpts []tea.ProgramOption
	if cfg.TUI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	programOpts = append(programOpts, tea.WithContext(ctx))
	program := tea.NewProgram(model, programOpts...)

	go func() {
		select {
		case <-sim.Done():
			program.Send(tui.DoneMsg{})
		case <-ctx.Done():
		}
	}()

	if err := sim.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scenario: %w", err)
	}
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("challenge modal failed: %w", err)
	}

	printResults(cmd.OutOrStdout(), sim.Results())
	return nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(logging.Options{
		Dir:        cfg.Logging.LogDir(),
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

func modelOptions(cfg *config.Config, scenario *transport.Scenario, listener *tui.Listener, logger *logging.Logger) tui.Options {
	opts := tui.Options{
		Styles:         styles.NewModalStyles(styles.GetPalette(styles.ThemeName(cfg.TUI.Theme))),
		Width:          cfg.TUI.Width,
		ShowQueueBadge: cfg.TUI.ShowQueueBadge,
		PreviewLength:  cfg.Challenge.PreviewLength,
		ImageMode:      cfg.Challenge.ImageMode,
		MaskAnswers:    cfg.Challenge.MaskAnswers,
		Listener:       listener,
		Logger:         logger,
	}
	if scenario != nil {
		opts.Lookup = publication.CommentLookup(scenario.Lookup)
	}
	return opts
}

func printResults(w io.Writer, results []transport.Result) {
	fmt.Fprintln(w, "Challenge results:")
	for _, r := range results {
		outcome := "pending"
		switch {
		case r.Verified:
			outcome = "verified"
		case r.Abandoned:
			outcome = "abandoned"
		case r.Finished:
			outcome = "rejected"
		}
		fmt.Fprintf(w, "  %-20s %-6s %-9s rounds=%d submissions=%d", r.Name, r.Kind, outcome, r.Rounds, len(r.Submissions))
		if r.CID != "" {
			fmt.Fprintf(w, " cid=%s", publication.ShortCID(r.CID))
		}
		fmt.Fprintln(w)
	}
}
