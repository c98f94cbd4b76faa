// Package cli is the sidedock command line: the TUI by default, plus
// scriptable sub-commands over the same engine.
package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/sidedock/internal/app"
	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/config"
	"github.com/sadopc/sidedock/internal/tui"
)

type rootOptions struct {
	configPath string
}

// New builds the root command.
func New() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sidedock",
		Short: "A day-by-day task tracker with reminders and a focus timer.",
		Example: `
sidedock
sidedock add "review PR #work 30m"
sidedock list --date 2026-03-09
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(ro)
		},
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", config.DefaultPath(), "config file")

	addAdd(cmd, ro)
	addList(cmd, ro)
	addExport(cmd, ro)
	addImport(cmd, ro)
	addClear(cmd, ro)
	return cmd
}

// open loads configuration and opens the engine, logging to the command's
// stderr.
func (ro *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	return app.Open(cfg, logger)
}

// runTUI takes over the terminal, so logs go to the configured file.
func runTUI(ro *rootOptions) error {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return err
	}
	f, err := app.OpenLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := app.Open(cfg, app.NewLogger(cfg.LogLevel, f))
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(tui.NewApp(a), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func resolveDate(a *app.App, date string) (string, error) {
	if date == "" {
		return a.Today(), nil
	}
	if _, err := clock.ParseDateKey(date); err != nil {
		return "", fmt.Errorf("bad date %q, want YYYY-MM-DD", date)
	}
	return date, nil
}
