package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/export"
)

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	var (
		out    string
		csvDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all days as JSON, or tasks and focus sessions as CSV",
		Example: `
sidedock export > backup.json
sidedock export --out backup.json
sidedock export --csv ~/reports
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			now := a.Clock.Now()

			if csvDir != "" {
				days, err := a.Store.ListAllDays()
				if err != nil {
					return err
				}
				sessions, err := a.Store.ListSessions("", "")
				if err != nil {
					return err
				}
				if err := os.MkdirAll(csvDir, 0o755); err != nil {
					return fmt.Errorf("create export directory: %w", err)
				}
				date := clock.DateKey(now)
				tasksPath := filepath.Join(csvDir, fmt.Sprintf("sidedock-tasks-%s.csv", date))
				sessionsPath := filepath.Join(csvDir, fmt.Sprintf("sidedock-focus-%s.csv", date))
				if err := export.TasksToCSV(days, tasksPath); err != nil {
					return err
				}
				if err := export.SessionsToCSV(sessions, sessionsPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nWrote %s\n", tasksPath, sessionsPath)
				return nil
			}

			if out == "" {
				return export.Export(a.Store, now, cmd.OutOrStdout())
			}
			if err := export.ToJSON(a.Store, now, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON to this file instead of stdout")
	cmd.Flags().StringVar(&csvDir, "csv", "", "write CSV files into this directory")

	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all days with a JSON export. Settings are kept.",
		Example: `
sidedock import backup.json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Import(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d day(s)\n", n)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addClear(topLevel *cobra.Command, ro *rootOptions) {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all days, focus sessions and completion history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			a, err := ro.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")

	topLevel.AddCommand(cmd)
}
