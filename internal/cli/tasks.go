package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sadopc/sidedock/internal/store"
	"github.com/sadopc/sidedock/internal/tasks"
)

func addAdd(topLevel *cobra.Command, ro *rootOptions) {
	var date string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task. #tags and an estimate like 30m are picked out of the text.",
		Example: `
sidedock add write release notes #docs 15m
sidedock add --date 2026-03-11 dentist
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			day, err := resolveDate(a, date)
			if err != nil {
				return err
			}
			t, err := a.Tasks.AddFromInput(day, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s\n", t.Title, day)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to add to (YYYY-MM-DD), default today")

	topLevel.AddCommand(cmd)
}

var statusColors = map[store.Status]*color.Color{
	store.StatusInProgress: color.New(color.FgCyan),
	store.StatusWaiting:    color.New(color.FgYellow),
	store.StatusDone:       color.New(color.FgGreen),
}

func addList(topLevel *cobra.Command, ro *rootOptions) {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a day",
		Example: `
sidedock list
sidedock list --date 2026-03-09
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			day, err := resolveDate(a, date)
			if err != nil {
				return err
			}
			rec, err := a.Tasks.Day(day)
			if err != nil {
				return err
			}
			writeDay(cmd, rec)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list (YYYY-MM-DD), default today")

	topLevel.AddCommand(cmd)
}

func writeDay(cmd *cobra.Command, rec *store.DayRecord) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)

	if len(rec.Tasks) == 0 {
		fmt.Fprintf(out, "No tasks on %s\n", rec.Date)
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("STATUS"), bold.Sprint("PRI"), bold.Sprint("EST"), bold.Sprint("TITLE"), bold.Sprint("TAGS"))
	for _, s := range store.Statuses {
		for _, t := range tasks.Group(rec.Tasks, s) {
			title := t.Title
			if t.Pinned() {
				title = "* " + title
			}
			if n := len(t.Subtasks); n > 0 {
				done := 0
				for _, st := range t.Subtasks {
					if st.Done {
						done++
					}
				}
				title = fmt.Sprintf("%s [%d/%d]", title, done, n)
			}
			est := ""
			if t.EstimateMinutes != store.EstimateNone {
				est = fmt.Sprintf("%dm", t.EstimateMinutes)
			}
			tbl.AddRow(statusColors[s].Sprint(s), strings.Repeat("!", int(t.Priority)), est, title, strings.Join(t.Tags, " "))
		}
	}
	fmt.Fprintln(out, tbl)

	sum := tasks.Summarize(rec)
	fmt.Fprintf(out, "\n%s: %d open, %dm of %dm remaining\n", rec.Date, sum.Incomplete, sum.RemainingMinutes, sum.TotalMinutes)
}
