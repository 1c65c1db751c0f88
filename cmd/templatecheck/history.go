package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/artpar/templatecheck/internal/shell/report"
	"github.com/artpar/templatecheck/internal/shell/store"
)

// =============================================================================
// history
// =============================================================================

func newHistoryCmd(load configLoader) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			_, s, err := openHistory(c, load, args)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(c.Context(), limit)
			if err != nil {
				return &CommandError{Op: "list runs", Err: err, ExitCode: ExitStoreError}
			}
			return writeRuns(c.OutOrStdout(), runs)
		},
	}
	cmd.PersistentFlags().String("history-dsn", "", "SQLite database runs are recorded in")
	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "Maximum number of runs to list")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, s, err := openHistory(c, load, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			rep, err := s.GetRun(c.Context(), args[0])
			if err != nil {
				return &CommandError{Op: "show run", Err: err, ExitCode: ExitStoreError}
			}
			if err := report.Write(c.OutOrStdout(), cfg.Report.Format, rep); err != nil {
				return &CommandError{Op: "write report", Err: err, ExitCode: ExitConfigError}
			}
			return nil
		},
	}
	show.Flags().String("format", report.FormatText, "Report format: text|json|yaml")

	cmd.AddCommand(show)
	return cmd
}

func openHistory(c *cobra.Command, load configLoader, args []string) (*Config, *store.SQLiteStore, error) {
	cfg, err := load(c, args)
	if err != nil {
		return nil, nil, err
	}
	if cfg.History.DSN == "" {
		err := domain.NewConfigError("history.dsn", "is required (set --history-dsn or "+envName("history.dsn")+")")
		return nil, nil, &CommandError{Op: "open history", Err: err, ExitCode: ExitConfigError}
	}
	s, err := store.NewSQLiteStore(cfg.History.DSN)
	if err != nil {
		return nil, nil, &CommandError{Op: "open history", Err: err, ExitCode: ExitStoreError}
	}
	return cfg, s, nil
}

func writeRuns(w io.Writer, runs []store.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no recorded runs")
		return err
	}

	re := lipgloss.NewRenderer(w)
	header := re.NewStyle().Bold(true).Padding(0, 1)
	cell := re.NewStyle().Padding(0, 1)
	failed := re.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("1"))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Faint(true)).
		Headers("RUN", "STARTED", "ROOT", "BUNDLES", "PASSED", "FAILED", "DURATION").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 5 && row >= 0 && row < len(runs) && runs[row].Failed > 0:
				return failed
			default:
				return cell
			}
		})

	for _, r := range runs {
		t.Row(
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Root,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Passed),
			strconv.Itoa(r.Failed),
			r.Duration().Round(10*time.Millisecond).String(),
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
