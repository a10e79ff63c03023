package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cpu-sim/cpu-sim/internal/store"
	"github.com/cpu-sim/cpu-sim/sim"
)

// historyOptions selects what showHistory prints.
type historyOptions struct {
	DBPath string
	RunID  string // one run in full; all runs when empty
	Policy string
	Limit  int
	Offset int
	Format string
}

var historyOpts historyOptions

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or show archived runs",
	Run: func(cmd *cobra.Command, args []string) {
		if err := showHistory(cmd.Context(), historyOpts, os.Stdout); err != nil {
			logrus.Fatalf("history: %v", err)
		}
	},
}

func showHistory(ctx context.Context, opts historyOptions, w io.Writer) error {
	if opts.Format != "text" && opts.Format != "json" {
		return fmt.Errorf("unknown format %q; valid: text, json", opts.Format)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %q not found", opts.RunID)
		}
		if opts.Format == "json" {
			return writeIndentedJSON(w, run)
		}
		if _, err := fmt.Fprintf(w, "Run %s (%s, %s)\n\n", run.ID, run.Source, run.CreatedAt.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
		return run.Report.WriteText(w)
	}

	listOpts := store.ListOptions{Limit: opts.Limit, Offset: opts.Offset, Policy: opts.Policy}
	listOpts.Clamp()
	runs, total, err := st.ListRuns(ctx, listOpts)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return writeIndentedJSON(w, runs)
	}
	writeRunTable(w, runs)
	_, err = fmt.Fprintf(w, "%d of %d runs\n", len(runs), total)
	return err
}

func writeRunTable(w io.Writer, runs []*store.RunRecord) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		m := run.Report.Metrics
		rows = append(rows, []string{
			run.ID,
			sim.PolicyDisplayName(run.Policy),
			run.Source,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprint(run.TotalTime()),
			fmt.Sprintf("%.2f", m.AvgWaitingTime),
			fmt.Sprintf("%.2f", m.AvgTurnaroundTime),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Policy", "Source", "Created", "Total Time", "Avg Wait", "Avg Turnaround"})
	table.AppendBulk(rows)
	table.Render()
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	historyCmd.Flags().StringVar(&historyOpts.DBPath, "db", "", "SQLite database holding the run archive")
	historyCmd.Flags().StringVar(&historyOpts.RunID, "id", "", "Show one run in full")
	historyCmd.Flags().StringVar(&historyOpts.Policy, "policy", "", "Only list runs of this policy")
	historyCmd.Flags().IntVar(&historyOpts.Limit, "limit", 20, "Maximum runs to list (at most 100)")
	historyCmd.Flags().IntVar(&historyOpts.Offset, "offset", 0, "Runs to skip")
	historyCmd.Flags().StringVar(&historyOpts.Format, "format", "text", "Output format (text, json)")
	_ = historyCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(historyCmd)
}
