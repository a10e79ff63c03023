package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cpu-sim/cpu-sim/internal/store"
	"github.com/cpu-sim/cpu-sim/sim"
	"github.com/cpu-sim/cpu-sim/sim/trace"
)

// runOptions is everything runSimulation needs once flags are resolved.
type runOptions struct {
	Config   sim.PolicyConfig
	MaxTicks int64
	Source   string
	Format   string // text or json
	Gantt    bool
	Trace    bool
	DBPath   string // archive the report when set
}

// runOutput is the JSON form of a run.
type runOutput struct {
	Report sim.Report          `json:"report"`
	Trace  *trace.TraceSummary `json:"trace,omitempty"`
	RunID  string              `json:"run_id,omitempty"`
}

var (
	runPolicy    string
	runFormat    string
	runGantt     bool
	runTrace     bool
	runDBPath    string
	runPolicyCfg policyFlags
	runWorkload  workloadFlags
)

// runCmd executes one simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scheduling simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, maxTicks, err := runPolicyCfg.resolve(cmd, runPolicy)
		if err != nil {
			logrus.Fatalf("Invalid policy configuration: %v", err)
		}
		procs, err := runWorkload.load(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load workload: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		startTime := time.Now()
		err = runSimulation(ctx, procs, runOptions{
			Config:   cfg,
			MaxTicks: maxTicks,
			Source:   runWorkload.source(),
			Format:   runFormat,
			Gantt:    runGantt,
			Trace:    runTrace,
			DBPath:   runDBPath,
		}, os.Stdout)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %s", time.Since(startTime))
	},
}

// runSimulation runs procs under opts.Config and writes the report to w.
func runSimulation(ctx context.Context, procs []*sim.Process, opts runOptions, w io.Writer) error {
	if opts.Format != "text" && opts.Format != "json" {
		return fmt.Errorf("unknown format %q; valid: text, json", opts.Format)
	}
	policy, err := sim.NewPolicy(opts.Config)
	if err != nil {
		return err
	}
	engineOpts := engineOptions(opts.MaxTicks)
	var st *trace.SimulationTrace
	if opts.Trace {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
		engineOpts = append(engineOpts, sim.WithTrace(st))
	}

	e := sim.NewEngine(policy, engineOpts...)
	if err := e.AddAll(procs...); err != nil {
		return err
	}
	if err := e.RunContext(ctx); err != nil {
		return err
	}

	out := runOutput{Report: sim.NewReport(e)}
	if opts.Trace {
		out.Trace = trace.Summarize(st)
	}
	if opts.DBPath != "" {
		if out.RunID, err = archiveReport(ctx, opts.DBPath, out.Report, opts.Source); err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if err := out.Report.WriteText(w); err != nil {
		return err
	}
	if opts.Gantt {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := sim.WriteGantt(w, out.Report.Timeline); err != nil {
			return err
		}
	}
	if out.Trace != nil {
		if err := writeTraceSummary(w, out.Trace); err != nil {
			return err
		}
	}
	if out.RunID != "" {
		_, err = fmt.Fprintf(w, "\nArchived as %s\n", out.RunID)
	}
	return err
}

// archiveReport saves a finished report and returns its run ID.
func archiveReport(ctx context.Context, dbPath string, report sim.Report, source string) (string, error) {
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()
	run := store.NewRunRecord(report, source)
	if err := st.SaveRun(ctx, run); err != nil {
		return "", fmt.Errorf("archive run: %w", err)
	}
	logrus.Infof("Archived run %s in %s", run.ID, dbPath)
	return run.ID, nil
}

func writeTraceSummary(w io.Writer, s *trace.TraceSummary) error {
	_, err := fmt.Fprintf(w, "\nDecision trace\n"+
		"Dispatches           : %d\n"+
		"Preemptions          : %d\n"+
		"Demotions            : %d (deepest level %d)\n"+
		"I/O blocks           : %d\n"+
		"Completions          : %d\n",
		s.TotalDispatches, s.TotalPreemptions, s.TotalDemotions, s.MaxLevel, s.TotalIOBlocks, s.Completions)
	if err != nil {
		return err
	}
	reasons := make([]string, 0, len(s.PreemptionsByReason))
	for reason := range s.PreemptionsByReason {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		if _, err := fmt.Fprintf(w, "  preempted (%s): %d\n", reason, s.PreemptionsByReason[reason]); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "Scheduling policy (fcfs, sjf, rr, priority, mlfq, rm, edf)")
	runCmd.Flags().StringVar(&runFormat, "format", "text", "Output format (text, json)")
	runCmd.Flags().BoolVar(&runGantt, "gantt", false, "Print a Gantt chart of the CPU timeline")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "Record scheduling decisions and print a summary")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "Archive the report in this SQLite database")
	runPolicyCfg.register(runCmd)
	runWorkload.register(runCmd)

	rootCmd.AddCommand(runCmd)
}
