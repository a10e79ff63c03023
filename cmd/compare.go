package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cpu-sim/cpu-sim/sim"
)

var (
	comparePolicies  []string
	compareFormat    string
	comparePolicyCfg policyFlags
	compareWorkload  workloadFlags
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run one workload under several policies side by side",
	Long:  "Run the same process list under every listed policy, each on its own copy, and print one row of metrics per policy.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(comparePolicies) == 0 {
			logrus.Fatalf("at least one policy is required")
		}
		cfgs := make([]sim.PolicyConfig, 0, len(comparePolicies))
		var maxTicks int64
		for _, name := range comparePolicies {
			cfg, limit, err := comparePolicyCfg.resolve(cmd, strings.TrimSpace(name))
			if err != nil {
				logrus.Fatalf("Invalid policy configuration: %v", err)
			}
			cfgs = append(cfgs, cfg)
			maxTicks = limit
		}
		procs, err := compareWorkload.load(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load workload: %v", err)
		}
		if err := comparePolicyRuns(cmd.Context(), procs, cfgs, maxTicks, compareFormat, os.Stdout); err != nil {
			logrus.Fatalf("Comparison failed: %v", err)
		}
	},
}

// comparePolicyRuns runs every configuration and writes the comparison to w.
func comparePolicyRuns(ctx context.Context, procs []*sim.Process, cfgs []sim.PolicyConfig, maxTicks int64, format string, w io.Writer) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q; valid: text, json", format)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := sim.Compare(ctx, procs, cfgs, nil, engineOptions(maxTicks)...)
	if err != nil {
		return err
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	sim.WriteComparison(w, results)
	return nil
}

func init() {
	compareCmd.Flags().StringSliceVar(&comparePolicies, "policies",
		[]string{sim.PolicyFCFS, sim.PolicySJF, sim.PolicyRoundRobin, sim.PolicyPriority, sim.PolicyMLFQ},
		"Comma-separated policies to compare")
	compareCmd.Flags().StringVar(&compareFormat, "format", "text", "Output format (text, json)")
	comparePolicyCfg.register(compareCmd)
	compareWorkload.register(compareCmd)

	rootCmd.AddCommand(compareCmd)
}
