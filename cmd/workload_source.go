package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cpu-sim/cpu-sim/sim"
	"github.com/cpu-sim/cpu-sim/sim/workload"
)

// workloadFlags select the process list: a file or a generator spec.
type workloadFlags struct {
	path     string
	specPath string
	seed     int64
}

func (f *workloadFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.path, "workload", "", "Process list file (.csv, .json, .yaml, .yml)")
	fl.StringVar(&f.specPath, "generate", "", "Workload spec YAML for the synthetic generator")
	fl.Int64Var(&f.seed, "seed", 0, "Override the seed of the --generate spec")
}

// source describes the flags as a short label for reports and the archive.
func (f *workloadFlags) source() string {
	if f.path != "" {
		return f.path
	}
	return "generate:" + f.specPath
}

// load reads or generates the processes. The seed overrides the spec's only
// when the flag was set on cmd.
func (f *workloadFlags) load(cmd *cobra.Command) ([]*sim.Process, error) {
	var seed *int64
	if cmd.Flags().Changed("seed") {
		seed = &f.seed
	}
	return loadWorkload(f.path, f.specPath, seed)
}

func loadWorkload(path, specPath string, seed *int64) ([]*sim.Process, error) {
	switch {
	case path != "" && specPath != "":
		return nil, fmt.Errorf("--workload and --generate are mutually exclusive")
	case path != "":
		procs, err := workload.LoadFile(path)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Loaded %d processes from %s", len(procs), path)
		return procs, nil
	case specPath != "":
		spec, err := workload.LoadWorkloadSpec(specPath)
		if err != nil {
			return nil, err
		}
		if seed != nil {
			logrus.Infof("CLI --seed %d overrides workload spec seed %d", *seed, spec.Seed)
			spec.Seed = *seed
		}
		procs, err := workload.Generate(spec)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Generated %d processes from %s (seed %d)", len(procs), specPath, spec.Seed)
		return procs, nil
	default:
		return nil, fmt.Errorf("no workload given; set --workload or --generate")
	}
}
