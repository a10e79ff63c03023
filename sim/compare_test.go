package sim

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpu-sim/cpu-sim/sim/internal/testutil"
)

func TestCompare_RunsEveryPolicyOnItsOwnCopy(t *testing.T) {
	// GIVEN a process set and three policies
	procs := []*Process{NewProcess(1, 0, 6, 2), NewProcess(2, 1, 2, 0), NewProcess(3, 2, 1, 1)}
	cfgs := []PolicyConfig{
		DefaultPolicyConfig(PolicyFCFS),
		DefaultPolicyConfig(PolicySJF),
		DefaultPolicyConfig(PolicyRoundRobin),
	}

	// WHEN compared
	results, err := Compare(context.Background(), procs, cfgs, nil)

	// THEN one result per policy comes back in order and the inputs stay NEW
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, cfgs[i].Name, r.Report.Policy)
		assert.Equal(t, 3, r.Report.Metrics.CompletedProcesses)
	}
	for _, p := range procs {
		assert.Equal(t, StateNew, p.State)
		assert.Equal(t, p.BurstTime, p.RemainingTime)
		assert.Nil(t, p.CompletionTime)
	}
	assert.Less(t, results[1].Report.Metrics.AvgWaitingTime, results[0].Report.Metrics.AvgWaitingTime,
		"SJF beats FCFS when a long job arrives first")
}

func TestCompare_RealtimeArguments(t *testing.T) {
	procs := []*Process{NewProcess(1, 0, 2, 0), NewProcess(2, 0, 1, 0)}
	args := map[int]RegistrationArgs{
		1: {Period: testutil.Int64Ptr(8), Deadline: testutil.Int64Ptr(8)},
		2: {Period: testutil.Int64Ptr(4), Deadline: testutil.Int64Ptr(4)},
	}
	results, err := Compare(context.Background(), procs,
		[]PolicyConfig{DefaultPolicyConfig(PolicyRateMonotonic), DefaultPolicyConfig(PolicyEDF)}, args)

	require.NoError(t, err)
	for _, r := range results {
		require.NotNil(t, r.Report.Schedulable)
		assert.True(t, *r.Report.Schedulable)
		require.NotNil(t, r.Report.DeadlineMisses)
		assert.Equal(t, 0, *r.Report.DeadlineMisses)
	}
	assert.Nil(t, procs[0].Period, "registration arguments apply to the copies")
}

func TestCompare_Errors(t *testing.T) {
	procs := []*Process{NewProcess(1, 0, 2, 0)}

	_, err := Compare(context.Background(), procs, nil, nil)
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = Compare(context.Background(), procs, []PolicyConfig{{Name: "lottery"}}, nil)
	var argErr *InvalidArgumentError
	assert.True(t, errors.As(err, &argErr))

	_, err = Compare(context.Background(), procs, []PolicyConfig{DefaultPolicyConfig(PolicyEDF)}, nil)
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "deadline", argErr.Field)
}

func TestWriteComparison(t *testing.T) {
	results, err := Compare(context.Background(), []*Process{NewProcess(1, 0, 2, 0)},
		[]PolicyConfig{DefaultPolicyConfig(PolicyFCFS), DefaultPolicyConfig(PolicyMLFQ)}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteComparison(&buf, results)

	out := buf.String()
	assert.Contains(t, out, "First-Come-First-Served")
	assert.Contains(t, out, "Multi-Level Feedback Queue")
	assert.Contains(t, out, "100.00%")
}
