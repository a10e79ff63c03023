// Package store archives finished simulation reports. A run can be listed and
// read back but never resumed: only the report is kept, not the engine.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cpu-sim/cpu-sim/sim"
)

// Store defines the persistence layer for archived runs.
type Store interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*RunRecord, int, error)
	DeleteRun(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// RunRecord is one archived simulation.
type RunRecord struct {
	ID        string     `json:"id"`
	Policy    string     `json:"policy"`
	Source    string     `json:"source"` // workload file, spec or API session the run came from
	CreatedAt time.Time  `json:"created_at"`
	Report    sim.Report `json:"report"`
}

// TotalTime returns the elapsed simulation time of the archived run.
func (r *RunRecord) TotalTime() int64 {
	return r.Report.Metrics.TotalTime
}

// NewRunRecord wraps a finished report with a fresh ID and timestamp.
func NewRunRecord(report sim.Report, source string) *RunRecord {
	return &RunRecord{
		ID:        "run_" + uuid.New().String(),
		Policy:    report.Policy,
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Report:    report,
	}
}

// ListOptions controls pagination and filtering for ListRuns.
type ListOptions struct {
	Limit  int
	Offset int
	Policy string // Optional policy filter
}

// DefaultListOptions returns sensible defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: 20, Offset: 0}
}

// Clamp enforces bounds on Limit and Offset.
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
