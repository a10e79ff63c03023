package workload

import (
	"fmt"

	"github.com/cpu-sim/cpu-sim/sim"
)

// Record is the serialized shape of one process in JSON and YAML workload
// files. Pointer fields distinguish "absent" from zero so required fields can
// be checked.
type Record struct {
	PID          *int              `json:"pid" yaml:"pid"`
	ArrivalTime  *int64            `json:"arrival_time" yaml:"arrival_time"`
	BurstTime    *int64            `json:"burst_time" yaml:"burst_time"`
	Priority     int               `json:"priority,omitempty" yaml:"priority,omitempty"`
	Period       *int64            `json:"period,omitempty" yaml:"period,omitempty"`
	Deadline     *int64            `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	IOOperations []sim.IOOperation `json:"io_operations,omitempty" yaml:"io_operations,omitempty"`
}

// ToProcess validates required fields and builds a NEW process.
// idx is the record's position, used in error messages.
func (r Record) ToProcess(idx int) (*sim.Process, error) {
	switch {
	case r.PID == nil:
		return nil, fmt.Errorf("record %d: missing required field pid", idx)
	case r.ArrivalTime == nil:
		return nil, fmt.Errorf("record %d: missing required field arrival_time", idx)
	case r.BurstTime == nil:
		return nil, fmt.Errorf("record %d: missing required field burst_time", idx)
	}
	p := sim.NewProcess(*r.PID, *r.ArrivalTime, *r.BurstTime, r.Priority)
	if r.Period != nil {
		p.WithPeriod(*r.Period)
	}
	if r.Deadline != nil {
		p.WithDeadline(*r.Deadline)
	}
	if len(r.IOOperations) > 0 {
		p.WithIO(r.IOOperations...)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("record %d: %w", idx, err)
	}
	return p, nil
}

// FromProcess captures the static parameters of p. Runtime state is dropped.
func FromProcess(p *sim.Process) Record {
	pid, arrival, burst := p.PID, p.ArrivalTime, p.BurstTime
	r := Record{
		PID:         &pid,
		ArrivalTime: &arrival,
		BurstTime:   &burst,
		Priority:    p.Priority,
	}
	if p.Period != nil {
		v := *p.Period
		r.Period = &v
	}
	if p.Deadline != nil {
		v := *p.Deadline
		r.Deadline = &v
	}
	if len(p.IOOperations) > 0 {
		r.IOOperations = append([]sim.IOOperation{}, p.IOOperations...)
	}
	return r
}

// ToProcesses converts records in order and rejects duplicate PIDs.
func ToProcesses(records []Record) ([]*sim.Process, error) {
	procs := make([]*sim.Process, 0, len(records))
	seen := make(map[int]bool, len(records))
	for i, r := range records {
		p, err := r.ToProcess(i)
		if err != nil {
			return nil, err
		}
		if seen[p.PID] {
			return nil, fmt.Errorf("record %d: duplicate pid %d", i, p.PID)
		}
		seen[p.PID] = true
		procs = append(procs, p)
	}
	return procs, nil
}

func fromProcesses(procs []*sim.Process) []Record {
	records := make([]Record, 0, len(procs))
	for _, p := range procs {
		records = append(records, FromProcess(p))
	}
	return records
}
