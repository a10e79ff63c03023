package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cpu-sim/cpu-sim/sim"
)

// CSVHeader is the column order written by WriteCSV. LoadCSV matches columns
// by header name, so any order is accepted and period/deadline are optional.
var CSVHeader = []string{"pid", "arrival_time", "burst_time", "priority", "io_start", "io_duration", "period", "deadline"}

var requiredCSVColumns = []string{"pid", "arrival_time", "burst_time"}

// LoadCSV reads a process list with a header row. Empty priority means 0.
// io_start and io_duration hold one I/O operation, or several separated by ';'.
func LoadCSV(r io.Reader) ([]*sim.Process, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredCSVColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV header: missing required column %s", name)
		}
	}

	var records []Record
	rowIdx := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", rowIdx, err)
		}
		rec, err := parseCSVRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", rowIdx, err)
		}
		records = append(records, rec)
		rowIdx++
	}
	return ToProcesses(records)
}

func parseCSVRow(row []string, cols map[string]int) (Record, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec Record
	for _, name := range requiredCSVColumns {
		if field(name) == "" {
			return rec, fmt.Errorf("missing required field %s", name)
		}
	}
	pid, err := strconv.Atoi(field("pid"))
	if err != nil {
		return rec, fmt.Errorf("invalid pid %q: %w", field("pid"), err)
	}
	rec.PID = &pid
	if rec.ArrivalTime, err = parseOptInt64("arrival_time", field("arrival_time")); err != nil {
		return rec, err
	}
	if rec.BurstTime, err = parseOptInt64("burst_time", field("burst_time")); err != nil {
		return rec, err
	}
	if s := field("priority"); s != "" {
		if rec.Priority, err = strconv.Atoi(s); err != nil {
			return rec, fmt.Errorf("invalid priority %q: %w", s, err)
		}
	}
	if rec.Period, err = parseOptInt64("period", field("period")); err != nil {
		return rec, err
	}
	if rec.Deadline, err = parseOptInt64("deadline", field("deadline")); err != nil {
		return rec, err
	}
	rec.IOOperations, err = parseCSVIO(field("io_start"), field("io_duration"))
	return rec, err
}

func parseOptInt64(name, s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return &v, nil
}

func parseCSVIO(starts, durations string) ([]sim.IOOperation, error) {
	if starts == "" && durations == "" {
		return nil, nil
	}
	ss, ds := strings.Split(starts, ";"), strings.Split(durations, ";")
	if len(ss) != len(ds) || starts == "" || durations == "" {
		return nil, fmt.Errorf("io_start %q and io_duration %q must pair up", starts, durations)
	}
	ops := make([]sim.IOOperation, 0, len(ss))
	for i := range ss {
		start, err := strconv.ParseInt(strings.TrimSpace(ss[i]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid io_start %q: %w", ss[i], err)
		}
		dur, err := strconv.ParseInt(strings.TrimSpace(ds[i]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid io_duration %q: %w", ds[i], err)
		}
		ops = append(ops, sim.IOOperation{StartOffset: start, Duration: dur})
	}
	return ops, nil
}

// WriteCSV writes procs with CSVHeader.
func WriteCSV(w io.Writer, procs []*sim.Process) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, p := range procs {
		starts := make([]string, 0, len(p.IOOperations))
		durs := make([]string, 0, len(p.IOOperations))
		for _, op := range p.IOOperations {
			starts = append(starts, strconv.FormatInt(op.StartOffset, 10))
			durs = append(durs, strconv.FormatInt(op.Duration, 10))
		}
		row := []string{
			strconv.Itoa(p.PID),
			strconv.FormatInt(p.ArrivalTime, 10),
			strconv.FormatInt(p.BurstTime, 10),
			strconv.Itoa(p.Priority),
			strings.Join(starts, ";"),
			strings.Join(durs, ";"),
			formatOptInt64(p.Period),
			formatOptInt64(p.Deadline),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatOptInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
