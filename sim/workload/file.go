package workload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cpu-sim/cpu-sim/sim"
)

// LoadJSON reads a JSON array of process records.
func LoadJSON(r io.Reader) ([]*sim.Process, error) {
	var records []Record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing JSON workload: %w", err)
	}
	return ToProcesses(records)
}

// WriteJSON writes procs as an indented JSON array of records.
func WriteJSON(w io.Writer, procs []*sim.Process) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fromProcesses(procs))
}

// LoadYAML reads a YAML sequence of process records.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadYAML(r io.Reader) ([]*sim.Process, error) {
	var records []Record
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing YAML workload: %w", err)
	}
	return ToProcesses(records)
}

// WriteYAML writes procs as a YAML sequence of records.
func WriteYAML(w io.Writer, procs []*sim.Process) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromProcesses(procs)); err != nil {
		return err
	}
	return enc.Close()
}

// LoadFile reads a process list, choosing the format by file extension:
// .csv, .json, .yaml or .yml.
func LoadFile(path string) ([]*sim.Process, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload %s: %w", path, err)
	}
	r := bytes.NewReader(data)
	var procs []*sim.Process
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		procs, err = LoadCSV(r)
	case ".json":
		procs, err = LoadJSON(r)
	case ".yaml", ".yml":
		procs, err = LoadYAML(r)
	default:
		return nil, fmt.Errorf("workload %s: unsupported extension %q; valid: .csv, .json, .yaml, .yml", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("workload %s: %w", path, err)
	}
	return procs, nil
}

// WriteFile writes procs to path in the format implied by its extension.
func WriteFile(path string, procs []*sim.Process) error {
	var buf bytes.Buffer
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		err = WriteCSV(&buf, procs)
	case ".json":
		err = WriteJSON(&buf, procs)
	case ".yaml", ".yml":
		err = WriteYAML(&buf, procs)
	default:
		return fmt.Errorf("workload %s: unsupported extension %q; valid: .csv, .json, .yaml, .yml", path, ext)
	}
	if err != nil {
		return fmt.Errorf("encoding workload %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
