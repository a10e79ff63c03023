// Package sim provides the core discrete-time CPU scheduling engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - process.go: Process lifecycle (NEW → READY → RUNNING → WAITING/TERMINATED) and state machine
//   - scheduler.go: the Policy interface, the NewPolicy factory, FCFS and SJF
//   - simulator.go: the Engine and its one-tick step loop
//
// # Architecture
//
// The Engine owns the clock, the registered processes and the running
// process. Each tick it admits arrivals and finished I/O, asks the Policy
// which process runs, executes it for one unit, and charges waiting time to
// every READY process. Policies keep their own auxiliary state (ready queues,
// level maps, deadline tables) and hook into the loop through OnReady,
// OnDispatch, OnExecuted, OnBlocked and OnComplete.
//
// Sub-packages:
//   - sim/trace/: Decision trace recording
//   - sim/workload/: CSV/JSON/YAML process lists and the seeded generator
//
// # Key Interfaces
//   - Policy: per-tick selection and preemption
//   - ProcessOrderer: policies that keep the engine's process list sorted
//   - Schedulable: utilization-bound check for real-time policies
//
// Metrics are derived afterwards by CalculateMetrics, a pure function over the
// process list and the final clock.
package sim
