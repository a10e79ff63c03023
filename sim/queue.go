// Implements the ReadyQueue, a FIFO of processes waiting for the CPU.
// Used by Round Robin and by each MLFQ level.

package sim

import (
	"fmt"
	"strings"
)

// ReadyQueue represents a FIFO queue of READY processes.
// A process appears at most once; Enqueue of a queued process is a no-op.
type ReadyQueue struct {
	queue  []*Process
	queued map[int]bool
}

// Enqueue adds a process to the back of the queue unless it is already queued.
// Returns false when the process was already present.
func (rq *ReadyQueue) Enqueue(p *Process) bool {
	if rq.queued == nil {
		rq.queued = make(map[int]bool)
	}
	if rq.queued[p.PID] {
		return false
	}
	rq.queue = append(rq.queue, p)
	rq.queued[p.PID] = true
	return true
}

func (rq *ReadyQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, p := range rq.queue {
		sb.WriteString(fmt.Sprint(p.PID))
		if i < len(rq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of processes in the queue.
func (rq *ReadyQueue) Len() int {
	return len(rq.queue)
}

// Contains reports whether the process with pid is queued.
func (rq *ReadyQueue) Contains(pid int) bool {
	return rq.queued[pid]
}

// Peek returns the process at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (rq *ReadyQueue) Peek() *Process {
	if len(rq.queue) == 0 {
		return nil
	}
	return rq.queue[0]
}

// Dequeue removes and returns the process at the front of the queue.
// Returns nil if the queue is empty.
func (rq *ReadyQueue) Dequeue() *Process {
	if len(rq.queue) == 0 {
		return nil
	}
	p := rq.queue[0]
	rq.queue = rq.queue[1:]
	delete(rq.queued, p.PID)
	return p
}

// Items returns the queue contents in FIFO order.
// The returned slice is the queue's internal storage; callers MUST NOT modify it.
func (rq *ReadyQueue) Items() []*Process {
	return rq.queue
}

// PIDs returns the queued process IDs in FIFO order.
func (rq *ReadyQueue) PIDs() []int {
	pids := make([]int, len(rq.queue))
	for i, p := range rq.queue {
		pids[i] = p.PID
	}
	return pids
}
