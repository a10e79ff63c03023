package server

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cpu-sim/cpu-sim/internal/store"
	"github.com/cpu-sim/cpu-sim/sim"
	"github.com/cpu-sim/cpu-sim/sim/trace"
)

// session is one live engine. mu serializes every engine access: an engine
// is single-threaded and is never stepped by two requests at once.
type session struct {
	mu        sync.Mutex
	id        string
	config    sim.PolicyConfig
	engine    *sim.Engine
	trace     *trace.SimulationTrace // nil unless requested at creation
	createdAt time.Time
	runID     string // archive ID, set once the finished run is saved
}

// sessionView is the JSON snapshot of a session.
type sessionView struct {
	ID         string              `json:"id"`
	Policy     string              `json:"policy"`
	Clock      int64               `json:"clock"`
	Completed  bool                `json:"completed"`
	CurrentPID *int                `json:"current_pid"`
	Processes  []sim.ProcessResult `json:"processes"`
	RunID      string              `json:"run_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// sessionSummary is the list-endpoint form of a session.
type sessionSummary struct {
	ID        string    `json:"id"`
	Policy    string    `json:"policy"`
	Clock     int64     `json:"clock"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// view must be called with sess.mu held.
func (sess *session) view() sessionView {
	v := sessionView{
		ID:        sess.id,
		Policy:    sess.config.Name,
		Clock:     sess.engine.Clock(),
		Completed: sess.engine.IsAllCompleted(),
		Processes: sim.NewProcessResults(sess.engine.Processes()),
		RunID:     sess.runID,
		CreatedAt: sess.createdAt,
	}
	if cur := sess.engine.Current(); cur != nil {
		pid := cur.PID
		v.CurrentPID = &pid
	}
	return v
}

// summary must be called with sess.mu held.
func (sess *session) summary() sessionSummary {
	return sessionSummary{
		ID:        sess.id,
		Policy:    sess.config.Name,
		Clock:     sess.engine.Clock(),
		Completed: sess.engine.IsAllCompleted(),
		CreatedAt: sess.createdAt,
	}
}

// archive saves the finished run once. It is a no-op without a store or
// before every process has terminated. Must be called with sess.mu held.
func (s *Server) archive(ctx context.Context, sess *session) error {
	if s.store == nil || sess.runID != "" || !sess.engine.IsAllCompleted() {
		return nil
	}
	run := store.NewRunRecord(sim.NewReport(sess.engine), "session "+sess.id)
	if err := s.store.SaveRun(ctx, run); err != nil {
		return err
	}
	sess.runID = run.ID
	s.log.WithFields(logrus.Fields{"session": sess.id, "run": run.ID}).Info("run archived")
	return nil
}

func (s *Server) lookup(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}
