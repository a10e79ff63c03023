package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cpu-sim/cpu-sim/sim"
	"github.com/cpu-sim/cpu-sim/sim/trace"
	"github.com/cpu-sim/cpu-sim/sim/workload"
)

// createSimulationRequest is the body of POST /simulations. Policy parameters
// left unset take their defaults.
type createSimulationRequest struct {
	Policy               string            `json:"policy"`
	TimeQuantum          *int64            `json:"time_quantum,omitempty"`
	NumQueues            *int              `json:"num_queues,omitempty"`
	BaseQuantum          *int64            `json:"base_quantum,omitempty"`
	ContextSwitchPenalty *int64            `json:"context_switch_penalty,omitempty"`
	Preemptive           *bool             `json:"preemptive,omitempty"`
	Trace                bool              `json:"trace,omitempty"`
	Processes            []workload.Record `json:"processes"`
}

func (req *createSimulationRequest) bundle() *sim.PolicyBundle {
	return &sim.PolicyBundle{
		Policy:               req.Policy,
		TimeQuantum:          req.TimeQuantum,
		NumQueues:            req.NumQueues,
		BaseQuantum:          req.BaseQuantum,
		ContextSwitchPenalty: req.ContextSwitchPenalty,
		Preemptive:           req.Preemptive,
	}
}

type runResponse struct {
	Report sim.Report `json:"report"`
	RunID  string     `json:"run_id,omitempty"`
}

func (s *Server) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req createSimulationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Policy == "" {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "policy is required")
		return
	}
	bundle := req.bundle()
	if err := bundle.Validate(); err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, err.Error())
		return
	}
	if len(req.Processes) == 0 {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "processes must not be empty")
		return
	}
	procs, err := workload.ToProcesses(req.Processes)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, err.Error())
		return
	}

	cfg := bundle.ToPolicyConfig()
	policy, err := sim.NewPolicy(cfg)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, err.Error())
		return
	}
	var opts []sim.Option
	if s.maxTicks > 0 {
		opts = append(opts, sim.WithMaxTicks(s.maxTicks))
	}
	var st *trace.SimulationTrace
	if req.Trace {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
		opts = append(opts, sim.WithTrace(st))
	}
	e := sim.NewEngine(policy, opts...)
	for _, p := range procs {
		if err := e.Add(p, sim.RegistrationArgs{}); err != nil {
			respondError(w, reqID, http.StatusBadRequest, ErrValidation, fmt.Sprintf("pid %d: %v", p.PID, err))
			return
		}
	}

	sess := &session{
		id:        "sim_" + uuid.New().String(),
		config:    cfg,
		engine:    e,
		trace:     st,
		createdAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.log.WithField("session", sess.id).Infof("simulation created: %s with %d processes", cfg.Name, len(procs))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	respondCreated(w, reqID, sess.view())
}

func (s *Server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		out = append(out, sess.summary())
		sess.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	respondList(w, reqID, out, &Pagination{Total: len(out), Limit: len(out)})
}

// withSession resolves {id} and runs fn with the session locked.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(reqID string, sess *session)) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	sess := s.lookup(id)
	if sess == nil {
		respondError(w, reqID, http.StatusNotFound, ErrNotFound, fmt.Sprintf("simulation %q not found", id))
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(reqID, sess)
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(reqID string, sess *session) {
		respondOK(w, reqID, sess.view())
	})
}

func (s *Server) handleDeleteSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		respondError(w, reqID, http.StatusNotFound, ErrNotFound, fmt.Sprintf("simulation %q not found", id))
		return
	}
	respondOK(w, reqID, map[string]any{"deleted": true})
}

// handleStepSimulation advances up to n ticks (default 1), stopping early
// when every process has terminated.
func (s *Server) handleStepSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > s.maxSteps {
			respondError(w, reqID, http.StatusBadRequest, ErrValidation,
				fmt.Sprintf("n must be an integer in [1, %d], got %q", s.maxSteps, raw))
			return
		}
		n = v
	}

	s.withSession(w, r, func(reqID string, sess *session) {
		for i := 0; i < n; i++ {
			if s.maxTicks > 0 && sess.engine.Clock() >= s.maxTicks && !sess.engine.IsAllCompleted() {
				respondError(w, reqID, http.StatusConflict, ErrConflict,
					fmt.Sprintf("simulation reached the %d tick limit", s.maxTicks))
				return
			}
			more, err := sess.engine.Step()
			if err != nil {
				respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
				return
			}
			if !more {
				break
			}
		}
		if err := s.archive(r.Context(), sess); err != nil {
			respondError(w, reqID, http.StatusInternalServerError, ErrInternal, "archive run: "+err.Error())
			return
		}
		respondOK(w, reqID, sess.view())
	})
}

func (s *Server) handleRunSimulation(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(reqID string, sess *session) {
		if err := sess.engine.RunContext(r.Context()); err != nil {
			var cfgErr *sim.ConfigurationError
			if errors.As(err, &cfgErr) {
				respondError(w, reqID, http.StatusConflict, ErrConflict, err.Error())
				return
			}
			respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
			return
		}
		if err := s.archive(r.Context(), sess); err != nil {
			respondError(w, reqID, http.StatusInternalServerError, ErrInternal, "archive run: "+err.Error())
			return
		}
		respondOK(w, reqID, runResponse{Report: sim.NewReport(sess.engine), RunID: sess.runID})
	})
}

func (s *Server) handleSimulationMetrics(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(reqID string, sess *session) {
		respondOK(w, reqID, sim.CalculateMetrics(sess.engine.Processes(), sess.engine.Clock()))
	})
}

func (s *Server) handleSimulationTrace(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(reqID string, sess *session) {
		if sess.trace == nil {
			respondError(w, reqID, http.StatusNotFound, ErrNotFound, "tracing was not enabled for this simulation")
			return
		}
		respondOK(w, reqID, trace.Summarize(sess.trace))
	})
}
