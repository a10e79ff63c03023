package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cpu-sim/cpu-sim/internal/store"
)

// requireStore responds 503 and returns false when archiving is disabled.
func (s *Server) requireStore(w http.ResponseWriter, reqID string) bool {
	if s.store == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, ErrUnavailable, "run archive is disabled; start the server with --db")
		return false
	}
	return true
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}

	opts := store.DefaultListOptions()
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, ErrValidation, fmt.Sprintf("invalid %s %q", name, raw))
			return
		}
		*dst = v
	}
	opts.Policy = q.Get("policy")
	opts.Clamp()

	runs, total, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
		return
	}
	if runs == nil {
		runs = []*store.RunRecord{}
	}
	respondList(w, reqID, runs, &Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, ErrNotFound, fmt.Sprintf("run %q not found", id))
		return
	}
	respondOK(w, reqID, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, reqID, http.StatusNotFound, ErrNotFound, fmt.Sprintf("run %q not found", id))
			return
		}
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
		return
	}
	respondOK(w, reqID, map[string]any{"deleted": true})
}
