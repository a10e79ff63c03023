// Package server exposes simulation sessions over a JSON HTTP API.
//
// A session owns one engine. Clients create it with a policy and a process
// list, advance it tick by tick or run it to completion, and read snapshots.
// Finished runs are archived when the server has a store.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/cpu-sim/cpu-sim/internal/store"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Server is the simulation API server.
type Server struct {
	router    chi.Router
	log       *logrus.Entry
	startTime time.Time
	store     store.Store // optional; nil disables the run archive
	maxTicks  int64       // per-session tick ceiling; 0 keeps the engine default
	maxSteps  int         // upper bound for ?n= on the step endpoint

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithStore enables archiving of finished runs and the /runs endpoints.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithMaxTicks caps the simulated time of every session.
func WithMaxTicks(n int64) Option {
	return func(s *Server) {
		s.maxTicks = n
	}
}

// New creates a Server with all routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       logrus.WithField("component", "server"),
		startTime: time.Now(),
		maxSteps:  10000,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/simulations", func(r chi.Router) {
		r.Get("/", s.handleListSimulations)
		r.Post("/", s.handleCreateSimulation)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSimulation)
			r.Delete("/", s.handleDeleteSimulation)
			r.Post("/step", s.handleStepSimulation)
			r.Post("/run", s.handleRunSimulation)
			r.Get("/metrics", s.handleSimulationMetrics)
			r.Get("/trace", s.handleSimulationTrace)
		})
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRun)
			r.Delete("/", s.handleDeleteRun)
		})
	})
}
