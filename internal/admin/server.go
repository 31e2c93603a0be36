// Package admin exposes the administration surface and the host
// integration endpoint over HTTP.
//
// The admin endpoints mutate the rule store through the validator;
// none of them touch resolver logic. Every mutating endpoint is
// capability-gated and additionally requires a valid anti-forgery
// nonce issued by GET /admin/nonce. The core trusts the resulting
// authorization facts; it performs no authentication of its own.
package admin

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/templatefall/templatefall/internal/resolver"
	"github.com/templatefall/templatefall/internal/store"
	"github.com/templatefall/templatefall/internal/validate"
)

// Server wires the store, validator directory, resolver, and
// authorizer behind the HTTP transport.
type Server struct {
	store     *store.Store
	directory validate.Directory
	resolver  *resolver.Resolver
	auth      *Authorizer
	logger    *slog.Logger

	startTime time.Time
	ready     atomic.Bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the request logger. Defaults to slog.Default().
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the admin server.
func NewServer(st *store.Store, dir validate.Directory, res *resolver.Resolver, auth *Authorizer, opts ...ServerOption) *Server {
	s := &Server{
		store:     st,
		directory: dir,
		resolver:  res,
		auth:      auth,
		logger:    slog.Default(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ready.Store(true)
	return s
}

// SetReady marks the service as ready (or not ready) to accept
// traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// Host integration: read-only resolution for out-of-process hosts.
	r.Post("/resolve", s.handleResolve)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireCapability(CapabilityManageRules))

		r.Get("/nonce", s.handleNonce)
		r.Get("/rules", s.handleListRules)
		r.Get("/settings", s.handleGetSettings)

		// Mutations additionally require an anti-forgery nonce.
		r.Group(func(r chi.Router) {
			r.Use(s.requireNonce)

			r.Post("/rules/add", s.handleAddRule)
			r.Post("/rules/delete", s.handleDeleteRule)
			r.Post("/rules/update", s.handleUpdateRules)
			r.Post("/rules/reset", s.handleResetRules)
			r.Post("/settings", s.handleUpdateSettings)
			r.Post("/teardown", s.handleTeardown)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeData(w, map[string]string{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Success: false,
			Error:   &errorBody{Code: "NOT_READY", Message: "service not ready"},
		})
		return
	}
	writeData(w, map[string]string{"status": "ready"})
}
