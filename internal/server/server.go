// Package server exposes the portal's HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"linecheck/internal/service"
)

// Server is the portal HTTP server.
type Server struct {
	httpServer *http.Server
	identity   *service.IdentityService
	instances  *service.InstanceService
	checkouts  *service.CheckoutService
	batches    *service.BatchService
	lists      *service.ListViewService
	validate   *validator.Validate
}

// New creates a server listening on addr.
func New(addr string, identity *service.IdentityService, instances *service.InstanceService, checkouts *service.CheckoutService, batches *service.BatchService, lists *service.ListViewService) *Server {
	s := &Server{
		identity:  identity,
		instances: instances,
		checkouts: checkouts,
		batches:   batches,
		lists:     lists,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Post("/api/lists/{listID}/checkout", s.handleCheckout)
		r.Post("/api/lists/{listID}/checkin", s.handleCheckin)
		r.Post("/api/lists/{listID}/release", s.handleForceRelease)
		r.Post("/api/lists/{listID}/completions", s.handleApplyCompletions)
		r.Get("/api/lists/{listID}/tasks", s.handleListTasks)
		r.Get("/api/locations/{locationID}/lists", s.handleLocationLists)
		r.Post("/api/instances/{instanceID}/complete", s.handleCompleteInstance)
	})

	s.httpServer = &http.Server{Addr: addr, Handler: r}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	log.Printf("[info] portal listening on %s", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[warn] write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Checkout collisions carry the holder's id so the client can react.
func writeServiceError(w http.ResponseWriter, err error) {
	var locked *service.LockedError
	if errors.As(err, &locked) {
		status := http.StatusForbidden
		if errors.Is(err, service.ErrConflict) {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]any{
			"success":   false,
			"error":     locked.Error(),
			"locked_by": locked.LockedBy,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
