package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/service"

	"github.com/rs/zerolog"
)

// Server exposes the business tier over HTTP. It trusts the gateway for
// request validation and only re-checks what it needs for correctness.
type Server struct {
	cfg      config.ServerConfig
	users    *service.UserService
	items    *service.ItemService
	bookings *service.BookingService
	requests *service.RequestService
	log      zerolog.Logger
	server   *http.Server
}

func NewServer(cfg config.ServerConfig, users *service.UserService, items *service.ItemService, bookings *service.BookingService, requests *service.RequestService, logger *zerolog.Logger) *Server {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "http-server").Logger()
	}

	s := &Server{
		cfg:      cfg,
		users:    users,
		items:    items,
		bookings: bookings,
		requests: requests,
		log:      log,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           withMiddleware(mux, "server", log),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("GET /users", s.listUsers)
	mux.HandleFunc("GET /users/{id}", s.getUser)
	mux.HandleFunc("PATCH /users/{id}", s.updateUser)
	mux.HandleFunc("DELETE /users/{id}", s.deleteUser)

	mux.HandleFunc("POST /items", s.createItem)
	mux.HandleFunc("GET /items", s.listOwnerItems)
	mux.HandleFunc("GET /items/search", s.searchItems)
	mux.HandleFunc("GET /items/{id}", s.getItem)
	mux.HandleFunc("PATCH /items/{id}", s.updateItem)
	mux.HandleFunc("DELETE /items/{id}", s.deleteItem)
	mux.HandleFunc("POST /items/{id}/comment", s.addComment)

	mux.HandleFunc("POST /bookings", s.createBooking)
	mux.HandleFunc("GET /bookings", s.listBookerBookings)
	mux.HandleFunc("GET /bookings/owner", s.listOwnerBookings)
	mux.HandleFunc("GET /bookings/owner/export", s.exportOwnerBookings)
	mux.HandleFunc("GET /bookings/{id}", s.getBooking)
	mux.HandleFunc("PATCH /bookings/{id}", s.approveBooking)

	mux.HandleFunc("POST /requests", s.createRequest)
	mux.HandleFunc("GET /requests", s.listOwnRequests)
	mux.HandleFunc("GET /requests/all", s.listAllRequests)
	mux.HandleFunc("GET /requests/{id}", s.getRequest)
}

// Handler returns the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to their HTTP status and hides everything
// else behind a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.StatusOf(err)
	message := err.Error()
	if !domain.IsDomain(err) {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.BadRequest("invalid JSON body")
	}
	return nil
}
