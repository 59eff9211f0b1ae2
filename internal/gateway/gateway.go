package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"shareit/internal/config"
	"shareit/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	userIDHeader    = "X-Sharer-User-Id"
	requestIDHeader = "X-Request-Id"
)

// Gateway is the validating front tier. It checks request shape, normalizes
// the booking state parameter, rate-limits per user and forwards everything
// else to the server unchanged.
type Gateway struct {
	cfg     config.GatewayConfig
	client  *Client
	limiter *userLimiter
	log     zerolog.Logger
	server  *http.Server
}

func New(cfg config.GatewayConfig, logger *zerolog.Logger) *Gateway {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "gateway").Logger()
	}

	g := &Gateway{
		cfg:     cfg,
		client:  NewClient(cfg.ServerURL),
		limiter: newUserLimiter(cfg.RateLimit),
		log:     log,
	}

	mux := http.NewServeMux()
	g.routes(mux)

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           g.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return g
}

func (g *Gateway) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", g.createUser)
	mux.HandleFunc("GET /users", g.passthrough)
	mux.HandleFunc("GET /users/{id}", g.passthroughID)
	mux.HandleFunc("PATCH /users/{id}", g.updateUser)
	mux.HandleFunc("DELETE /users/{id}", g.passthroughID)

	mux.HandleFunc("POST /items", g.createItem)
	mux.HandleFunc("GET /items", g.itemsWithShape)
	mux.HandleFunc("GET /items/search", g.searchItems)
	mux.HandleFunc("GET /items/{id}", g.itemWithShape)
	mux.HandleFunc("PATCH /items/{id}", g.updateItem)
	mux.HandleFunc("DELETE /items/{id}", g.identified)
	mux.HandleFunc("POST /items/{id}/comment", g.addComment)

	mux.HandleFunc("POST /bookings", g.createBooking)
	mux.HandleFunc("GET /bookings", g.listBookings)
	mux.HandleFunc("GET /bookings/owner", g.listBookings)
	mux.HandleFunc("GET /bookings/owner/export", g.identified)
	mux.HandleFunc("GET /bookings/{id}", g.identified)
	mux.HandleFunc("PATCH /bookings/{id}", g.approveBooking)

	mux.HandleFunc("POST /requests", g.createRequest)
	mux.HandleFunc("GET /requests", g.identified)
	mux.HandleFunc("GET /requests/all", g.listAllRequests)
	mux.HandleFunc("GET /requests/{id}", g.identified)
}

// Handler returns the full middleware-wrapped handler, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

func (g *Gateway) Start() error {
	g.log.Info().Str("addr", g.server.Addr).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (g *Gateway) middleware(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)

		if !g.limiter.allow(r) {
			g.writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		_, pattern := mux.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(recorder, r)

		duration := time.Since(start)
		metrics.ObserveHTTP("gateway", pattern, strconv.Itoa(recorder.status), duration.Seconds())

		g.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", duration).
			Msg("gateway request")
	})
}

// writeError emits the gateway error body. Unlike the server's, it carries
// timestamp, path and status for client-side debugging.
func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":     http.StatusText(status),
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"path":      r.URL.Path,
		"status":    status,
	})
}

// relay copies the server response to the client verbatim.
func (g *Gateway) relay(w http.ResponseWriter, resp *Response) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		w.Header().Set("Content-Disposition", cd)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// forward proxies the request and relays the result, optionally rewriting
// the response body first.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, body []byte, rewrite func([]byte) []byte) {
	resp, err := g.client.Forward(r.Context(), r.Method, r.URL.Path, r.URL.Query(), r.Header, body)
	if err != nil {
		g.log.Error().Err(err).Str("path", r.URL.Path).Msg("forward failed")
		g.writeError(w, r, http.StatusBadGateway, "upstream unavailable")
		return
	}

	if rewrite != nil && resp.Status < 300 {
		resp.Body = rewrite(resp.Body)
	}
	g.relay(w, resp)
}
