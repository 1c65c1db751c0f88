// Package stub serves a scripted stand-in for the template validation
// service. It answers /validate and /deploy without touching any cloud, so
// the harness can be exercised locally and in tests.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artpar/templatecheck/internal/shell/remote"
)

// Responder decides the status and body for one request.
type Responder func(req remote.Request) (status int, body string)

// Config configures the stub's behaviour.
type Config struct {
	Validate    Responder     // default: 200 {"status":"valid"}
	Deploy      Responder     // default: 202 {"result":"Deployment Successful"}
	DeployDelay time.Duration // simulated deployment time
}

// Fixed returns a Responder that always answers status and body.
func Fixed(status int, body string) Responder {
	return func(remote.Request) (int, string) { return status, body }
}

// DeployResult returns a Responder answering 202 with the given result.
func DeployResult(result string) Responder {
	body, _ := json.Marshal(map[string]string{"result": result})
	return Fixed(http.StatusAccepted, string(body))
}

// Stats counts calls seen by the stub.
type Stats struct {
	ValidateCalls   int
	DeployCalls     int
	PeakConcurrency int // highest number of simultaneous /deploy calls
}

// Server is the stub service.
type Server struct {
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	stats    Stats
	inFlight int
}

// New creates a stub server.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.Validate == nil {
		cfg.Validate = Fixed(http.StatusOK, `{"status":"valid"}`)
	}
	if cfg.Deploy == nil {
		cfg.Deploy = DeployResult(remote.DeploySuccess)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{config: cfg, logger: logger.With("component", "stub")}
}

// Routes returns the router with all routes configured.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/validate", s.handleValidate)
	r.Post("/deploy", s.handleDeploy)

	return r
}

// Stats returns a snapshot of the call counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting stub server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("stopping stub server")
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	s.stats.ValidateCalls++
	s.mu.Unlock()

	status, body := s.config.Validate(req)
	s.logger.Debug("validate", "status", status, "request_id", middleware.GetReqID(r.Context()))
	write(w, status, body)
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	s.stats.DeployCalls++
	s.inFlight++
	if s.inFlight > s.stats.PeakConcurrency {
		s.stats.PeakConcurrency = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.config.DeployDelay > 0 {
		select {
		case <-time.After(s.config.DeployDelay):
		case <-r.Context().Done():
			return
		}
	}

	status, body := s.config.Deploy(req)
	s.logger.Debug("deploy", "status", status, "request_id", middleware.GetReqID(r.Context()))
	write(w, status, body)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (remote.Request, bool) {
	var req remote.Request
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, &req)
	}
	if err != nil || req.Template == nil {
		write(w, http.StatusBadRequest, `{"error":"request body must be {\"template\": {...}, \"parameters\": {...}}"}`)
		return req, false
	}
	return req, true
}

func write(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
