// Package server exposes the sync as an HTTP trigger.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/foospace/sprintsync/internal/tracker"
)

// Server handles sync trigger requests.
type Server struct {
	runner     *Runner
	logger     *slog.Logger
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates a trigger server around runner.
func NewServer(runner *Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner: runner,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/", s.handleSync)
	s.mux.HandleFunc("/healthz", s.handleHealth)

	return s
}

// Start starts the HTTP server on addr. A backfill can take minutes, so
// writeTimeout should cover the longest expected run.
func (s *Server) Start(addr string, writeTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// handleSync handles GET or POST /?env=E&mode=M&department=D. The reply is
// plain text: the completion message on 200, the reason otherwise. A client
// that disconnects does not stop the run.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.writeText(w, http.StatusMethodNotAllowed, "method not allowed: use GET or POST")
		return
	}

	q := r.URL.Query()
	req := Request{
		Env:        q.Get("env"),
		Mode:       q.Get("mode"),
		Department: q.Get("department"),
	}
	s.logger.Info("sync triggered", "env", req.Env, "mode", req.Mode, "department", req.Department)

	// The run outlives the caller. Cancelling between a partition's delete
	// and its append would leave the partition empty.
	res, err := s.runner.Run(context.WithoutCancel(r.Context()), req)
	if err != nil {
		if ce, ok := tracker.IsConfigError(err); ok {
			s.logger.Warn("sync rejected", "status", ce.HTTPStatus(), "error", ce)
			s.writeText(w, ce.HTTPStatus(), ce.Error())
			return
		}
		s.logger.Error("sync failed", "error", err)
		s.writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	msg := res.Message()
	s.logger.Info("sync finished", "env", res.Env, "succeeded", res.Succeeded(), "failed", res.Failed())
	s.writeText(w, http.StatusOK, msg)
}

// handleHealth handles GET /healthz for load balancer checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
