package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/SmitUplenchwar2687/ps2emu/internal/metrics"
	"github.com/SmitUplenchwar2687/ps2emu/internal/recorder"
)

// StatsFunc reports the counters of the capture being monitored.
type StatsFunc func() recorder.Stats

// Options selects what the server exposes. A nil Hub disables the
// dashboard and websocket stream, a nil Metrics disables /metrics.
type Options struct {
	Hub     *Hub
	Metrics *metrics.Metrics
	Stats   StatsFunc
	Logger  *slog.Logger
}

// Server is the live capture monitor.
type Server struct {
	httpServer *http.Server
	opts       Options
	logger     *slog.Logger
	mux        *http.ServeMux
	started    time.Time
}

// New creates a new monitor server.
func New(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:    opts,
		logger:  logger.With("component", "monitor"),
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           LoggingMiddleware(s.mux, s.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	if s.opts.Hub != nil {
		s.mux.HandleFunc("/", s.handleDashboard)
		s.mux.HandleFunc("/ws", s.opts.Hub.HandleWebSocket)
	}
	if s.opts.Metrics != nil {
		s.mux.Handle("/metrics", s.opts.Metrics.Handler())
	}
}

// handleDashboard serves the single-page event viewer.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(DashboardHTML))
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusResponse struct {
	Service string          `json:"service"`
	Uptime  string          `json:"uptime"`
	Clients int             `json:"clients"`
	Stats   *recorder.Stats `json:"stats,omitempty"`
}

// handleStatus reports the capture counters and connected viewers.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Service: "ps2emu",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	if s.opts.Hub != nil {
		resp.Clients = s.opts.Hub.ClientCount()
	}
	if s.opts.Stats != nil {
		st := s.opts.Stats()
		resp.Stats = &st
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	s.logger.Info("monitor listening", "addr", ln.Addr().String())
	err := s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.opts.Hub != nil {
		s.opts.Hub.CloseAll()
	}
	return s.httpServer.Shutdown(ctx)
}
