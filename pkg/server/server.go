package server

import (
	"log/slog"
	"net/http"

	internalserver "github.com/SmitUplenchwar2687/ps2emu/internal/server"
)

// Server is the capture monitor HTTP server.
type Server = internalserver.Server

// Options configures optional server features.
type Options = internalserver.Options

// StatsFunc reports live capture counters.
type StatsFunc = internalserver.StatsFunc

// Hub manages WebSocket viewers and broadcasts captured events.
type Hub = internalserver.Hub

// DashboardHTML is the embedded single-page dashboard.
const DashboardHTML = internalserver.DashboardHTML

// New creates a monitor server listening on addr.
func New(addr string, opts Options) *Server {
	return internalserver.New(addr, opts)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return internalserver.NewHub(logger)
}

// LoggingMiddleware logs every request at debug level.
func LoggingMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return internalserver.LoggingMiddleware(next, logger)
}
