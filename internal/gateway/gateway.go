// Package gateway provides the HTTP surface of opsgate: tool invocation,
// pending-action confirmation, tool discovery, health, metrics, and the
// operator websocket feed.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/opsgate/opsgate/internal/action"
	"github.com/opsgate/opsgate/internal/security"
	"github.com/opsgate/opsgate/internal/tool"
)

// Pinger reports persistent-store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Params collects the gateway's collaborators.
type Params struct {
	Executor *action.Executor
	Registry *tool.Registry
	Store    Pinger
	Audit    *security.AuditLogger
	Limiter  *security.RateLimiter
	Hub      *EventHub
	Logger   *slog.Logger
	Version  string
}

// Server is the opsgate HTTP server.
type Server struct {
	config    Config
	logger    *slog.Logger
	executor  *action.Executor
	registry  *tool.Registry
	store     Pinger
	audit     *security.AuditLogger
	limiter   *security.RateLimiter
	metrics   *Metrics
	hub       *EventHub
	version   string
	server    *http.Server
	startedAt time.Time
}

// New creates a gateway server. Config defaults are applied here.
func New(cfg Config, p Params) *Server {
	cfg.defaults()
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hub := p.Hub
	if hub == nil {
		hub = NewEventHub(logger)
	}
	return &Server{
		config:   cfg,
		logger:   logger,
		executor: p.Executor,
		registry: p.Registry,
		store:    p.Store,
		audit:    p.Audit,
		limiter:  p.Limiter,
		metrics:  NewMetrics(),
		hub:      hub,
		version:  p.Version,
	}
}

// Start binds the listen address and serves in a background goroutine.
func (s *Server) Start() error {
	s.startedAt = time.Now()

	s.server = &http.Server{
		Addr:         s.config.Bind,
		Handler:      s.buildRouter(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("gateway listening", "addr", s.config.Bind)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("gateway shutting down")
	return s.server.Shutdown(shutdownCtx)
}
