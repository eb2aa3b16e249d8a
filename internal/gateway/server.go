// Package gateway serves the evaluator over HTTP: a WebSocket endpoint for
// interactive clients, a small REST API and the health report.
package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/msto63/bexpr/internal/service"
	"github.com/msto63/bexpr/pkg/core/health"
	"github.com/msto63/bexpr/pkg/core/logging"
	"github.com/msto63/bexpr/pkg/core/version"
)

// Server is the HTTP gateway
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	health     *health.Registry
	logger     *logging.Logger
	config     Config
}

// Config holds gateway configuration
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

// DefaultConfig returns default gateway configuration
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8310,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

// New creates a gateway backed by svc. A nil registry gets a fresh one.
func New(cfg Config, svc *service.Service, registry *health.Registry) *Server {
	logger := logging.New("gateway")

	if registry == nil {
		registry = health.NewRegistry("gateway", version.Gateway)
	}
	registry.RegisterFunc("http", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Name:    "http",
			Status:  health.StatusHealthy,
			Message: "HTTP gateway is running",
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", NewWebSocketHandler(svc, cfg.MaxMessageSize, cfg.AllowedOrigins))
	mux.Handle("/health", registry.Handler(5*time.Second))
	mux.Handle("/api/", NewHandler(svc, cfg.MaxMessageSize))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: loggingMiddleware(logger, mux),
		// Hijacked WebSocket connections manage their own deadlines
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		health:     registry,
		logger:     logger,
		config:     cfg,
	}
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// Listen binds the configured address without serving yet
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener
	return nil
}

// Start serves until the server is shut down
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("Starting gateway", "address", s.Address())

	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartAsync serves in a goroutine
func (s *Server) StartAsync() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("Starting gateway (async)", "address", s.Address())

	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping gateway")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the bound address, or the configured one before Listen
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
