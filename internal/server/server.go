// Package server exposes the evaluation service over gRPC as
// bexpr.v1.Evaluator.
package server

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/msto63/bexpr/internal/service"
	coreGrpc "github.com/msto63/bexpr/pkg/core/grpc"
	"github.com/msto63/bexpr/pkg/core/health"
	"github.com/msto63/bexpr/pkg/core/logging"
	"github.com/msto63/bexpr/pkg/core/version"
)

// Server is the evaluator gRPC server
type Server struct {
	service   *service.Service
	grpc      *coreGrpc.Server
	health    *health.Registry
	logger    *logging.Logger
	config    Config
	startTime time.Time
}

// Config holds server configuration
type Config struct {
	Host              string
	Port              int
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              9310,
		ConnectionTimeout: 120 * time.Second,
		RequestTimeout:    30 * time.Second,
	}
}

// New creates a new evaluator server backed by svc
func New(cfg Config, svc *service.Service) *Server {
	logger := logging.New("evaluator-server")

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.Port
	if cfg.ConnectionTimeout > 0 {
		grpcCfg.ConnectionTimeout = cfg.ConnectionTimeout
	}
	if cfg.RequestTimeout > 0 {
		grpcCfg.RequestTimeout = cfg.RequestTimeout
	}

	grpcServer := coreGrpc.NewServer(grpcCfg, logger)

	healthRegistry := health.NewRegistry("evaluator", version.Evaluator)
	healthRegistry.Register(health.AlwaysHealthy("evaluator"))
	if svc.HistoryEnabled() {
		healthRegistry.Register(health.PingCheck("history", svc.Ping))
	}

	server := &Server{
		service:   svc,
		grpc:      grpcServer,
		health:    healthRegistry,
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}

	RegisterEvaluatorServer(grpcServer.GRPCServer(), server)

	return server
}

// Listen binds the configured address
func (s *Server) Listen() error {
	return s.grpc.Listen()
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting evaluator server", "host", s.config.Host, "port", s.config.Port)
	return s.grpc.Start()
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	s.logger.Info("Starting evaluator server (async)", "host", s.config.Host, "port", s.config.Port)
	return s.grpc.StartAsync()
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Stopping evaluator server")
	s.grpc.Stop(ctx)
}

// Address returns the listen address
func (s *Server) Address() string {
	return s.grpc.Address()
}

// GRPCServer returns the underlying gRPC server
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpc.GRPCServer()
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
