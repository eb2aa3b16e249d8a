package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/msto63/bexpr/pkg/core/logging"
)

// DefaultMaxMessageSize leaves room for a 1 MiB input plus its encoding
const DefaultMaxMessageSize = 4 * 1024 * 1024

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	Host              string
	Port              int
	MaxMessageSize    int
	Keepalive         time.Duration
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration // Zero leaves handlers unbounded
}

// DefaultServerConfig returns the evaluator's default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "0.0.0.0",
		Port:              9310,
		MaxMessageSize:    DefaultMaxMessageSize,
		Keepalive:         30 * time.Second,
		ConnectionTimeout: 120 * time.Second,
		RequestTimeout:    30 * time.Second,
	}
}

// Server wraps a gRPC server with recovery, request IDs, logging, deadlines
// and error mapping
type Server struct {
	server   *grpc.Server
	config   ServerConfig
	listener net.Listener
	logger   *logging.Logger
}

// NewServer creates a new gRPC server. A nil logger uses the default one.
func NewServer(cfg ServerConfig, logger *logging.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logging.New("grpc")
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}

	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxMessageSize),
		grpc.MaxSendMsgSize(cfg.MaxMessageSize),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(logger),
			RequestIDInterceptor(),
			LoggingInterceptor(logger),
			TimeoutInterceptor(cfg.RequestTimeout),
			ErrorInterceptor(),
		),
	}
	if cfg.Keepalive > 0 {
		serverOpts = append(serverOpts, grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.Keepalive,
			Timeout: cfg.Keepalive / 3,
		}))
	}
	if cfg.ConnectionTimeout > 0 {
		serverOpts = append(serverOpts, grpc.ConnectionTimeout(cfg.ConnectionTimeout))
	}
	serverOpts = append(serverOpts, opts...)

	return &Server{
		server: grpc.NewServer(serverOpts...),
		config: cfg,
		logger: logger,
	}
}

// GRPCServer returns the underlying gRPC server for service registration
func (s *Server) GRPCServer() *grpc.Server {
	return s.server
}

// Listen binds the configured address without serving yet
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Start serves until the server is stopped, listening first if needed
func (s *Server) Start() error {
	if err := s.ensureListener(); err != nil {
		return err
	}
	return s.server.Serve(s.listener)
}

// StartAsync serves in a goroutine; serve errors are logged
func (s *Server) StartAsync() error {
	if err := s.ensureListener(); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.listener); err != nil {
			s.logger.Error("gRPC server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) ensureListener() error {
	if s.listener != nil {
		return nil
	}
	return s.Listen()
}

// Stop drains in-flight calls, forcing the stop when ctx expires
func (s *Server) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
		<-done
	}
}

// Address returns the bound address, or the configured one before Listen
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}
