package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/msto63/bexpr/pkg/core/logging"
)

// ClientConfig holds gRPC client configuration
type ClientConfig struct {
	Target         string
	CallTimeout    time.Duration // Applied to calls whose context has no deadline
	MaxMessageSize int
	Keepalive      time.Duration
	Logger         *logging.Logger
}

// DefaultClientConfig returns the client configuration used by the CLI
func DefaultClientConfig(target string) ClientConfig {
	return ClientConfig{
		Target:         target,
		CallTimeout:    30 * time.Second,
		MaxMessageSize: DefaultMaxMessageSize,
		Keepalive:      30 * time.Second,
	}
}

// Dial creates a client connection. grpc.NewClient connects lazily, so
// an unreachable target surfaces as Unavailable on the first call.
func Dial(cfg ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.New("grpc-client")
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
			grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
		),
		grpc.WithChainUnaryInterceptor(
			ClientTimeoutInterceptor(cfg.CallTimeout),
			ClientRequestIDInterceptor(),
			ClientLoggingInterceptor(cfg.Logger),
		),
	}
	if cfg.Keepalive > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.Keepalive,
			Timeout:             cfg.Keepalive / 3,
			PermitWithoutStream: true,
		}))
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(cfg.Target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Target, err)
	}
	return conn, nil
}

// DialTarget dials target with DefaultClientConfig
func DialTarget(target string) (*grpc.ClientConn, error) {
	return Dial(DefaultClientConfig(target))
}

// ClientTimeoutInterceptor bounds calls that carry no deadline of their own
func ClientTimeoutInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok && timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
