package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/gateway"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/server"
	"github.com/msto63/bexpr/internal/service"
	"github.com/msto63/bexpr/pkg/core/health"
)

var (
	serveNoGateway bool
	serveNoGRPC    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the gRPC evaluator and the WebSocket gateway",
	Long: `Starts the network front ends:

  grpc     - bexpr.v1.Evaluator (default :9310)
  gateway  - WebSocket /ws, REST /api/v1/..., /health (default :8310)

Both share one evaluation service and, when history is enabled, one
history database.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoGateway, "no-gateway", false, "do not start the WebSocket gateway")
	serveCmd.Flags().BoolVar(&serveNoGRPC, "no-grpc", false, "do not start the gRPC evaluator")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveNoGateway && serveNoGRPC {
		return fmt.Errorf("nothing to serve")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCfg := service.Config{
		MaxDepth:  appConfig.Evaluator.MaxDepth,
		Logger:    logger,
		CacheSize: appConfig.Evaluator.CacheSize,
		CacheTTL:  appConfig.Evaluator.CacheTTL.Duration,
	}
	if appConfig.History.Enabled {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		pruneHistory(ctx, store)
		svcCfg.Store = store
	}
	svc := service.NewService(svcCfg)
	defer svc.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "bexpr")
	fmt.Fprintln(out, "=====")

	var grpcServer *server.Server
	if !serveNoGRPC {
		grpcServer = server.New(server.Config{
			Host:              appConfig.GRPC.Host,
			Port:              appConfig.GRPC.Port,
			ConnectionTimeout: appConfig.GRPC.ConnectionTimeout.Duration,
			RequestTimeout:    appConfig.GRPC.RequestTimeout.Duration,
		}, svc)
		if err := grpcServer.Listen(); err != nil {
			return err
		}
		if err := grpcServer.StartAsync(); err != nil {
			return err
		}
		grpcServer.HealthRegistry().Register(health.TCPCheck("grpc", grpcServer.Address(), time.Second))
		fmt.Fprintf(out, "  [+] gRPC evaluator   %s\n", grpcServer.Address())
	}

	var gw *gateway.Server
	if !serveNoGateway {
		var registry *health.Registry
		if grpcServer != nil {
			registry = grpcServer.HealthRegistry()
		}
		gw = gateway.New(gateway.Config{
			Host:           appConfig.Gateway.Host,
			Port:           appConfig.Gateway.Port,
			ReadTimeout:    appConfig.Gateway.ReadTimeout.Duration,
			WriteTimeout:   appConfig.Gateway.WriteTimeout.Duration,
			MaxMessageSize: appConfig.Gateway.MaxMessageSize,
			AllowedOrigins: appConfig.Gateway.AllowedOrigins,
		}, svc, registry)
		if err := gw.Listen(); err != nil {
			if grpcServer != nil {
				grpcServer.Stop(context.Background())
			}
			return err
		}
		if err := gw.StartAsync(); err != nil {
			return err
		}
		fmt.Fprintf(out, "  [+] WebSocket gateway ws://%s/ws\n", gw.Address())
		fmt.Fprintf(out, "  [+] Health check      http://%s/health\n", gw.Address())
	}
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if gw != nil {
		if err := gw.Stop(shutdownCtx); err != nil {
			printError("gateway shutdown", err)
		}
	}
	if grpcServer != nil {
		grpcServer.Stop(shutdownCtx)
	}

	stats := svc.Stats()
	logger.Info("Served", mdwlog.Fields{
		"requests":   stats.Requests,
		"statements": stats.Statements,
		"uptime":     stats.Uptime.String(),
	})
	return nil
}

// pruneHistory drops records beyond the configured retention
func pruneHistory(ctx context.Context, store history.Store) {
	days := appConfig.History.RetentionDays
	if days <= 0 {
		return
	}

	deleted, err := store.Prune(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		logger.LogError(err)
		return
	}
	if deleted > 0 {
		logger.Info("Pruned history", mdwlog.Fields{"deleted": deleted, "retention_days": days})
	}
}
