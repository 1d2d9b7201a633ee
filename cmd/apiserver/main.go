// Command apiserver serves the additive lookup API over HTTP, with optional
// gRPC health for load balancers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/additive-lens/internal/bootstrap"
	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/additive-lens/internal/interfaces/grpc"
	httpserver "github.com/turtacn/additive-lens/internal/interfaces/http"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (empty: ADDITIVELENS_* environment and defaults)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config, enables gRPC)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("additivelens apiserver %s (commit: %s)\n", version, commit)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.HTTP.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.Server.GRPC.Enabled = true
		cfg.Server.GRPC.Port = *grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if *configPath != "" {
		if err := config.WatchLogLevel(*configPath, logger); err != nil {
			logger.Warn("Config watch disabled", logging.Err(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("API server exited with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("API server stopped")
}

// run wires the service and blocks until ctx is canceled or a server fails.
func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	gin.SetMode(cfg.Server.HTTP.Mode)

	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc := infra.NewLookupService()
	if cfg.Assets.Background {
		svc.Start(ctx)
	} else if err := svc.Init(ctx); err != nil {
		return err
	}

	routerCfg, cleanup := buildRouterConfig(cfg, infra, svc, logger)
	defer cleanup()
	httpSrv := httpserver.NewServer(cfg.Server.HTTP, httpserver.NewRouter(routerCfg), logger)

	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg.Server.GRPC, cfg.Server.HTTP.Host,
			grpcserver.WithLogger(logger),
			grpcserver.WithMetrics(infra.Metrics),
		)
		if err != nil {
			return err
		}
	}

	logger.Info("Starting additivelens API server",
		logging.String("version", version),
		logging.String("http_addr", httpSrv.Addr()),
		logging.Bool("grpc", grpcSrv != nil),
		logging.String("assets", cfg.Assets.Source),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	if grpcSrv != nil {
		grpcSrv.TrackReadiness(gctx, svc.Ready, bootstrap.ReadinessPollInterval)
		g.Go(grpcSrv.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
		defer cancel()

		var firstErr error
		if err := httpSrv.Stop(shutdownCtx); err != nil {
			firstErr = err
		}
		if grpcSrv != nil {
			if err := grpcSrv.Stop(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
	return g.Wait()
}
