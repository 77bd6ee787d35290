package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmem/internal/config"
	"github.com/kailas-cloud/esmem/internal/engine"
	"github.com/kailas-cloud/esmem/internal/fault"
	logpkg "github.com/kailas-cloud/esmem/internal/logger"
	"github.com/kailas-cloud/esmem/internal/metrics"
	chiTransport "github.com/kailas-cloud/esmem/internal/transport/chi"
	"github.com/kailas-cloud/esmem/internal/version"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "Port to listen on (overrides http.port)")
	cmd.Flags().Bool("server-failure", false, "Start with simulated server failure enabled")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, _ := cmd.Flags().GetString("env")
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.HTTP.Port = port
	}
	if failing, _ := cmd.Flags().GetBool("server-failure"); failing {
		cfg.Faults.ServerFailure = true
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting esmem",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("indices", cfg.Engine.Indices),
		zap.Bool("server_failure", cfg.Faults.ServerFailure),
	)

	handler, err := buildHandler(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildHandler is the composition root: engine with metrics and fault interceptors,
// pre-created indices, the REST router and /metrics.
func buildHandler(cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (http.Handler, error) {
	engineMetrics, err := metrics.NewEngine(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	failure := fault.NewServerFailure(false)

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithInterceptors(engineMetrics.Interceptor(), failure.Interceptor()),
		engine.WithClusterName(cfg.Engine.ClusterName),
		engine.WithDefaultPageSize(cfg.Engine.DefaultPageSize),
	)
	for _, name := range cfg.Engine.Indices {
		if _, err := eng.CreateIndex(context.Background(), name); err != nil {
			return nil, fmt.Errorf("failed to create index %q: %w", name, err)
		}
	}
	if cfg.Faults.ServerFailure {
		failure.Enable()
	}

	server := chiTransport.NewServer(eng, chiTransport.Config{
		ClusterName:  cfg.Engine.ClusterName,
		APIKeys:      cfg.Auth.APIKeys,
		MaxBodyBytes: int64(cfg.HTTP.MaxBodyBytes),
		Failure:      failure,
		Middlewares:  []func(http.Handler) http.Handler{metrics.Middleware()},
	}, logger)

	r := server.Router()
	r.Handle("/metrics", promhttp.Handler())
	return r, nil
}
