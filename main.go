package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tournevent/transports/internal/booking"
	"github.com/tournevent/transports/internal/graphql"
	"github.com/tournevent/transports/internal/server"
	"github.com/tournevent/transports/internal/telemetry"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "transports",
	Short:   "Tournevent Transports - MRW and SEUR transport booking service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL server",
	RunE:  runServe,
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List configured transport platforms",
	RunE:  runPlatforms,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(platformsCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize adapter registry with all carriers
	registry := initRegistry(cfg, logger, tracer)
	dispatcher := initDispatcher(cfg, registry, logger, tracer)

	repo, err := initRepository(cfg)
	if err != nil {
		return err
	}

	publisher := initPublisher(cfg, logger)
	defer publisher.Close()

	service := booking.NewService(dispatcher, repo, publisher, metrics, logger)
	resolver := graphql.NewResolver(service, cfg.TransportConfig(), registry, logger)

	logger.Info("Starting Tournevent Transports",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("environment", transportEnvironment(cfg)),
		zap.Strings("platforms", cfg.Platforms.Names()),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, resolver, prometheus.DefaultGatherer, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return printPlatforms(cmd.OutOrStdout(), cfg)
}
