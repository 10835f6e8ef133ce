package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tournevent/transports/internal/booking"
	"github.com/tournevent/transports/internal/config"
	"github.com/tournevent/transports/internal/events"
	"github.com/tournevent/transports/internal/store"
	"github.com/tournevent/transports/internal/telemetry"
	"github.com/tournevent/transports/pkg/transport"
	"github.com/tournevent/transports/pkg/transport/mrw"
	"github.com/tournevent/transports/pkg/transport/seur"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return noop.NewTracerProvider().Tracer(cfg.ServiceName), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
	if err != nil {
		return noop.NewTracerProvider().Tracer(cfg.ServiceName), nil, err
	}
	return tracer, shutdown, nil
}

func initRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *transport.Registry {
	registry := transport.NewRegistry()

	// Register enabled carriers
	if cfg.MRWEnabled {
		registry.Register(mrw.New(mrw.Config{
			UseMock: cfg.MRWUseMock,
			Timeout: cfg.MRWTimeout,
		}, logger, tracer))
	}

	if cfg.SEUREnabled {
		registry.Register(seur.New(seur.Config{
			UseMock: cfg.SEURUseMock,
			Timeout: cfg.SEURTimeout,
		}, logger, tracer))
	}

	return registry
}

func initDispatcher(cfg *config.Config, registry *transport.Registry, logger *otelzap.Logger, tracer trace.Tracer) *transport.Dispatcher {
	return transport.NewDispatcher(cfg.TransportConfig(), registry, logger,
		transport.WithTimeout(cfg.QueryTimeout),
		transport.WithParallelism(cfg.QueryParallelism),
		transport.WithTracer(tracer),
	)
}

func initRepository(cfg *config.Config) (booking.Repository, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemoryRepository(), nil
	}
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return store.NewRepository(db), nil
}

func initPublisher(cfg *config.Config, logger *otelzap.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
}

func transportEnvironment(cfg *config.Config) string {
	return transport.EnvironmentLabel(cfg.TransportsReal)
}

// printPlatforms lists configured platforms without their credentials.
func printPlatforms(out io.Writer, cfg *config.Config) error {
	registry := initRegistry(cfg, nil, nil)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "PLATFORM\tPROTOCOL\tAVAILABLE\tENVIRONMENT\n")
	for _, name := range cfg.Platforms.Names() {
		pc := cfg.Platforms[name]
		available := "no"
		if p, ok := transport.ParseProtocol(pc.Protocol); ok {
			if _, err := registry.Get(p); err == nil {
				available = "yes"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, pc.Protocol, available, transportEnvironment(cfg))
	}
	return tw.Flush()
}
