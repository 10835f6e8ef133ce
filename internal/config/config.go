package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/transports/pkg/transport"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Transports
	TransportsReal   bool          `envconfig:"TRANSPORTS_REAL" default:"false"`
	Platforms        Platforms     `envconfig:"TRANSPORTS"`
	QueryTimeout     time.Duration `envconfig:"TRANSPORTS_TIMEOUT" default:"30s"`
	QueryParallelism int           `envconfig:"TRANSPORTS_PARALLELISM" default:"4"`

	// MRW
	MRWEnabled bool          `envconfig:"MRW_ENABLED" default:"true"`
	MRWUseMock bool          `envconfig:"MRW_USE_MOCK" default:"false"`
	MRWTimeout time.Duration `envconfig:"MRW_TIMEOUT" default:"20s"`

	// SEUR
	SEUREnabled bool          `envconfig:"SEUR_ENABLED" default:"true"`
	SEURUseMock bool          `envconfig:"SEUR_USE_MOCK" default:"false"`
	SEURTimeout time.Duration `envconfig:"SEUR_TIMEOUT" default:"20s"`

	// Storage
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Events
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"transport-requests"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"tournevent-transports"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Platforms maps platform names to their carrier settings. It is read from
// a JSON object, e.g. {"mrw-es":{"protocol":"mrw","credentials":{...}}}.
type Platforms map[string]transport.PlatformConfig

// Decode implements envconfig.Decoder.
func (p *Platforms) Decode(value string) error {
	if value == "" {
		*p = Platforms{}
		return nil
	}
	m := make(map[string]transport.PlatformConfig)
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return fmt.Errorf("decoding platforms: %w", err)
	}
	*p = m
	return nil
}

// Names returns the configured platform names, sorted.
func (p Platforms) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads configuration from the environment, after loading .env when present.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads configuration from the environment, after loading the
// given dotenv files. Missing files are skipped; variables already set in
// the environment win over the files.
func LoadFrom(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Platforms == nil {
		cfg.Platforms = Platforms{}
	}
	return &cfg, nil
}

// TransportConfig returns the carrier configuration consumed by the dispatcher.
func (c *Config) TransportConfig() transport.StaticConfig {
	return transport.StaticConfig{
		Real:      c.TransportsReal,
		Platforms: c.Platforms,
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("transports.environment", transport.EnvironmentLabel(c.TransportsReal)),
		attribute.StringSlice("transports.platforms", c.Platforms.Names()),
		attribute.Bool("mrw.enabled", c.MRWEnabled),
		attribute.Bool("seur.enabled", c.SEUREnabled),
	}
}
