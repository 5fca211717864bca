// Package config defines the configuration surface of the mapping layer and
// a Viper-backed loader for it.
package config

import (
	"fmt"
	"time"

	"github.com/nimburion/docmap/pkg/observability/tracing"
	"github.com/nimburion/docmap/pkg/version"
)

// Store provider constants
const (
	// ProviderMongoDB selects the MongoDB-backed manager
	ProviderMongoDB = "mongodb"
	// ProviderDynamoDB selects the DynamoDB-backed manager
	ProviderDynamoDB = "dynamodb"
	// ProviderMemory selects the in-memory manager
	ProviderMemory = "memory"
)

// Config is the root configuration structure.
type Config struct {
	Service ServiceConfig
	Store   StoreConfig
	Logging LoggingConfig
	Tracing TracingConfig
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// StoreConfig configures the document store backing the templates.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`

	// MongoDB
	URL          string `mapstructure:"url"`
	DatabaseName string `mapstructure:"database_name"`

	// DynamoDB
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	KeyAttribute    string `mapstructure:"key_attribute"`
	TTLAttribute    string `mapstructure:"ttl_attribute"`

	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig configures span export for document operations.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP collector endpoint, host:port.
	Endpoint string `mapstructure:"endpoint"`
	// SampleRate is the fraction of traces to sample, 0 to 1.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// TracerConfig derives the tracer provider configuration, stamping service
// identity from the service section and version from build metadata.
func (c *Config) TracerConfig() tracing.TracerConfig {
	info := version.Current(c.Service.Name)
	return tracing.TracerConfig{
		ServiceName:    info.Service,
		ServiceVersion: info.Version,
		Environment:    c.Service.Environment,
		Endpoint:       c.Tracing.Endpoint,
		SampleRate:     c.Tracing.SampleRate,
		Enabled:        c.Tracing.Enabled,
	}
}

// DefaultConfig returns the configuration used when neither file nor
// environment provides a value.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "docmap",
			Environment: "development",
		},
		Store: StoreConfig{
			Provider:         ProviderMemory,
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			SampleRate: 1,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case ProviderMemory:
	case ProviderMongoDB:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required when store.provider is mongodb")
		}
		if c.Store.DatabaseName == "" {
			return fmt.Errorf("store.database_name is required when store.provider is mongodb")
		}
	case ProviderDynamoDB:
		if c.Store.Region == "" {
			return fmt.Errorf("store.region is required when store.provider is dynamodb")
		}
	default:
		return fmt.Errorf("unsupported store.provider %q (supported: mongodb, dynamodb, memory)", c.Store.Provider)
	}

	if c.Store.OperationTimeout < 0 {
		return fmt.Errorf("store.operation_timeout must not be negative")
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
		}
	}
	return nil
}
