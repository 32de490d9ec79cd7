// Package factory opens the configured warehouse backend.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/foospace/sprintsync/internal/warehouse"
	"github.com/foospace/sprintsync/internal/warehouse/dolt"
	"github.com/foospace/sprintsync/internal/warehouse/memory"
)

// Backend names accepted in warehouse.driver.
const (
	BackendDolt         = "dolt"
	BackendDoltEmbedded = "dolt-embedded"
	BackendMemory       = "memory"
)

// Config is the warehouse section of the configuration file.
type Config struct {
	Driver         string        `mapstructure:"driver" yaml:"driver"`
	DSN            string        `mapstructure:"dsn" yaml:"dsn,omitempty"`
	Host           string        `mapstructure:"host" yaml:"host,omitempty"`
	Port           int           `mapstructure:"port" yaml:"port,omitempty"`
	User           string        `mapstructure:"user" yaml:"user,omitempty"`
	Password       string        `mapstructure:"password" yaml:"-" json:"-"`
	TLS            bool          `mapstructure:"tls" yaml:"tls,omitempty"`
	Path           string        `mapstructure:"path" yaml:"path,omitempty"`
	Database       string        `mapstructure:"database" yaml:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout,omitempty"`
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (warehouse.Warehouse, error) {
	switch cfg.Driver {
	case BackendMemory:
		return memory.New(), nil
	case BackendDolt, "":
		return dolt.New(ctx, &dolt.Config{
			DSN:            cfg.DSN,
			Host:           cfg.Host,
			Port:           cfg.Port,
			User:           cfg.User,
			Password:       cfg.Password,
			TLS:            cfg.TLS,
			Database:       cfg.Database,
			ConnectTimeout: cfg.ConnectTimeout,
		})
	case BackendDoltEmbedded:
		if cfg.Path == "" {
			return nil, fmt.Errorf("warehouse.path is required for the %s driver", BackendDoltEmbedded)
		}
		return dolt.New(ctx, &dolt.Config{
			Embedded:       true,
			Path:           cfg.Path,
			Database:       cfg.Database,
			ConnectTimeout: cfg.ConnectTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown warehouse driver %q (want %s, %s or %s)",
			cfg.Driver, BackendDolt, BackendDoltEmbedded, BackendMemory)
	}
}
