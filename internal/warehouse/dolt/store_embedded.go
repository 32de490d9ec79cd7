//go:build cgo

package dolt

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	embedded "github.com/dolthub/driver"
)

// newEmbeddedMode opens the Dolt database directory in-process.
func newEmbeddedMode(ctx context.Context, cfg *Config) (*Store, error) {
	if info, statErr := os.Stat(cfg.Path); statErr == nil && !info.IsDir() {
		return nil, fmt.Errorf("warehouse path %q is a file, not a directory", cfg.Path)
	}
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
	}
	// The driver stacks relative directories onto its own working directory.
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	name, email := cfg.CommitterName, cfg.CommitterEmail
	if name == "" {
		name = "sprintsync"
	}
	if email == "" {
		email = "sprintsync@localhost"
	}
	initDSN := fmt.Sprintf("file://%s?commitname=%s&commitemail=%s", absPath, name, email)
	dbDSN := initDSN + "&database=" + cfg.Database

	initDB, initConnector, err := openEmbeddedConnection(initDSN, cfg)
	if err != nil {
		return nil, err
	}
	_, err = initDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", quoteIdent(cfg.Database)))
	_ = initDB.Close()
	_ = initConnector.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to create dolt database: %w", err)
	}

	db, connector, err := openEmbeddedConnection(dbDSN, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = connector.Close()
		return nil, fmt.Errorf("failed to open embedded warehouse: %w", err)
	}
	return &Store{db: db, connector: connector}, nil
}

func openEmbeddedConnection(dsn string, cfg *Config) (*sql.DB, *embedded.Connector, error) {
	openCfg, err := embedded.ParseDSN(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Dolt DSN: %w", err)
	}
	openCfg.BackOff = newConnectBackoff(cfg.ConnectTimeout)

	connector, err := embedded.NewConnector(openCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Dolt connector: %w", err)
	}
	db := sql.OpenDB(connector)
	// Embedded Dolt is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, connector, nil
}
