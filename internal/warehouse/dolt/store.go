// Package dolt implements the warehouse on Dolt, either through a running
// dolt sql-server (MySQL protocol) or the embedded engine.
package dolt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	// Import MySQL driver for server mode connections
	_ "github.com/go-sql-driver/mysql"

	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/warehouse"
)

// Config selects and parameterizes the Dolt connection.
type Config struct {
	// Embedded opens the database directory at Path in-process (requires CGO).
	Embedded bool
	Path     string

	// DSN, when set, is used verbatim for server mode.
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	TLS      bool

	Database       string
	CommitterName  string
	CommitterEmail string

	// ConnectTimeout bounds the initial connection retries.
	ConnectTimeout time.Duration
}

const (
	defaultConnectTimeout = 30 * time.Second
	defaultDatabase       = "sprintsync"
	insertBatchSize       = 500
)

// Store implements warehouse.Warehouse on Dolt.
type Store struct {
	db         *sql.DB
	serverMode bool
	// connector is non-nil only in embedded mode and must be closed to release
	// the engine's filesystem locks.
	connector io.Closer
}

var _ warehouse.Warehouse = (*Store)(nil)

// New opens the store and waits for the database to answer.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if err := validateIdentifier(cfg.Database); err != nil {
		return nil, fmt.Errorf("invalid database name %q: %w", cfg.Database, err)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.Embedded {
		return newEmbeddedMode(ctx, cfg)
	}
	return newServerMode(ctx, cfg)
}

// NewFromDB wraps an already-open server-mode connection.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db, serverMode: true}
}

func newConnectBackoff(maxElapsed time.Duration) backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// buildServerDSN constructs a MySQL DSN for a dolt sql-server. An empty
// database connects without selecting one.
func buildServerDSN(cfg *Config, database string) string {
	userPart := cfg.User
	if cfg.Password != "" {
		userPart = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
	}
	params := "parseTime=true"
	if cfg.TLS {
		params += "&tls=true"
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s", userPart, cfg.Host, cfg.Port, database, params)
}

func newServerMode(ctx context.Context, cfg *Config) (*Store, error) {
	connStr := cfg.DSN
	if connStr == "" {
		if err := ensureServerDatabase(ctx, cfg); err != nil {
			return nil, err
		}
		connStr = buildServerDSN(cfg, cfg.Database)
	}

	db, err := sql.Open("mysql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open Dolt server connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := pingWithRetry(ctx, db, cfg.ConnectTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to Dolt server: %w", err)
	}
	return &Store{db: db, serverMode: true}, nil
}

func ensureServerDatabase(ctx context.Context, cfg *Config) error {
	initDB, err := sql.Open("mysql", buildServerDSN(cfg, ""))
	if err != nil {
		return fmt.Errorf("failed to open init connection: %w", err)
	}
	defer func() { _ = initDB.Close() }()

	if err := pingWithRetry(ctx, initDB, cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("failed to connect to Dolt server at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	_, err = initDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", quoteIdent(cfg.Database)))
	if err != nil {
		// Dolt may return error 1007 even with IF NOT EXISTS.
		errLower := strings.ToLower(err.Error())
		if !strings.Contains(errLower, "database exists") && !strings.Contains(errLower, "1007") {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}
	return nil
}

// pingWithRetry retries transient connection failures until maxElapsed.
func pingWithRetry(ctx context.Context, db *sql.DB, maxElapsed time.Duration) error {
	return backoff.Retry(func() error {
		err := db.PingContext(ctx)
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(newConnectBackoff(maxElapsed), ctx))
}

// isRetryableError reports transient connection errors worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"lost connection",
		"gone away",
		"i/o timeout",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// withRetry runs an idempotent statement, retrying transient errors in server
// mode. Appends never go through here.
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	if !s.serverMode {
		return op()
	}
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(newConnectBackoff(defaultConnectTimeout), ctx))
}

// EnsureTable creates table when missing.
func (s *Store) EnsureTable(ctx context.Context, table string, schema warehouse.Schema) error {
	stmt, err := createTableSQL(table, schema)
	if err != nil {
		return err
	}
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		return nil
	})
}

// DeleteWhere removes the rows matching pred.
func (s *Store) DeleteWhere(ctx context.Context, table string, pred warehouse.Predicate) (int64, error) {
	stmt, args, err := deleteSQL(table, pred)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// AppendRows inserts rows in batches inside one transaction.
func (s *Store) AppendRows(ctx context.Context, table string, schema warehouse.Schema, rows []warehouse.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append to %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		stmt, args, err := insertSQL(table, schema, rows[start:end])
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append to %s: %w", table, err)
	}
	return total, nil
}

// DistinctValues returns the distinct non-null values of column.
func (s *Store) DistinctValues(ctx context.Context, table, column string, pred warehouse.Predicate) ([]string, error) {
	stmt, args, err := distinctSQL(table, column, pred)
	if err != nil {
		return nil, err
	}
	var out []string
	err = s.withRetry(ctx, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("query %s: %w", table, err)
		}
		defer rows.Close()
		for rows.Next() {
			var v sql.NullString
			if err := rows.Scan(&v); err != nil {
				return err
			}
			if v.Valid {
				out = append(out, v.String)
			}
		}
		return rows.Err()
	})
	return out, err
}

// Close releases the connection and, in embedded mode, the engine.
func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	if s.connector != nil {
		if cerr := s.connector.Close(); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = errors.Join(err, cerr)
		}
		s.connector = nil
	}
	return err
}

// bindValue converts row cells to driver values. Dates are bound as
// calendar strings so the DATE column never shifts across time zones.
func bindValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(types.DateLayout)
	case *string:
		if t == nil {
			return nil
		}
		return *t
	default:
		return v
	}
}
