// Package dbpool provides a unified database connection manager that abstracts
// away engine-specific details (DuckDB, SQLite, MySQL) and handles retry
// logic, connection pool settings, and file-lock contention.
//
// All code that needs a *sql.DB should go through DBManager instead of calling
// sql.Open directly. Every open is configured for single-connection use so
// that one gateway call maps to one isolated backend round trip and file
// locks are released immediately on Close().
package dbpool

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Engine identifies the database engine to use.
type Engine string

const (
	EngineDuckDB Engine = "duckdb"
	EngineSQLite Engine = "sqlite"
	EngineMySQL  Engine = "mysql"
)

// AccessMode controls whether the connection is read-only or read-write.
type AccessMode int

const (
	ModeReadWrite AccessMode = iota
	ModeReadOnly
)

// OpenOptions configures how a database connection is opened.
type OpenOptions struct {
	// Engine to use. Required.
	Engine Engine
	// Path is the file path for file-based engines (DuckDB, SQLite).
	// For MySQL, this is the DSN string.
	Path string
	// Mode controls read-only vs read-write access.
	Mode AccessMode
	// MaxAttempts overrides the default attempt count (0 = use default).
	MaxAttempts int
	// BaseDelay overrides the initial retry interval (0 = use default).
	BaseDelay time.Duration
}

// Logger is a simple logging function signature.
type Logger func(string)

// DBManager is the central connection manager.
type DBManager struct {
	logger Logger
}

// New creates a DBManager with the given logger.
func New(logger Logger) *DBManager {
	if logger == nil {
		logger = func(string) {}
	}
	return &DBManager{logger: logger}
}

// Open opens a database connection with the given options, retrying with
// increasing delay on lock contention or transient connect failures.
func (m *DBManager) Open(opts OpenOptions) (*sql.DB, error) {
	switch opts.Engine {
	case EngineDuckDB:
		return m.openDuckDB(opts)
	case EngineSQLite:
		return m.openSQLite(opts)
	case EngineMySQL:
		return m.openMySQL(opts)
	default:
		return nil, fmt.Errorf("dbpool: unsupported engine %q", opts.Engine)
	}
}

// configurePool pins the pool to a single connection so file locks are
// released as soon as the caller closes the handle.
func configurePool(db *sql.DB) {
	db.SetMaxIdleConns(0)
	db.SetMaxOpenConns(1)
}

// openWithRetry runs dial under a bounded exponential backoff policy.
// onError, when non-nil, is invoked after each failed attempt so engines can
// run recovery actions (e.g. a DuckDB WAL checkpoint) before the next try.
func (m *DBManager) openWithRetry(label string, opts OpenOptions, dial func() (*sql.DB, error), onError func(error)) (*sql.DB, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 400 * time.Millisecond
	}

	attempt := 0
	policy := backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(baseDelay)),
		uint64(maxAttempts-1),
	)

	db, err := backoff.RetryWithData(func() (*sql.DB, error) {
		attempt++
		db, err := dial()
		if err == nil {
			configurePool(db)
			if err = db.Ping(); err != nil {
				db.Close()
			}
		}
		if err != nil {
			m.logger(fmt.Sprintf("[dbpool] %s attempt %d/%d failed: %v", label, attempt, maxAttempts, err))
			if onError != nil {
				onError(err)
			}
			return nil, err
		}
		return db, nil
	}, policy)

	if err != nil {
		return nil, fmt.Errorf("dbpool: failed to open %s after %d attempts: %w", label, maxAttempts, err)
	}
	return db, nil
}
