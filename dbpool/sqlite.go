package dbpool

import (
	"database/sql"
)

// openSQLite opens a SQLite database with retry logic. WAL mode is enabled
// for better concurrency; retries cover SQLITE_BUSY during lock contention.
// The application must import the driver (_ "modernc.org/sqlite").
func (m *DBManager) openSQLite(opts OpenOptions) (*sql.DB, error) {
	connStr := opts.Path + "?_pragma=busy_timeout(5000)"
	if opts.Mode == ModeReadOnly {
		// Switching journal modes writes to the database, so the WAL pragma
		// only applies to read-write opens.
		connStr += "&mode=ro"
	} else {
		connStr += "&_pragma=journal_mode(WAL)"
	}

	return m.openWithRetry("SQLite", opts, func() (*sql.DB, error) {
		return sql.Open("sqlite", connStr)
	}, nil)
}
