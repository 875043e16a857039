package dbpool

import (
	"database/sql"
	"fmt"
)

// openDuckDB opens a DuckDB database with retry logic and WAL handling.
// The application must import the DuckDB driver
// (_ "github.com/marcboeker/go-duckdb/v2").
func (m *DBManager) openDuckDB(opts OpenOptions) (*sql.DB, error) {
	connStr := opts.Path
	if opts.Mode == ModeReadOnly {
		connStr += "?access_mode=read_only"
	}

	walCheckpointed := false
	onError := func(error) {
		// DuckDB cannot open a database with an un-checkpointed WAL in
		// read-only mode; flush it once in write mode before retrying.
		if opts.Mode == ModeReadOnly && !walCheckpointed {
			walCheckpointed = true
			m.checkpointWAL(opts.Path)
		}
	}

	return m.openWithRetry("DuckDB", opts, func() (*sql.DB, error) {
		return sql.Open("duckdb", connStr)
	}, onError)
}

// checkpointWAL flushes the DuckDB WAL by opening in write mode and running
// CHECKPOINT.
func (m *DBManager) checkpointWAL(dbPath string) {
	m.logger(fmt.Sprintf("[dbpool] Attempting WAL checkpoint for: %s", dbPath))
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		m.logger(fmt.Sprintf("[dbpool] WAL checkpoint: failed to open in write mode: %v", err))
		return
	}
	configurePool(db)
	defer db.Close()

	if _, err := db.Exec("CHECKPOINT"); err != nil {
		m.logger(fmt.Sprintf("[dbpool] WAL checkpoint failed: %v", err))
	} else {
		m.logger("[dbpool] WAL checkpoint: success")
	}
}
