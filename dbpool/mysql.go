package dbpool

import (
	"database/sql"
)

// openMySQL opens a MySQL (or MySQL-compatible) connection with retry.
// Path carries the full DSN. The application must import the driver
// (_ "github.com/go-sql-driver/mysql").
func (m *DBManager) openMySQL(opts OpenOptions) (*sql.DB, error) {
	return m.openWithRetry("MySQL", opts, func() (*sql.DB, error) {
		return sql.Open("mysql", opts.Path)
	}, nil)
}
