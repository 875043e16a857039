package dbpool

import (
	"fmt"
	"strings"
)

// Dialect provides engine-specific SQL fragments so callers don't need to
// know which engine is in use.
type Dialect struct {
	Engine Engine
}

// NewDialect creates a Dialect for the given engine.
func NewDialect(engine Engine) *Dialect {
	return &Dialect{Engine: engine}
}

// QuoteIdent returns a properly quoted SQL identifier.
// DuckDB/SQLite use double quotes; MySQL uses backticks.
// Internal quotes are escaped by doubling them.
func (d *Dialect) QuoteIdent(name string) string {
	switch d.Engine {
	case EngineMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// ListTablesQuery returns the SQL to list user tables.
func (d *Dialect) ListTablesQuery() string {
	switch d.Engine {
	case EngineDuckDB:
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = 'main'"
	case EngineSQLite:
		return "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'"
	default:
		return "SHOW TABLES"
	}
}

// DescribeColumnsQuery returns the SQL to describe columns for a table.
// For DuckDB the query uses a ? placeholder; the caller must pass the table
// name as a query parameter. For SQLite/MySQL the table name is quoted
// directly into the SQL string.
func (d *Dialect) DescribeColumnsQuery(tableName string) string {
	qi := d.QuoteIdent(tableName)
	switch d.Engine {
	case EngineDuckDB:
		return "SELECT column_name, data_type FROM information_schema.columns " +
			"WHERE table_name = ? ORDER BY ordinal_position"
	case EngineSQLite:
		return fmt.Sprintf("PRAGMA table_info(%s)", qi)
	default:
		return fmt.Sprintf("DESCRIBE %s", qi)
	}
}
