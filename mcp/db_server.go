package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"genbi/dbpool"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "modernc.org/sqlite"
)

const maxResultRows = 1000

// DBServer serves the database-facing gateway methods: execute_query,
// describe_table and get_tables. Every call opens a fresh connection through
// dbpool and closes it before returning.
type DBServer struct {
	pool   *dbpool.DBManager
	logger func(string)
}

// NewDBServer creates a DBServer.
func NewDBServer(logger func(string)) *DBServer {
	if logger == nil {
		logger = func(string) {}
	}
	return &DBServer{
		pool:   dbpool.New(dbpool.Logger(logger)),
		logger: logger,
	}
}

// Methods lists the methods this server answers.
func (s *DBServer) Methods() []string {
	return []string{"execute_query", "describe_table", "get_tables"}
}

// dbConfig is the backend connection blob carried in params.config.
type dbConfig struct {
	Engine   string `json:"engine"`
	Path     string `json:"path,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
}

// QueryResult is the execute_query payload. Columns preserve the SELECT
// order; Rows hold scanned values with []byte text normalized to string.
type QueryResult struct {
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	RowCount  int             `json:"row_count"`
	Truncated bool            `json:"truncated,omitempty"`
}

// ColumnInfo is one column in a describe_table payload.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableList is the get_tables payload.
type TableList struct {
	Tables []string `json:"tables"`
}

// TableColumns is the describe_table payload.
type TableColumns struct {
	Table   string       `json:"table"`
	Columns []ColumnInfo `json:"columns"`
}

// Handle executes one database gateway call.
func (s *DBServer) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("invalid request: %v", err), nil
	}

	var cfg dbConfig
	if err := decodeParams(req.Params["config"], &cfg); err != nil {
		return errorResponse("invalid config: %v", err), nil
	}
	engine := dbpool.Engine(cfg.Engine)
	if engine == "" {
		return errorResponse("config.engine is required"), nil
	}

	db, err := s.openBackend(engine, cfg)
	if err != nil {
		// Connection failures are transient from the caller's view.
		return nil, err
	}
	defer db.Close()

	dialect := dbpool.NewDialect(engine)

	switch req.Method {
	case "execute_query":
		query, _ := req.Params["query"].(string)
		return s.executeQuery(ctx, db, query)
	case "describe_table":
		table, _ := req.Params["table"].(string)
		return s.describeTable(ctx, db, dialect, table)
	case "get_tables":
		return s.getTables(ctx, db, dialect)
	default:
		return errorResponse("unknown method: %s", req.Method), nil
	}
}

func (s *DBServer) openBackend(engine dbpool.Engine, cfg dbConfig) (*sql.DB, error) {
	opts := dbpool.OpenOptions{
		Engine:      engine,
		Mode:        dbpool.ModeReadOnly,
		MaxAttempts: 3,
	}
	switch engine {
	case dbpool.EngineMySQL:
		port := cfg.Port
		if port == "" {
			port = "3306"
		}
		opts.Path = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?allowNativePasswords=true&parseTime=true",
			cfg.User, cfg.Password, cfg.Host, port, cfg.Database)
		// MySQL has no read-only open mode; the SELECT gate covers it.
		opts.Mode = dbpool.ModeReadWrite
	default:
		opts.Path = cfg.Path
	}
	return s.pool.Open(opts)
}

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`/\*[\s\S]*?\*/`)
)

func (s *DBServer) executeQuery(ctx context.Context, db *sql.DB, query string) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return errorResponse("query is required"), nil
	}

	// Validate as read-only with comments stripped, so a leading comment
	// cannot hide a write statement. The stripped text is for validation
	// only: a string literal may legitimately contain comment markers, so
	// the query executed is the original.
	clean := lineCommentRe.ReplaceAllString(query, "")
	clean = blockCommentRe.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)
	upper := strings.ToUpper(clean)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return errorResponse("only SELECT queries are allowed, received: %s", query), nil
	}

	// Cap the result set unless the query limits itself. The cap goes on its
	// own line so a trailing line comment cannot swallow it.
	run := strings.TrimRight(query, "; \t\n\r")
	if !strings.Contains(upper, "LIMIT") {
		run = fmt.Sprintf("%s\nLIMIT %d", run, maxResultRows)
	}

	rows, err := db.QueryContext(ctx, run)
	if err != nil {
		return errorResponse("query execution failed: %v\nquery: %s", err, run), nil
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errorResponse("failed to read columns: %v", err), nil
	}

	result := QueryResult{Columns: cols, Rows: [][]interface{}{}}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return errorResponse("failed to scan row: %v", err), nil
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
		if len(result.Rows) >= maxResultRows {
			result.Truncated = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return errorResponse("error iterating rows: %v", err), nil
	}
	result.RowCount = len(result.Rows)

	s.logger(fmt.Sprintf("[mcp-db] execute_query returned %d rows", result.RowCount))
	return resultResponse(result)
}

func (s *DBServer) describeTable(ctx context.Context, db *sql.DB, dialect *dbpool.Dialect, table string) ([]byte, error) {
	if table == "" {
		return errorResponse("table is required"), nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	query := dialect.DescribeColumnsQuery(table)
	if dialect.Engine == dbpool.EngineDuckDB {
		rows, err = db.QueryContext(ctx, query, table)
	} else {
		rows, err = db.QueryContext(ctx, query)
	}
	if err != nil {
		return errorResponse("failed to describe table %s: %v", table, err), nil
	}
	defer rows.Close()

	result := TableColumns{Table: table}
	switch dialect.Engine {
	case dbpool.EngineSQLite:
		// PRAGMA table_info: cid, name, type, notnull, dflt_value, pk
		for rows.Next() {
			var cid, notNull, pk int
			var name, colType string
			var dflt interface{}
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				continue
			}
			result.Columns = append(result.Columns, ColumnInfo{Name: name, Type: colType})
		}
	case dbpool.EngineDuckDB:
		for rows.Next() {
			var name, colType string
			if err := rows.Scan(&name, &colType); err != nil {
				continue
			}
			result.Columns = append(result.Columns, ColumnInfo{Name: name, Type: colType})
		}
	default:
		// DESCRIBE: Field, Type, Null, Key, Default, Extra
		for rows.Next() {
			var field, colType string
			var null, key, extra sql.NullString
			var dflt interface{}
			if err := rows.Scan(&field, &colType, &null, &key, &dflt, &extra); err != nil {
				continue
			}
			result.Columns = append(result.Columns, ColumnInfo{Name: field, Type: colType})
		}
	}
	if err := rows.Err(); err != nil {
		return errorResponse("error reading table columns: %v", err), nil
	}

	return resultResponse(result)
}

func (s *DBServer) getTables(ctx context.Context, db *sql.DB, dialect *dbpool.Dialect) ([]byte, error) {
	rows, err := db.QueryContext(ctx, dialect.ListTablesQuery())
	if err != nil {
		return errorResponse("failed to list tables: %v", err), nil
	}
	defer rows.Close()

	result := TableList{Tables: []string{}}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		result.Tables = append(result.Tables, name)
	}
	if err := rows.Err(); err != nil {
		return errorResponse("error listing tables: %v", err), nil
	}

	return resultResponse(result)
}
