package dbpool

import (
	"strings"
	"testing"
)

func TestQuoteIdent(t *testing.T) {
	if got := NewDialect(EngineMySQL).QuoteIdent("orders"); got != "`orders`" {
		t.Errorf("mysql: got %s", got)
	}
	if got := NewDialect(EngineDuckDB).QuoteIdent("orders"); got != `"orders"` {
		t.Errorf("duckdb: got %s", got)
	}
	if got := NewDialect(EngineSQLite).QuoteIdent(`odd"name`); got != `"odd""name"` {
		t.Errorf("embedded quote not escaped: %s", got)
	}
	if got := NewDialect(EngineMySQL).QuoteIdent("odd`name"); got != "`odd``name`" {
		t.Errorf("embedded backtick not escaped: %s", got)
	}
}

func TestListTablesQueryPerEngine(t *testing.T) {
	if q := NewDialect(EngineSQLite).ListTablesQuery(); !strings.Contains(q, "sqlite_master") {
		t.Errorf("sqlite: %s", q)
	}
	if q := NewDialect(EngineDuckDB).ListTablesQuery(); !strings.Contains(q, "information_schema") {
		t.Errorf("duckdb: %s", q)
	}
	if q := NewDialect(EngineMySQL).ListTablesQuery(); q != "SHOW TABLES" {
		t.Errorf("mysql: %s", q)
	}
}

func TestDescribeColumnsQueryPerEngine(t *testing.T) {
	if q := NewDialect(EngineSQLite).DescribeColumnsQuery("products"); q != `PRAGMA table_info("products")` {
		t.Errorf("sqlite: %s", q)
	}
	if q := NewDialect(EngineMySQL).DescribeColumnsQuery("products"); q != "DESCRIBE `products`" {
		t.Errorf("mysql: %s", q)
	}
	// DuckDB uses a placeholder; the table name must not be inlined.
	q := NewDialect(EngineDuckDB).DescribeColumnsQuery("products")
	if !strings.Contains(q, "?") || strings.Contains(q, "products") {
		t.Errorf("duckdb: %s", q)
	}
}
