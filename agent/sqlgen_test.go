package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"genbi/config"
)

func testSchema() config.DatabaseSchema {
	return config.DatabaseSchema{
		Tables: map[string]config.TableSchema{
			"orders": {Columns: []config.Column{
				{Name: "id", Type: "INTEGER", Comment: "order id"},
				{Name: "amount", Type: "DECIMAL", Comment: "order total"},
			}},
			"users": {Columns: []config.Column{
				{Name: "id", Type: "INTEGER"},
				{Name: "name", Type: "VARCHAR"},
			}},
		},
		Descriptions: map[string]string{"orders": "customer orders"},
	}
}

func TestExtractSQLFromTaggedFence(t *testing.T) {
	resp := "Here you go:\n```sql\nSELECT id FROM orders\n```\nHope that helps."
	if got := ExtractSQL(resp); got != "SELECT id FROM orders" {
		t.Errorf("got %q", got)
	}
}

func TestExtractSQLFromPlainFence(t *testing.T) {
	resp := "```\nSELECT name FROM users LIMIT 5\n```"
	if got := ExtractSQL(resp); got != "SELECT name FROM users LIMIT 5" {
		t.Errorf("got %q", got)
	}
}

func TestExtractSQLFromRawText(t *testing.T) {
	if got := ExtractSQL("  SELECT * FROM orders  "); got != "SELECT * FROM orders" {
		t.Errorf("got %q", got)
	}
}

func TestExtractSQLStripsProse(t *testing.T) {
	resp := "Here is the query you asked about.\nSELECT id FROM orders\nThis counts every order in the table."
	got := ExtractSQL(resp)
	if got != "SELECT id FROM orders" {
		t.Errorf("got %q", got)
	}
}

func TestExtractSQLKeepsMultilineStatement(t *testing.T) {
	resp := "SELECT id,\n  amount\nFROM orders\nWHERE amount > 100"
	got := ExtractSQL(resp)
	if !strings.Contains(got, "amount") || !strings.Contains(got, "WHERE amount > 100") {
		t.Errorf("statement lines lost: %q", got)
	}
}

func TestExtractSQLNoStatement(t *testing.T) {
	if got := ExtractSQL("I cannot answer this question."); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestGenerateSQLUsesSchemaPrompt(t *testing.T) {
	var seenPrompt string
	llm := CompleteFunc(func(ctx context.Context, prompt string, kind RequestKind) (string, error) {
		seenPrompt = prompt
		if kind != RequestKindQuery {
			t.Errorf("got kind %s, want query", kind)
		}
		return "```sql\nSELECT * FROM orders\n```", nil
	})

	sql, err := GenerateSQL(context.Background(), llm, "show all orders", testSchema())
	if err != nil {
		t.Fatalf("GenerateSQL failed: %v", err)
	}
	if sql != "SELECT * FROM orders" {
		t.Errorf("got %q", sql)
	}
	if !strings.Contains(seenPrompt, "orders") || !strings.Contains(seenPrompt, "amount") {
		t.Error("prompt does not embed the schema")
	}
	if !strings.Contains(seenPrompt, "customer orders") {
		t.Error("prompt does not embed the table description")
	}
}

func TestGenerateSQLErrorOnNoSQL(t *testing.T) {
	llm := fixedCompleter("Sorry, I can't help with that request at all, truly.", nil)
	if _, err := GenerateSQL(context.Background(), llm, "q", testSchema()); err == nil {
		t.Error("expected error when response holds no SQL")
	}

	llm = fixedCompleter("", fmt.Errorf("timeout"))
	if _, err := GenerateSQL(context.Background(), llm, "q", testSchema()); err == nil {
		t.Error("expected error when completion fails")
	}
}

func TestFallbackSQLMatchesTableName(t *testing.T) {
	sql := FallbackSQL("show me the Orders from last week", testSchema())
	if sql != "SELECT * FROM orders LIMIT 10" {
		t.Errorf("got %q", sql)
	}

	if sql := FallbackSQL("completely unrelated question", testSchema()); sql != "" {
		t.Errorf("expected empty fallback, got %q", sql)
	}
}

func TestRenderSchemaEmptySchema(t *testing.T) {
	if got := RenderSchema(config.DatabaseSchema{}); got != "" {
		t.Errorf("expected empty render, got %q", got)
	}
}
