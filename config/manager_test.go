package config

import (
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg, err := mgr.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LLMProvider != "OpenAI-Compatible" {
		t.Errorf("provider default: %s", cfg.LLMProvider)
	}
	if cfg.QueryTimeoutSec != 70 || cfg.AnalysisTimeoutSec != 240 {
		t.Errorf("timeout defaults: %d/%d", cfg.QueryTimeoutSec, cfg.AnalysisTimeoutSec)
	}
	if len(cfg.SearchEngines) == 0 || cfg.ActiveSearchEngine != "bing" {
		t.Errorf("search engine defaults missing: %+v", cfg.SearchEngines)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	in := Config{
		LLMProvider: "Anthropic",
		APIKey:      "sk-test",
		ModelName:   "some-model",
		Language:    "简体中文",
	}
	if err := mgr.SaveConfig(in); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	out, err := mgr.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if out.LLMProvider != "Anthropic" || out.APIKey != "sk-test" || out.Language != "简体中文" {
		t.Errorf("round trip lost fields: %+v", out)
	}
	// Unset numeric fields still get defaults.
	if out.MaxTokens != 4096 {
		t.Errorf("MaxTokens default: %d", out.MaxTokens)
	}
}

func TestDatabasesRoundTrip(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	backends, err := mgr.LoadDatabases()
	if err != nil {
		t.Fatalf("LoadDatabases failed: %v", err)
	}
	if len(backends) != 0 {
		t.Errorf("expected empty list, got %d", len(backends))
	}

	in := []DatabaseBackend{
		{Name: "warehouse", Engine: "duckdb", Path: "/data/wh.duckdb"},
		{Name: "crm", Engine: "mysql", Host: "db.internal", Port: "3306", Database: "crm"},
	}
	if err := mgr.SaveDatabases(in); err != nil {
		t.Fatalf("SaveDatabases failed: %v", err)
	}

	out, err := mgr.LoadDatabases()
	if err != nil {
		t.Fatalf("LoadDatabases failed: %v", err)
	}
	if len(out) != 2 || out[0].Name != "warehouse" || out[1].Engine != "mysql" {
		t.Errorf("round trip lost backends: %+v", out)
	}
}

func TestSchemaStorePresence(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	// Absent entry: present flag must be false.
	_, present, err := mgr.LoadSchema("warehouse")
	if err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	if present {
		t.Error("schema reported present before any save")
	}

	schema := DatabaseSchema{
		Tables: map[string]TableSchema{
			"orders": {Columns: []Column{{Name: "id", Type: "INTEGER", Comment: "pk"}}},
		},
		Descriptions: map[string]string{"orders": "sales orders"},
	}
	if err := mgr.SaveSchema("warehouse", schema); err != nil {
		t.Fatalf("SaveSchema failed: %v", err)
	}

	out, present, err := mgr.LoadSchema("warehouse")
	if err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	if !present {
		t.Fatal("schema missing after save")
	}
	if out.Tables["orders"].Columns[0].Comment != "pk" || out.Descriptions["orders"] != "sales orders" {
		t.Errorf("round trip lost schema: %+v", out)
	}

	// Saving another database must not clobber the first.
	if err := mgr.SaveSchema("crm", DatabaseSchema{}); err != nil {
		t.Fatalf("SaveSchema failed: %v", err)
	}
	if _, present, _ := mgr.LoadSchema("warehouse"); !present {
		t.Error("saving a second database dropped the first entry")
	}
}

func TestDatabaseSchemaIsEmpty(t *testing.T) {
	var nilSchema *DatabaseSchema
	if !nilSchema.IsEmpty() {
		t.Error("nil schema must be empty")
	}

	s := DatabaseSchema{Tables: map[string]TableSchema{"t": {}}}
	if !s.IsEmpty() {
		t.Error("a table with no columns is still an empty schema")
	}

	s.Tables["t"] = TableSchema{Columns: []Column{{Name: "id"}}}
	if s.IsEmpty() {
		t.Error("schema with columns must not be empty")
	}
}
