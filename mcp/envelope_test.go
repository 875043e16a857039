package mcp

import (
	"encoding/json"
	"testing"
)

func TestErrorResponseShape(t *testing.T) {
	raw := errorResponse("bad thing: %s", "details")
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if resp.Error != "bad thing: details" {
		t.Errorf("got %q", resp.Error)
	}
	if len(resp.Result) != 0 {
		t.Error("error envelope must carry no result")
	}
}

func TestResultResponseShape(t *testing.T) {
	raw, err := resultResponse(TableList{Tables: []string{"orders"}})
	if err != nil {
		t.Fatalf("resultResponse failed: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if resp.Error != "" {
		t.Errorf("unexpected error: %q", resp.Error)
	}

	var payload TableList
	if err := json.Unmarshal(resp.Result, &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if len(payload.Tables) != 1 || payload.Tables[0] != "orders" {
		t.Errorf("payload lost: %v", payload.Tables)
	}
}

func TestDecodeParams(t *testing.T) {
	loose := map[string]interface{}{"engine": "sqlite", "path": "/tmp/x.db"}
	var cfg dbConfig
	if err := decodeParams(loose, &cfg); err != nil {
		t.Fatalf("decodeParams failed: %v", err)
	}
	if cfg.Engine != "sqlite" || cfg.Path != "/tmp/x.db" {
		t.Errorf("got %+v", cfg)
	}
}
