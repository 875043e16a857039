// Package mcp implements the tool-calling gateway: a small set of servers
// (database, web) that execute one named operation per call and speak a JSON
// request/response envelope. One call is one isolated backend round trip;
// servers hold no state between calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// Request is the gateway call envelope. Backend connection parameters travel
// inside Params under the "config" key.
type Request struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

// Response is the gateway reply envelope: exactly one of Result or Error is
// set. Callers must check Error before trusting Result.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Server executes gateway requests for a family of methods. Handle receives
// the serialized request envelope and returns the serialized response. A
// returned error signals a transient failure worth retrying; domain errors
// (bad SQL, unknown table, HTTP 4xx) are reported in the response envelope
// and are final.
type Server interface {
	Methods() []string
	Handle(ctx context.Context, raw []byte) ([]byte, error)
}

func errorResponse(format string, args ...interface{}) []byte {
	data, _ := json.Marshal(Response{Error: fmt.Sprintf(format, args...)})
	return data
}

func resultResponse(payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %v", err)
	}
	out, err := json.Marshal(Response{Result: data})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decodeParams re-marshals a loosely typed params value into a typed struct.
func decodeParams(v interface{}, out interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
