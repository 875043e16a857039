package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"genbi/config"
)

// Client is the gateway entry point used by the agent. It routes each call to
// the server owning the method, injects the backend configuration into the
// params, and performs the envelope round trip. Transient call failures are
// retried a bounded number of times with increasing delay; retry is always
// scoped to the single call, never to a larger unit of work.
type Client struct {
	servers   map[string]Server
	dbConfig  map[string]interface{}
	webConfig map[string]interface{}
	logger    func(string)

	maxAttempts uint64
	baseDelay   time.Duration
}

// NewClient wires the database and web servers for one backend and search
// engine configuration.
func NewClient(backend config.DatabaseBackend, cfg config.Config, logger func(string)) *Client {
	if logger == nil {
		logger = func(string) {}
	}

	c := &Client{
		servers:     make(map[string]Server),
		logger:      logger,
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
	}
	c.register(NewDBServer(logger))
	c.register(NewWebServer(cfg.ProxyConfig, logger))

	c.dbConfig = map[string]interface{}{
		"engine":   backend.Engine,
		"path":     backend.Path,
		"host":     backend.Host,
		"port":     backend.Port,
		"user":     backend.User,
		"password": backend.Password,
		"database": backend.Database,
	}

	engine := activeSearchEngine(cfg)
	c.webConfig = map[string]interface{}{
		"engine": engine.ID,
		"url":    engine.URL,
	}

	return c
}

func (c *Client) register(s Server) {
	for _, m := range s.Methods() {
		c.servers[m] = s
	}
}

func activeSearchEngine(cfg config.Config) config.SearchEngine {
	for _, e := range cfg.SearchEngines {
		if e.ID == cfg.ActiveSearchEngine && e.Enabled {
			return e
		}
	}
	for _, e := range cfg.SearchEngines {
		if e.Enabled {
			return e
		}
	}
	return config.SearchEngine{ID: "bing", Name: "Bing", URL: "https://www.bing.com/search"}
}

// Call executes one gateway operation and returns the raw result payload.
// The response envelope's error key is checked before the result is trusted;
// an envelope error is final and not retried.
func (c *Client) Call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	srv, ok := c.servers[method]
	if !ok {
		return nil, fmt.Errorf("unknown gateway method: %s", method)
	}

	merged := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	if _, ok := merged["config"]; !ok {
		switch method {
		case "search_web", "fetch_page":
			merged["config"] = c.webConfig
		default:
			merged["config"] = c.dbConfig
		}
	}

	raw, err := json.Marshal(Request{Method: method, Params: merged})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}

	c.logger(fmt.Sprintf("[mcp] call %s", method))

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(c.baseDelay)),
			c.maxAttempts-1,
		),
		ctx,
	)

	attempt := 0
	result, err := backoff.RetryWithData(func() (json.RawMessage, error) {
		attempt++
		out, err := srv.Handle(ctx, raw)
		if err != nil {
			c.logger(fmt.Sprintf("[mcp] %s attempt %d/%d failed: %v", method, attempt, c.maxAttempts, err))
			return nil, err
		}
		var resp Response
		if err := json.Unmarshal(out, &resp); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("invalid gateway response: %v", err))
		}
		if resp.Error != "" {
			return nil, backoff.Permanent(errors.New(resp.Error))
		}
		return resp.Result, nil
	}, policy)

	if err != nil {
		c.logger(fmt.Sprintf("[mcp] %s failed: %v", method, err))
		return nil, err
	}
	return result, nil
}
