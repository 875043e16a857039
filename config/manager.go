package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	llmConfigFile      = "llm_config.json"
	databaseConfigFile = "database_config.json"
	schemaConfigFile   = "schema_config.json"
)

// Manager handles loading and saving the flat JSON configuration files.
type Manager struct {
	configDir string
	mu        sync.Mutex
}

// NewManager creates a Manager rooted at configDir, creating it if needed.
func NewManager(configDir string) (*Manager, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %v", err)
	}
	return &Manager{configDir: configDir}, nil
}

// ConfigDir returns the directory the manager reads and writes.
func (m *Manager) ConfigDir() string {
	return m.configDir
}

// LoadConfig reads llm_config.json, filling defaults for missing fields.
// A missing file yields a default config, not an error.
func (m *Manager) LoadConfig() (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cfg Config
	data, err := os.ReadFile(filepath.Join(m.configDir, llmConfigFile))
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %v", llmConfigFile, err)
		}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// SaveConfig writes llm_config.json.
func (m *Manager) SaveConfig(cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeJSON(llmConfigFile, cfg)
}

// LoadDatabases reads database_config.json. A missing file yields an empty list.
func (m *Manager) LoadDatabases() ([]DatabaseBackend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(m.configDir, databaseConfigFile))
	if err != nil {
		return []DatabaseBackend{}, nil
	}
	var backends []DatabaseBackend
	if err := json.Unmarshal(data, &backends); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", databaseConfigFile, err)
	}
	return backends, nil
}

// SaveDatabases writes database_config.json.
func (m *Manager) SaveDatabases(backends []DatabaseBackend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeJSON(databaseConfigFile, backends)
}

// LoadSchema reads the schema store for one database. The second return value
// is false when the database has no schema entry at all, which callers must
// treat differently from a present-but-empty schema.
func (m *Manager) LoadSchema(database string) (DatabaseSchema, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.loadSchemaFileLocked()
	if err != nil {
		return DatabaseSchema{}, false, err
	}
	schema, ok := all[database]
	return schema, ok, nil
}

// SaveSchema replaces the schema store entry for one database.
func (m *Manager) SaveSchema(database string, schema DatabaseSchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.loadSchemaFileLocked()
	if err != nil {
		return err
	}
	all[database] = schema
	return m.writeJSON(schemaConfigFile, all)
}

func (m *Manager) loadSchemaFileLocked() (map[string]DatabaseSchema, error) {
	data, err := os.ReadFile(filepath.Join(m.configDir, schemaConfigFile))
	if err != nil {
		return map[string]DatabaseSchema{}, nil
	}
	all := map[string]DatabaseSchema{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", schemaConfigFile, err)
	}
	return all, nil
}

func (m *Manager) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.configDir, name), data, 0644)
}
