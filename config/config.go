package config

// SearchEngine represents a search engine configuration.
type SearchEngine struct {
	ID      string `json:"id"`      // Unique identifier
	Name    string `json:"name"`    // Display name (e.g., "Bing", "DuckDuckGo")
	URL     string `json:"url"`     // Base search URL
	Enabled bool   `json:"enabled"` // Whether this engine is enabled
}

// ProxyConfig represents proxy server configuration for web access.
type ProxyConfig struct {
	Enabled  bool   `json:"enabled"`
	Protocol string `json:"protocol"` // "http", "https", "socks5"
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

// Config holds the LLM and runtime settings persisted in llm_config.json.
type Config struct {
	LLMProvider        string         `json:"llmProvider"` // OpenAI, OpenAI-Compatible, Anthropic, Claude-Compatible
	APIKey             string         `json:"apiKey"`
	BaseURL            string         `json:"baseUrl"`
	ModelName          string         `json:"modelName"`
	MaxTokens          int            `json:"maxTokens"`
	Language           string         `json:"language"`
	QueryTimeoutSec    int            `json:"queryTimeoutSec"`    // completion timeout for direct-query calls
	AnalysisTimeoutSec int            `json:"analysisTimeoutSec"` // completion timeout for analysis calls
	SearchEngines      []SearchEngine `json:"searchEngines"`
	ActiveSearchEngine string         `json:"activeSearchEngine,omitempty"`
	ProxyConfig        *ProxyConfig   `json:"proxyConfig,omitempty"`
}

// DatabaseBackend describes one queryable data source, persisted in
// database_config.json. Engine selects the driver: "duckdb" and "sqlite"
// are file-based (Path), "mysql" is remote (Host/Port/User/Password/Database).
type DatabaseBackend struct {
	Name     string `json:"name"`
	Engine   string `json:"engine"`
	Path     string `json:"path,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
}

// Column is one column's metadata in the schema store.
type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

// TableSchema is the column list for one table. An empty Columns slice means
// the table is known but unconfigured, which is distinct from the table being
// absent from the map.
type TableSchema struct {
	Columns []Column `json:"columns"`
}

// DatabaseSchema is the per-database read model of the schema store.
type DatabaseSchema struct {
	Tables       map[string]TableSchema `json:"tables"`
	Descriptions map[string]string      `json:"descriptions"`
}

// IsEmpty reports whether no table has any configured columns.
func (s *DatabaseSchema) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, t := range s.Tables {
		if len(t.Columns) > 0 {
			return false
		}
	}
	return true
}

func applyDefaults(cfg *Config) {
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "OpenAI-Compatible"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.QueryTimeoutSec <= 0 {
		cfg.QueryTimeoutSec = 70
	}
	if cfg.AnalysisTimeoutSec <= 0 {
		cfg.AnalysisTimeoutSec = 240
	}
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	if len(cfg.SearchEngines) == 0 {
		cfg.SearchEngines = []SearchEngine{
			{ID: "bing", Name: "Bing", URL: "https://www.bing.com/search", Enabled: true},
			{ID: "duckduckgo", Name: "DuckDuckGo", URL: "https://html.duckduckgo.com/html/", Enabled: true},
		}
		cfg.ActiveSearchEngine = "bing"
	}
}
