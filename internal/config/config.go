// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP/MCP server listen settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// QdrantConfig contains connection details for the Qdrant vector store.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// OpenAIEmbedderConfig configures the OpenAI embedding client.
type OpenAIEmbedderConfig struct {
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// LocalEmbedderConfig configures the local embedding-server client.
// The server speaks POST /embed {"texts": [...]} -> {"vectors": [[...]]}.
type LocalEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"` // "openai" or "local"
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Local  *LocalEmbedderConfig  `yaml:"local,omitempty"`
}

// LedgerConfig configures the on-disk index ledger.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// IndexerConfig configures chunking and file scanning.
type IndexerConfig struct {
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	MinChunkLength    int      `yaml:"min_chunk_length"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	FilterSensitive   bool     `yaml:"filter_sensitive"`
}

// SearchConfig configures scoring, fuzzy correction, and snippets.
type SearchConfig struct {
	TopK            int     `yaml:"top_k"`
	FetchBuffer     int     `yaml:"fetch_buffer"`
	SemanticWeight  float64 `yaml:"semantic_weight"`
	LexicalWeight   float64 `yaml:"lexical_weight"`
	FuzzyThreshold  float64 `yaml:"fuzzy_threshold"`
	MinFuzzyLength  int     `yaml:"min_fuzzy_length"`
	MaxSnippetLines int     `yaml:"max_snippet_sentences"`
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/sage/config.yaml.
// If neither exists it returns defaults without writing anything.
func LoadDefault() (*Config, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), "", nil
	}
	userPath := filepath.Join(home, ".config", "sage", "config.yaml")
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return Default(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9000
	}
	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "file_chunks"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "local"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 500
		}
	}
	if cfg.Embedder.Type == "local" {
		if cfg.Embedder.Local == nil {
			cfg.Embedder.Local = &LocalEmbedderConfig{}
		}
		if cfg.Embedder.Local.BaseURL == "" {
			cfg.Embedder.Local.BaseURL = "http://127.0.0.1:8000"
		}
		if cfg.Embedder.Local.Dimension == 0 {
			cfg.Embedder.Local.Dimension = 384
		}
		if cfg.Embedder.Local.TimeoutSecs == 0 {
			cfg.Embedder.Local.TimeoutSecs = 30
		}
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "index_state"
	}
	if cfg.Indexer.ChunkSize == 0 {
		cfg.Indexer.ChunkSize = 1000
	}
	if cfg.Indexer.ChunkOverlap == 0 {
		cfg.Indexer.ChunkOverlap = 200
	}
	if cfg.Indexer.MinChunkLength == 0 {
		cfg.Indexer.MinChunkLength = 40
	}
	if len(cfg.Indexer.AllowedExtensions) == 0 {
		cfg.Indexer.AllowedExtensions = []string{".txt", ".md", ".pdf", ".docx", ".ppt", ".pptx"}
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Search.FetchBuffer == 0 {
		cfg.Search.FetchBuffer = 10
	}
	// The blend weights default as a pair so an explicit zero survives:
	// semantic_weight: 0 with lexical_weight: 1 is a valid pure-lexical
	// configuration.
	if cfg.Search.SemanticWeight == 0 && cfg.Search.LexicalWeight == 0 {
		cfg.Search.SemanticWeight = 0.8
		cfg.Search.LexicalWeight = 0.2
	}
	if cfg.Search.FuzzyThreshold == 0 {
		cfg.Search.FuzzyThreshold = 0.75
	}
	if cfg.Search.MinFuzzyLength == 0 {
		cfg.Search.MinFuzzyLength = 4
	}
	if cfg.Search.MaxSnippetLines == 0 {
		cfg.Search.MaxSnippetLines = 3
	}
}
