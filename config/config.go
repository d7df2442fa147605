package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the search engine.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourceConfig holds document source configuration.
type SourceConfig struct {
	Format   string   `yaml:"format"` // "json" or "dir"
	Path     string   `yaml:"path"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ChunkingConfig holds chunking configuration.
type ChunkingConfig struct {
	Strategy     string `yaml:"strategy"` // "fixed", "section", "hierarchical", "hybrid"
	ChunkSize    int    `yaml:"chunk_size"`
	OverlapSize  int    `yaml:"overlap_size"`
	MinChunkSize int    `yaml:"min_chunk_size"`
}

// PipelineConfig holds the cascading stage configuration.
type PipelineConfig struct {
	UseLexical bool `yaml:"use_lexical"`
	UseDense   bool `yaml:"use_dense"`
	UseRerank  bool `yaml:"use_rerank"`

	Stage1TopK int `yaml:"stage1_top_k"`
	Stage2TopK int `yaml:"stage2_top_k"`
	Stage3TopK int `yaml:"stage3_top_k"`

	LexicalWeight float64 `yaml:"lexical_weight"`
	DenseWeight   float64 `yaml:"dense_weight"`
	RerankWeight  float64 `yaml:"rerank_weight"`

	// BM25 parameters for the default lexical provider.
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`
}

// RankingConfig holds fusion, boosting and aggregation configuration.
type RankingConfig struct {
	Aggregation       string  `yaml:"aggregation"` // "max", "mean", "weighted_sum"
	BoostFactor       float64 `yaml:"boost_factor"`
	ContextWindow     int     `yaml:"context_window"`
	ChunksPerSearch   int     `yaml:"chunks_per_search"`
	MinScoreThreshold float64 `yaml:"min_score_threshold"` // filter results below this score (0 = disabled)
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "static"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// RerankerConfig holds reranker provider configuration.
type RerankerConfig struct {
	Provider  string `yaml:"provider"` // "cohere", "overlap"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max_entries"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Format:   "dir",
			Includes: []string{"**/*.md", "**/*.markdown", "**/*.txt"},
			Excludes: []string{"**/node_modules/**", "**/.git/**", "**/.docsearch/**"},
		},
		Chunking: ChunkingConfig{
			Strategy:     "hybrid",
			ChunkSize:    256,
			OverlapSize:  32,
			MinChunkSize: 50,
		},
		Pipeline: PipelineConfig{
			UseLexical:    true,
			UseDense:      false, // requires an embedding provider
			UseRerank:     false,
			Stage1TopK:    100,
			Stage2TopK:    50,
			Stage3TopK:    20,
			LexicalWeight: 0.3,
			DenseWeight:   0.4,
			RerankWeight:  0.3,
			K1:            1.2,
			B:             0.75,
		},
		Ranking: RankingConfig{
			Aggregation:     "max",
			BoostFactor:     1.2,
			ContextWindow:   1,
			ChunksPerSearch: 50,
		},
		Embedding: EmbeddingConfig{
			Provider:  "static",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 256,
			BatchSize: 32,
		},
		Reranker: RerankerConfig{
			Provider:  "overlap",
			Model:     "rerank-v3.5",
			APIKeyEnv: "COHERE_API_KEY",
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 100,
			TTLSeconds: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var validStrategies = map[string]struct{}{
	"fixed": {}, "section": {}, "hierarchical": {}, "hybrid": {},
}

var validAggregations = map[string]struct{}{
	"max": {}, "mean": {}, "weighted_sum": {},
}

// Validate rejects invalid configuration at construction time so that bad
// combinations never surface mid-query.
func (c *Config) Validate() error {
	if _, ok := validStrategies[c.Chunking.Strategy]; !ok {
		return fmt.Errorf("unknown chunking strategy: %q", c.Chunking.Strategy)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.OverlapSize < 0 {
		return fmt.Errorf("overlap_size must not be negative, got %d", c.Chunking.OverlapSize)
	}
	if c.Chunking.OverlapSize >= c.Chunking.ChunkSize {
		return fmt.Errorf("overlap_size (%d) must be smaller than chunk_size (%d)",
			c.Chunking.OverlapSize, c.Chunking.ChunkSize)
	}
	if c.Chunking.MinChunkSize < 0 {
		return fmt.Errorf("min_chunk_size must not be negative, got %d", c.Chunking.MinChunkSize)
	}
	if _, ok := validAggregations[c.Ranking.Aggregation]; !ok {
		return fmt.Errorf("unknown aggregation law: %q", c.Ranking.Aggregation)
	}
	if c.Ranking.ContextWindow < 0 {
		return fmt.Errorf("context_window must not be negative, got %d", c.Ranking.ContextWindow)
	}
	if c.Pipeline.Stage1TopK <= 0 || c.Pipeline.Stage2TopK <= 0 || c.Pipeline.Stage3TopK <= 0 {
		return fmt.Errorf("stage top_k values must be positive, got %d/%d/%d",
			c.Pipeline.Stage1TopK, c.Pipeline.Stage2TopK, c.Pipeline.Stage3TopK)
	}
	if c.Pipeline.LexicalWeight < 0 || c.Pipeline.DenseWeight < 0 || c.Pipeline.RerankWeight < 0 {
		return fmt.Errorf("stage weights must not be negative")
	}
	total := 0.0
	if c.Pipeline.UseLexical {
		total += c.Pipeline.LexicalWeight
	}
	if c.Pipeline.UseDense {
		total += c.Pipeline.DenseWeight
	}
	if c.Pipeline.UseRerank {
		total += c.Pipeline.RerankWeight
	}
	if c.Pipeline.UseLexical || c.Pipeline.UseDense || c.Pipeline.UseRerank {
		if total == 0 {
			return fmt.Errorf("stage weights of enabled stages sum to zero")
		}
	}
	return nil
}

// Load loads configuration from a YAML file. Missing file returns defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docsearch.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docsearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docsearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the on-disk corpus cache.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".docsearch", "index.db")
}

// EnsureDataDir ensures the .docsearch directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docsearch"), 0755)
}
