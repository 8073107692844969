package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes yaml strings like "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LLMConfig holds connection settings for one OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL    string `yaml:"base_url"`
	Key        string `yaml:"key"`
	Model      string `yaml:"model"`
	Deployment string `yaml:"deployment"`
}

// EmbeddingConfig extends LLMConfig with retry and dimensionality settings.
type EmbeddingConfig struct {
	LLMConfig  `yaml:",inline"`
	Dimension  int      `yaml:"dimension"`
	MaxRetries int      `yaml:"max_retries"`
	BaseDelay  Duration `yaml:"base_delay"`
	Workers    int      `yaml:"workers"`
}

// SourceConfig binds one document directory to its public URL prefix and
// document-type label.
type SourceConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
	DocType string `yaml:"doc_type"`
}

type RAGConfig struct {
	ChunkMaxTokens     int     `yaml:"chunk_max_tokens"`
	Top                int     `yaml:"top"`
	Temperature        float64 `yaml:"temperature"`
	ResponseTokenLimit int     `yaml:"response_token_limit"`
	SeedFile           string  `yaml:"seed_file"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// LocalStoreConfig configures the chromem-backed store used when serving
// without Postgres.
type LocalStoreConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

// Config is built once at process start and passed by reference into the
// ingestion pipeline and the orchestrator. It is never mutated afterwards.
type Config struct {
	Sources    []SourceConfig   `yaml:"sources"`
	EmbedLLM   EmbeddingConfig  `yaml:"embedding"`
	ChatLLM    LLMConfig        `yaml:"chat"`
	RAG        RAGConfig        `yaml:"rag"`
	Database   DatabaseConfig   `yaml:"database"`
	LocalStore LocalStoreConfig `yaml:"local_store"`
}

const (
	defaultChunkMaxTokens     = 400
	defaultTop                = 3
	defaultTemperature        = 0.3
	defaultResponseTokenLimit = 1024
	defaultMaxRetries         = 3
	defaultBaseDelay          = 2 * time.Second
	defaultWorkers            = 5
	defaultDimension          = 1024
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RAG.ChunkMaxTokens == 0 {
		c.RAG.ChunkMaxTokens = defaultChunkMaxTokens
	}
	if c.RAG.Top == 0 {
		c.RAG.Top = defaultTop
	}
	if c.RAG.Temperature == 0 {
		c.RAG.Temperature = defaultTemperature
	}
	if c.RAG.ResponseTokenLimit == 0 {
		c.RAG.ResponseTokenLimit = defaultResponseTokenLimit
	}
	if c.EmbedLLM.MaxRetries == 0 {
		c.EmbedLLM.MaxRetries = defaultMaxRetries
	}
	if c.EmbedLLM.BaseDelay == 0 {
		c.EmbedLLM.BaseDelay = Duration(defaultBaseDelay)
	}
	if c.EmbedLLM.Workers == 0 {
		c.EmbedLLM.Workers = defaultWorkers
	}
	if c.EmbedLLM.Dimension == 0 {
		c.EmbedLLM.Dimension = defaultDimension
	}
	if c.LocalStore.Collection == "" {
		c.LocalStore.Collection = "policy_collection"
	}
}
