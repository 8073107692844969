package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_ParsesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	src := `
sources:
  - dir: ./data/HR
    base_url: https://example.org/policies/
    doc_type: HR Policy
embedding:
  base_url: https://api.openai.com/v1
  model: text-embedding-3-large
  base_delay: 500ms
chat:
  model: gpt-4o-mini
rag:
  seed_file: ./seed.json
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].DocType != "HR Policy" {
		t.Errorf("sources = %+v", cfg.Sources)
	}
	if cfg.EmbedLLM.BaseDelay.Std() != 500*time.Millisecond {
		t.Errorf("base delay = %v", cfg.EmbedLLM.BaseDelay.Std())
	}
	// Defaults fill everything the file omits.
	if cfg.EmbedLLM.Dimension != 1024 || cfg.EmbedLLM.MaxRetries != 3 || cfg.EmbedLLM.Workers != 5 {
		t.Errorf("embedding defaults = %+v", cfg.EmbedLLM)
	}
	if cfg.RAG.ChunkMaxTokens != 400 || cfg.RAG.Top != 3 || cfg.RAG.ResponseTokenLimit != 1024 {
		t.Errorf("rag defaults = %+v", cfg.RAG)
	}
	if cfg.LocalStore.Collection == "" {
		t.Error("local store collection default missing")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDuration_BadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("embedding:\n  base_delay: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unparseable duration")
	}
}
