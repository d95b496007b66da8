package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
llm:
  provider: groq
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Errorf("groq default model: got %s", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("groq default base url: got %s", cfg.LLM.BaseURL)
	}
	if cfg.LLM.APIKeyEnv != "GROQ_API_KEY" {
		t.Errorf("groq default key env: got %s", cfg.LLM.APIKeyEnv)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/kotae.db"
  upload_dir: "./data/uploads"
  vector_store_path: "./data/vector_stores"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "kotae.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "uploads"); cfg.Storage.UploadDir != want {
		t.Errorf("upload_dir = %s, want %s", cfg.Storage.UploadDir, want)
	}
	if want := filepath.Join(dir, "data", "vector_stores"); cfg.Storage.VectorStorePath != want {
		t.Errorf("vector_store_path = %s, want %s", cfg.Storage.VectorStorePath, want)
	}
}

func TestLoad_invalidChunkConfig(t *testing.T) {
	path := writeConfig(t, `
chunking:
  chunk_size: 100
  chunk_overlap: 100
`)
	_, err := Load(path)
	if !errors.Is(err, models.ErrInvalidChunkConfig) {
		t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
	}
}

func TestLoad_unknownProvider(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: "carrier-pigeon"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown llm provider")
	}
	path = writeConfig(t, `
embedding:
  provider: "telepathy"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown embedding provider")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 200 {
		t.Errorf("default chunking: got %+v", cfg.Chunking)
	}
	if cfg.Embedding.Provider != "remote" || cfg.Embedding.MaxInputChars != 512 {
		t.Errorf("default embedding: got provider=%s max_input_chars=%d", cfg.Embedding.Provider, cfg.Embedding.MaxInputChars)
	}
	r := cfg.Embedding.Remote
	if r.Format != "huggingface" || r.MaxAttempts != 3 || r.BackoffMillis != 1000 || r.IntervalMillis != 200 {
		t.Errorf("default remote embedding: got %+v", r)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Errorf("default llm: got %+v", cfg.LLM)
	}
	if cfg.LLM.Temperature != 0.7 || cfg.LLM.MaxTokens != 512 {
		t.Errorf("default llm sampling: got temperature=%v max_tokens=%d", cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	if cfg.RAG.TopK != 4 {
		t.Errorf("default top_k: got %d", cfg.RAG.TopK)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_explicitSizeKeepsZeroOverlap(t *testing.T) {
	cfg := &Config{Chunking: ChunkingConfig{ChunkSize: 500}}
	ApplyDefaults(cfg)
	if cfg.Chunking.ChunkOverlap != 0 {
		t.Errorf("overlap should stay 0 when size is explicit, got %d", cfg.Chunking.ChunkOverlap)
	}
}

func TestApplyDefaults_openAIEmbeddingFormat(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Remote: RemoteEmbeddingConfig{Format: "openai"}}}
	ApplyDefaults(cfg)
	if cfg.Embedding.Remote.BaseURL != "https://api.openai.com/v1" || cfg.Embedding.Remote.Model != "text-embedding-3-small" {
		t.Errorf("openai embedding defaults: got %+v", cfg.Embedding.Remote)
	}
}

func TestValidateChunking(t *testing.T) {
	tests := []struct {
		size, overlap int
		ok            bool
	}{
		{1000, 200, true},
		{10, 0, true},
		{10, 9, true},
		{10, 10, false},
		{10, 11, false},
		{0, 0, false},
		{10, -1, false},
	}
	for _, tt := range tests {
		err := ValidateChunking(tt.size, tt.overlap)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateChunking(%d, %d) = %v, want ok=%v", tt.size, tt.overlap, err, tt.ok)
		}
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("KOTAE_TEST_KEY", "  secret  ")
	c := LLMConfig{APIKeyEnv: "KOTAE_TEST_KEY"}
	if got := c.APIKey(); got != "secret" {
		t.Errorf("APIKey() = %q", got)
	}
	if got := (LLMConfig{}).APIKey(); got != "" {
		t.Errorf("empty env name should give empty key, got %q", got)
	}
}

func TestLoadEnv(t *testing.T) {
	path := writeConfig(t, "debug: false\n")
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(envPath, []byte("KOTAE_DOTENV_TEST=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KOTAE_DOTENV_TEST", "")
	os.Unsetenv("KOTAE_DOTENV_TEST")
	if err := LoadEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("KOTAE_DOTENV_TEST"); got != "from-dotenv" {
		t.Errorf("KOTAE_DOTENV_TEST = %q", got)
	}
}
