// Package config provides configuration loading and structs for the kotae server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kotae/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

// StorageConfig holds paths for the database, uploaded files, and vector shards.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	UploadDir       string `yaml:"upload_dir"`
	VectorStorePath string `yaml:"vector_store_path"`
}

// ChunkingConfig holds the character window used to split documents.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig selects the embedding provider. Only one provider is active per process.
type EmbeddingConfig struct {
	// Provider is one of "remote", "local", or "mock".
	Provider      string                `yaml:"provider"`
	MaxInputChars int                   `yaml:"max_input_chars"`
	Remote        RemoteEmbeddingConfig `yaml:"remote"`
	Local         LocalEmbeddingConfig  `yaml:"local"`
	Mock          MockEmbeddingConfig   `yaml:"mock"`
}

// RemoteEmbeddingConfig holds settings for an HTTP embedding API.
type RemoteEmbeddingConfig struct {
	// Format is "huggingface" or "openai"; it selects the request body and endpoint layout.
	Format         string `yaml:"format"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxAttempts    int    `yaml:"max_attempts"`
	BackoffMillis  int    `yaml:"backoff_ms"`
	IntervalMillis int    `yaml:"interval_ms"`
	CacheSize      int    `yaml:"cache_size"`
}

// LocalEmbeddingConfig holds ONNX embedder settings.
type LocalEmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// MockEmbeddingConfig holds settings for the deterministic offline embedder.
type MockEmbeddingConfig struct {
	Dimensions int `yaml:"dimensions"`
}

// LLMConfig selects the chat-completion provider.
type LLMConfig struct {
	// Provider is one of "openai", "together", "groq", "gemini", or "huggingface".
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// RAGConfig holds answer generation settings.
type RAGConfig struct {
	TopK                int `yaml:"top_k"`
	TitleTimeoutSeconds int `yaml:"title_timeout_seconds"`
}

// Timeout returns the per-request timeout for remote embedding calls.
func (c RemoteEmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff returns the base backoff between embedding attempts.
func (c RemoteEmbeddingConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMillis) * time.Millisecond
}

// Interval returns the minimum spacing between embedding calls.
func (c RemoteEmbeddingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMillis) * time.Millisecond
}

// APIKey returns the remote embedding API key from the environment.
func (c RemoteEmbeddingConfig) APIKey() string {
	return lookupEnv(c.APIKeyEnv)
}

// Timeout returns the per-call timeout for the chat model.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// APIKey returns the chat model API key from the environment.
func (c LLMConfig) APIKey() string {
	return lookupEnv(c.APIKeyEnv)
}

// TitleTimeout returns the upper bound for conversation title generation.
func (c RAGConfig) TitleTimeout() time.Duration {
	return time.Duration(c.TitleTimeoutSeconds) * time.Second
}

func lookupEnv(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// Load reads and parses the config file at path, applies defaults, expands paths, and validates.
// Returns an error if the file cannot be read or parsed, or if the result is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	cfg.Storage.VectorStorePath = expandPath(cfg.Storage.VectorStorePath, configDir)
	cfg.Embedding.Local.ModelPath = expandPath(cfg.Embedding.Local.ModelPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv loads environment variables from a .env file next to the config, then from the
// working directory. Missing files are ignored; variables already set are not overridden.
func LoadEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

var (
	embeddingProviders = map[string]bool{"remote": true, "local": true, "mock": true}
	remoteFormats      = map[string]bool{"huggingface": true, "openai": true}
	llmProviders       = map[string]bool{"openai": true, "together": true, "groq": true, "gemini": true, "huggingface": true}
)

// Validate checks settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	if err := ValidateChunking(c.Chunking.ChunkSize, c.Chunking.ChunkOverlap); err != nil {
		return err
	}
	if !embeddingProviders[c.Embedding.Provider] {
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "remote" && !remoteFormats[c.Embedding.Remote.Format] {
		return fmt.Errorf("unknown remote embedding format %q", c.Embedding.Remote.Format)
	}
	if c.Embedding.MaxInputChars <= 0 {
		return errors.New("embedding max_input_chars must be positive")
	}
	if !llmProviders[c.LLM.Provider] {
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.RAG.TopK <= 0 {
		return errors.New("rag top_k must be positive")
	}
	return nil
}

// ValidateChunking returns models.ErrInvalidChunkConfig unless 0 <= overlap < size.
func ValidateChunking(size, overlap int) error {
	if size <= 0 || overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: chunk_size=%d chunk_overlap=%d (overlap must be smaller than size)",
			models.ErrInvalidChunkConfig, size, overlap)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
