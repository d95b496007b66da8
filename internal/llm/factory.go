package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the chat model selected by cfg.Provider. The API key is read from the
// environment variable named by cfg.APIKeyEnv.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (ChatModel, error) {
	opts := Options{
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey(),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout(),
		Logger:      logger,
	}
	if opts.APIKey == "" && cfg.Provider != "huggingface" {
		return nil, fmt.Errorf("%s api key is not set: export %s", cfg.Provider, cfg.APIKeyEnv)
	}
	switch cfg.Provider {
	case "openai", "together":
		return NewOpenAIModel(cfg.Provider, opts)
	case "groq":
		return NewGroqModel(opts)
	case "gemini":
		return NewGeminiModel(ctx, opts)
	case "huggingface":
		return NewHuggingFaceModel(opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
