// Package llm wraps the chat-completion backends used to answer questions.
package llm

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ChatModel completes a single prompt.
type ChatModel interface {
	// Invoke sends prompt and returns the generated text. Errors are *CompletionError.
	Invoke(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider and model, e.g. "groq:llama-3.1-8b-instant".
	Name() string
}

// Options holds the settings shared by every provider.
type Options struct {
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	// Timeout bounds each Invoke call. Zero means no limit beyond the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}
