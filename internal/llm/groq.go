package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GroqModel calls Groq's OpenAI-compatible chat completions endpoint directly.
type GroqModel struct {
	opts Options
}

var _ ChatModel = (*GroqModel)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewGroqModel returns a Groq chat model.
func NewGroqModel(opts Options) (*GroqModel, error) {
	opts = opts.withDefaults()
	if opts.APIKey == "" {
		return nil, errors.New("groq api key is not set")
	}
	if opts.BaseURL == "" || opts.Model == "" {
		return nil, errors.New("groq base URL and model are required")
	}
	return &GroqModel{opts: opts}, nil
}

// Invoke posts prompt as a single user message and returns choices[0].message.content.
func (m *GroqModel) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := m.opts.callContext(ctx)
	defer cancel()

	url := strings.TrimRight(m.opts.BaseURL, "/") + "/chat/completions"
	data, err := postJSON(ctx, m.opts.HTTPClient, "groq", url, m.opts.APIKey, chatRequest{
		Model:       m.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: m.opts.Temperature,
		MaxTokens:   m.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", classify("groq", 0, fmt.Errorf("decode response: %w", err))
	}
	if resp.Error != nil {
		return "", classify("groq", 0, errors.New(resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return "", classify("groq", 0, errors.New("response contained no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns "groq:<model>".
func (m *GroqModel) Name() string {
	return "groq:" + m.opts.Model
}
