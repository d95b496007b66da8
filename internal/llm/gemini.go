package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiModel generates text with the Gemini API.
type GeminiModel struct {
	opts   Options
	client *genai.Client
}

var _ ChatModel = (*GeminiModel)(nil)

// NewGeminiModel creates a Gemini API client. BaseURL, when set, overrides the API endpoint.
func NewGeminiModel(ctx context.Context, opts Options) (*GeminiModel, error) {
	opts = opts.withDefaults()
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is not set")
	}
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiModel{opts: opts, client: client}, nil
}

// Invoke sends prompt as a single user turn and joins the text parts of the first candidate.
func (m *GeminiModel) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := m.opts.callContext(ctx)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(m.opts.Temperature)),
	}
	if m.opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(m.opts.MaxTokens)
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, genai.Text(prompt), config)
	if err != nil {
		return "", classify("gemini", geminiStatus(err), err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", classify("gemini", 0, errors.New("response contained no candidates"))
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", classify("gemini", 0, errors.New("response contained no text"))
	}
	return sb.String(), nil
}

// Name returns "gemini:<model>".
func (m *GeminiModel) Name() string {
	return "gemini:" + m.opts.Model
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
