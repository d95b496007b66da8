package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// OpenAIModel talks to OpenAI or any OpenAI-compatible API (Together) through langchaingo.
type OpenAIModel struct {
	provider string
	opts     Options
	llm      *openai.LLM
}

var _ ChatModel = (*OpenAIModel)(nil)

// NewOpenAIModel returns a model for provider ("openai" or "together"). BaseURL is optional
// for OpenAI.
func NewOpenAIModel(provider string, opts Options) (*OpenAIModel, error) {
	opts = opts.withDefaults()
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s api key is not set", provider)
	}
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}
	clientOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
		openai.WithHTTPClient(opts.HTTPClient),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")))
	}
	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", provider, err)
	}
	return &OpenAIModel{provider: provider, opts: opts, llm: llm}, nil
}

// Invoke sends prompt as a single user message.
func (m *OpenAIModel) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := m.opts.callContext(ctx)
	defer cancel()

	callOpts := []llms.CallOption{llms.WithTemperature(m.opts.Temperature)}
	if m.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(m.opts.MaxTokens))
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, callOpts...)
	if err != nil {
		m.opts.Logger.Debug("chat completion failed", zap.String("provider", m.provider), zap.Error(err))
		return "", classify(m.provider, statusFromMessage(err.Error()), err)
	}
	return text, nil
}

// Name returns "<provider>:<model>".
func (m *OpenAIModel) Name() string {
	return m.provider + ":" + m.opts.Model
}

var statusCodePattern = regexp.MustCompile(`status code:? (\d{3})`)

// statusFromMessage extracts the HTTP status langchaingo embeds in its error text.
func statusFromMessage(msg string) int {
	m := statusCodePattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}
