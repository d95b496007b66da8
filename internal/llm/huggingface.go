package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HuggingFaceModel calls a HuggingFace text-generation inference endpoint.
type HuggingFaceModel struct {
	opts Options
}

var _ ChatModel = (*HuggingFaceModel)(nil)

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfGeneration struct {
	GeneratedText string          `json:"generated_text"`
	Error         json.RawMessage `json:"error"`
}

// NewHuggingFaceModel returns a text-generation model. The API key is optional for public models.
func NewHuggingFaceModel(opts Options) (*HuggingFaceModel, error) {
	opts = opts.withDefaults()
	if opts.BaseURL == "" || opts.Model == "" {
		return nil, errors.New("huggingface base URL and model are required")
	}
	return &HuggingFaceModel{opts: opts}, nil
}

// Invoke posts prompt to <base>/<model> and returns the generated text without the prompt echo.
func (m *HuggingFaceModel) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := m.opts.callContext(ctx)
	defer cancel()

	url := strings.TrimRight(m.opts.BaseURL, "/") + "/" + m.opts.Model
	data, err := postJSON(ctx, m.opts.HTTPClient, "huggingface", url, m.opts.APIKey, hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens: m.opts.MaxTokens,
			Temperature:  m.opts.Temperature,
		},
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return "", err
	}
	text, err := parseGeneration(data)
	if err != nil {
		return "", classify("huggingface", 0, err)
	}
	return strings.TrimPrefix(text, prompt), nil
}

// Name returns "huggingface:<model>".
func (m *HuggingFaceModel) Name() string {
	return "huggingface:" + m.opts.Model
}

// parseGeneration accepts [{"generated_text"}], {"generated_text"}, or a bare JSON string.
func parseGeneration(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", errors.New("empty generation response")
	}
	switch data[0] {
	case '[':
		var list []hfGeneration
		if err := json.Unmarshal(data, &list); err != nil {
			return "", fmt.Errorf("decode generation: %w", err)
		}
		if len(list) == 0 {
			return "", errors.New("generation response was empty")
		}
		return list[0].GeneratedText, nil
	case '{':
		var gen hfGeneration
		if err := json.Unmarshal(data, &gen); err != nil {
			return "", fmt.Errorf("decode generation: %w", err)
		}
		if len(gen.Error) > 0 && string(gen.Error) != "null" {
			return "", fmt.Errorf("generation error: %s", errorMessage(gen.Error))
		}
		return gen.GeneratedText, nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", fmt.Errorf("decode generation: %w", err)
		}
		return s, nil
	default:
		return "", fmt.Errorf("unexpected generation response: %.64s", data)
	}
}

func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}
