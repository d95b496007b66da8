package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperjump/kotae/pkg/utils"
)

const maxErrorBody = 512

// postJSON sends body to url and returns the response payload. Non-2xx answers become a
// CompletionError carrying the status code.
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, classify(provider, 0, fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, classify(provider, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(provider, 0, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(provider, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := utils.Truncate(strings.TrimSpace(string(data)), maxErrorBody)
		return nil, classify(provider, resp.StatusCode, fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode), msg))
	}
	return data, nil
}
