package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retry"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Request formats understood by RemoteEmbedder.
const (
	FormatHuggingFace = "huggingface"
	FormatOpenAI      = "openai"
)

const (
	defaultRemoteTimeout  = 30 * time.Second
	defaultRemoteAttempts = 3
	defaultRemoteBackoff  = time.Second
	defaultRemoteInterval = 200 * time.Millisecond
	maxErrorBodyBytes     = 512
)

// RemoteConfig configures a RemoteEmbedder.
type RemoteConfig struct {
	Format  string
	BaseURL string
	Model   string
	APIKey  string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of attempts per text.
	MaxAttempts int
	// Backoff is the base wait between attempts; the n-th retry waits n*Backoff.
	Backoff time.Duration
	// Interval is the minimum spacing between calls. Negative disables spacing.
	Interval      time.Duration
	MaxInputChars int
	// CacheSize is the number of query vectors kept in memory. Zero disables caching.
	CacheSize int
}

// StatusError is returned when the embedding API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return fmt.Sprintf("embedding API rate limit exceeded (status %d): %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("embedding API returned status %d: %s", e.StatusCode, e.Body)
	}
}

// RemoteEmbedder calls an HTTP embedding API once per text, sequentially, with retries.
type RemoteEmbedder struct {
	cfg     RemoteConfig
	client  *http.Client
	limiter *rate.Limiter
	cache   *EmbeddingCache
	logger  *zap.Logger
}

// RemoteOption configures a RemoteEmbedder.
type RemoteOption func(*RemoteEmbedder)

// WithLogger sets a logger for retry warnings.
func WithLogger(l *zap.Logger) RemoteOption {
	return func(e *RemoteEmbedder) { e.logger = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(e *RemoteEmbedder) { e.client = c }
}

var _ Embedder = (*RemoteEmbedder)(nil)

// NewRemoteEmbedder returns an embedder for the API described by cfg. Zero values take defaults:
// 30s timeout, 3 attempts, 1s backoff, 200ms interval, 512 input characters.
func NewRemoteEmbedder(cfg RemoteConfig, opts ...RemoteOption) (*RemoteEmbedder, error) {
	if cfg.Format == "" {
		cfg.Format = FormatHuggingFace
	}
	if cfg.Format != FormatHuggingFace && cfg.Format != FormatOpenAI {
		return nil, fmt.Errorf("unknown embedding format %q", cfg.Format)
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRemoteTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultRemoteAttempts
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = defaultRemoteBackoff
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaultRemoteInterval
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	e := &RemoteEmbedder{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
		cache:   NewEmbeddingCache(cfg.CacheSize),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EmbedDocuments embeds each text with its own request, in order.
func (e *RemoteEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.EmbedQuery)
}

// EmbedQuery embeds a single text.
func (e *RemoteEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = truncateInput(text, e.cfg.MaxInputChars)
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailed, err)
	}
	var vec []float32
	policy := retry.Policy{
		MaxAttempts: e.cfg.MaxAttempts,
		Backoff:     e.cfg.Backoff,
		OnRetry: func(attempt int, err error) {
			e.logger.Warn("embedding request failed, retrying",
				zap.String("model", e.cfg.Model),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", e.cfg.MaxAttempts),
				zap.Error(err))
		},
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		v, err := e.request(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %w", models.ErrEmbeddingFailed, e.cfg.MaxAttempts, err)
	}
	e.cache.Set(text, vec)
	return vec, nil
}

// ModelID identifies the remote model, including the request format.
func (e *RemoteEmbedder) ModelID() string {
	return "remote:" + e.cfg.Format + ":" + e.cfg.Model
}

// Close releases idle connections.
func (e *RemoteEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *RemoteEmbedder) endpoint() string {
	base := strings.TrimRight(e.cfg.BaseURL, "/")
	if e.cfg.Format == FormatOpenAI {
		return base + "/embeddings"
	}
	return base + "/" + e.cfg.Model
}

func (e *RemoteEmbedder) requestBody(text string) ([]byte, error) {
	if e.cfg.Format == FormatOpenAI {
		return json.Marshal(map[string]interface{}{
			"model": e.cfg.Model,
			"input": text,
		})
	}
	return json.Marshal(map[string]interface{}{
		"inputs":  text,
		"options": map[string]bool{"wait_for_model": true},
	})
}

func (e *RemoteEmbedder) request(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	body, err := e.requestBody(text)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: utils.Truncate(strings.TrimSpace(string(data)), maxErrorBodyBytes)}
	}
	vec, err := parseEmbedding(data)
	if err != nil {
		return nil, err
	}
	utils.NormalizeL2(vec)
	return vec, nil
}
