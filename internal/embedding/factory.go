package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "remote":
		r := cfg.Remote
		return NewRemoteEmbedder(RemoteConfig{
			Format:        r.Format,
			BaseURL:       r.BaseURL,
			Model:         r.Model,
			APIKey:        r.APIKey(),
			Timeout:       r.Timeout(),
			MaxAttempts:   r.MaxAttempts,
			Backoff:       r.Backoff(),
			Interval:      r.Interval(),
			MaxInputChars: cfg.MaxInputChars,
			CacheSize:     r.CacheSize,
		}, WithLogger(logger))
	case "local":
		l := cfg.Local
		e, err := NewONNXEmbedder(LocalConfig{
			ModelPath:     l.ModelPath,
			Dimensions:    l.Dimensions,
			MaxTokens:     l.MaxTokens,
			CacheSize:     l.CacheSize,
			MaxInputChars: cfg.MaxInputChars,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case "mock":
		m := NewMockEmbedder(cfg.Mock.Dimensions)
		if cfg.MaxInputChars > 0 {
			m.maxInputChars = cfg.MaxInputChars
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
