// Package embedding turns text into vectors through a remote API, an in-process ONNX model,
// or a deterministic mock.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kotae/pkg/utils"
)

// DefaultMaxInputChars is the number of characters of each input that is embedded.
// Longer inputs are truncated, not rejected.
const DefaultMaxInputChars = 512

// Embedder produces vector embeddings for text. All vectors from one Embedder share a
// model identity reported by ModelID; vectors from different models must not be compared.
type Embedder interface {
	// EmbedDocuments returns one vector per text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelID() string
	Close() error
}

// LocalConfig configures the ONNX embedder.
type LocalConfig struct {
	ModelPath     string
	Dimensions    int
	MaxTokens     int
	CacheSize     int
	MaxInputChars int
}

func truncateInput(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	return utils.TruncateRunes(text, maxChars)
}

// embedEach embeds texts one at a time in order with embed.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// localModelID identifies an exported model as local:<file name>:<dims>:<content digest>.
// Two exports that share a file name but differ in weights get different ids, and the id
// does not change when the data directory moves.
func localModelID(path string, dims int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash model: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("local:%s:%d:%s", name, dims, hex.EncodeToString(h.Sum(nil))[:12]), nil
}
