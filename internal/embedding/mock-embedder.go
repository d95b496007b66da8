package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/hyperjump/kotae/pkg/utils"
)

// MockEmbedder is a deterministic bag-of-words embedder for tests and offline development.
// Each word counts toward the dimension picked by its FNV-1a hash, so vectors depend only on
// the text and the dimensions: two embedders of the same size agree, across processes too.
// Texts sharing words score higher than texts that do not.
type MockEmbedder struct {
	dimensions    int
	maxInputChars int
	mu            sync.Mutex
	calls         int
}

var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{
		dimensions:    dimensions,
		maxInputChars: DefaultMaxInputChars,
	}
}

// EmbedQuery returns the normalized word-count vector of text.
func (e *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = truncateInput(text, e.maxInputChars)
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	emb := make([]float32, e.dimensions)
	for _, word := range SplitWords(text) {
		emb[e.slot(word)]++
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

func (e *MockEmbedder) slot(word string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int(h.Sum32() % uint32(e.dimensions))
}

// EmbedDocuments calls EmbedQuery for each text.
func (e *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.EmbedQuery)
}

// ModelID returns "mock:<dimensions>".
func (e *MockEmbedder) ModelID() string {
	return fmt.Sprintf("mock:%d", e.dimensions)
}

// Calls returns how many texts have been embedded.
func (e *MockEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
