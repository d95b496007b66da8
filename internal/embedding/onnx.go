//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a sentence-transformer model in-process with ONNX Runtime. Token vectors
// from last_hidden_state are mean pooled over the attention mask and normalized to unit length.
// It requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	mu            sync.Mutex
	session       *ort.AdvancedSession
	io            *onnxTensors
	modelID       string
	dimensions    int
	maxTokens     int
	maxInputChars int
	cache         *EmbeddingCache
	tokenizer     Tokenizer
}

var _ Embedder = (*ONNXEmbedder)(nil)

// onnxTensors are bound to the session once; each run overwrites the inputs in place.
type onnxTensors struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	hidden        *ort.Tensor[float32]
}

func newONNXTensors(maxTokens, dims int) (*onnxTensors, error) {
	t := &onnxTensors{}
	seq := ort.NewShape(1, int64(maxTokens))
	var err error
	if t.inputIDs, err = ort.NewEmptyTensor[int64](seq); err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	if t.attentionMask, err = ort.NewEmptyTensor[int64](seq); err != nil {
		t.destroy()
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	if t.tokenTypeIDs, err = ort.NewEmptyTensor[int64](seq); err != nil {
		t.destroy()
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	if t.hidden, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(maxTokens), int64(dims))); err != nil {
		t.destroy()
		return nil, fmt.Errorf("last_hidden_state tensor: %w", err)
	}
	return t, nil
}

func (t *onnxTensors) inputs() []ort.ArbitraryTensor {
	return []ort.ArbitraryTensor{t.inputIDs, t.attentionMask, t.tokenTypeIDs}
}

func (t *onnxTensors) load(ids, mask, types []int64) {
	copy(t.inputIDs.GetData(), ids)
	copy(t.attentionMask.GetData(), mask)
	copy(t.tokenTypeIDs.GetData(), types)
}

func (t *onnxTensors) destroy() {
	for _, in := range []*ort.Tensor[int64]{t.inputIDs, t.attentionMask, t.tokenTypeIDs} {
		if in != nil {
			_ = in.Destroy()
		}
	}
	if t.hidden != nil {
		_ = t.hidden.Destroy()
	}
	*t = onnxTensors{}
}

// NewONNXEmbedder loads the model at cfg.ModelPath, initializing the ONNX Runtime environment
// on first use.
func NewONNXEmbedder(cfg LocalConfig) (*ONNXEmbedder, error) {
	if cfg.Dimensions <= 0 || cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("invalid ONNX embedder shape: dimensions=%d max_tokens=%d", cfg.Dimensions, cfg.MaxTokens)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	modelID, err := localModelID(cfg.ModelPath, cfg.Dimensions)
	if err != nil {
		return nil, err
	}
	tensors, err := newONNXTensors(cfg.MaxTokens, cfg.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate ONNX tensors: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		tensors.inputs(),
		[]ort.ArbitraryTensor{tensors.hidden},
		nil,
	)
	if err != nil {
		tensors.destroy()
		return nil, fmt.Errorf("failed to create ONNX session for %s: %w", cfg.ModelPath, err)
	}

	return &ONNXEmbedder{
		session:       session,
		io:            tensors,
		modelID:       modelID,
		dimensions:    cfg.Dimensions,
		maxTokens:     cfg.MaxTokens,
		maxInputChars: cfg.MaxInputChars,
		cache:         NewEmbeddingCache(cfg.CacheSize),
		tokenizer:     &SimpleTokenizer{},
	}, nil
}

// EmbedQuery returns the embedding for text, serving repeated inputs from the cache.
func (e *ONNXEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = truncateInput(text, e.maxInputChars)
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("ONNX embedder is closed")
	}
	e.io.load(ids, mask, types)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	vec := MeanPool(e.io.hidden.GetData(), mask, e.dimensions)
	e.cache.Set(text, vec)
	return vec, nil
}

// EmbedDocuments calls EmbedQuery for each text.
func (e *ONNXEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.EmbedQuery)
}

// ModelID returns local:<file name>:<dimensions>:<digest of the model file>.
func (e *ONNXEmbedder) ModelID() string {
	return e.modelID
}

// Close destroys the session and its tensors. Later calls return an error.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.io.destroy()
	return err
}
