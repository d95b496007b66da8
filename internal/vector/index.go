package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
)

// DefaultK is the number of results Search returns when k is not positive.
const DefaultK = 4

// Index creates, caches, loads and deletes document shards. Each shard id has its own lock:
// loads take it shared once the shard is cached, creates and deletes take it exclusively.
type Index struct {
	embedder embedding.Embedder
	store    ShardStore
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.RWMutex
	shard   *Shard
	deleted bool
	cached  atomic.Bool
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for skipped shards.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Index) { idx.logger = l }
}

// NewIndex returns an index that embeds with embedder and persists to store.
func NewIndex(embedder embedding.Embedder, store ShardStore, opts ...Option) *Index {
	idx := &Index{
		embedder: embedder,
		store:    store,
		logger:   zap.NewNop(),
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// ModelID returns the model identity of the active embedder.
func (idx *Index) ModelID() string {
	return idx.embedder.ModelID()
}

func (idx *Index) entryFor(id string) *entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e, ok := idx.entries[id]
	if !ok {
		e = &entry{}
		idx.entries[id] = e
	}
	return e
}

// dropEntry removes e from the map if it is still the entry for id. Callers hold e.mu.
func (idx *Index) dropEntry(id string, e *entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.entries[id] == e {
		delete(idx.entries, id)
	}
}

// Create embeds the chunks in order, persists the shard under documentID and caches it.
// Nothing is cached or left on disk when any step fails.
func (idx *Index) Create(ctx context.Context, chunks []models.Chunk, documentID string) (string, error) {
	if err := ValidateShardID(documentID); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("%w: no chunks to index", models.ErrInvalidInput)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return "", err
	}
	if len(vecs) != len(chunks) {
		return "", fmt.Errorf("%w: got %d vectors for %d chunks", models.ErrEmbeddingFailed, len(vecs), len(chunks))
	}

	shard := &Shard{
		ID:        documentID,
		ModelID:   idx.embedder.ModelID(),
		Records:   make([]Record, len(chunks)),
		CreatedAt: time.Now(),
	}
	for i, c := range chunks {
		shard.Records[i] = Record{
			Content:  c.Content,
			Vector:   vecs[i],
			Metadata: Metadata{DocumentID: documentID, ChunkIndex: c.ChunkIndex},
		}
	}

	for {
		e := idx.entryFor(documentID)
		e.mu.Lock()
		if e.deleted {
			e.mu.Unlock()
			continue
		}
		if err := idx.store.Put(ctx, shard); err != nil {
			if e.shard == nil {
				idx.dropEntry(documentID, e)
			}
			e.mu.Unlock()
			return "", fmt.Errorf("persist shard %s: %w", documentID, err)
		}
		e.shard = shard
		e.cached.Store(true)
		e.mu.Unlock()
		break
	}
	idx.logger.Debug("vector shard created",
		zap.String("shard_id", documentID),
		zap.Int("records", len(shard.Records)))
	return documentID, nil
}

// shard returns the cached shard for id, reading it from the store on a miss.
func (idx *Index) shard(ctx context.Context, id string) (*Shard, error) {
	for {
		e := idx.entryFor(id)
		e.mu.RLock()
		if e.deleted {
			e.mu.RUnlock()
			continue
		}
		if s := e.shard; s != nil {
			e.mu.RUnlock()
			return s, idx.checkModel(s)
		}
		e.mu.RUnlock()

		e.mu.Lock()
		if e.deleted {
			e.mu.Unlock()
			continue
		}
		if e.shard == nil {
			s, err := idx.readShard(ctx, id)
			if err != nil {
				idx.dropEntry(id, e)
				e.mu.Unlock()
				return nil, err
			}
			e.shard = s
			e.cached.Store(true)
		}
		s := e.shard
		e.mu.Unlock()
		return s, nil
	}
}

func (idx *Index) readShard(ctx context.Context, id string) (*Shard, error) {
	if err := ValidateShardID(id); err != nil {
		return nil, err
	}
	s, err := idx.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.ModelID == "" {
		for i := range s.Records {
			s.Records[i].Vector = nil
		}
		s.ModelID = idx.embedder.ModelID()
	}
	if err := idx.checkModel(s); err != nil {
		return nil, err
	}
	if missing := s.missingVectors(); len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, pos := range missing {
			texts[i] = s.Records[pos].Content
		}
		vecs, err := idx.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("re-embed shard %s: %w", id, err)
		}
		for i, pos := range missing {
			s.Records[pos].Vector = vecs[i]
		}
		idx.logger.Info("re-embedded shard records",
			zap.String("shard_id", id),
			zap.Int("records", len(missing)))
	}
	return s, nil
}

func (idx *Index) checkModel(s *Shard) error {
	if want := idx.embedder.ModelID(); s.ModelID != want {
		return fmt.Errorf("%w: shard %s was embedded with %q, active model is %q",
			models.ErrProviderModelMismatch, s.ID, s.ModelID, want)
	}
	return nil
}

// Load builds a merged view over the shards in ids, in order. A failure on the first id is
// returned as ErrVectorIndexLoadFailed; failures on later ids are logged and skipped.
func (idx *Index) Load(ctx context.Context, ids []string) (*MergedView, error) {
	view := &MergedView{}
	for i, id := range ids {
		s, err := idx.shard(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", models.ErrVectorIndexLoadFailed, ctxErr)
			}
			if i == 0 {
				return nil, fmt.Errorf("%w: shard %s: %w", models.ErrVectorIndexLoadFailed, id, err)
			}
			idx.logger.Warn("skipping vector shard",
				zap.String("shard_id", id),
				zap.Error(err))
			continue
		}
		view.add(s)
	}
	return view, nil
}

// Delete drops the shard from the cache and the store. Deleting a missing shard succeeds.
func (idx *Index) Delete(ctx context.Context, documentID string) error {
	if err := ValidateShardID(documentID); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	e := idx.entryFor(documentID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := idx.store.Delete(ctx, documentID); err != nil && !errors.Is(err, ErrShardNotFound) {
		return err
	}
	e.deleted = true
	e.shard = nil
	e.cached.Store(false)
	idx.dropEntry(documentID, e)
	idx.logger.Debug("vector shard deleted", zap.String("shard_id", documentID))
	return nil
}

// Size returns the number of cached shards.
func (idx *Index) Size() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	n := 0
	for _, e := range idx.entries {
		if e.cached.Load() {
			n++
		}
	}
	return n
}

// Close releases the embedder.
func (idx *Index) Close() error {
	return idx.embedder.Close()
}
