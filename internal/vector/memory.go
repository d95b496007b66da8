package vector

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a ShardStore that keeps shards in process memory. Shards are copied on the
// way in and out so callers never share records with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	shards map[string]*Shard
}

var _ ShardStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shards: make(map[string]*Shard)}
}

// Get returns a copy of the stored shard.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Shard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShardNotFound, id)
	}
	return cloneShard(s), nil
}

// Put stores a copy of shard.
func (m *MemoryStore) Put(ctx context.Context, shard *Shard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateShardID(shard.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shards[shard.ID] = cloneShard(shard)
	return nil
}

// Delete removes the shard if present.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shards, id)
	return nil
}

// Len returns the number of stored shards.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shards)
}

func cloneShard(s *Shard) *Shard {
	out := *s
	out.Records = make([]Record, len(s.Records))
	for i, r := range s.Records {
		out.Records[i] = r
		if r.Vector != nil {
			out.Records[i].Vector = append(Vector(nil), r.Vector...)
		}
	}
	return &out
}
