package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

func buildIndex(b *testing.B, shards, chunksPerShard int) (*vector.Index, []string) {
	b.Helper()
	idx := vector.NewIndex(embedding.NewMockEmbedder(384), vector.NewMemoryStore())
	ctx := context.Background()
	ids := make([]string, shards)
	for s := 0; s < shards; s++ {
		chunks := make([]models.Chunk, chunksPerShard)
		for c := range chunks {
			chunks[c] = models.Chunk{Content: fmt.Sprintf("shard %d chunk %d topic%d detail%d", s, c, s%17, c%13), ChunkIndex: c}
		}
		ids[s] = fmt.Sprintf("doc-%04d", s)
		if _, err := idx.Create(ctx, chunks, ids[s]); err != nil {
			b.Fatal(err)
		}
	}
	return idx, ids
}

func BenchmarkIndexLoad(b *testing.B) {
	idx, ids := buildIndex(b, 50, 20)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.Load(ctx, ids); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIndexSearch(b *testing.B) {
	idx, ids := buildIndex(b, 50, 20)
	ctx := context.Background()
	view, err := idx.Load(ctx, ids)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.Search(ctx, view, "topic3 detail7", 4); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkChunk(b *testing.B) {
	c, err := indexer.NewChunker(1000, 200)
	if err != nil {
		b.Fatal(err)
	}
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Chunk(text)
	}
}

func BenchmarkCosineSimilarity(b *testing.B) {
	x := make([]float32, 384)
	y := make([]float32, 384)
	for i := range x {
		x[i] = float32(i%7) / 7
		y[i] = float32(i%5) / 5
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = utils.CosineSimilarity(x, y)
	}
}
