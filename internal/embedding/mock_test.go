package embedding

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/pkg/utils"
)

func TestMockEmbedder_deterministic(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(64)
	a, err := e.EmbedQuery(ctx, "the quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.EmbedQuery(ctx, "the quick brown fox")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("identical texts gave different vectors at %d", i)
		}
	}
	if e.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", e.Calls())
	}
}

func TestMockEmbedder_separateInstancesAgree(t *testing.T) {
	ctx := context.Background()
	first := NewMockEmbedder(256)
	// Embedding other text first must not shift which dimensions later words use.
	if _, err := first.EmbedQuery(ctx, "unrelated warm-up words"); err != nil {
		t.Fatal(err)
	}
	a, _ := first.EmbedQuery(ctx, "spice islands of zanzibar")
	b, _ := NewMockEmbedder(256).EmbedQuery(ctx, "spice islands of zanzibar")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestMockEmbedder_sharedWordsScoreHigher(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(64)
	vecs, err := e.EmbedDocuments(ctx, []string{
		"the zebra eats grass on the savanna",
		"quarterly revenue grew in europe",
	})
	if err != nil {
		t.Fatal(err)
	}
	q, _ := e.EmbedQuery(ctx, "what does the zebra eat")
	related := utils.CosineSimilarity(q, vecs[0])
	unrelated := utils.CosineSimilarity(q, vecs[1])
	if related <= unrelated {
		t.Errorf("related=%v should exceed unrelated=%v", related, unrelated)
	}
}

func TestMockEmbedder_truncatesInput(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(64)
	prefix := strings.Repeat("a ", DefaultMaxInputChars/2)
	short, _ := e.EmbedQuery(ctx, prefix)
	long, _ := e.EmbedQuery(ctx, prefix+"tail words beyond the limit")
	for i := range short {
		if short[i] != long[i] {
			t.Fatal("text past the input limit should not change the vector")
		}
	}
}

func TestMockEmbedder_cancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockEmbedder(8).EmbedQuery(ctx, "x"); err == nil {
		t.Error("expected context error")
	}
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "mock", Mock: config.MockEmbeddingConfig{Dimensions: 16}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.ModelID() != "mock:16" {
		t.Errorf("ModelID() = %s", e.ModelID())
	}

	e, err = New(config.EmbeddingConfig{
		Provider: "remote",
		Remote:   config.RemoteEmbeddingConfig{Format: "openai", BaseURL: "http://127.0.0.1:1", Model: "m"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.ModelID() != "remote:openai:m" {
		t.Errorf("ModelID() = %s", e.ModelID())
	}

	if _, err := New(config.EmbeddingConfig{Provider: "psychic"}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
