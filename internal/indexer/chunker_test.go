package indexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewChunker_invalid(t *testing.T) {
	for _, tc := range [][2]int{{10, 10}, {10, 20}, {0, 0}, {10, -1}} {
		if _, err := NewChunker(tc[0], tc[1]); !errors.Is(err, models.ErrInvalidChunkConfig) {
			t.Errorf("NewChunker(%d, %d): expected ErrInvalidChunkConfig, got %v", tc[0], tc[1], err)
		}
	}
}

func TestChunker_threeThousandCharacters(t *testing.T) {
	text := strings.Repeat("abcdefghij", 300)
	chunks := mustChunker(t, 1000, 200).Chunk(text)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	wantStarts := []int{0, 800, 1600, 2400}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex=%d", i, ch.ChunkIndex)
		}
		end := wantStarts[i] + 1000
		if end > len(text) {
			end = len(text)
		}
		if ch.Content != text[wantStarts[i]:end] {
			t.Errorf("chunk %d content mismatch", i)
		}
	}
}

func TestChunker_indexCount(t *testing.T) {
	tests := []struct {
		length, size, overlap, want int
	}{
		{1, 10, 2, 1},
		{10, 10, 2, 1},
		{11, 10, 2, 2},
		{18, 10, 2, 2},
		{19, 10, 2, 3},
		{100, 10, 0, 10},
		{1000, 1000, 200, 1},
		{1100, 1000, 200, 2},
	}
	for _, tt := range tests {
		chunks := mustChunker(t, tt.size, tt.overlap).Chunk(strings.Repeat("x", tt.length))
		if len(chunks) != tt.want {
			t.Errorf("len=%d size=%d overlap=%d: got %d chunks, want %d", tt.length, tt.size, tt.overlap, len(chunks), tt.want)
		}
		for i, ch := range chunks {
			if ch.ChunkIndex != i {
				t.Errorf("chunk %d ChunkIndex=%d", i, ch.ChunkIndex)
			}
		}
	}
}

func TestChunker_reconstructsText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs."
	size, overlap := 20, 5
	chunks := mustChunker(t, size, overlap).Chunk(text)
	var b strings.Builder
	for i, ch := range chunks {
		start := i * (size - overlap)
		end := start + size - overlap
		if end > len(text) || i == len(chunks)-1 {
			end = len(text)
		}
		b.WriteString(text[start:end])
		if !strings.Contains(text, ch.Content) {
			t.Errorf("chunk %d %q is not a substring of the text", i, ch.Content)
		}
	}
	if b.String() != text {
		t.Errorf("windows without overlap do not reconstruct text:\n%q\n%q", b.String(), text)
	}
}

func TestChunker_multibyte(t *testing.T) {
	text := strings.Repeat("日本語", 10) // 30 runes
	chunks := mustChunker(t, 10, 2).Chunk(text)
	for i, ch := range chunks {
		if n := len([]rune(ch.Content)); n > 10 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	if len(chunks) != 4 {
		t.Errorf("expected 4 chunks, got %d", len(chunks))
	}
}

func TestChunker_empty(t *testing.T) {
	c := mustChunker(t, 5, 1)
	if chunks := c.Chunk(""); chunks != nil {
		t.Errorf("empty text should return nil, got %v", chunks)
	}
	if chunks := c.Chunk("     "); len(chunks) != 0 {
		t.Errorf("blank text should return no chunks, got %v", chunks)
	}
}
