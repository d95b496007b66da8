// Package indexer provides document chunking and the upload and delete pipelines.
package indexer

import (
	"strings"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// Chunker splits text into overlapping character windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap in characters.
// Returns models.ErrInvalidChunkConfig unless 0 <= overlap < size.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if err := config.ValidateChunking(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Chunk splits text into windows of chunkSize characters, each starting chunkSize-chunkOverlap
// after the previous one. Window content is trimmed; windows that are blank after trimming
// are dropped. Indexes are assigned in order starting at zero.
func (c *Chunker) Chunk(text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var chunks []models.Chunk
	step := c.chunkSize - c.chunkOverlap
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if content := strings.TrimSpace(string(runes[start:end])); content != "" {
			chunks = append(chunks, models.Chunk{
				Content:    content,
				ChunkIndex: len(chunks),
			})
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
