package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

// ShardIndex creates and deletes the vector shard of a document.
type ShardIndex interface {
	Create(ctx context.Context, chunks []models.Chunk, documentID string) (string, error)
	Delete(ctx context.Context, documentID string) error
}

// Indexer runs the upload and delete pipelines: file storage, extraction, chunking,
// embedding into a shard and the document record.
type Indexer struct {
	docs        storage.DocumentStore
	files       storage.FileStorage
	index       ShardIndex
	chunker     *Chunker
	extractor   *extract.Extractor
	maxFileSize int64
	logger      *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingestion and deletion events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithMaxFileSize rejects uploads larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) IndexerOption {
	return func(idx *Indexer) { idx.maxFileSize = n }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	docs storage.DocumentStore,
	files storage.FileStorage,
	index ShardIndex,
	chunker *Chunker,
	extractor *extract.Extractor,
	opts ...IndexerOption,
) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	idx := &Indexer{
		docs:      docs,
		files:     files,
		index:     index,
		chunker:   chunker,
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// UploadAndIndex stores the upload, extracts and chunks its text, embeds the chunks into a
// shard and records the document. On failure everything created so far is removed.
func (idx *Indexer) UploadAndIndex(ctx context.Context, input models.UploadInput) (*models.DocumentSummary, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}
	fileType, ok := models.FileTypeFromName(input.OriginalName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, input.OriginalName)
	}
	if idx.maxFileSize > 0 && int64(len(input.Content)) > idx.maxFileSize {
		return nil, fmt.Errorf("%w: file is larger than %d bytes", models.ErrInvalidInput, idx.maxFileSize)
	}

	filename := storage.StoredName(input.OriginalName)
	path, err := idx.files.Write(filename, input.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	removeFile := func() {
		if err := idx.files.Remove(path); err != nil {
			idx.logger.Warn("failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}

	raw, err := idx.extractor.Extract(input.Content, fileType)
	if err != nil {
		removeFile()
		return nil, err
	}
	text, err := extract.Normalize(raw)
	if err != nil {
		removeFile()
		return nil, err
	}
	chunks := idx.chunker.Chunk(text)
	if len(chunks) == 0 {
		removeFile()
		return nil, models.ErrEmptyDocument
	}

	doc := &models.Document{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		Filename:     filename,
		OriginalName: input.OriginalName,
		FileType:     fileType,
		FilePath:     path,
		FileSize:     int64(len(input.Content)),
		TextContent:  text,
		Chunks:       chunks,
	}
	if err := idx.docs.Create(ctx, doc); err != nil {
		removeFile()
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	deleteRecord := func() {
		if err := idx.docs.Delete(context.WithoutCancel(ctx), doc); err != nil {
			idx.logger.Warn("failed to roll back document record", zap.String("document_id", doc.ID), zap.Error(err))
		}
	}

	shardID, err := idx.index.Create(ctx, chunks, doc.ID)
	if err != nil {
		deleteRecord()
		removeFile()
		return nil, err
	}
	doc.VectorStoreID = shardID
	if err := idx.docs.Save(ctx, doc); err != nil {
		if delErr := idx.index.Delete(context.WithoutCancel(ctx), shardID); delErr != nil {
			idx.logger.Warn("failed to roll back vector shard", zap.String("shard_id", shardID), zap.Error(delErr))
		}
		deleteRecord()
		removeFile()
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	idx.logger.Info("document indexed",
		zap.String("document_id", doc.ID),
		zap.String("user_id", doc.UserID),
		zap.String("name", doc.OriginalName),
		zap.Int("chunks", len(chunks)))
	return doc.Summary(), nil
}

// DeleteDocumentAndIndex removes the user's document: its shard, then its record, then its file.
// Returns models.ErrNotFound when the user has no such document.
func (idx *Indexer) DeleteDocumentAndIndex(ctx context.Context, documentID, userID string) error {
	doc, err := idx.docs.FindOne(ctx, documentID, userID)
	if err != nil {
		return err
	}
	shardID := doc.VectorStoreID
	if shardID == "" {
		shardID = doc.ID
	}
	if err := idx.index.Delete(ctx, shardID); err != nil {
		return fmt.Errorf("failed to delete vector shard: %w", err)
	}
	if err := idx.docs.Delete(ctx, doc); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := idx.files.Remove(doc.FilePath); err != nil {
		idx.logger.Warn("failed to remove upload", zap.String("path", doc.FilePath), zap.Error(err))
	}
	idx.logger.Info("document deleted", zap.String("document_id", doc.ID), zap.String("user_id", userID))
	return nil
}

// UserMessage turns an upload error into a message suitable for the end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	var statusErr *embedding.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == 429, strings.Contains(msg, "rate limit"):
		return "Embedding provider rate limit reached. Please wait a moment and try again."
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return "Request timed out. The document might be too large. Try a smaller file."
	case errors.Is(err, models.ErrEmbeddingFailed):
		return "Failed to generate embeddings. Please try again in a few moments."
	case errors.Is(err, models.ErrEmptyDocument):
		return "Could not extract meaningful text from the document"
	case errors.Is(err, models.ErrUnsupportedFormat):
		return "Unsupported file type. Please upload a PDF, DOCX, or TXT file."
	default:
		return err.Error()
	}
}
