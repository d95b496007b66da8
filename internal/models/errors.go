package models

import "errors"

// Ingestion errors.
var (
	// ErrUnsupportedFormat is returned for file types other than txt, pdf, and docx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtractionFailed wraps a parser failure while reading a PDF or DOCX file.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmptyDocument is returned when normalized text is too short to index.
	ErrEmptyDocument = errors.New("could not extract meaningful text from the document")

	// ErrInvalidChunkConfig is returned when chunk overlap is not smaller than chunk size.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
)

// Embedding and index errors.
var (
	// ErrEmbeddingFailed is returned once an embedding call has exhausted its retries.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrVectorIndexLoadFailed is returned when a shard cannot be read or rebuilt.
	ErrVectorIndexLoadFailed = errors.New("vector index load failed")

	// ErrProviderModelMismatch is returned when a shard was built with a different embedding model.
	ErrProviderModelMismatch = errors.New("embedding model mismatch")
)

// ErrCompletionFailed is returned when the chat model call fails.
var ErrCompletionFailed = errors.New("completion failed")

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
