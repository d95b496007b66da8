// Package models defines core data structures for documents, conversations, and answers.
package models

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType is the detected format of an uploaded document.
type FileType string

const (
	FileTypeText FileType = "txt"
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
)

// FileTypeFromName returns the file type for a filename based on its extension.
// The second value is false when the extension is not one of the supported types.
func FileTypeFromName(name string) (FileType, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch FileType(ext) {
	case FileTypeText, FileTypePDF, FileTypeDOCX:
		return FileType(ext), true
	default:
		return FileType(ext), false
	}
}

// Document is an uploaded file owned by one user, with its extracted text and chunks.
type Document struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Filename      string    `json:"filename" db:"filename"`
	OriginalName  string    `json:"original_name" db:"original_name"`
	FileType      FileType  `json:"file_type" db:"file_type"`
	FilePath      string    `json:"-" db:"file_path"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	TextContent   string    `json:"text_content,omitempty" db:"text_content"`
	Chunks        []Chunk   `json:"chunks,omitempty" db:"chunks"`
	VectorStoreID string    `json:"vector_store_id" db:"vector_store_id"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// Chunk is a window of a document's normalized text. ChunkIndex is its zero-based position.
type Chunk struct {
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index"`
}

// UploadInput is the input for ingesting an uploaded file.
type UploadInput struct {
	UserID       string
	OriginalName string
	Content      []byte
}

// DocumentSummary is returned after a successful upload.
type DocumentSummary struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	FileType     FileType  `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	UploadedAt   time.Time `json:"uploaded_at"`
	ChunksCount  int       `json:"chunks_count"`
}

// Summary returns the upload summary for d.
func (d *Document) Summary() *DocumentSummary {
	return &DocumentSummary{
		ID:           d.ID,
		OriginalName: d.OriginalName,
		FileType:     d.FileType,
		FileSize:     d.FileSize,
		UploadedAt:   d.UploadedAt,
		ChunksCount:  len(d.Chunks),
	}
}
