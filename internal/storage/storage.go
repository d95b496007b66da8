// Package storage persists document metadata, conversations and uploaded files.
package storage

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// DocumentStore persists document records. Every lookup is scoped to the owning user.
type DocumentStore interface {
	// Find returns the user's documents, oldest first.
	Find(ctx context.Context, userID string) ([]*models.Document, error)
	// FindOne returns models.ErrNotFound when the document does not exist or belongs to someone else.
	FindOne(ctx context.Context, id, userID string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Save(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, doc *models.Document) error
}

// ConversationStore persists chat conversations with their messages.
type ConversationStore interface {
	FindConversation(ctx context.Context, id, userID string) (*models.Conversation, error)
	// ListConversations returns the user's conversations, most recently updated first.
	ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	// SaveConversation replaces the title and messages of an existing conversation.
	SaveConversation(ctx context.Context, conv *models.Conversation) error
	DeleteConversation(ctx context.Context, id, userID string) error
}

// FileStorage holds uploaded file bytes.
type FileStorage interface {
	// Write stores data under name and returns the stored path.
	Write(name string, data []byte) (string, error)
	Read(path string) ([]byte, error)
	// Remove deletes the file. A missing file is not an error.
	Remove(path string) error
}

// Storage is the full metadata store.
type Storage interface {
	DocumentStore
	ConversationStore

	CountDocuments(ctx context.Context) (int64, error)
	CountConversations(ctx context.Context) (int64, error)

	Close() error
}
