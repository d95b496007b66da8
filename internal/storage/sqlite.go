package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements Storage using SQLite. Chunks and messages are stored as JSON columns.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		original_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		text_content TEXT NOT NULL,
		chunks TEXT NOT NULL,
		vector_store_id TEXT,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id, uploaded_at);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		messages TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations(user_id, updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

const documentColumns = `id, user_id, filename, original_name, file_type, file_path, file_size,
	text_content, chunks, vector_store_id, uploaded_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var fileType, chunksJSON string
	var vectorStoreID sql.NullString
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.OriginalName, &fileType, &doc.FilePath,
		&doc.FileSize, &doc.TextContent, &chunksJSON, &vectorStoreID, &doc.UploadedAt); err != nil {
		return nil, err
	}
	doc.FileType = models.FileType(fileType)
	doc.VectorStoreID = vectorStoreID.String
	if chunksJSON != "" {
		if err := json.Unmarshal([]byte(chunksJSON), &doc.Chunks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chunks: %w", err)
		}
	}
	return &doc, nil
}

// Find returns the user's documents ordered by upload time.
func (s *SQLiteStorage) Find(ctx context.Context, userID string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = ? ORDER BY uploaded_at, rowid`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// FindOne returns the document with id owned by userID.
func (s *SQLiteStorage) FindOne(ctx context.Context, id, userID string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND user_id = ?`, id, userID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Create inserts a document. UploadedAt is set when zero.
func (s *SQLiteStorage) Create(ctx context.Context, doc *models.Document) error {
	chunksJSON, err := marshalChunks(doc.Chunks)
	if err != nil {
		return err
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Filename, doc.OriginalName, string(doc.FileType), doc.FilePath,
		doc.FileSize, doc.TextContent, chunksJSON, doc.VectorStoreID, doc.UploadedAt,
	)
	return err
}

// Save updates a document's mutable fields.
func (s *SQLiteStorage) Save(ctx context.Context, doc *models.Document) error {
	chunksJSON, err := marshalChunks(doc.Chunks)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET filename = ?, original_name = ?, file_path = ?, file_size = ?,
		 text_content = ?, chunks = ?, vector_store_id = ?
		 WHERE id = ? AND user_id = ?`,
		doc.Filename, doc.OriginalName, doc.FilePath, doc.FileSize,
		doc.TextContent, chunksJSON, doc.VectorStoreID, doc.ID, doc.UserID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, models.ErrNotFound)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *SQLiteStorage) Delete(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND user_id = ?`, doc.ID, doc.UserID)
	return err
}

func marshalChunks(chunks []models.Chunk) (string, error) {
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chunks: %w", err)
	}
	return string(data), nil
}

const conversationColumns = `id, user_id, title, messages, created_at, updated_at`

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var conv models.Conversation
	var messagesJSON string
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &messagesJSON, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	if messagesJSON != "" {
		if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
	}
	return &conv, nil
}

// FindConversation returns the conversation with id owned by userID.
func (s *SQLiteStorage) FindConversation(ctx context.Context, id, userID string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (s *SQLiteStorage) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// CreateConversation inserts a conversation and sets its timestamps.
func (s *SQLiteStorage) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	messagesJSON, err := marshalMessages(conv.Messages)
	if err != nil {
		return err
	}
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, messagesJSON, conv.CreatedAt, conv.UpdatedAt,
	)
	return err
}

// SaveConversation replaces the title and messages and bumps UpdatedAt.
func (s *SQLiteStorage) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	messagesJSON, err := marshalMessages(conv.Messages)
	if err != nil {
		return err
	}
	conv.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, messages = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		conv.Title, messagesJSON, conv.UpdatedAt, conv.ID, conv.UserID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", conv.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteConversation removes the conversation. Returns models.ErrNotFound if the user has no
// conversation with that id.
func (s *SQLiteStorage) DeleteConversation(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func marshalMessages(msgs []*models.Message) (string, error) {
	if msgs == nil {
		msgs = []*models.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal messages: %w", err)
	}
	return string(data), nil
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountConversations returns the total number of conversations.
func (s *SQLiteStorage) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
