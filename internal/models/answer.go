package models

import "time"

// Source attributes part of an answer to a document.
type Source struct {
	DocumentID     string  `json:"document_id"`
	DocumentName   string  `json:"document_name"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer is a generated response with the documents it was grounded on.
type Answer struct {
	Answer  string    `json:"answer"`
	Sources []*Source `json:"sources"`
}

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []*Source `json:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an ordered list of messages owned by one user.
type Conversation struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
