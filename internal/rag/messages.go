package rag

import (
	"errors"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
)

// Fixed answers returned without calling the chat model.
const (
	NoDocumentsAnswer = "I don't have any documents to reference. Please upload some documents first so I can answer your questions based on them."
	NoRelevantAnswer  = "I couldn't find relevant information in your documents to answer this question."
)

// DefaultTitle names a conversation when title generation fails.
const DefaultTitle = "New Conversation"

const (
	msgAuth      = "Configuration error: Invalid API key. Please check your LLM provider configuration."
	msgQuota     = "Service error: API quota exceeded. Please try again later."
	msgRateLimit = "Service error: Rate limit exceeded. Please wait a moment and try again."
	msgGeneric   = "Sorry, I encountered an error. Please try again."
)

// UserMessage turns an answer generation error into a message suitable for the end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if !errors.Is(err, models.ErrCompletionFailed) {
		return msgGeneric
	}
	switch llm.KindOf(err) {
	case llm.KindAuth:
		return msgAuth
	case llm.KindQuota:
		return msgQuota
	case llm.KindRateLimit:
		return msgRateLimit
	default:
		return msgGeneric
	}
}
