package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
)

// ChatReply is the result of SendMessage.
type ChatReply struct {
	ConversationID    string          `json:"conversation_id"`
	Message           *models.Message `json:"message"`
	IsNewConversation bool            `json:"is_new_conversation"`
}

// SendMessage answers message within a conversation. An empty or unknown conversationID starts
// a new conversation titled after the message. Both turns are stored once the answer is ready.
func (o *Orchestrator) SendMessage(ctx context.Context, userID, conversationID, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", models.ErrInvalidInput)
	}
	if o.convs == nil {
		return nil, errors.New("conversation store is not configured")
	}

	var conv *models.Conversation
	if conversationID != "" {
		c, err := o.convs.FindConversation(ctx, conversationID, userID)
		switch {
		case err == nil:
			conv = c
		case !errors.Is(err, models.ErrNotFound):
			return nil, err
		}
	}

	isNew := false
	if conv == nil {
		conv = &models.Conversation{
			ID:     uuid.NewString(),
			UserID: userID,
			Title:  o.GenerateConversationTitle(ctx, message),
		}
		if err := o.convs.CreateConversation(ctx, conv); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		isNew = true
		o.logger.Debug("conversation created", zap.String("conversation_id", conv.ID), zap.String("title", conv.Title))
	}

	conv.Messages = append(conv.Messages, &models.Message{
		Role:      models.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	})

	answer, err := o.GenerateAnswer(ctx, userID, message)
	if err != nil {
		return nil, err
	}
	reply := &models.Message{
		Role:      models.RoleAssistant,
		Content:   answer.Answer,
		Sources:   answer.Sources,
		Timestamp: time.Now(),
	}
	conv.Messages = append(conv.Messages, reply)
	if err := o.convs.SaveConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	return &ChatReply{
		ConversationID:    conv.ID,
		Message:           reply,
		IsNewConversation: isNew,
	}, nil
}
