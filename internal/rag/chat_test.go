package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

func TestSendMessage_newConversation(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t, "alice", "notes.txt", "the meeting moved to thursday afternoon")
	f.chat.reply = func(prompt string) (string, error) {
		if len(prompt) < 300 {
			return "Meeting Schedule", nil
		}
		return "It moved to Thursday [1].", nil
	}

	reply, err := f.orch.SendMessage(context.Background(), "alice", "", "when is the meeting")
	require.NoError(t, err)
	assert.True(t, reply.IsNewConversation)
	assert.Equal(t, models.RoleAssistant, reply.Message.Role)
	assert.Equal(t, "It moved to Thursday [1].", reply.Message.Content)
	require.Len(t, reply.Message.Sources, 1)
	assert.Equal(t, doc.ID, reply.Message.Sources[0].DocumentID)

	conv, err := f.convs.FindConversation(context.Background(), reply.ConversationID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Meeting Schedule", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "when is the meeting", conv.Messages[0].Content)
}

func TestSendMessage_existingConversation(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "alice", "notes.txt", "the meeting moved to thursday afternoon")

	first, err := f.orch.SendMessage(context.Background(), "alice", "", "when is the meeting")
	require.NoError(t, err)
	calls := f.chat.calls()

	second, err := f.orch.SendMessage(context.Background(), "alice", first.ConversationID, "which afternoon")
	require.NoError(t, err)
	assert.False(t, second.IsNewConversation)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, calls+1, f.chat.calls(), "no title generation for an existing conversation")

	conv, _ := f.convs.FindConversation(context.Background(), first.ConversationID, "alice")
	assert.Len(t, conv.Messages, 4)
}

func TestSendMessage_foreignConversationStartsNewOne(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "bob", "bob.txt", "bob's notes")
	theirs, err := f.orch.SendMessage(context.Background(), "bob", "", "hello")
	require.NoError(t, err)

	mine, err := f.orch.SendMessage(context.Background(), "alice", theirs.ConversationID, "hello")
	require.NoError(t, err)
	assert.True(t, mine.IsNewConversation)
	assert.NotEqual(t, theirs.ConversationID, mine.ConversationID)
	assert.Equal(t, NoDocumentsAnswer, mine.Message.Content)
}

func TestSendMessage_emptyMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.SendMessage(context.Background(), "alice", "", "   ")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.Equal(t, 0, f.chat.calls())
}
