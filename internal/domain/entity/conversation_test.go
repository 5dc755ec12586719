package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationIDIsSymmetric(t *testing.T) {
	assert.Equal(t, ConversationID("u1", "u2", "p42"), ConversationID("u2", "u1", "p42"))
	assert.NotEqual(t, ConversationID("u1", "u2", "p42"), ConversationID("u1", "u2", "p7"))
	assert.NotEqual(t, ConversationID("u1", "u2", "p42"), ConversationID("u1", "u3", "p42"))
}

func TestConversationKeySortsUsers(t *testing.T) {
	key := NewConversationKey("zed", "amy", "p1")
	assert.Equal(t, []string{"amy", "zed"}, key.Users())
	assert.Equal(t, key, NewConversationKey("amy", "zed", "p1"))
}

func TestConversationAppendKeepsLastMessageOnTail(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	key := NewConversationKey("u1", "u2", "p42")

	conv := NewConversation(key, Message{ID: "m1", SenderID: "u1", Text: "Is this in stock?", Timestamp: t0})
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, key.ID(), conv.ID)
	assert.Equal(t, "Is this in stock?", conv.LastMessage.Text)

	conv.Append(Message{ID: "m2", SenderID: "u2", Text: "Yes!", Timestamp: t0.Add(time.Minute)})
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "Yes!", conv.LastMessage.Text)
	assert.Equal(t, "u2", conv.LastMessage.SenderID)
	assert.Equal(t, conv.Tail().Timestamp, conv.LastMessage.Timestamp)
	assert.Equal(t, t0.Add(time.Minute), conv.UpdatedAt)
}

func TestConversationMarkReadBy(t *testing.T) {
	conv := NewConversation(NewConversationKey("u1", "u2", "p42"), Message{ID: "m1", SenderID: "u1", Text: "hi"})
	conv.Append(Message{ID: "m2", SenderID: "u1", Text: "there?"})
	conv.Append(Message{ID: "m3", SenderID: "u2", Text: "yes"})

	assert.Equal(t, 2, conv.MarkReadBy("u2"))
	assert.Equal(t, 0, conv.MarkReadBy("u2"))
	assert.False(t, conv.Messages[2].IsRead)
	assert.Equal(t, "u1", conv.Counterpart("u2"))
	assert.True(t, conv.HasParticipant("u1"))
	assert.False(t, conv.HasParticipant("u3"))
}

func TestConversationCloneDoesNotShareMessages(t *testing.T) {
	conv := NewConversation(NewConversationKey("u1", "u2", "p42"), Message{ID: "m1", SenderID: "u1", Text: "hi"})
	clone := conv.Clone()
	clone.Messages[0].IsRead = true
	clone.LastMessage.Text = "changed"

	assert.False(t, conv.Messages[0].IsRead)
	assert.Equal(t, "hi", conv.LastMessage.Text)
}
