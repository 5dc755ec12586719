package repository

import (
	"context"

	"localmart/internal/domain/entity"
)

type ConversationRepository interface {
	// GetByID returns a NOT_FOUND AppError when the conversation does not exist yet.
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)

	// AppendMessage atomically appends msg to the conversation identified by key, creating the
	// conversation when it does not exist. Concurrent callers with the same key never produce
	// two conversations. created reports whether this call inserted it.
	AppendMessage(ctx context.Context, key entity.ConversationKey, msg entity.Message) (conversationID string, created bool, err error)

	// ListByUser returns conversations containing userID, most recently updated first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)

	// MarkRead flags all messages not sent by readerID as read and returns how many changed.
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
}
