// Package memory holds process-local repositories used by tests and by STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"localmart/internal/domain/entity"
	"localmart/pkg/errors"
)

type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[string]*entity.Conversation),
	}
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conv.Clone(), nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, key entity.ConversationKey, msg entity.Message) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, errors.Internal("Failed to store message", err)
	}

	id := key.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if conv, ok := r.conversations[id]; ok {
		conv.Append(msg)
		return id, false, nil
	}

	r.conversations[id] = entity.NewConversation(key, msg)
	return id, true, nil
}

func (r *ConversationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.RLock()
	var matched []*entity.Conversation
	for _, conv := range r.conversations {
		if conv.HasParticipant(userID) {
			matched = append(matched, conv.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return 0, errors.NotFound("Conversation", nil)
	}
	return conv.MarkReadBy(readerID), nil
}

// Len reports how many conversations are stored.
func (r *ConversationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}
