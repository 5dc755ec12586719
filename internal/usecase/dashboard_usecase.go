package usecase

import (
	"context"
	"time"

	"localmart/internal/domain/entity"
	"localmart/internal/domain/repository"
)

const DefaultDashboardRecentLimit = 5

type DashboardUseCase struct {
	conversationRepo repository.ConversationRepository
	views            *viewBuilder
	recentLimit      int
}

func NewDashboardUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	recentLimit int,
) *DashboardUseCase {
	if recentLimit <= 0 {
		recentLimit = DefaultDashboardRecentLimit
	}
	return &DashboardUseCase{
		conversationRepo: conversationRepo,
		views:            &viewBuilder{userRepo: userRepo, productRepo: productRepo},
		recentLimit:      recentLimit,
	}
}

type RecentMessage struct {
	ConversationID string                `json:"conversation_id"`
	MessageID      string                `json:"message_id"`
	Counterpart    entity.UserSummary    `json:"counterpart"`
	Text           string                `json:"text"`
	IsRead         bool                  `json:"is_read"`
	Timestamp      time.Time             `json:"timestamp"`
	Product        entity.ProductSummary `json:"product"`
}

type UnreadSummary struct {
	UnreadMessages int             `json:"unread_messages"`
	RecentMessages []RecentMessage `json:"recent_messages"`
}

// GetUnreadSummary inspects the tail message of the user's most recently updated conversations.
// Only the tail counts, so a conversation contributes at most one unread message.
func (uc *DashboardUseCase) GetUnreadSummary(ctx context.Context, userID string) (*UnreadSummary, error) {
	convs, _, err := uc.conversationRepo.ListByUser(ctx, userID, uc.recentLimit, 0)
	if err != nil {
		return nil, err
	}

	summary := &UnreadSummary{RecentMessages: []RecentMessage{}}
	for _, conv := range convs {
		tail := conv.Tail()
		if tail == nil || tail.SenderID == userID || tail.IsRead {
			continue
		}

		summary.UnreadMessages++
		summary.RecentMessages = append(summary.RecentMessages, RecentMessage{
			ConversationID: conv.ID,
			MessageID:      tail.ID,
			Counterpart:    uc.views.userSummary(ctx, tail.SenderID, nil),
			Text:           tail.Text,
			IsRead:         tail.IsRead,
			Timestamp:      tail.Timestamp,
			Product:        uc.views.productSummary(ctx, conv.ProductID),
		})
	}

	return summary, nil
}
