package usecase

import (
	"context"

	"localmart/internal/domain/entity"
	"localmart/internal/domain/repository"
	"localmart/pkg/errors"
	"localmart/pkg/logger"
)

// viewBuilder expands stored ids into the summaries clients render. A user or product that
// can no longer be found is rendered with its id only.
type viewBuilder struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

func (b *viewBuilder) userSummary(ctx context.Context, id string, cache map[string]entity.UserSummary) entity.UserSummary {
	if s, ok := cache[id]; ok {
		return s
	}

	summary := entity.UserSummary{ID: id}
	user, err := b.userRepo.GetByID(ctx, id)
	if err == nil {
		summary = user.Summary()
	} else if !errors.Is(err, errors.CodeNotFound) {
		logger.Warn("Failed to load user %s for view: %v", id, err)
	}

	if cache != nil {
		cache[id] = summary
	}
	return summary
}

func (b *viewBuilder) productSummary(ctx context.Context, id string) entity.ProductSummary {
	product, err := b.productRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			logger.Warn("Failed to load product %s for view: %v", id, err)
		}
		return entity.ProductSummary{ID: id}
	}
	return product.Summary()
}

// expand renders conv with its users, product and message senders populated. Known summaries
// can be passed in to skip lookups.
func (b *viewBuilder) expand(ctx context.Context, conv *entity.Conversation, product *entity.ProductSummary, known ...entity.UserSummary) *entity.ConversationView {
	cache := make(map[string]entity.UserSummary, len(known))
	for _, u := range known {
		cache[u.ID] = u
	}

	view := &entity.ConversationView{
		ID:          conv.ID,
		Users:       make([]entity.UserSummary, 0, len(conv.Users)),
		Messages:    make([]entity.MessageView, 0, len(conv.Messages)),
		LastMessage: conv.LastMessage,
		CreatedAt:   conv.CreatedAt,
		UpdatedAt:   conv.UpdatedAt,
	}

	if product != nil {
		view.Product = *product
	} else {
		view.Product = b.productSummary(ctx, conv.ProductID)
	}

	for _, id := range conv.Users {
		view.Users = append(view.Users, b.userSummary(ctx, id, cache))
	}

	for _, m := range conv.Messages {
		view.Messages = append(view.Messages, entity.MessageView{
			ID:        m.ID,
			Sender:    b.userSummary(ctx, m.SenderID, cache),
			Text:      m.Text,
			IsRead:    m.IsRead,
			Timestamp: m.Timestamp,
		})
	}

	return view
}
