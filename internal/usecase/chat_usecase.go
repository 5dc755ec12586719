package usecase

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"localmart/internal/domain/entity"
	"localmart/internal/domain/repository"
	"localmart/internal/infrastructure/metrics"
	"localmart/internal/infrastructure/ratelimit"
	"localmart/pkg/errors"
	"localmart/pkg/logger"
	appvalidator "localmart/pkg/validator"
)

const (
	EventMessageReceived = "message_received"

	MaxMessageLength = 2000
)

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	productRepo      repository.ProductRepository
	broadcaster      RoomBroadcaster
	rateLimiter      *ratelimit.RateLimiter
	validate         *validator.Validate
	views            *viewBuilder
	now              func() time.Time
}

// NewChatUseCase wires the chat operations. rateLimiter may be nil to disable send limits.
func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	broadcaster RoomBroadcaster,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		productRepo:      productRepo,
		broadcaster:      broadcaster,
		rateLimiter:      rateLimiter,
		validate:         appvalidator.New(),
		views:            &viewBuilder{userRepo: userRepo, productRepo: productRepo},
		now:              time.Now,
	}
}

type SendMessageInput struct {
	SenderID        string `validate:"required,entityid"`
	ClaimedSenderID string `validate:"omitempty,entityid"`
	ConversationID  string `validate:"required,entityid"`
	ReceiverID      string `validate:"required,entityid,nefield=SenderID"`
	ProductID       string `validate:"required,entityid"`
	Text            string `validate:"required,max=2000"`
	TempID          string
}

type SendMessageResult struct {
	Conversation *entity.ConversationView
	MessageID    string
	Created      bool
}

type JoinInput struct {
	ConversationID string
	CounterpartID  string
	ProductID      string
}

type FindConversationResult struct {
	ConversationID string                   `json:"conversation_id"`
	Conversation   *entity.ConversationView `json:"conversation"`
}

// FindConversation looks up the conversation between requester and counterpart about a product.
// The derived conversation id is returned even when no message has been exchanged yet.
func (uc *ChatUseCase) FindConversation(ctx context.Context, requesterID, counterpartID, productID string) (*FindConversationResult, error) {
	if !appvalidator.IsEntityID(counterpartID) || !appvalidator.IsEntityID(productID) {
		return nil, errors.BadRequest("Invalid counterpart or product id", nil)
	}
	if requesterID == counterpartID {
		return nil, errors.BadRequest("You cannot chat with yourself", nil)
	}

	id := entity.ConversationID(requesterID, counterpartID, productID)
	result := &FindConversationResult{ConversationID: id}

	conv, err := uc.conversationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return result, nil
		}
		return nil, err
	}

	result.Conversation = uc.views.expand(ctx, conv, nil)
	return result, nil
}

func (uc *ChatUseCase) GetConversation(ctx context.Context, requesterID, conversationID string) (*entity.ConversationView, error) {
	conv, err := uc.participantConversation(ctx, requesterID, conversationID)
	if err != nil {
		return nil, err
	}
	return uc.views.expand(ctx, conv, nil), nil
}

// ListConversations returns the user's inbox, newest activity first.
func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.ConversationView, int64, error) {
	convs, total, err := uc.conversationRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*entity.ConversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, uc.views.expand(ctx, conv, nil))
	}
	return views, total, nil
}

// SendMessage validates, stores and broadcasts one message. The room broadcast only happens
// after the store call returned successfully.
func (uc *ChatUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	started := uc.now()

	result, err := uc.sendMessage(ctx, input)
	if err != nil {
		outcome := metrics.ResultRejected
		if errors.As(err).Code == errors.CodeInternal {
			outcome = metrics.ResultFailed
		}
		metrics.MessagesIngested.WithLabelValues(outcome).Inc()
		return nil, err
	}

	metrics.MessagesIngested.WithLabelValues(metrics.ResultStored).Inc()
	metrics.IngestDuration.Observe(uc.now().Sub(started).Seconds())
	return result, nil
}

func (uc *ChatUseCase) sendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	input.Text = strings.TrimSpace(input.Text)

	if err := uc.validate.Struct(input); err != nil {
		var validationErr validator.ValidationErrors
		if stderrors.As(err, &validationErr) {
			return nil, errors.Validation(appvalidator.Message(validationErr), err)
		}
		return nil, errors.Validation("Invalid message", err)
	}

	if input.ClaimedSenderID != "" && input.ClaimedSenderID != input.SenderID {
		logger.WithFields(logger.Fields{
			"sender":  input.SenderID,
			"claimed": input.ClaimedSenderID,
		}).Warn("Rejected message with spoofed sender id")
		return nil, errors.Forbidden("sender_id does not match the authenticated user", nil)
	}

	key := entity.NewConversationKey(input.SenderID, input.ReceiverID, input.ProductID)
	if key.ID() != input.ConversationID {
		return nil, errors.BadRequest("conversation_id does not match the participants and product", nil)
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(input.SenderID, ratelimit.ActionSendMessage); !allowed {
			logger.Debug("SendMessage rate limited: user %s must wait %v", input.SenderID, wait)
			return nil, errors.TooManyRequests("Rate limit exceeded. Please slow down", wait)
		}
	}

	sender, err := uc.userRepo.GetByID(ctx, input.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := uc.userRepo.GetByID(ctx, input.ReceiverID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.NotFound("Receiver", err)
		}
		return nil, err
	}
	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.ShopkeeperID != sender.ID && product.ShopkeeperID != receiver.ID {
		return nil, errors.Forbidden("One participant must be the product's shopkeeper", nil)
	}

	msg := entity.Message{
		ID:        uuid.New().String(),
		SenderID:  sender.ID,
		Text:      input.Text,
		IsRead:    false,
		Timestamp: uc.now().UTC(),
	}

	conversationID, created, err := uc.conversationRepo.AppendMessage(ctx, key, msg)
	if err != nil {
		logger.Error("SendMessage: failed to store message from %s in %s: %v", sender.ID, key.ID(), err)
		return nil, err
	}
	if created {
		metrics.ConversationsCreated.Inc()
		logger.Info("Conversation %s created for product %s", conversationID, product.ID)
	}

	conv, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		logger.Error("SendMessage: failed to reload conversation %s: %v", conversationID, err)
		return nil, err
	}

	productSummary := product.Summary()
	view := uc.views.expand(ctx, conv, &productSummary, sender.Summary(), receiver.Summary())

	if uc.broadcaster != nil {
		if err := uc.broadcaster.BroadcastToRoom(ctx, conversationID, EventMessageReceived, view); err != nil {
			logger.Warn("SendMessage: message %s stored but broadcast to %s failed: %v", msg.ID, conversationID, err)
		}
	}

	return &SendMessageResult{
		Conversation: view,
		MessageID:    msg.ID,
		Created:      created,
	}, nil
}

// AuthorizeJoin decides whether userID may join the room of a conversation. Participants of an
// existing conversation may join, and so may a user naming the counterpart and product that
// derive the requested id, which covers rooms whose first message has not been sent.
func (uc *ChatUseCase) AuthorizeJoin(ctx context.Context, userID string, input JoinInput) error {
	if !appvalidator.IsEntityID(input.ConversationID) {
		return errors.BadRequest("Invalid conversation id", nil)
	}

	if input.CounterpartID != "" && input.ProductID != "" {
		if input.CounterpartID != userID &&
			entity.ConversationID(userID, input.CounterpartID, input.ProductID) == input.ConversationID {
			return nil
		}
	}

	_, err := uc.participantConversation(ctx, userID, input.ConversationID)
	return err
}

// MarkConversationRead flags every message the reader received in the conversation as read.
func (uc *ChatUseCase) MarkConversationRead(ctx context.Context, readerID, conversationID string) (int, error) {
	if _, err := uc.participantConversation(ctx, readerID, conversationID); err != nil {
		return 0, err
	}

	updated, err := uc.conversationRepo.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		logger.Debug("User %s marked %d messages read in %s", readerID, updated, conversationID)
	}
	return updated, nil
}

func (uc *ChatUseCase) participantConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	if !appvalidator.IsEntityID(conversationID) {
		return nil, errors.BadRequest("Invalid conversation id", nil)
	}

	conv, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return conv, nil
}
