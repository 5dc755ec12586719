package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"localmart/internal/domain/entity"
	"localmart/internal/domain/repository"
	"localmart/pkg/errors"
	"localmart/pkg/logger"
)

const conversationsCollection = "conversations"

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conv.ID = doc.Ref.ID

	return &conv, nil
}

// AppendMessage runs find-or-insert inside a Firestore transaction on the document named by the
// derived conversation id. A losing concurrent creator is retried by Firestore and takes the
// append branch.
func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, key entity.ConversationKey, msg entity.Message) (string, bool, error) {
	ref := r.client.Collection(conversationsCollection).Doc(key.ID())
	created := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false

		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			created = true
			return tx.Create(ref, entity.NewConversation(key, msg))
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "messages", Value: firestore.ArrayUnion(msg)},
			{Path: "lastMessage", Value: msg.Preview()},
			{Path: "updatedAt", Value: msg.Timestamp},
		})
	})
	if err != nil {
		logger.Error("Firestore error while appending message to conversation %s: %v", ref.ID, err)
		return "", false, errors.Internal("Failed to store message", err)
	}

	return ref.ID, created, nil
}

func (r *firestoreConversationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	iter := r.client.Collection(conversationsCollection).
		Where("users", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var total int64
	conversations := make([]*entity.Conversation, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
			return nil, 0, errors.Internal("Failed to fetch conversations", err)
		}

		total++
		if total <= int64(offset) || (limit > 0 && len(conversations) >= limit) {
			continue
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			logger.Warn("Skipping unparsable conversation %s for user %s: %v", doc.Ref.ID, userID, err)
			continue
		}
		conv.ID = doc.Ref.ID
		conversations = append(conversations, &conv)
	}

	return conversations, total, nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	ref := r.client.Collection(conversationsCollection).Doc(conversationID)
	updated := 0

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = 0

		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return err
		}

		updated = conv.MarkReadBy(readerID)
		if updated == 0 {
			return nil
		}
		return tx.Update(ref, []firestore.Update{{Path: "messages", Value: conv.Messages}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, errors.NotFound("Conversation", err)
		}
		return 0, errors.Internal("Failed to mark conversation as read", err)
	}

	return updated, nil
}
