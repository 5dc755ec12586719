package repository

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"localmart/internal/domain/entity"
	"localmart/internal/domain/repository"
	"localmart/pkg/errors"
	"localmart/pkg/logger"
)

// conversationRow stores one conversation per (product, sorted user pair). The composite unique
// index duplicates the primary key derivation so the constraint is visible in the schema too.
type conversationRow struct {
	ID                string       `gorm:"primaryKey;size:36"`
	ProductID         string       `gorm:"size:128;not null;uniqueIndex:idx_conversation_product_pair,priority:1"`
	UserLow           string       `gorm:"size:128;not null;index;uniqueIndex:idx_conversation_product_pair,priority:2"`
	UserHigh          string       `gorm:"size:128;not null;index;uniqueIndex:idx_conversation_product_pair,priority:3"`
	LastMessageText   string       `gorm:"type:text"`
	LastMessageSender string       `gorm:"size:128"`
	LastMessageAt     time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time    `gorm:"index"`
	Messages          []messageRow `gorm:"foreignKey:ConversationID"`
}

func (conversationRow) TableName() string {
	return "conversations"
}

type messageRow struct {
	Seq            int64     `gorm:"primaryKey;autoIncrement"`
	ID             string    `gorm:"size:36;uniqueIndex"`
	ConversationID string    `gorm:"size:36;not null;index"`
	SenderID       string    `gorm:"size:128;not null"`
	Text           string    `gorm:"type:text;not null"`
	IsRead         bool      `gorm:"not null;default:false"`
	Timestamp      time.Time `gorm:"not null"`
}

func (messageRow) TableName() string {
	return "messages"
}

func (row *conversationRow) toEntity() *entity.Conversation {
	conv := &entity.Conversation{
		ID:        row.ID,
		ProductID: row.ProductID,
		Users:     []string{row.UserLow, row.UserHigh},
		Messages:  make([]entity.Message, 0, len(row.Messages)),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, m := range row.Messages {
		conv.Messages = append(conv.Messages, entity.Message{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Text:      m.Text,
			IsRead:    m.IsRead,
			Timestamp: m.Timestamp,
		})
	}
	if row.LastMessageSender != "" {
		conv.LastMessage = &entity.LastMessage{
			Text:      row.LastMessageText,
			SenderID:  row.LastMessageSender,
			Timestamp: row.LastMessageAt,
		}
	}
	return conv
}

type gormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) repository.ConversationRepository {
	return &gormConversationRepository{
		db: db,
	}
}

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

func (r *gormConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	var row conversationRow
	err := r.db.WithContext(ctx).Preload("Messages", orderedMessages).First(&row, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}
	return row.toEntity(), nil
}

// AppendMessage inserts the conversation row with ON CONFLICT DO NOTHING, or updates the preview
// columns of the existing one, before inserting the message. Touching the conversation row first
// takes its row lock, so appends to one conversation commit in sequence order.
func (r *gormConversationRepository) AppendMessage(ctx context.Context, key entity.ConversationKey, msg entity.Message) (string, bool, error) {
	id := key.ID()
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := conversationRow{
			ID:                id,
			ProductID:         key.ProductID,
			UserLow:           key.UserLow,
			UserHigh:          key.UserHigh,
			LastMessageText:   msg.Text,
			LastMessageSender: msg.SenderID,
			LastMessageAt:     msg.Timestamp,
			CreatedAt:         msg.Timestamp,
			UpdatedAt:         msg.Timestamp,
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Messages").Create(&row)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1

		if !created {
			err := tx.Model(&conversationRow{}).Where("id = ?", id).Updates(map[string]interface{}{
				"last_message_text":   msg.Text,
				"last_message_sender": msg.SenderID,
				"last_message_at":     msg.Timestamp,
				"updated_at":          msg.Timestamp,
			}).Error
			if err != nil {
				return err
			}
		}

		return tx.Create(&messageRow{
			ID:             msg.ID,
			ConversationID: id,
			SenderID:       msg.SenderID,
			Text:           msg.Text,
			IsRead:         msg.IsRead,
			Timestamp:      msg.Timestamp,
		}).Error
	})
	if err != nil {
		logger.Error("Postgres error while appending message to conversation %s: %v", id, err)
		return "", false, errors.Internal("Failed to store message", err)
	}

	return id, created, nil
}

func (r *gormConversationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	byUser := func(db *gorm.DB) *gorm.DB {
		return db.Model(&conversationRow{}).Where("user_low = ? OR user_high = ?", userID, userID)
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(byUser).Count(&total).Error; err != nil {
		return nil, 0, errors.Internal("Failed to count conversations", err)
	}

	query := r.db.WithContext(ctx).Scopes(byUser).Order("updated_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []conversationRow
	if err := query.Preload("Messages", orderedMessages).Find(&rows).Error; err != nil {
		return nil, 0, errors.Internal("Failed to fetch conversations", err)
	}

	conversations := make([]*entity.Conversation, 0, len(rows))
	for i := range rows {
		conversations = append(conversations, rows[i].toEntity())
	}
	return conversations, total, nil
}

func (r *gormConversationRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&conversationRow{}).Where("id = ?", conversationID).Count(&exists).Error; err != nil {
		return 0, errors.Internal("Failed to get conversation", err)
	}
	if exists == 0 {
		return 0, errors.NotFound("Conversation", nil)
	}

	res := r.db.WithContext(ctx).Model(&messageRow{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errors.Internal("Failed to mark conversation as read", res.Error)
	}
	return int(res.RowsAffected), nil
}
