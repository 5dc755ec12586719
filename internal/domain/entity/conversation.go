package entity

import (
	"time"

	"github.com/google/uuid"
)

// conversationNamespace seeds the name-based ids of conversations.
var conversationNamespace = uuid.MustParse("6f1d8a52-3c1e-4e0b-9a57-1c2b7d3e4f60")

// ConversationKey identifies the single conversation allowed per user pair and product.
// Users are kept sorted so the key is independent of who asks.
type ConversationKey struct {
	ProductID string
	UserLow   string
	UserHigh  string
}

func NewConversationKey(userA, userB, productID string) ConversationKey {
	if userB < userA {
		userA, userB = userB, userA
	}
	return ConversationKey{ProductID: productID, UserLow: userA, UserHigh: userB}
}

// ID derives the conversation id from the key. The same triple always maps to the same id,
// which is what lets stores enforce uniqueness with a primary key.
func (k ConversationKey) ID() string {
	name := k.ProductID + "|" + k.UserLow + "|" + k.UserHigh
	return uuid.NewSHA1(conversationNamespace, []byte(name)).String()
}

func (k ConversationKey) Users() []string {
	return []string{k.UserLow, k.UserHigh}
}

// ConversationID is shorthand for NewConversationKey(userA, userB, productID).ID().
func ConversationID(userA, userB, productID string) string {
	return NewConversationKey(userA, userB, productID).ID()
}

type Conversation struct {
	ID          string       `json:"id" firestore:"id"`
	ProductID   string       `json:"product_id" firestore:"productId"`
	Users       []string     `json:"users" firestore:"users"`
	Messages    []Message    `json:"messages" firestore:"messages"`
	LastMessage *LastMessage `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	CreatedAt   time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time    `json:"updated_at" firestore:"updatedAt"`
}

// NewConversation builds a conversation whose history starts with first.
func NewConversation(key ConversationKey, first Message) *Conversation {
	return &Conversation{
		ID:          key.ID(),
		ProductID:   key.ProductID,
		Users:       key.Users(),
		Messages:    []Message{first},
		LastMessage: first.Preview(),
		CreatedAt:   first.Timestamp,
		UpdatedAt:   first.Timestamp,
	}
}

// Append adds msg to the history and keeps LastMessage on the tail.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastMessage = msg.Preview()
	c.UpdatedAt = msg.Timestamp
}

// MarkReadBy flags every message not sent by readerID as read and returns how many changed.
func (c *Conversation) MarkReadBy(readerID string) int {
	updated := 0
	for i := range c.Messages {
		if c.Messages[i].SenderID != readerID && !c.Messages[i].IsRead {
			c.Messages[i].IsRead = true
			updated++
		}
	}
	return updated
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, u := range c.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the participant that is not userID.
func (c *Conversation) Counterpart(userID string) string {
	for _, u := range c.Users {
		if u != userID {
			return u
		}
	}
	return ""
}

func (c *Conversation) Tail() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Clone returns a deep copy so stores can hand out conversations without sharing slices.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Users = append([]string(nil), c.Users...)
	clone.Messages = append([]Message(nil), c.Messages...)
	if c.LastMessage != nil {
		last := *c.LastMessage
		clone.LastMessage = &last
	}
	return &clone
}

// ConversationView is the expanded form pushed to clients.
type ConversationView struct {
	ID          string         `json:"id"`
	Product     ProductSummary `json:"product"`
	Users       []UserSummary  `json:"users"`
	Messages    []MessageView  `json:"messages"`
	LastMessage *LastMessage   `json:"last_message,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
