package entity

import "time"

// Message is embedded in a Conversation and never mutated after append, except IsRead.
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Text      string    `json:"text" firestore:"text"`
	IsRead    bool      `json:"is_read" firestore:"isRead"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

// LastMessage mirrors the tail of Conversation.Messages for list views.
type LastMessage struct {
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

func (m Message) Preview() *LastMessage {
	return &LastMessage{Text: m.Text, SenderID: m.SenderID, Timestamp: m.Timestamp}
}

type MessageView struct {
	ID        string      `json:"id"`
	Sender    UserSummary `json:"sender"`
	Text      string      `json:"text"`
	IsRead    bool        `json:"is_read"`
	Timestamp time.Time   `json:"timestamp"`
}
