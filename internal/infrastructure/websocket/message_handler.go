package websocket

import (
	"context"
	"encoding/json"
	"time"

	"localmart/internal/usecase"
	"localmart/pkg/errors"
	"localmart/pkg/logger"
)

// Event types
const (
	TypePing             = "ping"
	TypePong             = "pong"
	TypeJoinConversation = "join_conversation"
	TypeSendMessage      = "send_message"
	TypeMarkRead         = "mark_read"

	TypeJoined          = "joined"
	TypeMessageReceived = usecase.EventMessageReceived
	TypeMessageAck      = "message_ack"
	TypeReadUpdated     = "read_updated"
	TypeError           = "error"
)

const ingestTimeout = 15 * time.Second

// Envelope wraps every frame in both directions.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type inboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type JoinConversationData struct {
	ConversationID string `json:"conversation_id"`
	CounterpartID  string `json:"counterpart_id,omitempty"`
	ProductID      string `json:"product_id,omitempty"`
}

type SendMessageData struct {
	TempID         string `json:"temp_id,omitempty"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id,omitempty"`
	ReceiverID     string `json:"receiver_id"`
	ProductID      string `json:"product_id"`
	Text           string `json:"text"`
}

type MarkReadData struct {
	ConversationID string `json:"conversation_id"`
}

type JoinedData struct {
	ConversationID string `json:"conversation_id"`
}

type MessageAckData struct {
	TempID         string `json:"temp_id,omitempty"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

type ReadUpdatedData struct {
	ConversationID string `json:"conversation_id"`
	Updated        int    `json:"updated"`
}

type ErrorData struct {
	TempID  string `json:"temp_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PongData struct {
	Status string `json:"status"`
}

// HandleClientMessage dispatches one inbound frame from client.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Debug("WebSocket: unparsable frame from conn=%s: %v", client.ID, err)
		m.sendError(client, "", errors.BadRequest("Invalid message format", err))
		return
	}

	switch env.Type {
	case TypePing:
		m.sendToClient(client, TypePong, PongData{Status: "ok"})

	case TypeJoinConversation:
		var data JoinConversationData
		if !m.decode(client, env.Data, &data) {
			return
		}
		m.handleJoin(client, data)

	case TypeSendMessage:
		var data SendMessageData
		if !m.decode(client, env.Data, &data) {
			return
		}
		m.handleSendMessage(client, data)

	case TypeMarkRead:
		var data MarkReadData
		if !m.decode(client, env.Data, &data) {
			return
		}
		m.handleMarkRead(client, data)

	default:
		m.sendError(client, "", errors.BadRequest("Unknown message type: "+env.Type, nil))
	}
}

func (m *Manager) decode(client *Client, raw json.RawMessage, dst interface{}) bool {
	if len(raw) == 0 {
		m.sendError(client, "", errors.BadRequest("Missing message data", nil))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		m.sendError(client, "", errors.BadRequest("Invalid message data", err))
		return false
	}
	return true
}

func (m *Manager) handleJoin(client *Client, data JoinConversationData) {
	ctx, cancel := context.WithTimeout(m.baseContext(), ingestTimeout)
	defer cancel()

	err := m.chat.AuthorizeJoin(ctx, client.UserID, usecase.JoinInput{
		ConversationID: data.ConversationID,
		CounterpartID:  data.CounterpartID,
		ProductID:      data.ProductID,
	})
	if err != nil {
		m.sendError(client, "", err)
		return
	}

	if !m.JoinRoom(client, data.ConversationID) {
		return
	}
	logger.Debug("User %s joined conversation room %s", client.UserID, data.ConversationID)
	m.sendToClient(client, TypeJoined, JoinedData{ConversationID: data.ConversationID})
}

func (m *Manager) handleSendMessage(client *Client, data SendMessageData) {
	ctx, cancel := context.WithTimeout(m.baseContext(), ingestTimeout)
	defer cancel()

	result, err := m.chat.SendMessage(ctx, usecase.SendMessageInput{
		SenderID:        client.UserID,
		ClaimedSenderID: data.SenderID,
		ConversationID:  data.ConversationID,
		ReceiverID:      data.ReceiverID,
		ProductID:       data.ProductID,
		Text:            data.Text,
		TempID:          data.TempID,
	})
	if err != nil {
		m.sendError(client, data.TempID, err)
		return
	}

	m.sendToClient(client, TypeMessageAck, MessageAckData{
		TempID:         data.TempID,
		ConversationID: result.Conversation.ID,
		MessageID:      result.MessageID,
	})
}

func (m *Manager) handleMarkRead(client *Client, data MarkReadData) {
	ctx, cancel := context.WithTimeout(m.baseContext(), ingestTimeout)
	defer cancel()

	updated, err := m.chat.MarkConversationRead(ctx, client.UserID, data.ConversationID)
	if err != nil {
		m.sendError(client, "", err)
		return
	}
	m.sendToClient(client, TypeReadUpdated, ReadUpdatedData{ConversationID: data.ConversationID, Updated: updated})
}

func (m *Manager) sendError(client *Client, tempID string, err error) {
	appErr := errors.As(err)
	if appErr.Code == errors.CodeInternal {
		logger.Error("WebSocket: request from conn=%s user=%s failed: %v", client.ID, client.UserID, err)
	}
	m.sendToClient(client, TypeError, ErrorData{
		TempID:  tempID,
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}
