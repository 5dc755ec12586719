package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"localmart/internal/infrastructure/metrics"
	"localmart/internal/usecase"
	"localmart/pkg/logger"
)

// ChatService is the subset of the chat use case driven by websocket events.
type ChatService interface {
	SendMessage(ctx context.Context, input usecase.SendMessageInput) (*usecase.SendMessageResult, error)
	AuthorizeJoin(ctx context.Context, userID string, input usecase.JoinInput) error
	MarkConversationRead(ctx context.Context, readerID, conversationID string) (int, error)
}

// RoomBus relays room payloads between server instances. Every instance, the publisher
// included, receives each published payload through Subscribe.
type RoomBus interface {
	Publish(ctx context.Context, roomID string, payload []byte) error
	Subscribe(ctx context.Context, deliver func(roomID string, payload []byte)) error
}

// Manager tracks connections and the conversation rooms they joined.
type Manager struct {
	clients    map[string]*Client
	rooms      map[string]map[string]*Client
	Unregister chan *Client
	mutex      sync.RWMutex

	chat    ChatService
	bus     RoomBus
	baseCtx context.Context
	done    chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		Unregister: make(chan *Client),
		baseCtx:    context.Background(),
		done:       make(chan struct{}),
	}
}

// SetChatService must be called before connections are accepted.
func (m *Manager) SetChatService(chat ChatService) {
	m.chat = chat
}

// SetBus routes room broadcasts through bus instead of delivering them locally.
func (m *Manager) SetBus(bus RoomBus) {
	m.bus = bus
}

// Start runs the unregister loop until ctx is done, then disconnects every client.
// Message ingestion started by a connection runs on ctx, not on the connection's lifetime.
func (m *Manager) Start(ctx context.Context) error {
	m.mutex.Lock()
	m.baseCtx = ctx
	m.mutex.Unlock()

	if m.bus != nil {
		if err := m.bus.Subscribe(ctx, m.deliverLocal); err != nil {
			return err
		}
	}

	go func() {
		defer close(m.done)
		for {
			select {
			case client := <-m.Unregister:
				m.unregister(client)

			case <-ctx.Done():
				m.closeAll()
				return
			}
		}
	}()
	return nil
}

func (m *Manager) baseContext() context.Context {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.baseCtx
}

// Connect registers a client before its pumps start, so its first frame already sees it.
func (m *Manager) Connect(client *Client) {
	m.register(client)
}

func (m *Manager) register(client *Client) {
	m.mutex.Lock()
	m.clients[client.ID] = client
	m.mutex.Unlock()

	metrics.ActiveConnections.Inc()
	logger.Debug("Client registered: conn=%s user=%s", client.ID, client.UserID)
}

// unregister drops the client from every room and closes its send channel. Safe to call twice.
func (m *Manager) unregister(client *Client) {
	m.mutex.Lock()
	if _, ok := m.clients[client.ID]; !ok {
		m.mutex.Unlock()
		return
	}
	delete(m.clients, client.ID)
	for roomID := range client.rooms {
		members := m.rooms[roomID]
		delete(members, client.ID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
		metrics.RoomMemberships.Dec()
	}
	client.rooms = nil
	m.mutex.Unlock()

	client.closeSend()
	metrics.ActiveConnections.Dec()
	logger.Debug("Client unregistered: conn=%s user=%s", client.ID, client.UserID)
}

func (m *Manager) closeAll() {
	m.mutex.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mutex.RUnlock()

	for _, c := range clients {
		m.unregister(c)
	}
}

// leave hands the client to the manager loop, or unregisters it directly once the loop stopped.
func (m *Manager) leave(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		m.unregister(client)
	}
}

// JoinRoom adds a registered client to a room. Membership accumulates until disconnect.
func (m *Manager) JoinRoom(client *Client, roomID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return false
	}
	if _, already := client.rooms[roomID]; already {
		return true
	}

	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		m.rooms[roomID] = members
	}
	members[client.ID] = client
	client.rooms[roomID] = struct{}{}
	metrics.RoomMemberships.Inc()
	return true
}

func (m *Manager) RoomSize(roomID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[roomID])
}

func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// BroadcastToRoom sends an event to every connection in the room, the sender's included.
func (m *Manager) BroadcastToRoom(ctx context.Context, roomID, eventType string, data interface{}) error {
	payload, err := encode(eventType, data)
	if err != nil {
		return err
	}

	if m.bus != nil {
		err := m.bus.Publish(ctx, roomID, payload)
		if err == nil {
			return nil
		}
		logger.Warn("Room bus publish to %s failed, delivering locally: %v", roomID, err)
	}

	m.deliverLocal(roomID, payload)
	return nil
}

func (m *Manager) deliverLocal(roomID string, payload []byte) {
	m.mutex.RLock()
	members := make([]*Client, 0, len(m.rooms[roomID]))
	for _, c := range m.rooms[roomID] {
		members = append(members, c)
	}
	m.mutex.RUnlock()

	for _, c := range members {
		if !c.trySend(payload) {
			logger.Warn("Dropping slow client conn=%s user=%s from room %s", c.ID, c.UserID, roomID)
			metrics.BroadcastDrops.Inc()
			m.unregister(c)
		}
	}
}

// sendToClient delivers an event to one connection only.
func (m *Manager) sendToClient(client *Client, eventType string, data interface{}) {
	payload, err := encode(eventType, data)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s for conn=%s: %v", eventType, client.ID, err)
		return
	}
	if !client.trySend(payload) {
		metrics.BroadcastDrops.Inc()
		m.unregister(client)
	}
}

func encode(eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
