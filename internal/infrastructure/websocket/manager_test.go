package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/adapter/repository/memory"
	"localmart/internal/domain/entity"
	"localmart/internal/usecase"
)

type receivedEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	users := memory.NewUserRepository(
		entity.User{ID: "u1", Name: "Asha", Role: entity.RoleCustomer},
		entity.User{ID: "u2", Name: "Ravi", Role: entity.RoleShopkeeper},
		entity.User{ID: "u3", Name: "Mina", Role: entity.RoleCustomer},
	)
	products := memory.NewProductRepository(
		entity.Product{ID: "p42", ShopkeeperID: "u2", Name: "Copper Kettle", Price: 799},
		entity.Product{ID: "p7", ShopkeeperID: "u2", Name: "Tea Tin", Price: 150},
	)

	m := NewManager()
	m.SetChatService(usecase.NewChatUseCase(memory.NewConversationRepository(), users, products, m, nil))
	return m
}

func connect(m *Manager, userID string) *Client {
	c := NewClient(m, nil, userID)
	m.register(c)
	return c
}

func nextEvent(t *testing.T, c *Client) receivedEvent {
	t.Helper()
	select {
	case payload, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev receivedEvent
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return receivedEvent{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected event: %s", payload)
	default:
	}
}

func frame(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"type": eventType, "data": data})
	require.NoError(t, err)
	return raw
}

func TestBroadcastIsolatesRooms(t *testing.T) {
	m := NewManager()
	a := connect(m, "u1")
	b := connect(m, "u2")
	require.True(t, m.JoinRoom(a, "room-a"))
	require.True(t, m.JoinRoom(b, "room-b"))

	require.NoError(t, m.BroadcastToRoom(context.Background(), "room-a", TypeMessageReceived, map[string]string{"id": "room-a"}))

	ev := nextEvent(t, a)
	assert.Equal(t, TypeMessageReceived, ev.Type)
	assertNoEvent(t, b)
}

func TestMembershipAccumulatesUntilDisconnect(t *testing.T) {
	m := NewManager()
	c := connect(m, "u1")
	other := connect(m, "u1")

	require.True(t, m.JoinRoom(c, "r1"))
	require.True(t, m.JoinRoom(c, "r2"))
	require.True(t, m.JoinRoom(c, "r2"))
	require.True(t, m.JoinRoom(other, "r1"))
	assert.Equal(t, 2, m.RoomSize("r1"))
	assert.Equal(t, 1, m.RoomSize("r2"))

	require.NoError(t, m.BroadcastToRoom(context.Background(), "r1", TypeMessageReceived, nil))
	nextEvent(t, c)
	nextEvent(t, other)

	m.unregister(c)
	m.unregister(c)
	assert.Equal(t, 1, m.RoomSize("r1"))
	assert.Equal(t, 0, m.RoomSize("r2"))
	assert.Equal(t, 1, m.ClientCount())
	_, open := <-c.Send
	assert.False(t, open)

	assert.False(t, m.JoinRoom(c, "r3"), "closed clients cannot join")
}

func TestSlowClientIsDropped(t *testing.T) {
	m := NewManager()
	slow := connect(m, "u1")
	fast := connect(m, "u2")
	m.JoinRoom(slow, "r1")
	m.JoinRoom(fast, "r1")

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, slow.trySend([]byte("{}")))
	}

	require.NoError(t, m.BroadcastToRoom(context.Background(), "r1", TypeMessageReceived, nil))
	nextEvent(t, fast)
	assert.Equal(t, 1, m.ClientCount())
	assert.Equal(t, 1, m.RoomSize("r1"))
}

func TestPingPong(t *testing.T) {
	m := newTestManager(t)
	c := connect(m, "u1")

	m.HandleClientMessage(c, []byte(`{"type":"ping"}`))
	ev := nextEvent(t, c)
	assert.Equal(t, TypePong, ev.Type)
	assert.JSONEq(t, `{"status":"ok"}`, string(ev.Data))
}

func TestMalformedFramesReturnErrors(t *testing.T) {
	m := newTestManager(t)
	c := connect(m, "u1")

	m.HandleClientMessage(c, []byte(`not json`))
	ev := nextEvent(t, c)
	assert.Equal(t, TypeError, ev.Type)

	m.HandleClientMessage(c, []byte(`{"type":"dance"}`))
	ev = nextEvent(t, c)
	assert.Equal(t, TypeError, ev.Type)

	m.HandleClientMessage(c, []byte(`{"type":"send_message"}`))
	ev = nextEvent(t, c)
	assert.Equal(t, TypeError, ev.Type)
}

func TestSendMessageBroadcastsToRoomAndAcksSender(t *testing.T) {
	m := newTestManager(t)
	buyer := connect(m, "u1")
	buyerTab := connect(m, "u1")
	seller := connect(m, "u2")
	outsider := connect(m, "u3")
	roomID := entity.ConversationID("u1", "u2", "p42")

	for _, c := range []*Client{buyer, buyerTab} {
		m.HandleClientMessage(c, frame(t, TypeJoinConversation, JoinConversationData{ConversationID: roomID, CounterpartID: "u2", ProductID: "p42"}))
		assert.Equal(t, TypeJoined, nextEvent(t, c).Type)
	}
	m.HandleClientMessage(seller, frame(t, TypeJoinConversation, JoinConversationData{ConversationID: roomID, CounterpartID: "u1", ProductID: "p42"}))
	assert.Equal(t, TypeJoined, nextEvent(t, seller).Type)

	m.HandleClientMessage(outsider, frame(t, TypeJoinConversation, JoinConversationData{ConversationID: roomID, CounterpartID: "u2", ProductID: "p42"}))
	ev := nextEvent(t, outsider)
	assert.Equal(t, TypeError, ev.Type)

	m.HandleClientMessage(buyer, frame(t, TypeSendMessage, SendMessageData{
		TempID:         "tmp-1",
		ConversationID: roomID,
		ReceiverID:     "u2",
		ProductID:      "p42",
		Text:           "Is this in stock?",
	}))

	ev = nextEvent(t, buyer)
	require.Equal(t, TypeMessageReceived, ev.Type)
	var view entity.ConversationView
	require.NoError(t, json.Unmarshal(ev.Data, &view))
	assert.Equal(t, roomID, view.ID)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, "Asha", view.Messages[0].Sender.Name)

	ack := nextEvent(t, buyer)
	require.Equal(t, TypeMessageAck, ack.Type)
	var ackData MessageAckData
	require.NoError(t, json.Unmarshal(ack.Data, &ackData))
	assert.Equal(t, "tmp-1", ackData.TempID)
	assert.Equal(t, view.Messages[0].ID, ackData.MessageID)

	assert.Equal(t, TypeMessageReceived, nextEvent(t, buyerTab).Type)
	assert.Equal(t, TypeMessageReceived, nextEvent(t, seller).Type)
	assertNoEvent(t, buyerTab)
	assertNoEvent(t, outsider)
}

func TestSendMessageErrorsGoToSenderOnly(t *testing.T) {
	m := newTestManager(t)
	buyer := connect(m, "u1")
	seller := connect(m, "u2")
	roomID := entity.ConversationID("u1", "u2", "p42")
	m.JoinRoom(buyer, roomID)
	m.JoinRoom(seller, roomID)

	m.HandleClientMessage(buyer, frame(t, TypeSendMessage, SendMessageData{
		TempID:         "tmp-9",
		ConversationID: roomID,
		SenderID:       "u2",
		ReceiverID:     "u2",
		ProductID:      "p42",
		Text:           "pretending to be the seller",
	}))

	ev := nextEvent(t, buyer)
	require.Equal(t, TypeError, ev.Type)
	var data ErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "tmp-9", data.TempID)
	assertNoEvent(t, seller)
}

func TestMarkReadOverSocket(t *testing.T) {
	m := newTestManager(t)
	buyer := connect(m, "u1")
	seller := connect(m, "u2")
	roomID := entity.ConversationID("u1", "u2", "p42")

	m.HandleClientMessage(buyer, frame(t, TypeSendMessage, SendMessageData{ConversationID: roomID, ReceiverID: "u2", ProductID: "p42", Text: "hi"}))
	assert.Equal(t, TypeMessageAck, nextEvent(t, buyer).Type)

	m.HandleClientMessage(seller, frame(t, TypeMarkRead, MarkReadData{ConversationID: roomID}))
	ev := nextEvent(t, seller)
	require.Equal(t, TypeReadUpdated, ev.Type)
	var data ReadUpdatedData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, 1, data.Updated)
}

type loopbackBus struct {
	mu        sync.Mutex
	deliver   func(roomID string, payload []byte)
	published []string
}

func (b *loopbackBus) Publish(ctx context.Context, roomID string, payload []byte) error {
	b.mu.Lock()
	b.published = append(b.published, roomID)
	deliver := b.deliver
	b.mu.Unlock()
	deliver(roomID, payload)
	return nil
}

func (b *loopbackBus) Subscribe(ctx context.Context, deliver func(roomID string, payload []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliver = deliver
	return nil
}

func TestBroadcastGoesThroughBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := &loopbackBus{}
	m := NewManager()
	m.SetBus(bus)
	require.NoError(t, m.Start(ctx))

	c := connect(m, "u1")
	m.JoinRoom(c, "r1")
	require.NoError(t, m.BroadcastToRoom(ctx, "r1", TypeMessageReceived, nil))

	assert.Equal(t, TypeMessageReceived, nextEvent(t, c).Type)
	assert.Equal(t, []string{"r1"}, bus.published)
}

func TestStopDisconnectsClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager()
	require.NoError(t, m.Start(ctx))

	c := NewClient(m, nil, "u1")
	m.Connect(c)
	assert.Equal(t, 1, m.ClientCount())

	cancel()
	<-m.done
	assert.Equal(t, 0, m.ClientCount())

	m.leave(c)
}
