package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediocregopher/radix/v3"

	"localmart/pkg/logger"
)

const (
	roomChannelPrefix = "chat:room:"
	poolSize          = 10
)

// RoomBus fans room broadcasts out to every server instance over Redis pub/sub.
type RoomBus struct {
	pool   radix.Client
	pubsub radix.PubSubConn
}

func NewRoomBus(addr string) (*RoomBus, error) {
	pool, err := radix.NewPool("tcp", addr, poolSize)
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	pubsub, err := radix.PersistentPubSubWithOpts("tcp", addr)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open redis pubsub %s: %w", addr, err)
	}

	logger.Info("Redis room bus connected to %s", addr)
	return &RoomBus{pool: pool, pubsub: pubsub}, nil
}

func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

func (b *RoomBus) Publish(ctx context.Context, roomID string, payload []byte) error {
	return b.pool.Do(radix.FlatCmd(nil, "PUBLISH", RoomChannel(roomID), payload))
}

// Subscribe delivers every room payload until ctx is done.
func (b *RoomBus) Subscribe(ctx context.Context, deliver func(roomID string, payload []byte)) error {
	msgCh := make(chan radix.PubSubMessage, 256)
	pattern := roomChannelPrefix + "*"
	if err := b.pubsub.PSubscribe(msgCh, pattern); err != nil {
		return fmt.Errorf("subscribe %s: %w", pattern, err)
	}

	go func() {
		defer func() {
			if err := b.pubsub.PUnsubscribe(msgCh, pattern); err != nil {
				logger.Warn("Redis room bus unsubscribe failed: %v", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgCh:
				roomID := strings.TrimPrefix(msg.Channel, roomChannelPrefix)
				deliver(roomID, msg.Message)
			}
		}
	}()
	return nil
}

func (b *RoomBus) Close() error {
	if err := b.pubsub.Close(); err != nil {
		b.pool.Close()
		return err
	}
	return b.pool.Close()
}
