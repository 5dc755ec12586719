// Package metrics registers the chat service's Prometheus collectors on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultStored   = "stored"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections",
		Help: "Websocket connections currently registered with the channel manager",
	})
	RoomMemberships = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_room_memberships",
		Help: "Connection-to-room memberships currently held",
	})
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_ingested_total",
		Help: "Messages submitted for ingestion, by outcome",
	}, []string{"result"})
	ConversationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_conversations_created_total",
		Help: "Conversations created by a first message",
	})
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_message_ingest_seconds",
		Help:    "Time from receiving a message to its room broadcast",
		Buckets: prometheus.DefBuckets,
	})
	BroadcastDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_broadcast_dropped_clients_total",
		Help: "Clients disconnected because their send buffer was full",
	})
)
