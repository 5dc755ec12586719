package usecase

import "context"

// TokenVerifier resolves a bearer token to the authenticated user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// RoomBroadcaster delivers an event to every connection joined to a room.
type RoomBroadcaster interface {
	BroadcastToRoom(ctx context.Context, roomID, eventType string, data interface{}) error
}
