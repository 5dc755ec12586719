package router

import (
	"github.com/labstack/echo/v4"

	"localmart/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the realtime endpoint. The handler authenticates the handshake itself.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
