package router

import (
	"github.com/labstack/echo/v4"

	"localmart/internal/adapter/api/handler"
)

// SetupChatRouter sets up conversation routes. Sending happens over the websocket.
func SetupChatRouter(v1 *echo.Group, chatHandler *handler.ChatHandler) {
	v1.GET("/chat/:counterpartId/:productId", chatHandler.FindConversation)
	v1.POST("/chat/:counterpartId/:productId", chatHandler.SendMessage) // deprecated, always 400

	conversations := v1.Group("/conversations")
	conversations.GET("", chatHandler.ListConversations)
	conversations.GET("/:id", chatHandler.GetConversation)
	conversations.PUT("/:id/read", chatHandler.MarkConversationRead)
}
