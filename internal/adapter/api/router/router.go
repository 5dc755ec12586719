package router

import (
	"github.com/labstack/echo/v4"

	"localmart/internal/adapter/api/handler"
	"localmart/internal/adapter/api/middleware"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	Dashboard *handler.DashboardHandler
	Health    *handler.HealthHandler
	WebSocket *handler.WebSocketHandler
}

// Setup registers every route. requestRate is the per-user request budget for /v1 routes.
func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, requestRate float64) {
	e.Use(requestMetrics())

	v1 := e.Group("/v1")
	v1.Use(authMiddleware.Authenticate)
	v1.Use(middleware.RateLimit(requestRate))

	SetupChatRouter(v1, h.Chat)
	SetupDashboardRouter(v1, h.Dashboard)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupHealthRouter(e, h.Health)
	SetupMetricsRouter(e)
}
