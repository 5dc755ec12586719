package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ConnectionCounter reports live websocket connections.
type ConnectionCounter interface {
	ClientCount() int
}

type HealthHandler struct {
	connections ConnectionCounter
	storeDriver string
}

func NewHealthHandler(connections ConnectionCounter, storeDriver string) *HealthHandler {
	return &HealthHandler{
		connections: connections,
		storeDriver: storeDriver,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "Server is running",
		"time":        time.Now().Format(time.RFC3339),
		"store":       h.storeDriver,
		"connections": h.connections.ClientCount(),
	})
}
