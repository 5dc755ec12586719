package router

import (
	"github.com/labstack/echo/v4"

	"localmart/internal/adapter/api/handler"
)

func SetupDashboardRouter(v1 *echo.Group, dashboardHandler *handler.DashboardHandler) {
	v1.GET("/dashboard/messages", dashboardHandler.GetMessages)
}
