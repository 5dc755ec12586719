package handler

import (
	"github.com/labstack/echo/v4"

	"localmart/internal/adapter/api/middleware"
	"localmart/internal/usecase"
	"localmart/pkg/response"
)

type DashboardHandler struct {
	dashboardUseCase *usecase.DashboardUseCase
}

func NewDashboardHandler(dashboardUseCase *usecase.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{
		dashboardUseCase: dashboardUseCase,
	}
}

// GetMessages returns the unread count and recent unread previews for the dashboard.
func (h *DashboardHandler) GetMessages(c echo.Context) error {
	summary, err := h.dashboardUseCase.GetUnreadSummary(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summary)
}
