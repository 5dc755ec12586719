package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"localmart/internal/adapter/api/middleware"
	"localmart/internal/usecase"
	"localmart/pkg/errors"
	"localmart/pkg/response"
	"localmart/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type conversationLookupRequest struct {
	CounterpartID string `param:"counterpartId" validate:"required,entityid"`
	ProductID     string `param:"productId" validate:"required,entityid"`
}

type conversationIDRequest struct {
	ID string `param:"id" validate:"required,entityid"`
}

// FindConversation returns the conversation with a counterpart about a product, or a null
// conversation with the id the first message will create.
func (h *ChatHandler) FindConversation(c echo.Context) error {
	var req conversationLookupRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.chatUseCase.FindConversation(c.Request().Context(), middleware.UserID(c), req.CounterpartID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

// SendMessage is kept for old clients; messages go over the websocket channel.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	return response.Error(c, errors.New(
		errors.CodeUseRealtimeChannel,
		"Messages are sent over the real-time channel at /ws",
		http.StatusBadRequest,
		nil,
	))
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	conversations, total, err := h.chatUseCase.ListConversations(c.Request().Context(), middleware.UserID(c), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, params.Page, params.PageSize)
}

func (h *ChatHandler) GetConversation(c echo.Context) error {
	var req conversationIDRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.chatUseCase.GetConversation(c.Request().Context(), middleware.UserID(c), req.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ChatHandler) MarkConversationRead(c echo.Context) error {
	var req conversationIDRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	updated, err := h.chatUseCase.MarkConversationRead(c.Request().Context(), middleware.UserID(c), req.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"updated": updated})
}
