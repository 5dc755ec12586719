package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/adapter/api"
	"localmart/internal/adapter/api/middleware"
	"localmart/internal/adapter/repository/memory"
	"localmart/internal/usecase"
	"localmart/pkg/errors"
)

func TestSendMessageOverHTTPIsDeprecated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/u2/p42", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewChatHandler(nil)
	require.NoError(t, h.SendMessage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeUseRealtimeChannel)
}

func TestFindConversationRejectsMalformedIDs(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()

	uc := usecase.NewChatUseCase(memory.NewConversationRepository(), memory.NewUserRepository(), memory.NewProductRepository(), nil, nil)
	h := NewChatHandler(uc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/chat/:counterpartId/:productId")
	c.SetParamNames("counterpartId", "productId")
	c.SetParamValues("u2", "p.42")
	c.Set(middleware.ContextKeyUID, "u1")

	require.NoError(t, h.FindConversation(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeValidation)
}
