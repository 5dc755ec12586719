package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"localmart/internal/usecase"
	"localmart/pkg/errors"
	"localmart/pkg/response"
)

const ContextKeyUID = "uid"

type AuthMiddleware struct {
	verifier usecase.TokenVerifier
}

func NewAuthMiddleware(verifier usecase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := m.Identify(c.Request())
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(ContextKeyUID, uid)
		return next(c)
	}
}

// Identify verifies the bearer token of r. Browsers cannot set headers on a websocket
// handshake, so a token query parameter is accepted too.
func (m *AuthMiddleware) Identify(r *http.Request) (string, error) {
	token, err := ExtractToken(r)
	if err != nil {
		return "", err
	}
	return m.verifier.VerifyToken(r.Context(), token)
}

func ExtractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", errors.Unauthorized("Invalid authorization format", nil)
		}
		return parts[1], nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", errors.Unauthorized("Authorization header is required", nil)
}

// UserID returns the authenticated user id set by Authenticate.
func UserID(c echo.Context) string {
	uid, _ := c.Get(ContextKeyUID).(string)
	return uid
}
