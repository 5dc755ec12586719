package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"localmart/pkg/errors"
	"localmart/pkg/logger"
	"localmart/pkg/response"
)

// RateLimit limits requests per authenticated user, or per client IP before authentication.
func RateLimit(requestsPerSecond float64) echo.MiddlewareFunc {
	burst := int(requestsPerSecond * 2)
	if burst < 1 {
		burst = 1
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(requestsPerSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if uid := UserID(c); uid != "" {
				return "user:" + uid, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.Error(c, errors.BadRequest("Could not identify client", err))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn("RATE LIMIT: denied request from %s to %s", identifier, c.Path())
			return response.Error(c, errors.TooManyRequests("Rate limit exceeded", time.Second))
		},
	})
}
