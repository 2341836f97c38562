package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const ContextKeyInternalCaller = "internal_caller"

type APIKeyMiddleware struct {
	keys service.APIKeyValidator
}

func NewAPIKeyMiddleware(keys service.APIKeyValidator) *APIKeyMiddleware {
	return &APIKeyMiddleware{keys: keys}
}

func (m *APIKeyMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Let CORS preflight pass.
		if c.Request().Method == http.MethodOptions {
			return next(c)
		}

		apiKey := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
		if apiKey == "" {
			logrus.Debug("Missing x-api-key header")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "unauthorized",
			})
		}

		if err := m.keys.ValidateInternalAPIKey(c.Request().Context(), apiKey); err != nil {
			if errors.Is(err, service.ErrInvalidInternalAPIKey) {
				logrus.Debug("Invalid x-api-key header")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "unauthorized",
				})
			}
			logrus.WithError(err).Error("API key validation failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "internal server error",
			})
		}

		c.Set(ContextKeyInternalCaller, true)
		return next(c)
	}
}
