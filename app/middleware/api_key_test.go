package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type failingKeys struct{}

func (failingKeys) ValidateInternalAPIKey(context.Context, string) error {
	return errors.New("backend unavailable")
}

func newAPIKeyMiddleware(t *testing.T, key string) *middleware.APIKeyMiddleware {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash key: %v", err)
	}
	return middleware.NewAPIKeyMiddleware(service.NewInternalAPIKeyAuthenticator(string(hash)))
}

func runAPIKey(t *testing.T, m *middleware.APIKeyMiddleware, method, key string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, "/contacts/profiles", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	called := false
	handler := m.RequireAPIKey(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, called
}

func TestRequireAPIKey_MissingHeader(t *testing.T) {
	rec, called := runAPIKey(t, newAPIKeyMiddleware(t, "secret-key"), http.MethodPost, "")
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected status 401 without calling next, got %d (called=%v)", rec.Code, called)
	}
}

func TestRequireAPIKey_InvalidKey(t *testing.T) {
	rec, called := runAPIKey(t, newAPIKeyMiddleware(t, "secret-key"), http.MethodPost, "wrong-key")
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected status 401 without calling next, got %d (called=%v)", rec.Code, called)
	}
}

func TestRequireAPIKey_ValidKey(t *testing.T) {
	rec, called := runAPIKey(t, newAPIKeyMiddleware(t, "secret-key"), http.MethodPost, "secret-key")
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected status 200, got %d (called=%v)", rec.Code, called)
	}
}

func TestRequireAPIKey_PreflightPasses(t *testing.T) {
	rec, called := runAPIKey(t, newAPIKeyMiddleware(t, "secret-key"), http.MethodOptions, "")
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected preflight to pass, got %d", rec.Code)
	}
}

func TestRequireAPIKey_BackendError(t *testing.T) {
	rec, called := runAPIKey(t, middleware.NewAPIKeyMiddleware(failingKeys{}), http.MethodPost, "any")
	if rec.Code != http.StatusInternalServerError || called {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}
