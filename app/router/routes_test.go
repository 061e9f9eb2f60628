package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/tailwind-mail/app/handlers"
	"github.com/amirphl/tailwind-mail/app/middleware"
	"github.com/amirphl/tailwind-mail/app/router"
	"github.com/amirphl/tailwind-mail/app/services"
	businessflow "github.com/amirphl/tailwind-mail/business_flow"
	"github.com/amirphl/tailwind-mail/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type okBroadcastFlow struct{}

func (okBroadcastFlow) CreateBroadcast(context.Context, *businessflow.ParsedDocument) (*businessflow.CommandResult, error) {
	return businessflow.NewCommandResult(true), nil
}

func (okBroadcastFlow) CreateBroadcastFromMarkdown(context.Context, string) (*businessflow.CommandResult, error) {
	return businessflow.NewCommandResult(true), nil
}

func (okBroadcastFlow) PreviewAudience(context.Context, string) (*businessflow.CommandResult, error) {
	return businessflow.NewCommandResult(true).WithData("count", 0), nil
}

func (okBroadcastFlow) ValidateDocument(context.Context, string) (*businessflow.CommandResult, error) {
	return businessflow.NewCommandResult(true).WithData("valid", true), nil
}

type okContactFlow struct{}

func (okContactFlow) Signup(context.Context, string, string) (*businessflow.CommandResult, error) {
	return &businessflow.CommandResult{Success: true, Inserted: 1}, nil
}

func (okContactFlow) OptOut(context.Context, string) (*businessflow.CommandResult, error) {
	return &businessflow.CommandResult{Success: true, Updated: 1}, nil
}

func (okContactFlow) OptIn(context.Context, string) (*businessflow.CommandResult, error) {
	return &businessflow.CommandResult{Success: true, Updated: 1}, nil
}

func (okContactFlow) LinkClicked(context.Context, string) (*businessflow.CommandResult, error) {
	return businessflow.NewCommandResult(true), nil
}

func (okContactFlow) Search(context.Context, string, int) (*businessflow.CommandResult, error) {
	return businessflow.NewCommandResult(true).WithData("count", 0), nil
}

type okTagFlow struct{}

func (okTagFlow) BulkTag(context.Context, string, []string) (*businessflow.CommandResult, error) {
	return &businessflow.CommandResult{Success: true}, nil
}

func newRouter(t *testing.T) (router.Router, services.TokenService) {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
			BodyLimit:    1024 * 1024,
			AllowOrigins: []string{"*"},
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	tokens, err := services.NewTokenService(time.Minute, "tailwind-mail", "router-test-secret-at-least-32-chars")
	require.NoError(t, err)

	r := router.NewFiberRouter(
		cfg,
		zap.NewNop(),
		handlers.NewPublicHandler(okContactFlow{}, nil, time.Second),
		handlers.NewAdminHandler(okBroadcastFlow{}, okTagFlow{}, okContactFlow{}, nil, time.Second),
		middleware.NewAuthMiddleware(tokens),
	)
	r.SetupRoutes()
	return r, tokens
}

func send(t *testing.T, r router.Router, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := r.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRoutes(t *testing.T) {
	r, tokens := newRouter(t)

	t.Run("Health", func(t *testing.T) {
		resp, body := send(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "tailwind-mail-api")
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("PublicSignup", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/signup", strings.NewReader(`{"email":"a@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := send(t, r, req)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("AdminRequiresToken", func(t *testing.T) {
		resp, body := send(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/broadcasts/audience", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, body, "MISSING_AUTHORIZATION_HEADER")
	})

	t.Run("AdminWithToken", func(t *testing.T) {
		token, err := tokens.GenerateAdminToken("operator")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/broadcasts/audience?tag=beta", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := send(t, r, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("AdminValidateAndSearchRoutes", func(t *testing.T) {
		token, err := tokens.GenerateAdminToken("operator")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/broadcasts/validate", strings.NewReader(`{"markdown":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, body := send(t, r, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `"valid":true`)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/contacts/search?term=ada", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ = send(t, r, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = send(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/contacts/search?term=ada", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, body := send(t, r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "mail_http_requests_total")
	})

	t.Run("NotFound", func(t *testing.T) {
		resp, body := send(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "NOT_FOUND")
	})
}
