package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/amirphl/tailwind-mail/app/dto"
	"github.com/amirphl/tailwind-mail/app/handlers"
	businessflow "github.com/amirphl/tailwind-mail/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockContactFlow struct {
	result *businessflow.CommandResult
	err    error
	calls  []string
}

func (m *mockContactFlow) record(call string) (*businessflow.CommandResult, error) {
	m.calls = append(m.calls, call)
	return m.result, m.err
}

func (m *mockContactFlow) Signup(_ context.Context, name, email string) (*businessflow.CommandResult, error) {
	return m.record("signup:" + name + ":" + email)
}

func (m *mockContactFlow) OptOut(_ context.Context, key string) (*businessflow.CommandResult, error) {
	return m.record("optout:" + key)
}

func (m *mockContactFlow) OptIn(_ context.Context, key string) (*businessflow.CommandResult, error) {
	return m.record("optin:" + key)
}

func (m *mockContactFlow) LinkClicked(_ context.Context, key string) (*businessflow.CommandResult, error) {
	return m.record("link:" + key)
}

func (m *mockContactFlow) Search(_ context.Context, term string, limit int) (*businessflow.CommandResult, error) {
	return m.record(fmt.Sprintf("search:%s:%d", term, limit))
}

type mockBroadcastFlow struct {
	result   *businessflow.CommandResult
	err      error
	markdown string
	selector string
}

func (m *mockBroadcastFlow) CreateBroadcast(_ context.Context, _ *businessflow.ParsedDocument) (*businessflow.CommandResult, error) {
	return m.result, m.err
}

func (m *mockBroadcastFlow) CreateBroadcastFromMarkdown(_ context.Context, markdown string) (*businessflow.CommandResult, error) {
	m.markdown = markdown
	return m.result, m.err
}

func (m *mockBroadcastFlow) PreviewAudience(_ context.Context, selector string) (*businessflow.CommandResult, error) {
	m.selector = selector
	return m.result, m.err
}

func (m *mockBroadcastFlow) ValidateDocument(_ context.Context, markdown string) (*businessflow.CommandResult, error) {
	m.markdown = markdown
	return m.result, m.err
}

type mockTagFlow struct {
	result *businessflow.CommandResult
	err    error
	tag    string
	emails []string
}

func (m *mockTagFlow) BulkTag(_ context.Context, tag string, emails []string) (*businessflow.CommandResult, error) {
	m.tag, m.emails = tag, emails
	return m.result, m.err
}

func newApp(public handlers.PublicHandlerInterface, admin handlers.AdminHandlerInterface) *fiber.App {
	app := fiber.New()
	app.Post("/signup", public.Signup)
	app.Get("/unsubscribe/:key", public.Unsubscribe)
	app.Get("/optin/:key", public.OptIn)
	app.Get("/link/:key", public.LinkClicked)
	app.Post("/broadcasts", admin.CreateBroadcast)
	app.Get("/broadcasts/audience", admin.PreviewAudience)
	app.Post("/broadcasts/validate", admin.ValidateDocument)
	app.Post("/contacts/tag", admin.BulkTag)
	app.Get("/contacts/search", admin.SearchContacts)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, dto.APIResponse, http.Header) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dto.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out, resp.Header
}

func errorCode(t *testing.T, resp dto.APIResponse) string {
	t.Helper()
	detail, ok := resp.Error.(map[string]any)
	require.True(t, ok, "error detail missing")
	code, _ := detail["code"].(string)
	return code
}

func resultData(t *testing.T, resp dto.APIResponse) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data missing")
	return data
}

func TestPublicHandler(t *testing.T) {
	t.Run("SignupCreated", func(t *testing.T) {
		flow := &mockContactFlow{result: &businessflow.CommandResult{Success: true, Inserted: 1, Data: map[string]any{"key": "k"}}}
		app := newApp(handlers.NewPublicHandler(flow, zap.NewNop(), time.Second), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/signup", dto.SignupRequest{Name: "Ada", Email: "ada@example.com"})
		assert.Equal(t, http.StatusCreated, status)
		assert.True(t, resp.Success)
		assert.Equal(t, float64(1), resultData(t, resp)["inserted"])
		assert.Equal(t, []string{"signup:Ada:ada@example.com"}, flow.calls)
	})

	t.Run("SignupExisting", func(t *testing.T) {
		flow := &mockContactFlow{result: &businessflow.CommandResult{Success: false, Data: map[string]any{"exists": true}}}
		app := newApp(handlers.NewPublicHandler(flow, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/signup", dto.SignupRequest{Email: "ada@example.com"})
		assert.Equal(t, http.StatusOK, status)
		assert.False(t, resp.Success)
		assert.Equal(t, float64(0), resultData(t, resp)["inserted"])
	})

	t.Run("SignupValidation", func(t *testing.T) {
		flow := &mockContactFlow{}
		app := newApp(handlers.NewPublicHandler(flow, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/signup", dto.SignupRequest{Email: "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, resp))
		assert.Empty(t, flow.calls)
	})

	t.Run("SignupRetryableStoreFailure", func(t *testing.T) {
		flow := &mockContactFlow{err: businessflow.NewBusinessError("SIGNUP_FAILED", "Signup failed",
			businessflow.ClassifyStoreError("signup", context.DeadlineExceeded))}
		app := newApp(handlers.NewPublicHandler(flow, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, header := do(t, app, http.MethodPost, "/signup", dto.SignupRequest{Email: "ada@example.com"})
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "SIGNUP_FAILED", errorCode(t, resp))
		assert.Equal(t, "1", header.Get("Retry-After"))
	})

	t.Run("SignupPermanentStoreFailure", func(t *testing.T) {
		flow := &mockContactFlow{err: businessflow.NewBusinessError("SIGNUP_FAILED", "Signup failed",
			businessflow.ClassifyStoreError("signup", errors.New("no such table")))}
		app := newApp(handlers.NewPublicHandler(flow, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, _, _ := do(t, app, http.MethodPost, "/signup", dto.SignupRequest{Email: "ada@example.com"})
		assert.Equal(t, http.StatusInternalServerError, status)
	})

	t.Run("UnsubscribeAndOptIn", func(t *testing.T) {
		flow := &mockContactFlow{result: &businessflow.CommandResult{Success: true, Updated: 1, Data: map[string]any{}}}
		app := newApp(handlers.NewPublicHandler(flow, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodGet, "/unsubscribe/abc123", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), resultData(t, resp)["updated"])

		status, _, _ = do(t, app, http.MethodGet, "/optin/abc123", nil)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = do(t, app, http.MethodGet, "/link/abc123", nil)
		assert.Equal(t, http.StatusOK, status)

		assert.Equal(t, []string{"optout:abc123", "optin:abc123", "link:abc123"}, flow.calls)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		flow := &mockContactFlow{result: &businessflow.CommandResult{Success: false, Data: map[string]any{}}}
		app := newApp(handlers.NewPublicHandler(flow, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodGet, "/unsubscribe/unknown", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.False(t, resp.Success)
		assert.Equal(t, float64(0), resultData(t, resp)["updated"])
	})
}

func TestAdminHandler(t *testing.T) {
	t.Run("CreateBroadcast", func(t *testing.T) {
		bf := &mockBroadcastFlow{result: &businessflow.CommandResult{Success: true, Inserted: 3, Data: map[string]any{"broadcast_id": 7}}}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		md := "---\nSubject: A\nSummary: B\n---\nbody"
		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts", dto.CreateBroadcastRequest{Markdown: md})
		assert.Equal(t, http.StatusCreated, status)
		assert.True(t, resp.Success)
		assert.Equal(t, md, bf.markdown)

		data := resultData(t, resp)
		assert.Equal(t, float64(3), data["inserted"])
		assert.Equal(t, float64(7), data["data"].(map[string]any)["broadcast_id"])
	})

	t.Run("CreateBroadcastInvalidDocument", func(t *testing.T) {
		bf := &mockBroadcastFlow{err: businessflow.NewBusinessError("INVALID_DOCUMENT", "Document requires subject, summary and body", businessflow.ErrInvalidDocument)}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts", dto.CreateBroadcastRequest{Markdown: "plain"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_DOCUMENT", errorCode(t, resp))
	})

	t.Run("CreateBroadcastSlugExists", func(t *testing.T) {
		bf := &mockBroadcastFlow{err: businessflow.NewBusinessError("BROADCAST_SLUG_EXISTS", "exists", businessflow.ErrBroadcastSlugExists)}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts", dto.CreateBroadcastRequest{Markdown: "x"})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "BROADCAST_SLUG_EXISTS", errorCode(t, resp))
	})

	t.Run("CreateBroadcastMissingMarkdown", func(t *testing.T) {
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, resp))
	})

	t.Run("PreviewAudienceDefaultsToAll", func(t *testing.T) {
		bf := &mockBroadcastFlow{result: &businessflow.CommandResult{Success: true, Data: map[string]any{"count": 4}}}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, _, _ := do(t, app, http.MethodGet, "/broadcasts/audience", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "*", bf.selector)

		status, _, _ = do(t, app, http.MethodGet, "/broadcasts/audience?tag=beta", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "beta", bf.selector)
	})

	t.Run("BulkTag", func(t *testing.T) {
		tf := &mockTagFlow{result: &businessflow.CommandResult{Success: true, Updated: 2, Data: map[string]any{}}}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, tf, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/contacts/tag", dto.BulkTagRequest{Tag: "vip", Emails: []string{"a@example.com", "b@example.com"}})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), resultData(t, resp)["updated"])
		assert.Equal(t, "vip", tf.tag)
		assert.Len(t, tf.emails, 2)
	})

	t.Run("BulkTagRequiresEmails", func(t *testing.T) {
		tf := &mockTagFlow{}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, tf, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/contacts/tag", dto.BulkTagRequest{Tag: "vip"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, resp))
		assert.Empty(t, tf.tag)
	})

	t.Run("ValidateDocumentValid", func(t *testing.T) {
		bf := &mockBroadcastFlow{result: businessflow.NewCommandResult(true).
			WithData("valid", true).
			WithData("contacts", 5)}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		md := "---\nSubject: A\nSummary: B\n---\nbody"
		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts/validate", dto.ValidateDocumentRequest{Markdown: md})
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, resp.Success)
		assert.Equal(t, md, bf.markdown)

		inner := resultData(t, resp)["data"].(map[string]any)
		assert.Equal(t, true, inner["valid"])
		assert.Equal(t, float64(5), inner["contacts"])
	})

	t.Run("ValidateDocumentInvalid", func(t *testing.T) {
		bf := &mockBroadcastFlow{result: businessflow.NewCommandResult(false).
			WithData("valid", false).
			WithData("message", "Ensure there is a Subject and Summary in the markdown")}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts/validate", dto.ValidateDocumentRequest{Markdown: "no frontmatter"})
		assert.Equal(t, http.StatusOK, status)
		assert.False(t, resp.Success)
		assert.Equal(t, false, resultData(t, resp)["data"].(map[string]any)["valid"])
	})

	t.Run("ValidateDocumentBlankReachesFlow", func(t *testing.T) {
		bf := &mockBroadcastFlow{markdown: "unset", result: businessflow.NewCommandResult(false).WithData("valid", false)}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts/validate", map[string]string{})
		assert.Equal(t, http.StatusOK, status)
		assert.False(t, resp.Success)
		assert.Equal(t, "", bf.markdown)
	})

	t.Run("ValidateDocumentRenderFailure", func(t *testing.T) {
		bf := &mockBroadcastFlow{err: businessflow.NewBusinessError("RENDER_FAILED", "Failed to render markdown", errors.New("boom"))}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(bf, &mockTagFlow{}, &mockContactFlow{}, nil, 0))

		status, resp, _ := do(t, app, http.MethodPost, "/broadcasts/validate", dto.ValidateDocumentRequest{Markdown: "x"})
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.False(t, resp.Success)
	})

	t.Run("SearchContacts", func(t *testing.T) {
		cf := &mockContactFlow{result: businessflow.NewCommandResult(true).WithData("count", 1)}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, cf, nil, 0))

		status, resp, _ := do(t, app, http.MethodGet, "/contacts/search?term="+url.QueryEscape("Ada L")+"&limit=20", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, resp.Success)
		assert.Equal(t, []string{"search:Ada L:20"}, cf.calls)
	})

	t.Run("SearchContactsBadLimitFallsBackToDefault", func(t *testing.T) {
		cf := &mockContactFlow{result: businessflow.NewCommandResult(true)}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, cf, nil, 0))

		status, _, _ := do(t, app, http.MethodGet, "/contacts/search?term=ada&limit=lots", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{"search:ada:0"}, cf.calls)
	})

	t.Run("SearchContactsMissingTerm", func(t *testing.T) {
		cf := &mockContactFlow{err: businessflow.NewBusinessError("SEARCH_TERM_REQUIRED", "Search term is required", businessflow.ErrSearchTerm)}
		app := newApp(handlers.NewPublicHandler(&mockContactFlow{}, nil, 0), handlers.NewAdminHandler(&mockBroadcastFlow{}, &mockTagFlow{}, cf, nil, 0))

		status, resp, _ := do(t, app, http.MethodGet, "/contacts/search", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "SEARCH_TERM_REQUIRED", errorCode(t, resp))
	})
}
