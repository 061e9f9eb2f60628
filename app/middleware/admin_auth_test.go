package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/tailwind-mail/app/dto"
	"github.com/amirphl/tailwind-mail/app/middleware"
	"github.com/amirphl/tailwind-mail/app/services"
	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-at-least-32-chars"

func newProtectedApp(t *testing.T) (*fiber.App, services.TokenService) {
	t.Helper()

	tokens, err := services.NewTokenService(time.Minute, "tailwind-mail", testSecret)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/admin", middleware.NewAuthMiddleware(tokens).AdminAuthenticate(), func(c fiber.Ctx) error {
		adminID, ok := middleware.GetAdminIDFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(adminID)
	})
	return app, tokens
}

func call(t *testing.T, app *fiber.App, authorization string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return resp.StatusCode, ""
	}
	var body dto.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	detail, _ := body.Error.(map[string]any)
	code, _ := detail["code"].(string)
	return resp.StatusCode, code
}

func TestAdminAuthenticate(t *testing.T) {
	app, tokens := newProtectedApp(t)

	t.Run("ValidToken", func(t *testing.T) {
		token, err := tokens.GenerateAdminToken("operator")
		require.NoError(t, err)

		status, _ := call(t, app, "Bearer "+token)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		status, code := call(t, app, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "MISSING_AUTHORIZATION_HEADER", code)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		status, code := call(t, app, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "INVALID_AUTHORIZATION_FORMAT", code)
	})

	t.Run("EmptyToken", func(t *testing.T) {
		status, code := call(t, app, "Bearer   ")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "MISSING_ACCESS_TOKEN", code)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		status, code := call(t, app, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_INVALID", code)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "operator",
			"iss":  "tailwind-mail",
			"iat":  time.Now().Add(-2 * time.Hour).Unix(),
			"exp":  time.Now().Add(-time.Hour).Unix(),
			"jti":  "expired",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		status, code := call(t, app, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_EXPIRED", code)
	})

	t.Run("ForeignSecret", func(t *testing.T) {
		other, err := services.NewTokenService(time.Minute, "tailwind-mail", "another-secret-that-is-32-chars-long!!")
		require.NoError(t, err)
		token, err := other.GenerateAdminToken("intruder")
		require.NoError(t, err)

		status, code := call(t, app, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_INVALID", code)
	})
}
