package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rupl/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestTokens_IssueVerify(t *testing.T) {
	t.Parallel()
	tokens := NewTokens(testSecret, time.Hour)

	raw, err := tokens.Issue("u-42", "traveler_joe")
	require.NoError(t, err)

	claims, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.UserID)
	assert.Equal(t, "traveler_joe", claims.Username)

	_, err = NewTokens("another-secret", time.Hour).Verify(raw)
	assert.Error(t, err)
}

func TestTokens_Expired(t *testing.T) {
	t.Parallel()
	tokens := NewTokens(testSecret, time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, err := tokens.Issue("u-1", "anna")
	require.NoError(t, err)

	_, err = NewTokens(testSecret, time.Minute).Verify(raw)
	assert.Error(t, err)
}

func TestTokens_MissingSecret(t *testing.T) {
	t.Parallel()
	_, err := NewTokens("", 0).Issue("u-1", "anna")
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	tokens := NewTokens(testSecret, time.Hour)

	app := fiber.New()
	app.Get("/test", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"userID":  UserID(c),
			"fromCtx": observability.ExtractUserID(c.UserContext()),
		})
	})

	valid, err := tokens.Issue("123", "joe")
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	foreignRaw, err := foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "123", "iss": tokenIssuer, "aud": tokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noneRaw, err := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{name: "Happy Path", authHeader: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "Missing Header", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Format", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed Token", authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{name: "Wrong Audience", authHeader: "Bearer " + foreignRaw, expectedStatus: http.StatusUnauthorized},
		{name: "Unsigned Token", authHeader: "Bearer " + noneRaw, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "123", body["userID"])
				assert.Equal(t, "123", body["fromCtx"])
			} else {
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			}
		})
	}
}
