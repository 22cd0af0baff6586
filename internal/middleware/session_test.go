package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRouter(secret string) (*gin.Engine, *struct {
	userID uuid.UUID
	ok     bool
}) {
	gin.SetMode(gin.TestMode)

	captured := &struct {
		userID uuid.UUID
		ok     bool
	}{}

	router := gin.New()
	router.Use(NewSessionAuth(secret).Middleware())
	router.GET("/whoami", func(c *gin.Context) {
		captured.userID, captured.ok = UserID(c)
		c.Status(http.StatusNoContent)
	})
	return router, captured
}

func TestSessionAuth_ValidToken(t *testing.T) {
	const secret = "session-secret"
	router, captured := newSessionRouter(secret)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+SignSessionToken(secret, userID))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, captured.ok)
	assert.Equal(t, userID, captured.userID)
}

func TestSessionAuth_InvalidTokensStayAnonymous(t *testing.T) {
	const secret = "session-secret"

	valid := SignSessionToken(secret, uuid.New())

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "not a token", token: "garbage"},
		{name: "bad user id", token: "not-a-uuid." + strings.Split(valid, ".")[1]},
		{name: "bad signature hex", token: uuid.NewString() + ".zzzz"},
		{name: "signed with another secret", token: SignSessionToken("other-secret", uuid.New())},
		{name: "signature for another user", token: uuid.NewString() + "." + strings.Split(valid, ".")[1]},
	}

	router, captured := newSessionRouter(secret)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured.ok = false

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			// Invalid tokens never reject the request; they only drop the
			// identity.
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.False(t, captured.ok)
		})
	}
}

func TestSessionAuth_EmptySecretIsAlwaysAnonymous(t *testing.T) {
	router, captured := newSessionRouter("")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+SignSessionToken("", uuid.New()))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, captured.ok)
}
