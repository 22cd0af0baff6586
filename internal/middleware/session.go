package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyUserID is the gin context key holding the authenticated user ID.
const ContextKeyUserID = "authenticatedUserID"

// SessionAuth resolves an optional authenticated identity from a signed
// session token of the form "<userID>.<hex hmac-sha256>". The session layer
// that mints these tokens is external; this middleware only checks the
// signature. An absent or invalid token leaves the request anonymous rather
// than rejecting it: anonymous voting is allowed, the identity is only used
// for self-vote rejection.
type SessionAuth struct {
	secret []byte
}

// NewSessionAuth creates the session token middleware. With an empty secret
// all requests are treated as anonymous.
func NewSessionAuth(secret string) *SessionAuth {
	return &SessionAuth{secret: []byte(secret)}
}

// Middleware returns a gin handler that stores the verified user ID in the
// request context when a valid token is present.
func (s *SessionAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(s.secret) > 0 {
			token := strings.TrimPrefix(c.GetHeader(headerAuth), bearerPrefix)
			if userID, ok := s.verify(token); ok {
				c.Set(ContextKeyUserID, userID)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user ID from the context, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// SignSessionToken mints a token for the given user. Exposed for tests and
// local tooling; production tokens come from the session service.
func SignSessionToken(secret string, userID uuid.UUID) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(userID.String()))
	return fmt.Sprintf("%s.%s", userID, hex.EncodeToString(mac.Sum(nil)))
}

func (s *SessionAuth) verify(token string) (uuid.UUID, bool) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, false
	}

	sig, err := hex.DecodeString(parts[1])
	if err != nil {
		return uuid.Nil, false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(userID.String()))
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return uuid.Nil, false
	}

	return userID, true
}
