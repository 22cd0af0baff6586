// Package middleware provides authentication middleware for the HTTP API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerAPIKey = "X-API-Key"
	headerAuth   = "Authorization"
	bearerPrefix = "Bearer "
)

// APIKeyAuth validates admin API keys. It checks the X-API-Key header first,
// then Authorization: Bearer. With no keys configured, all requests are
// rejected.
type APIKeyAuth struct {
	apiKeys []string
}

// NewAPIKeyAuth creates a new API key authentication middleware.
func NewAPIKeyAuth(apiKeys []string) *APIKeyAuth {
	keys := make([]string, 0, len(apiKeys))
	for _, key := range apiKeys {
		if key != "" {
			keys = append(keys, key)
		}
	}

	return &APIKeyAuth{apiKeys: keys}
}

// Middleware returns a gin handler that rejects requests without a valid key.
func (a *APIKeyAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := extractAPIKey(c)

		if !a.isValidAPIKey(apiKey) {
			logger.Log.Warn("unauthorized request - invalid or missing API key",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		c.Next()
	}
}

func extractAPIKey(c *gin.Context) string {
	if apiKey := c.GetHeader(headerAPIKey); apiKey != "" {
		return apiKey
	}

	auth := c.GetHeader(headerAuth)
	if strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimPrefix(auth, bearerPrefix)
	}

	return ""
}

// isValidAPIKey compares in constant time against every configured key.
func (a *APIKeyAuth) isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	valid := false
	for _, key := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			valid = true
		}
	}

	return valid
}
