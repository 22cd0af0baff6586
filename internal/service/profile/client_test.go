package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SetVerifiedBadge(t *testing.T) {
	t.Run("sends idempotent PUT with api key", func(t *testing.T) {
		ownerID := uuid.NewString()

		var gotMethod, gotPath, gotKey string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotKey = r.Header.Get("X-API-Key")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, APIKey: "profile-key"})

		err := client.SetVerifiedBadge(context.Background(), ownerID)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/api/v1/profiles/"+ownerID+"/verified-badge", gotPath)
		assert.Equal(t, "profile-key", gotKey)
		assert.Equal(t, true, gotBody["verified"])
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "profile not found", http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})

		err := client.SetVerifiedBadge(context.Background(), uuid.NewString())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("unreachable service is an error", func(t *testing.T) {
		client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})

		err := client.SetVerifiedBadge(context.Background(), uuid.NewString())
		assert.Error(t, err)
	})
}
