package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ipServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("primary json response", func(t *testing.T) {
		primary := ipServer(http.StatusOK, `{"ip":"203.0.113.10"}`)
		defer primary.Close()

		r := NewResolver(ResolverConfig{PrimaryURL: primary.URL, FallbackURL: "http://127.0.0.1:1"})
		assert.Equal(t, "203.0.113.10", r.Resolve(ctx))
	})

	t.Run("bare address response", func(t *testing.T) {
		primary := ipServer(http.StatusOK, "198.51.100.7\n")
		defer primary.Close()

		r := NewResolver(ResolverConfig{PrimaryURL: primary.URL, FallbackURL: "http://127.0.0.1:1"})
		assert.Equal(t, "198.51.100.7", r.Resolve(ctx))
	})

	t.Run("falls back when primary errors", func(t *testing.T) {
		primary := ipServer(http.StatusInternalServerError, "")
		defer primary.Close()
		fallback := ipServer(http.StatusOK, `{"ip":"192.0.2.44"}`)
		defer fallback.Close()

		r := NewResolver(ResolverConfig{PrimaryURL: primary.URL, FallbackURL: fallback.URL})
		assert.Equal(t, "192.0.2.44", r.Resolve(ctx))
	})

	t.Run("garbage from both yields unknown", func(t *testing.T) {
		primary := ipServer(http.StatusOK, "<html>captive portal</html>")
		defer primary.Close()
		fallback := ipServer(http.StatusOK, `{"ip":"not-an-ip"}`)
		defer fallback.Close()

		r := NewResolver(ResolverConfig{PrimaryURL: primary.URL, FallbackURL: fallback.URL})
		assert.Equal(t, IPUnknown, r.Resolve(ctx))
	})

	t.Run("unreachable endpoints yield unknown", func(t *testing.T) {
		r := NewResolver(ResolverConfig{
			PrimaryURL:  "http://127.0.0.1:1",
			FallbackURL: "http://127.0.0.1:1",
			Timeout:     200 * time.Millisecond,
		})
		assert.Equal(t, IPUnknown, r.Resolve(ctx))
	})
}
