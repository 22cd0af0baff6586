package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProvider_DeviceFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals", "fingerprint")
	p := NewFileProvider(path, NewResolver(ResolverConfig{}))

	first := p.DeviceFingerprint()
	require.NotEmpty(t, first)
	assert.Regexp(t, `^fp_[0-9a-f]{32}$`, first)

	// A second provider over the same file sees the same token.
	second := NewFileProvider(path, NewResolver(ResolverConfig{})).DeviceFingerprint()
	assert.Equal(t, first, second)
}

func TestFileProvider_PublicIP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.77"}`)) //nolint:errcheck
	}))
	defer server.Close()

	p := NewFileProvider(filepath.Join(t.TempDir(), "fingerprint"),
		NewResolver(ResolverConfig{PrimaryURL: server.URL, FallbackURL: server.URL}))

	assert.Equal(t, "203.0.113.77", p.PublicIP(context.Background()))
}

func TestCollect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.88"}`)) //nolint:errcheck
	}))
	defer server.Close()

	p := NewFileProvider(filepath.Join(t.TempDir(), "fingerprint"),
		NewResolver(ResolverConfig{PrimaryURL: server.URL, FallbackURL: server.URL}))

	signals := Collect(context.Background(), p)

	assert.Equal(t, p.DeviceFingerprint(), signals.DeviceFingerprint)
	assert.Equal(t, "203.0.113.88", signals.IPAddress)
}
