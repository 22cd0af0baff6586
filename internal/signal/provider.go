package signal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider is a Provider backed by a token file, mirroring the
// browser-install token that web clients keep in local storage. The first
// call mints the token; later calls reuse it, so repeated submissions from
// the same machine carry the same fingerprint.
type FileProvider struct {
	path     string
	resolver *Resolver
}

// NewFileProvider creates a provider whose fingerprint persists at path.
func NewFileProvider(path string, resolver *Resolver) *FileProvider {
	return &FileProvider{
		path:     path,
		resolver: resolver,
	}
}

// DeviceFingerprint returns the persisted token, minting one if absent.
// Returns "" when the token can be neither read nor written.
func (p *FileProvider) DeviceFingerprint() string {
	if data, err := os.ReadFile(p.path); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token
		}
	}

	token, err := mintFingerprint()
	if err != nil {
		return ""
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return ""
	}
	if err := os.WriteFile(p.path, []byte(token+"\n"), 0o600); err != nil {
		return ""
	}

	return token
}

// PublicIP resolves the public IP through the configured resolver.
func (p *FileProvider) PublicIP(ctx context.Context) string {
	return p.resolver.Resolve(ctx)
}

func mintFingerprint() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate fingerprint: %w", err)
	}
	return "fp_" + hex.EncodeToString(buf), nil
}
