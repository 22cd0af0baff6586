package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/athlinked/talent-verification-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultPrimaryURL  = "https://api.ipify.org?format=json"
	defaultFallbackURL = "https://api.my-ip.io/v2/ip.json"
	defaultTimeout     = 3 * time.Second
)

// Resolver looks up a public IP over HTTP with a primary endpoint and one
// fallback. Any failure yields IPUnknown.
type Resolver struct {
	primaryURL  string
	fallbackURL string
	httpClient  *http.Client
}

// ResolverConfig holds the lookup endpoints. Zero values use the defaults.
type ResolverConfig struct {
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
}

// NewResolver creates a public-IP resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.PrimaryURL == "" {
		cfg.PrimaryURL = defaultPrimaryURL
	}
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = defaultFallbackURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Resolver{
		primaryURL:  cfg.PrimaryURL,
		fallbackURL: cfg.FallbackURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Resolve returns the caller's public IP, or IPUnknown when both lookups fail.
func (r *Resolver) Resolve(ctx context.Context) string {
	for _, url := range []string{r.primaryURL, r.fallbackURL} {
		ip, err := r.lookup(ctx, url)
		if err != nil {
			logger.Log.Debug("ip lookup failed",
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		return ip
	}

	logger.Log.Warn("all ip lookups failed, using degraded signal")
	return IPUnknown
}

type ipResponse struct {
	IP string `json:"ip"`
}

func (r *Resolver) lookup(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed ipResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Some lookup services answer with a bare address.
		candidate := strings.TrimSpace(string(body))
		if net.ParseIP(candidate) != nil {
			return candidate, nil
		}
		return "", fmt.Errorf("parse response: %w", err)
	}

	if net.ParseIP(parsed.IP) == nil {
		return "", fmt.Errorf("invalid ip in response: %q", parsed.IP)
	}

	return parsed.IP, nil
}
