// Package profile is a client for the profile service, which owns athlete
// profiles and their verified badges.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the profile service HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds the configuration for the profile client.
type Config struct {
	BaseURL string        // e.g., "http://profile.internal:8081"
	APIKey  string        // Optional API key for authentication
	Timeout time.Duration // Request timeout (default: 10 seconds)
}

// NewClient creates a new profile service client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type setBadgeRequest struct {
	Verified bool `json:"verified"`
}

// SetVerifiedBadge marks the owner's profile as verified. The endpoint is
// idempotent: repeating the call leaves the badge set.
func (c *Client) SetVerifiedBadge(ctx context.Context, ownerID string) error {
	reqBody, err := json.Marshal(setBadgeRequest{Verified: true})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/profiles/%s/verified-badge", c.baseURL, ownerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("profile service returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
