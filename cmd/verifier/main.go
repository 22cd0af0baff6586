// Command verifier submits a community verification vote from the terminal,
// performing the same precheck a web client does: it keeps a per-machine
// device fingerprint and resolves the public IP before posting the vote.
// Intended for staging checks and demos.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/athlinked/talent-verification-go/internal/handler"
	"github.com/athlinked/talent-verification-go/internal/signal"
)

func main() {
	var (
		serverURL       = flag.String("server", "http://localhost:8080", "verification API base URL")
		videoID         = flag.String("video", "", "talent video ID (required)")
		name            = flag.String("name", "", "verifier display name (required)")
		email           = flag.String("email", "", "verifier email (required)")
		relationship    = flag.String("relationship", "witness", "relationship to the athlete")
		message         = flag.String("message", "", "optional verification message")
		sessionToken    = flag.String("session", "", "optional signed session token")
		fingerprintPath = flag.String("fingerprint-file", defaultFingerprintPath(), "device fingerprint token file")
		timeout         = flag.Duration("timeout", 15*time.Second, "request timeout")
	)
	flag.Parse()

	if *videoID == "" || *name == "" || *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	provider := signal.NewFileProvider(*fingerprintPath, signal.NewResolver(signal.ResolverConfig{}))

	signals := signal.Collect(ctx, provider)
	if signals.DeviceFingerprint == "" {
		fmt.Fprintln(os.Stderr, "could not establish a device fingerprint")
		os.Exit(1)
	}

	payload := handler.SubmissionRequestDTO{
		VerifierName:         *name,
		VerifierEmail:        *email,
		VerifierRelationship: *relationship,
		VerificationMessage:  *message,
		DeviceFingerprint:    signals.DeviceFingerprint,
		IPAddress:            signals.IPAddress,
	}

	result, errBody, status, err := submit(ctx, *serverURL, *videoID, *sessionToken, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "submission failed: %v\n", err)
		os.Exit(1)
	}

	if result == nil {
		fmt.Fprintf(os.Stderr, "rejected (%d %s): %s\n", status, errBody.Error, errBody.Message)
		if errBody.Retryable {
			fmt.Fprintln(os.Stderr, "the rejection is retryable; wait and resubmit")
		}
		os.Exit(1)
	}

	if result.Accepted {
		fmt.Printf("vote accepted: %d/%d verifications\n", result.NewCount, result.Goal)
		if result.ThresholdCrossed {
			fmt.Println("the video is now verified")
		}
	} else {
		fmt.Printf("vote not recorded (%s): video is %s at %d/%d\n",
			result.Reason, result.Status, result.NewCount, result.Goal)
	}
}

func submit(ctx context.Context, serverURL, videoID, sessionToken string, payload handler.SubmissionRequestDTO) (*handler.SubmissionResponseDTO, *handler.ErrorResponse, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/videos/%s/verifications", serverURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var result handler.SubmissionResponseDTO
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
		return &result, nil, resp.StatusCode, nil
	}

	var errBody handler.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		return nil, nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil, &errBody, resp.StatusCode, nil
}

func defaultFingerprintPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".verifier-fingerprint"
	}
	return filepath.Join(dir, "athlinked", "verifier-fingerprint")
}
