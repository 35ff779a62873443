// Package ats holds the provider adapters for the supported applicant
// tracking systems. Each adapter owns its vendor's base URL, auth scheme,
// webhook signature check and payload normalization, behind one interface so
// the webhook pipeline and result sync never branch on provider names.
package ats

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"skillgate/domain"
)

type Job struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// JobsPage is one page of a provider's job list. Cursor semantics differ per
// vendor (opaque cursor, offset token, or nothing at all); callers only loop
// while HasMore.
type JobsPage struct {
	Jobs       []Job  `json:"jobs"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Candidate is the normalized view of a candidate or opportunity record.
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Adapter interface {
	Provider() string

	// VerifySignature authenticates a webhook against the configured signing
	// secret. It operates on the raw, unparsed body: re-serialized JSON is
	// not guaranteed byte-identical to what the provider signed. With no
	// secret configured it returns true: an unconfigured integration
	// accepts unsigned webhooks, deliberately.
	VerifySignature(rawBody []byte, headers http.Header) bool

	// NormalizeEvent maps the raw webhook body to the canonical event.
	// Returns domain.ErrIgnoredEvent for event types we don't handle and
	// *domain.NormalizationFailure when the payload cannot be mapped.
	NormalizeEvent(rawBody []byte) (*domain.StageChangeEvent, error)

	// EnrichEvent fills fields this provider's webhooks omit, fetching from
	// the vendor API when needed. A no-op for providers whose webhooks are
	// self-contained.
	EnrichEvent(ctx context.Context, ev *domain.StageChangeEvent) error

	ListJobs(ctx context.Context, cursor string) (*JobsPage, error)
	GetCandidate(ctx context.Context, id string) (*Candidate, error)
	WriteNote(ctx context.Context, targetID, text string) error

	// TestConnection makes the cheapest authenticated call available and
	// reports success as a boolean, so config validation never crashes.
	TestConnection(ctx context.Context) bool
}

// Factory resolves an adapter for a company's integration config.
type Factory interface {
	ForProvider(cfg domain.IntegrationConfig) (Adapter, error)
}

type HTTPFactory struct {
	client *http.Client
	logger *zap.Logger
}

func NewFactory(logger *zap.Logger) *HTTPFactory {
	return &HTTPFactory{
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

func (f *HTTPFactory) ForProvider(cfg domain.IntegrationConfig) (Adapter, error) {
	switch cfg.Provider {
	case domain.ProviderAshby:
		return NewAshby(cfg, f.client, f.logger), nil
	case domain.ProviderGreenhouse:
		return NewGreenhouse(cfg, f.client, f.logger), nil
	case domain.ProviderLever:
		return NewLever(cfg, f.client, f.logger), nil
	}
	return nil, fmt.Errorf("unknown ATS provider %q", cfg.Provider)
}

// ProviderError carries the upstream status code and body so callers can
// surface what the vendor actually said.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// verifyHMAC compares a hex-encoded HMAC-SHA256 signature in constant time.
// A "sha256=" or "sha256 " prefix on the presented value is tolerated.
func verifyHMAC(secret string, message []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, "sha256=")
	signature = strings.TrimPrefix(signature, "sha256 ")

	presented, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hmac.Equal(presented, mac.Sum(nil))
}

// doJSON runs one authenticated call against a vendor API. All three vendors
// use HTTP Basic with the API key as username and an empty password.
func doJSON(ctx context.Context, client *http.Client, apiKey, method, url string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(apiKey, "")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// tagProvider stamps the provider name onto errors coming out of doJSON.
func tagProvider(err error, provider string) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		pe.Provider = provider
	}
	return err
}
