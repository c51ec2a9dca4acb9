package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

const service = "audit service"

// Client talks to an external page audit service that crawls a public URL
// and grades it.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Auditor = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     httpClient,
	}
}

// Audit asks the service to score the page served at publicURL.
func (c *Client) Audit(ctx context.Context, publicURL string) (domain.QualityVerdict, error) {
	payload := map[string]any{"url": publicURL}

	var verdict domain.QualityVerdict
	if err := c.post(ctx, "/audit", payload, &verdict); err != nil {
		return domain.QualityVerdict{}, err
	}
	if verdict.Score < 0 || verdict.Score > 100 {
		return domain.QualityVerdict{}, &domain.MalformedPayloadError{Reason: fmt.Sprintf("audit score %d out of range", verdict.Score)}
	}
	return verdict, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.UpstreamError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.UpstreamError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &domain.MalformedPayloadError{Reason: "decode audit response", Err: err}
	}
	return nil
}
