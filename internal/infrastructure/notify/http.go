// Package notify delivers remote-save notifications to collaboration rooms
// hosted by other processes.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

// InternalTokenHeader authenticates service-to-service broadcast calls.
const InternalTokenHeader = "X-Internal-Token"

// HTTPNotifier posts remote-save messages to the internal broadcast
// endpoint of the host that owns the rooms.
type HTTPNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ ports.SaveNotifier = (*HTTPNotifier)(nil)

// NewHTTPNotifier registers the collaboration host base URL and shared token.
func NewHTTPNotifier(baseURL, token string, client *http.Client) *HTTPNotifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// NotifySaved posts the remote-save message for one page.
func (n *HTTPNotifier) NotifySaved(ctx context.Context, site, page, versionTag string) error {
	if n.baseURL == "" {
		return fmt.Errorf("http notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/internal/rooms/%s/%s/broadcast", n.baseURL, url.PathEscape(site), url.PathEscape(page))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(domain.NewRemoteSave(site, page, versionTag)))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set(InternalTokenHeader, n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return &domain.UpstreamError{Service: "collaboration host", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &domain.UpstreamError{Service: "collaboration host", StatusCode: resp.StatusCode, Err: fmt.Errorf("broadcast rejected: %s", resp.Status)}
	}
	return nil
}
