package components

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

// defaultMaxPages stops a misbehaving catalog that never returns an empty page.
const defaultMaxPages = 50

// Client pages through the content service's component catalog.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	pageSize int
	maxPages int
	logger   *slog.Logger
}

var _ ports.ComponentCatalog = (*Client)(nil)

// NewClient wires an HTTP client; pageSize defaults to 100.
func NewClient(baseURL, apiKey string, pageSize int, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		client:   client,
		pageSize: pageSize,
		maxPages: defaultMaxPages,
		logger:   logger,
	}
}

type catalogItem struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	HTML   string   `json:"html"`
	Schema string   `json:"schema"`
	Tags   []string `json:"tags"`
}

type catalogPage struct {
	Items []catalogItem `json:"items"`
}

// ListComponents fetches every page of the catalog until an empty page and
// classifies each snippet by section type.
func (c *Client) ListComponents(ctx context.Context) ([]domain.ReusableComponent, error) {
	var (
		results  []domain.ReusableComponent
		seen     = map[string]struct{}{}
		complete bool
	)

	for page := 1; page <= c.maxPages; page++ {
		pageURL, err := buildPageURL(c.baseURL+"/components", page, c.pageSize)
		if err != nil {
			return nil, err
		}

		items, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("components page %d: %w", page, err)
		}
		if len(items) == 0 {
			complete = true
			break
		}

		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			results = append(results, domain.ReusableComponent{
				ID:         item.ID,
				Name:       item.Name,
				Type:       Classify(item.Name, item.HTML, item.Tags),
				HTML:       item.HTML,
				SchemaHint: item.Schema,
				Tags:       item.Tags,
			})
		}
	}

	if !complete {
		c.warn("component catalog truncated", "pages", c.maxPages, "count", len(results))
	}
	c.debug("component catalog loaded", "count", len(results))
	return results, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]catalogItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "SiteForge/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "content-service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.UpstreamError{
			Service:    "content-service",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		}
	}

	var page catalogPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &domain.MalformedPayloadError{Reason: "decode component page", Err: err}
	}
	return page.Items, nil
}

func buildPageURL(base string, page, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid catalog url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
