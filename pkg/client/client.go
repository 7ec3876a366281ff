// Package client implements the typed REST client for the skills API.
// Every operation is a single timeout-bounded request with no retries and no
// session state; failures are normalized into the tagged Error taxonomy so
// the CLI can branch on failure kind.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/qaskills/qas/pkg/core"
	"github.com/qaskills/qas/pkg/version"
)

const (
	defaultBaseURL = "https://api.qaskills.dev"
	defaultTimeout = 10 * time.Second

	envBaseURL = "QAS_API_URL"
)

// Config wires the base URL and timeout for the API client. The zero value
// is usable: the base URL falls back to QAS_API_URL or the hosted default,
// and the timeout to 10 seconds.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the skills API. Safe for concurrent use; operations share
// nothing but the read-only configuration.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient resolves the configuration and returns a ready-to-use Client.
// The environment variable is read here, at construction time, so tests can
// repoint the client without touching process-wide state afterwards.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv(envBaseURL)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// SearchSkills runs a search against GET /api/skills. Every set field of
// params becomes a query parameter; array fields are serialized as repeated
// keys and unset fields are omitted entirely.
func (c *Client) SearchSkills(ctx context.Context, params core.SearchParams) (*core.SearchResult, error) {
	var result core.SearchResult
	if err := c.get(ctx, "/api/skills", searchQuery(params), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSkill fetches a single skill by id or slug. The identifier is
// percent-encoded so slugs containing reserved URL characters stay a single
// path segment.
func (c *Client) GetSkill(ctx context.Context, idOrSlug string) (*core.Skill, error) {
	if idOrSlug == "" {
		return nil, errors.New("skill id or slug required")
	}
	var skill core.Skill
	if err := c.get(ctx, "/api/skills/"+url.PathEscape(idOrSlug), nil, &skill); err != nil {
		return nil, err
	}
	return &skill, nil
}

// GetCategories fetches the category list.
func (c *Client) GetCategories(ctx context.Context) ([]core.Category, error) {
	var categories []core.Category
	if err := c.get(ctx, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// TrackInstall reports an install/remove/update event. Fire-and-forget from
// the caller's perspective: errors propagate but a success carries no
// payload. There is deliberately no retry; lost telemetry is tolerable.
func (c *Client) TrackInstall(ctx context.Context, event core.InstallEvent) error {
	if !event.Action.Valid() {
		return fmt.Errorf("invalid install action %q", event.Action)
	}
	return c.post(ctx, "/api/telemetry/install", event, "", nil)
}

// PublishSkill publishes a skill with bearer-token authentication.
func (c *Client) PublishSkill(ctx context.Context, req core.PublishRequest, token string) (*core.PublishResponse, error) {
	if token == "" {
		return nil, errors.New("publish token required")
	}
	var resp core.PublishResponse
	if err := c.post(ctx, "/api/skills", req, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// searchQuery serializes params into query values. Unset fields are omitted
// entirely so the server applies its own defaults; multi-valued fields use
// one repeated key per element, preserving order.
func searchQuery(params core.SearchParams) url.Values {
	q := url.Values{}
	if params.Query != "" {
		q.Set("q", params.Query)
	}
	for _, field := range core.FilterFields {
		for _, value := range params.Filters()[field] {
			q.Add(field, value)
		}
	}
	if params.Sort != "" {
		q.Set("sort", string(params.Sort))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(params.PageSize))
	}
	if params.VerifiedOnly {
		q.Set("verifiedOnly", "true")
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) post(ctx context.Context, path string, payload any, token string, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, payload, token, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, token string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindParse, Message: err.Error(), cause: err}
	}
	return nil
}
