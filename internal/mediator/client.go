package mediator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"jwbindex/internal/catalog"
	"jwbindex/internal/logging"
	"jwbindex/internal/services"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodyBytes caps a single catalog document.
	maxBodyBytes = 64 << 20
)

// Language is one catalog language.
type Language struct {
	Code       string `json:"code"`
	Locale     string `json:"locale"`
	Name       string `json:"name"`
	Vernacular string `json:"vernacular"`
	RTL        bool   `json:"isRTL"`
}

type languagesResponse struct {
	Languages []Language `json:"languages"`
}

// Client fetches catalog documents.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
}

var _ catalog.Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithCacheTTL memoises successful responses for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = cache.New(ttl, 2*ttl)
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "mediator")
	}
}

// New creates a catalog API client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = catalog.DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mediator", "new", "invalid base url", err)
	}
	client := &Client{
		baseURL:    baseURL,
		userAgent:  "jwb-index",
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch returns the body of rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(rawURL); ok {
			c.logger.Debug("cache hit", logging.String("url", rawURL))
			return cached.([]byte), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "mediator", "fetch", "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "mediator", "fetch", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "mediator", "fetch", fmt.Sprintf("%s returned 404", rawURL), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrTransport, "mediator", "fetch", fmt.Sprintf("%s returned %d (latency=%v)", rawURL, resp.StatusCode, latency), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "mediator", "fetch", "read body", err)
	}
	c.logger.Debug("fetched",
		logging.String("url", rawURL),
		logging.Int("bytes", len(body)),
		logging.Duration("latency", latency),
	)
	if c.cache != nil {
		c.cache.Set(rawURL, body, cache.DefaultExpiration)
	}
	return body, nil
}

// Languages lists the languages the catalog serves.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	body, err := c.Fetch(ctx, c.baseURL+"/languages/E/web")
	if err != nil {
		return nil, err
	}
	var payload languagesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, services.Wrap(services.ErrDecode, "mediator", "languages", "decode response", err)
	}
	return payload.Languages, nil
}

// Flush drops every cached response.
func (c *Client) Flush() {
	if c.cache != nil {
		c.cache.Flush()
	}
}
