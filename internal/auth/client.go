package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"photosync/internal/logging"
)

const (
	defaultMaxRetries    = 3
	defaultBackoffFactor = 100 * time.Millisecond
)

// retryStatuses are the transient server errors worth retrying. 4xx
// responses are never retried.
var retryStatuses = map[int]struct{}{
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// persistingSource wraps a refreshing token source and saves every rotated
// token through the store before it is handed out, so a silent refresh during
// an API call is never lost.
type persistingSource struct {
	inner oauth2.TokenSource
	store *Store

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.inner.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		if err := p.store.Save(token); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
		p.last = token.AccessToken
	}
	return token, nil
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// PageSize is applied as a default pageSize query parameter on API calls.
	PageSize int
	// MaxRetries bounds retry attempts for transient server errors.
	MaxRetries int
	// BackoffFactor scales the sleep between retries: factor * 2^(attempt-1).
	BackoffFactor time.Duration
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
	// HTTPClient overrides the underlying transport (used in tests).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues authenticated GET requests against the remote API. The API
// surface is deliberately GET-only: the retry policy is safe precisely
// because every call is idempotent, and adding another verb here would have
// to revisit it.
type Client struct {
	http          *http.Client
	source        oauth2.TokenSource
	logger        *slog.Logger
	pageSize      int
	maxRetries    int
	backoffFactor time.Duration
}

// NewClient builds a Client from an OAuth configuration and a stored token.
// Refreshes happen transparently inside the token source and are persisted
// through the store before use.
func NewClient(ctx context.Context, oauthCfg *oauth2.Config, token *oauth2.Token, store *Store, opts ClientOptions) *Client {
	source := &persistingSource{
		inner: oauthCfg.TokenSource(ctx, token),
		store: store,
		last:  token.AccessToken,
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := opts.BackoffFactor
	if backoff <= 0 {
		backoff = defaultBackoffFactor
	}

	return &Client{
		http:          httpClient,
		source:        source,
		logger:        logging.NewComponentLogger(opts.Logger, "client"),
		pageSize:      opts.PageSize,
		maxRetries:    maxRetries,
		backoffFactor: backoff,
	}
}

// Get issues an API GET with the default pageSize parameter merged in.
// Transient 5xx responses are retried with backoff; after retries are
// exhausted the last response is returned for the caller to inspect, not
// turned into an error.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	merged := url.Values{}
	if c.pageSize > 0 {
		merged.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	for key, values := range params {
		merged[key] = values
	}
	return c.get(ctx, rawURL, merged)
}

// Download issues a GET without API default parameters, for media base URLs.
func (c *Client) Download(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.get(ctx, rawURL, nil)
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	target := rawURL
	if len(params) > 0 {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		query := parsed.Query()
		for key, values := range params {
			query[key] = values
		}
		parsed.RawQuery = query.Encode()
		target = parsed.String()
	}

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		var err error
		resp, err = c.doOnce(ctx, target)
		if err != nil {
			return nil, err
		}
		if _, transient := retryStatuses[resp.StatusCode]; !transient || attempt >= c.maxRetries {
			return resp, nil
		}

		resp.Body.Close()
		sleep := c.backoffFactor * (1 << attempt)
		c.logger.Debug("retrying after server error",
			logging.Int("status", resp.StatusCode),
			logging.Int("attempt", attempt+1),
			logging.Duration("backoff", sleep),
		)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// doOnce performs a single GET. The bearer token is read from the source on
// every call because a refresh may have happened since the previous request.
func (c *Client) doOnce(ctx context.Context, target string) (*http.Response, error) {
	token, err := c.source.Token()
	if err != nil {
		return nil, fmt.Errorf("obtain access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	return resp, nil
}
