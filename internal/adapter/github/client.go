package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/domain/model"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com/"
	// SearchPageSize is the number of users requested per search.
	SearchPageSize = 30

	defaultTimeout    = 30 * time.Second
	minRetryBackoff   = 100 * time.Millisecond
	maxRetryBackoff   = 2 * time.Second
	defaultUserAgent  = "usersearch"
	githubAcceptValue = "application/vnd.github+json"
)

// Executor delivers completions on the consumer-facing context.
type Executor interface {
	Post(fn func())
}

// Client exposes the two user-directory endpoints.
type Client interface {
	SearchUsers(ctx context.Context, query string) (*model.SearchResult, error)
	UserDetail(ctx context.Context, login string) (*model.User, error)
	SearchUsersAsync(ctx context.Context, query string, done func(*model.SearchResult, error))
	UserDetailAsync(ctx context.Context, login string, done func(*model.User, error))
	CancelAll()
}

// Options tune the HTTP client.
type Options struct {
	Timeout             time.Duration
	Token               string
	RequestsPerMinute   int
	WaitForConnectivity bool
	Transport           http.RoundTripper
}

// HTTPClient implements Client via the GitHub REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       Executor
	logger     *slog.Logger

	timeout             time.Duration
	waitForConnectivity bool

	mu       sync.Mutex
	inflight map[uint64]context.CancelFunc
	next     uint64
}

// NewHTTPClient creates a client rooted at baseURL.
func NewHTTPClient(baseURL string, exec Executor, logger *slog.Logger, opts Options) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("api url must be absolute")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := opts.Transport
	if transport == nil {
		transport = cleanhttp.DefaultPooledTransport()
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   transport,
		}
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60)
		burst = opts.RequestsPerMinute
	}

	return &HTTPClient{
		baseURL:             parsed,
		httpClient:          &http.Client{Transport: transport, Timeout: timeout},
		limiter:             rate.NewLimiter(limit, burst),
		exec:                exec,
		logger:              logger,
		timeout:             timeout,
		waitForConnectivity: opts.WaitForConnectivity,
		inflight:            make(map[uint64]context.CancelFunc),
	}, nil
}

// SearchUsers queries the user search endpoint. Whitespace-only queries fail
// with ErrInvalidRequest before touching the network.
func (c *HTTPClient) SearchUsers(ctx context.Context, query string) (*model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domainErrors.ErrInvalidRequest
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join("/", endpoint.Path, "search", "users")
	endpoint.RawQuery = url.Values{
		"q":        []string{query},
		"per_page": []string{strconv.Itoa(SearchPageSize)},
	}.Encode()

	var result model.SearchResult
	if err := c.get(ctx, endpoint.String(), checkSearchFields, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UserDetail fetches the full record of login.
func (c *HTTPClient) UserDetail(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || strings.Contains(login, "/") {
		return nil, domainErrors.ErrInvalidRequest
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join("/", endpoint.Path, "users", login)

	var user model.User
	if err := c.get(ctx, endpoint.String(), checkUserFields, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsersAsync runs SearchUsers off the caller's goroutine and delivers
// the outcome through the executor.
func (c *HTTPClient) SearchUsersAsync(ctx context.Context, query string, done func(*model.SearchResult, error)) {
	go func() {
		res, err := c.SearchUsers(ctx, query)
		c.exec.Post(func() { done(res, err) })
	}()
}

// UserDetailAsync runs UserDetail off the caller's goroutine and delivers
// the outcome through the executor.
func (c *HTTPClient) UserDetailAsync(ctx context.Context, login string, done func(*model.User, error)) {
	go func() {
		user, err := c.UserDetail(ctx, login)
		c.exec.Post(func() { done(user, err) })
	}()
}

// CancelAll aborts every outstanding request issued by the client.
func (c *HTTPClient) CancelAll() {
	c.mu.Lock()
	cancels := c.inflight
	c.inflight = make(map[uint64]context.CancelFunc)
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if len(cancels) > 0 {
		c.logger.Debug("cancelled outstanding api requests", slog.Int("count", len(cancels)))
	}
}

// Outstanding returns the number of requests currently in flight.
func (c *HTTPClient) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

func (c *HTTPClient) track(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	id := c.next
	c.next++
	c.inflight[id] = cancel
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
		cancel()
	}
}

// get issues a GET and decodes a 2xx body into v once check accepts it.
func (c *HTTPClient) get(ctx context.Context, endpoint string, check func([]byte) error, v any) error {
	ctx, release := c.track(ctx)
	defer release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return domainErrors.TransportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domainErrors.NewAPIError(domainErrors.KindInvalidRequest, err)
	}
	req.Header.Set("Accept", githubAcceptValue)
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.send(ctx, req)
	if err != nil {
		return domainErrors.TransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return domainErrors.TransportError(err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return domainErrors.ErrNoData
		}
		if err := check(body); err != nil {
			return domainErrors.NewAPIError(domainErrors.KindDecoding, err)
		}
		if err := json.Unmarshal(body, v); err != nil {
			return domainErrors.NewAPIError(domainErrors.KindDecoding, err)
		}
		return nil
	case resp.StatusCode == http.StatusForbidden:
		c.logger.Warn("api rate limit exceeded",
			slog.String("url", endpoint),
			slog.String("reset", resp.Header.Get("X-RateLimit-Reset")))
		return domainErrors.ErrRateLimitExceeded
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("api request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return domainErrors.ErrServer
	default:
		c.logger.Error("api request failed", slog.Int("status", resp.StatusCode), slog.String("url", endpoint))
		return domainErrors.ErrUnknown
	}
}

// send performs the request. With connectivity waiting enabled, dial-level
// failures are retried until the request deadline expires.
func (c *HTTPClient) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := minRetryBackoff
	for {
		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		if !c.waitForConnectivity || !isConnectivityError(err) {
			return nil, err
		}

		c.logger.Debug("waiting for connectivity", slog.String("error", err.Error()), slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func isConnectivityError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
