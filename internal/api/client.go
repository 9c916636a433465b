// Package api is the HTTP adapter for the video platform REST API.
//
// Every call goes through Client.do, which attaches credentials, unwraps the
// {statusCode, data, message, success} envelope and normalizes failures into
// *domain.APIError. Expired access tokens are refreshed here and nowhere else.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/vidtube/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
	defaultUserAgent    = "vidtube/1.0"
	maxErrorBody        = 64 << 10
)

// TokenSource supplies the current access token
type TokenSource interface {
	AccessToken() string
}

// Refresher obtains a new token pair after the access token expired
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Recorder receives per-response measurements
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordHTTPLatency(elapsed time.Duration)
}

// Config configures a Client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int           // extra attempts for idempotent requests
	RetryBackoff time.Duration // multiplied by the attempt number
	RateLimit    float64       // requests per second, 0 disables limiting
	UserAgent    string
}

// Client implements the domain repositories over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	userAgent  string
	logger     *slog.Logger
	recorder   Recorder

	authMu         sync.RWMutex
	tokens         TokenSource
	refresher      Refresher
	onUnauthorized func()

	refreshMu sync.Mutex
	refreshing *refreshCall
}

var (
	_ domain.UserRepository         = (*Client)(nil)
	_ domain.VideoRepository        = (*Client)(nil)
	_ domain.PostRepository         = (*Client)(nil)
	_ domain.CommentRepository      = (*Client)(nil)
	_ domain.LikeRepository         = (*Client)(nil)
	_ domain.PlaylistRepository     = (*Client)(nil)
	_ domain.SubscriptionRepository = (*Client)(nil)
)

type refreshCall struct {
	done chan struct{}
	err  error
}

// NewClient creates a new API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	// cookiejar.New only fails on a bad PublicSuffixList, and we pass none
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		retries:   cfg.Retries,
		backoff:   cfg.RetryBackoff,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// SetAuth wires the session into the client. onUnauthorized runs when a
// request fails with 401 and the token could not be refreshed.
func (c *Client) SetAuth(tokens TokenSource, refresher Refresher, onUnauthorized func()) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.tokens = tokens
	c.refresher = refresher
	c.onUnauthorized = onUnauthorized
}

// SetRecorder reports HTTP measurements to r
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiRequest describes one call
type apiRequest struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string

	// public requests never trigger a refresh or the unauthorized hook;
	// a 401 from them means bad credentials, not an expired session
	public bool
}

func newRequest(method, path string) *apiRequest {
	return &apiRequest{method: method, path: path}
}

func (r *apiRequest) withQuery(q url.Values) *apiRequest {
	r.query = q
	return r
}

func (r *apiRequest) withJSON(v any) (*apiRequest, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	r.body = data
	r.contentType = "application/json"
	return r, nil
}

func (r *apiRequest) asPublic() *apiRequest {
	r.public = true
	return r
}

func (r *apiRequest) idempotent() bool {
	return r.method == http.MethodGet
}

// do performs r and decodes the envelope's data into out (if non-nil)
func (c *Client) do(ctx context.Context, r *apiRequest, out any) error {
	body, err := c.call(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeEnvelope(body, out)
}

// call performs r, refreshing the session once on a 401, and returns the
// raw response body
func (c *Client) call(ctx context.Context, r *apiRequest) ([]byte, error) {
	body, err := c.send(ctx, r)
	if err != nil && !r.public && errors.Is(err, domain.ErrUnauthenticated) {
		body, err = c.retryAfterRefresh(ctx, r, err)
	}
	return body, err
}

// retryAfterRefresh handles a 401 on an authenticated request. The session
// is only given up when the refresh token is rejected or the retried
// request is refused again; a cancelled caller or an unreachable server
// leaves it alone.
func (c *Client) retryAfterRefresh(ctx context.Context, r *apiRequest, cause error) ([]byte, error) {
	c.authMu.RLock()
	refresher := c.refresher
	c.authMu.RUnlock()

	if refresher != nil {
		rerr := c.refresh(ctx, refresher)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case rerr == nil:
			body, err := c.send(ctx, r)
			if err == nil || !errors.Is(err, domain.ErrUnauthenticated) {
				return body, err
			}
			cause = err
		case cancelled(rerr):
			return nil, rerr
		case !errors.Is(rerr, domain.ErrUnauthenticated):
			c.logger.Debug("token refresh failed, keeping session", "error", rerr, "path", r.path)
			return nil, rerr
		default:
			c.logger.Debug("refresh token rejected", "error", rerr, "path", r.path)
		}
	}

	c.authMu.RLock()
	hook := c.onUnauthorized
	c.authMu.RUnlock()
	if hook != nil {
		hook()
	}
	return nil, cause
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// refresh runs at most one refresh at a time; concurrent callers wait for
// the in-flight one and share its result. A waiter whose own context is
// still live takes over when the in-flight refresh was cancelled.
func (c *Client) refresh(ctx context.Context, refresher Refresher) error {
	for {
		c.refreshMu.Lock()
		call := c.refreshing
		if call == nil {
			break
		}
		c.refreshMu.Unlock()

		select {
		case <-call.done:
			if cancelled(call.err) && ctx.Err() == nil {
				continue
			}
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	c.refreshing = call
	c.refreshMu.Unlock()

	call.err = refresher.Refresh(ctx)

	c.refreshMu.Lock()
	c.refreshing = nil
	c.refreshMu.Unlock()
	close(call.done)
	return call.err
}

// send performs r with rate limiting and, for idempotent requests, retries
// on transport failures and 5xx responses.
func (c *Client) send(ctx context.Context, r *apiRequest) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := c.roundTrip(ctx, r)
		if err == nil {
			return body, nil
		}
		if !r.idempotent() || attempt >= c.retries || !retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		c.logger.Debug("retrying request", "method", r.method, "path", r.path, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(c.backoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrServerOffline) || errors.Is(err, domain.ErrServer)
}

func (c *Client) roundTrip(ctx context.Context, r *apiRequest) ([]byte, error) {
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL = reqURL + "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		reader = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request", "method", r.method, "url", reqURL, "requestID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("api request failed", "error", err, "path", r.path)
		return nil, &domain.APIError{Kind: domain.KindTransport, Message: "server is unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if c.recorder != nil {
		c.recorder.RecordHTTPStatus(resp.StatusCode)
		c.recorder.RecordHTTPLatency(time.Since(start))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.APIError{Kind: domain.KindTransport, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp.StatusCode, body)
		if resp.StatusCode >= 500 {
			c.logger.Error("api request error", "status", resp.StatusCode, "path", r.path, "message", apiErr.Message)
		} else {
			c.logger.Debug("api request rejected", "status", resp.StatusCode, "path", r.path, "message", apiErr.Message)
		}
		return nil, apiErr
	}

	return body, nil
}

func (c *Client) accessToken() string {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

// errorFromResponse builds an APIError from a non-2xx response. The message
// comes from the JSON body when there is one, then from an HTML error page,
// then from the status text.
func errorFromResponse(status int, body []byte) *domain.APIError {
	apiErr := &domain.APIError{Kind: domain.KindFromStatus(status), Status: status}
	if apiErr.Kind == domain.KindUnknown && status >= 400 {
		apiErr.Kind = domain.KindValidation
	}

	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = firstNonEmpty(env.Message, env.Error)
	} else if text := htmlErrorText(body); text != "" {
		apiErr.Message = text
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
