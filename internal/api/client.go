// Package api is the HTTP client for the hosted invoicing service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const apiPrefix = "/v1"

// MaxPageSize is the largest page the server returns
const MaxPageSize = 100

// TokenSource supplies the bearer token for each request
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	baseURL        *url.URL
	http           *http.Client
	tokens         TokenSource
	logger         *zap.Logger
	onUnauthorized func()
	userAgent      string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger enables request logging
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithUnauthorizedHandler registers fn to run whenever an authenticated
// request is answered with 401
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for baseURL (scheme and host, without /v1)
func New(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: timeout},
		tokens:    tokens,
		logger:    zap.NewNop(),
		userAgent: "invoicer",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured server URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    io.Reader
	ctype   string
	headers map[string]string
	anon    bool
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do sends req and decodes a JSON response into out (if non-nil)
func (c *Client) do(ctx context.Context, req request, out any) (http.Header, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.ctype != "" {
		httpReq.Header.Set("Content-Type", req.ctype)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	authenticated := false
	if !req.anon && c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
		if resp.StatusCode == http.StatusUnauthorized && authenticated && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return resp.Header, apiErr
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.Header, fmt.Errorf("failed to decode %s %s response: %w", req.method, req.path, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	req := request{method: method, path: path}
	if in != nil {
		body, err := jsonBody(in)
		if err != nil {
			return err
		}
		req.body = body
		req.ctype = "application/json"
	}
	_, err := c.do(ctx, req, out)
	return err
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(min(limit, MaxPageSize)))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}
	return q
}
