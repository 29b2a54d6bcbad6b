package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/scaffold-labs/musicsearch/search/pkg/model"
)

const (
	DefaultBaseURL      = "https://api.apiopen.top/searchMusic"
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 4 << 20
	DefaultUserAgent    = "musicsearch/0.1"

	// QueryParam carries the term on the request URL.
	QueryParam = "name"
)

// Config configures the upstream music search endpoint.
type Config struct {
	BaseURL string
	// Timeout bounds a whole round trip. Zero leaves only the caller's context.
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Option customizes a MusicClient.
type Option func(*MusicClient)

// WithHTTPClient replaces the underlying http.Client. Its Timeout wins over Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *MusicClient) { c.client = hc }
}

// MusicClient issues GET <base>?name=<term> against the music search API.
// It is safe for concurrent use.
type MusicClient struct {
	base      *url.URL
	client    *http.Client
	userAgent string
	maxBody   int64
}

// New validates cfg and returns a client for it.
func New(cfg Config, opts ...Option) (*MusicClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", cfg.BaseURL)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	c := &MusicClient{
		base:      base,
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Client exposes the underlying http.Client.
func (c *MusicClient) Client() *http.Client { return c.client }

// BaseURL returns the configured endpoint without a term.
func (c *MusicClient) BaseURL() string { return c.base.String() }

// URL returns the request URL for term. Query parameters already present on
// the base endpoint are kept; an existing "name" is replaced.
func (c *MusicClient) URL(term model.Term) string {
	u := *c.base
	q := u.Query()
	q.Set(QueryParam, string(term))
	u.RawQuery = q.Encode()
	return u.String()
}

// Search performs one GET for term. The returned error, when non-nil, is
// always an *Error.
func (c *MusicClient) Search(ctx context.Context, term model.Term) (*model.Response, error) {
	reqURL := c.URL(term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: reqURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	elapsed := time.Since(start)

	oversized := int64(len(body)) > c.maxBody
	if oversized {
		body = body[:c.maxBody]
	}

	// Status is judged before the payload: a 5xx with an HTML body is a status failure.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, URL: reqURL, StatusCode: resp.StatusCode, Body: body}
	}
	if oversized {
		return nil, &Error{Kind: KindDecode, URL: reqURL, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("payload exceeds %d bytes", c.maxBody)}
	}
	if !json.Valid(body) {
		return nil, &Error{Kind: KindDecode, URL: reqURL, StatusCode: resp.StatusCode, Body: body,
			Err: fmt.Errorf("body is not valid JSON (%d bytes, content-type %q)", len(body), resp.Header.Get("Content-Type"))}
	}

	return &model.Response{
		URL:        reqURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       json.RawMessage(body),
		Duration:   elapsed,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
