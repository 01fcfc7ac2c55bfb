// Package api is a typed client for the DevInsights analytics backend.
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

	"github.com/jrsteele09/devinsights/internal/logging"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const maxErrorBody = 4 << 10

// Timeouts bounds each backend call. A zero value disables the per-call bound
// and leaves only the caller's context.
type Timeouts struct {
	Status   time.Duration // repository status check
	Ingest   time.Duration // ingestion trigger (/commits)
	Auth     time.Duration // code exchange
	Validate time.Duration // token validation
}

// DefaultTimeouts mirrors the limits the web client used.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Status:   3 * time.Second,
		Ingest:   120 * time.Second,
		Auth:     10 * time.Second,
		Validate: 3 * time.Second,
	}
}

// Client talks to the backend over HTTP. Requests carry the session token as
// a bearer token whenever the token source yields one.
type Client struct {
	baseURL  string
	http     *http.Client
	source   oauth2.TokenSource
	timeouts Timeouts
	logger   zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is
// wrapped when a token source is configured.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTokenSource attaches a token source used for the Authorization header.
func WithTokenSource(ts oauth2.TokenSource) ClientOption {
	return func(c *Client) {
		c.source = ts
	}
}

// WithTimeouts overrides the per-call timeouts.
func WithTimeouts(t Timeouts) ClientOption {
	return func(c *Client) {
		c.timeouts = t
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		timeouts: DefaultTimeouts(),
		logger:   logging.Component("api"),
	}
	for _, opt := range options {
		opt(c)
	}

	if c.source != nil {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.http
		hc.Transport = &bearerTransport{source: c.source, base: base}
		c.http = &hc
	}
	return c
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request.
type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	timeout time.Duration
	token   string // overrides the token source when set
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	method, path := cl.method, cl.path
	if cl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cl.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("[api] encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("[api] building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		(&oauth2.Token{AccessToken: cl.token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("[api] %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[api] decoding %s %s: %w", method, path, err)
	}
	return nil
}

// bearerTransport adds the session token when one exists and sends the
// request unauthenticated otherwise; the backend decides whether to reject it.
type bearerTransport struct {
	source oauth2.TokenSource
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		return t.base.RoundTrip(req)
	}
	tok, err := t.source.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return t.base.RoundTrip(req)
	}
	ot := &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: t.base}
	return ot.RoundTrip(req)
}
