// Package client is the HTTP gateway to the CodeMaster REST API.
//
// Every call returns either a decoded value or an error. HTTP rejections are
// *APIError values classified by SafeParse; transport failures are returned
// wrapped as they are. When a response shows the session has expired the
// OnAuthExpired hook runs before the error is returned, so callers only need
// to decide what to tell the user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single request, including reading the body.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu            sync.RWMutex
	token         string
	onAuthExpired func(ctx context.Context)
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the API rooted at baseURL, for example
// "http://localhost:8080/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token sent on authenticated calls. An empty
// token sends no Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnAuthExpired registers fn to run whenever a response is classified as
// KindAuthExpired. It runs on the calling goroutine before the call returns.
func (c *Client) OnAuthExpired(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onAuthExpired = fn
	c.mu.Unlock()
}

// Do sends one request and returns the classified response. body, when
// non-nil, is sent as JSON. A non-nil error means no response was received.
// Only authenticated requests can be classified as KindAuthExpired and
// trigger the OnAuthExpired hook.
func (c *Client) Do(ctx context.Context, method, path string, body any, authenticated bool) (Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("client: encoding %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return Response{}, fmt.Errorf("client: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return Response{}, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("client: reading %s %s: %w", method, path, err)
	}

	res := SafeParse(resp.StatusCode, raw)
	if !authenticated && res.Kind == KindAuthExpired {
		// Without a token there is no session to expire; login and
		// registration failures carry the server's message instead.
		res.Kind = rejection(res)
	}
	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", res.Status),
		slog.String("kind", res.Kind.String()),
		slog.Duration("duration", time.Since(start)),
	)

	if res.Kind == KindAuthExpired {
		c.mu.RLock()
		hook := c.onAuthExpired
		c.mu.RUnlock()
		if hook != nil {
			hook(ctx)
		}
	}
	return res, nil
}

// call sends a request and decodes a successful JSON body into dst, which
// may be nil.
func (c *Client) call(ctx context.Context, method, path string, body, dst any, authenticated bool) error {
	res, err := c.Do(ctx, method, path, body, authenticated)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	if dst == nil || len(bytes.TrimSpace(res.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, dst); err != nil {
		return fmt.Errorf("client: decoding %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	var out AuthResult
	if err := c.call(ctx, http.MethodPost, "/auth/register", in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginGitHub exchanges a GitHub OAuth access token for a session.
func (c *Client) LoginGitHub(ctx context.Context, accessToken string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"accessToken": accessToken}
	if err := c.call(ctx, http.MethodPost, "/auth/github", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSnippets(ctx context.Context) ([]Snippet, error) {
	var out []Snippet
	if err := c.call(ctx, http.MethodGet, "/snippets", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSnippet(ctx context.Context, id SnippetID) (*Snippet, error) {
	var out Snippet
	if err := c.call(ctx, http.MethodGet, "/snippets/"+id.String(), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSnippet(ctx context.Context, in SnippetInput) (*Snippet, error) {
	var out Snippet
	if err := c.call(ctx, http.MethodPost, "/snippets", in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSnippet stores in as a new version of snippet id.
func (c *Client) UpdateSnippet(ctx context.Context, id SnippetID, in SnippetInput) (*Snippet, error) {
	var out Snippet
	if err := c.call(ctx, http.MethodPut, "/snippets/"+id.String(), in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSnippet(ctx context.Context, id SnippetID) error {
	return c.call(ctx, http.MethodDelete, "/snippets/"+id.String(), nil, nil, true)
}

// Validate asks the server to compile content. A JSON array body is returned
// as the list of diagnostics, empty when the code is valid, whatever the
// status. Any other body is an *APIError; its Message is empty when the
// server did not send one.
func (c *Client) Validate(ctx context.Context, content string) ([]string, error) {
	res, err := c.Do(ctx, http.MethodPost, "/snippets/validate", map[string]string{"content": content}, true)
	if err != nil {
		return nil, err
	}

	var diags []string
	if res.JSON && json.Unmarshal(res.Body, &diags) == nil && diags != nil {
		return diags, nil
	}

	kind := res.Kind
	if kind == KindSuccess {
		kind = KindUnknown
	}
	return nil, &APIError{Kind: kind, Status: res.Status, Message: res.Message}
}

// Versions lists a snippet's versions, newest first.
func (c *Client) Versions(ctx context.Context, id SnippetID) ([]Version, error) {
	var out []Version
	if err := c.call(ctx, http.MethodGet, "/snippets/"+id.String()+"/versions", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// Rollback makes the content of version n current again, as a new version.
func (c *Client) Rollback(ctx context.Context, id SnippetID, n int) (*Snippet, error) {
	var out Snippet
	body := map[string]int{"versionNumber": n}
	if err := c.call(ctx, http.MethodPost, "/snippets/"+id.String()+"/rollback", body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVersion removes one version by its global id.
func (c *Client) DeleteVersion(ctx context.Context, versionID int64) error {
	return c.call(ctx, http.MethodDelete, "/versions/"+strconv.FormatInt(versionID, 10), nil, nil, true)
}

func (c *Client) DeleteVersionByNumber(ctx context.Context, id SnippetID, n int) error {
	path := fmt.Sprintf("/snippets/%s/versions/%d", id, n)
	return c.call(ctx, http.MethodDelete, path, nil, nil, true)
}

func (c *Client) Diff(ctx context.Context, id SnippetID, v1, v2 int) (*Diff, error) {
	q := url.Values{}
	q.Set("v1", strconv.Itoa(v1))
	q.Set("v2", strconv.Itoa(v2))

	var out Diff
	if err := c.call(ctx, http.MethodGet, "/snippets/"+id.String()+"/diff?"+q.Encode(), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Metrics(ctx context.Context, id SnippetID, n int) (*Metrics, error) {
	var out Metrics
	path := fmt.Sprintf("/snippets/%s/versions/%d/metrics", id, n)
	if err := c.call(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
