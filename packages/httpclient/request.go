package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// TokenSource supplies a bearer token for authenticated requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Request is a fully composed outbound request handed to the Client.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        string
	Timeout     time.Duration
}

// BuildURL returns the request URL with query parameters applied.
func (r *Request) BuildURL() string {
	if len(r.QueryParams) == 0 {
		return r.URL
	}

	u, err := neturl.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	q := u.Query()
	for k, v := range r.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Builder composes a request fluently. Configuration methods return the
// builder; the terminal methods (Get, Post, Put, Patch, Delete) execute
// the request through the Client and wrap the result into a Response.
//
// When a TokenSource is attached, a bearer token is acquired before the
// request is dispatched; a token failure aborts the request before any
// network call to the target API is made.
type Builder struct {
	client  *Client
	baseURL string
	tokens  TokenSource
	headers map[string]string
	query   map[string]string
	body    string
	timeout time.Duration
	err     error
}

// NewBuilder creates a request builder bound to client. Relative paths
// given to the terminal methods are resolved against baseURL.
func NewBuilder(client *Client, baseURL string) *Builder {
	return &Builder{
		client:  client,
		baseURL: baseURL,
		headers: make(map[string]string),
		query:   make(map[string]string),
	}
}

// WithTokenSource attaches the bearer-token supplier used for
// authenticated requests.
func (b *Builder) WithTokenSource(tokens TokenSource) *Builder {
	b.tokens = tokens
	return b
}

// Header sets a single request header.
func (b *Builder) Header(name, value string) *Builder {
	b.headers[name] = value
	return b
}

// Headers sets multiple request headers.
func (b *Builder) Headers(headers map[string]string) *Builder {
	for k, v := range headers {
		b.headers[k] = v
	}
	return b
}

// QueryParam sets a single query parameter.
func (b *Builder) QueryParam(name, value string) *Builder {
	b.query[name] = value
	return b
}

// QueryParams sets multiple query parameters.
func (b *Builder) QueryParams(params map[string]string) *Builder {
	for k, v := range params {
		b.query[k] = v
	}
	return b
}

// Body sets the raw request body, typically a rendered template.
func (b *Builder) Body(body string) *Builder {
	b.body = body
	return b
}

// JSONBody marshals v as the request body and sets the Content-Type
// header if not already set.
func (b *Builder) JSONBody(v any) *Builder {
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("marshal request body: %w", err)
		return b
	}
	b.body = string(data)
	if _, ok := b.headers["Content-Type"]; !ok {
		b.headers["Content-Type"] = "application/json"
	}
	return b
}

// Timeout bounds this request independently of the client default.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

func (b *Builder) Get(ctx context.Context, path string) (*Response, error) {
	return b.do(ctx, http.MethodGet, path)
}

func (b *Builder) Post(ctx context.Context, path string) (*Response, error) {
	return b.do(ctx, http.MethodPost, path)
}

func (b *Builder) Put(ctx context.Context, path string) (*Response, error) {
	return b.do(ctx, http.MethodPut, path)
}

func (b *Builder) Patch(ctx context.Context, path string) (*Response, error) {
	return b.do(ctx, http.MethodPatch, path)
}

func (b *Builder) Delete(ctx context.Context, path string) (*Response, error) {
	return b.do(ctx, http.MethodDelete, path)
}

func (b *Builder) do(ctx context.Context, method, path string) (*Response, error) {
	if b.err != nil {
		return nil, b.err
	}

	headers := make(map[string]string, len(b.headers)+1)
	for k, v := range b.headers {
		headers[k] = v
	}

	// Token acquisition happens before dispatch so an authentication
	// failure never reaches the target API.
	if b.tokens != nil {
		token, err := b.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		headers["Authorization"] = "Bearer " + token
	}

	req := &Request{
		Method:      method,
		URL:         joinURL(b.baseURL, path),
		Headers:     headers,
		QueryParams: b.query,
		Body:        b.body,
		Timeout:     b.timeout,
	}

	return b.client.Do(ctx, req)
}

// joinURL resolves path against base. Absolute URLs pass through
// untouched so tests can hit auxiliary endpoints.
func joinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if base == "" {
		return path
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
