// Package httpclient is a thin Basic-Auth HTTP client. It prefixes endpoints with a base URL,
// reports each exchange to an optional callback and normalizes every outcome into a Result
// or a *StatusError.
package httpclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Config holds the construction parameters of a Client.
type Config struct {
	BaseURL         string
	Passphrase      string
	RequestCallback RequestCallback
}

// Option customizes a Client.
type Option func(*options) error

type options struct {
	transport Transport
}

// WithTransport replaces the default resty transport.
func WithTransport(t Transport) Option {
	return func(o *options) error {
		if t == nil {
			return errors.New("transport must not be nil")
		}
		o.transport = t
		return nil
	}
}

// Client issues authenticated requests relative to a base URL. It is immutable after New and
// safe for concurrent use.
type Client struct {
	baseURL   string
	authValue string
	transport Transport
}

// New builds a Client. The passphrase is encoded once into the Authorization value.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}
	if o.transport == nil {
		o.transport = NewRestyTransport(0)
	}

	return &Client{
		baseURL:   base,
		authValue: BasicAuthValue(cfg.Passphrase),
		transport: NewLoggingTransport(o.transport, cfg.RequestCallback),
	}, nil
}

// BasicAuthValue returns "Basic " followed by the base64 encoding of passphrase.
func BasicAuthValue(passphrase string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(passphrase))
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches endpoint. With binary set the body is returned as a File.
func (c *Client) Get(ctx context.Context, endpoint string, binary bool) (*Result, error) {
	req := c.newRequest(http.MethodGet, endpoint)
	if binary {
		req.Binary = true
		req.Header.Set(headerAccept, binaryAcceptValue)
	}
	return c.do(ctx, req)
}

// Search issues a GET with query parameters.
func (c *Client) Search(ctx context.Context, endpoint string, query Params) (*Result, error) {
	req := c.newRequest(http.MethodGet, endpoint)
	if err := setQuery(req, query); err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

// Put sends body as JSON with PUT.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (*Result, error) {
	req := c.newRequest(http.MethodPut, endpoint)
	req.Body = body
	return c.do(ctx, req)
}

// Post sends body as JSON with POST.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Result, error) {
	req := c.newRequest(http.MethodPost, endpoint)
	req.Body = body
	return c.do(ctx, req)
}

// Delete issues a DELETE; query may be nil.
func (c *Client) Delete(ctx context.Context, endpoint string, query Params) (*Result, error) {
	req := c.newRequest(http.MethodDelete, endpoint)
	if err := setQuery(req, query); err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *Client) newRequest(method, endpoint string) *Request {
	h := make(http.Header, 2)
	h.Set(headerAuthorization, c.authValue)
	h.Set(headerAccept, structuredAcceptValue)
	return &Request{
		Method: method,
		URL:    joinURL(c.baseURL, endpoint),
		Header: h,
	}
}

func (c *Client) do(ctx context.Context, req *Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := c.transport.Do(ctx, req)
	return normalize(resp, err, req.Binary)
}

func setQuery(req *Request, query Params) error {
	values, err := query.Values()
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	req.Query = values
	return nil
}
