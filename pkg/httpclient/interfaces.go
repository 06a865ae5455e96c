package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Transport sends a single request and returns the raw response, so callers can inject fakes
// or different HTTP stacks.
type Transport interface {
	Do(ctx context.Context, req *Request) (Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req *Request) (Response, error) { return f(ctx, req) }
