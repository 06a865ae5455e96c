package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LogRecord describes one request/response exchange. The response fields are filled once
// a response has arrived.
type LogRecord struct {
	Start       int64  `json:"start"`
	Timestamp   string `json:"timestamp"`
	Method      string `json:"method"`
	Href        string `json:"href"`
	QueryString string `json:"query_string"`
	Protocol    string `json:"protocol"`

	End     int64 `json:"end"`
	Elapsed int64 `json:"elapsed"`
	Size    int64 `json:"size"`
	Status  int   `json:"status"`
}

// RequestCallback receives a completed LogRecord, or a nil record and a diagnostic error
// when the request could not be described.
type RequestCallback func(rec *LogRecord, err error)

var nonWord = regexp.MustCompile(`[^\w]`)

// LoggingTransport decorates a Transport and reports every exchange to a callback.
type LoggingTransport struct {
	next     Transport
	callback RequestCallback
	now      func() time.Time
}

// NewLoggingTransport wraps next. A nil callback returns next unchanged.
func NewLoggingTransport(next Transport, cb RequestCallback) Transport {
	if cb == nil {
		return next
	}
	return &LoggingTransport{next: next, callback: cb, now: time.Now}
}

// Do forwards the request and reports the exchange once a response exists.
func (l *LoggingTransport) Do(ctx context.Context, req *Request) (Response, error) {
	rec, err := l.describe(req)
	if err != nil {
		l.notify(nil, err)
		return l.next.Do(ctx, req)
	}

	resp, err := l.next.Do(ctx, req)
	if err == nil && resp != nil {
		end := l.now()
		rec.End = end.UnixMilli()
		rec.Elapsed = max(rec.End-rec.Start, 0)
		rec.Size = responseSize(resp)
		rec.Status = resp.StatusCode()
		l.notify(rec, nil)
	}
	return resp, err
}

// describe captures the request side of the record.
func (l *LoggingTransport) describe(req *Request) (*LogRecord, error) {
	if req == nil {
		return nil, ErrParsingRequest
	}
	uri, err := url.Parse(req.URL)
	if err != nil || uri.Scheme == "" {
		return nil, fmt.Errorf("%w: %q", ErrParsingRequest, req.URL)
	}

	start := l.now()
	rec := &LogRecord{
		Start:     start.UnixMilli(),
		Timestamp: start.UTC().Format("2006-01-02T15:04:05.000Z"),
		Method:    req.Method,
		Href:      uri.String(),
		Protocol:  nonWord.ReplaceAllString(strings.ToUpper(uri.Scheme+":"), ""),
	}
	if len(req.Query) > 0 {
		rec.QueryString = "?" + req.Query.Encode()
	}
	return rec, nil
}

// notify invokes the callback, swallowing any panic it raises.
func (l *LoggingTransport) notify(rec *LogRecord, err error) {
	defer func() { _ = recover() }()
	l.callback(rec, err)
}

func responseSize(resp Response) int64 {
	if raw := resp.Header().Get(headerContentLength); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	}
	return int64(len(resp.Body()))
}
