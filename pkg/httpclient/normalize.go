package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxMessageBytes       = 512
	inlineFilenameMarker  = "inline; filename="
	headerContentType     = "Content-Type"
	headerContentDisp     = "Content-Disposition"
	headerContentLength   = "Content-Length"
	headerAuthorization   = "Authorization"
	headerAccept          = "Accept"
	binaryAcceptValue     = "application/octet-stream, */*"
	structuredAcceptValue = "application/json, text/plain, */*"
)

// ErrEmptyBody is returned by Result.Decode when the response carried no body.
var ErrEmptyBody = errors.New("response has no body")

// File is a binary payload paired with the filename announced by the server.
type File struct {
	Filename string
	Bytes    []byte
}

// Result is a normalized successful response.
type Result struct {
	Status int
	Header http.Header
	// Data holds the undecoded body of a structured response.
	Data json.RawMessage
	// File is set instead of Data for binary responses.
	File *File
}

// Empty reports whether a structured response came back without a body. A body of
// 0, false or null is not empty.
func (r *Result) Empty() bool {
	return r == nil || (r.File == nil && len(bytes.TrimSpace(r.Data)) == 0)
}

// Decode unmarshals the JSON body into dst.
func (r *Result) Decode(dst any) error {
	if r.Empty() {
		return ErrEmptyBody
	}
	if r.File != nil {
		return errors.New("binary response cannot be decoded")
	}
	return json.Unmarshal(r.Data, dst)
}

// Value decodes the body into a generic value. Non-JSON bodies are returned as a string.
// An empty body yields (nil, ErrEmptyBody).
func (r *Result) Value() (any, error) {
	if r.Empty() {
		return nil, ErrEmptyBody
	}
	if r.File != nil {
		return r.File, nil
	}
	var v any
	if err := json.Unmarshal(r.Data, &v); err != nil {
		return string(r.Data), nil
	}
	return v, nil
}

// normalize turns a raw transport outcome into a Result or a *StatusError.
func normalize(resp Response, err error, binary bool) (*Result, error) {
	if err != nil || resp == nil || resp.StatusCode() == 0 {
		return nil, noResponseError(err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return nil, NewStatusError(status, failureMessages(resp)...)
	}

	res := &Result{Status: status, Header: resp.Header()}
	body := resp.Body()
	if binary || isBinaryContent(resp.Header().Get(headerContentType), body) {
		res.File = &File{
			Filename: filenameFrom(resp.Header().Get(headerContentDisp)),
			Bytes:    body,
		}
		return res, nil
	}
	res.Data = json.RawMessage(body)
	return res, nil
}

// isBinaryContent treats any non-textual media type as raw bytes.
func isBinaryContent(contentType string, body []byte) bool {
	if len(body) == 0 || strings.TrimSpace(contentType) == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mt, "text/"),
		strings.HasSuffix(mt, "json"),
		strings.HasSuffix(mt, "+json"),
		strings.HasSuffix(mt, "xml"),
		mt == "application/x-www-form-urlencoded",
		mt == "application/javascript":
		return false
	}
	return true
}

// filenameFrom extracts the filename from a Content-Disposition header value.
func filenameFrom(disposition string) string {
	disposition = strings.TrimSpace(disposition)
	if disposition == "" {
		return ""
	}
	if strings.HasPrefix(disposition, inlineFilenameMarker) {
		name, _, _ := strings.Cut(strings.TrimPrefix(disposition, inlineFilenameMarker), ";")
		return strings.Trim(strings.TrimSpace(name), `"`)
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		return params["filename"]
	}
	return ""
}

// failureMessages pulls human readable messages out of an error response body.
func failureMessages(resp Response) []string {
	body := bytes.TrimSpace(resp.Body())
	if len(body) > 0 {
		if msgs := jsonMessages(body); len(msgs) > 0 {
			return msgs
		}
		if isHTML(resp.Header().Get(headerContentType), body) {
			if msg := htmlMessage(body); msg != "" {
				return []string{msg}
			}
		} else if !json.Valid(body) {
			return []string{snippet(body)}
		}
	}
	if text := http.StatusText(resp.StatusCode()); text != "" {
		return []string{text}
	}
	return []string{"Unexpected response status"}
}

func jsonMessages(body []byte) []string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return rawMessages(body)
	}
	for _, key := range []string{"message", "errors", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if msgs := rawMessages(raw); len(msgs) > 0 {
			return msgs
		}
	}
	return nil
}

// rawMessages accepts a string, a list of strings, or a list of {"message": "..."} objects.
func rawMessages(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			if m := strings.TrimSpace(obj.Message); m != "" {
				out = append(out, m)
			}
		}
	}
	return out
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := strings.ToLower(string(body[:min(len(body), 64)]))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func htmlMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range []string{"title", "h1"} {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxMessageBytes {
		return s[:maxMessageBytes] + "..."
	}
	return s
}
