package httpclient

import (
	"errors"
	"net/http"
	"reflect"
	"testing"
)

type fakeResponse struct {
	status int
	body   []byte
	header http.Header
}

func (f *fakeResponse) Body() []byte        { return f.body }
func (f *fakeResponse) StatusCode() int     { return f.status }
func (f *fakeResponse) Header() http.Header { return f.header }

func jsonResponse(status int, body string) *fakeResponse {
	return &fakeResponse{
		status: status,
		body:   []byte(body),
		header: http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNormalizeSuccessRange(t *testing.T) {
	for _, status := range []int{200, 201, 204, 250, 299} {
		res, err := normalize(jsonResponse(status, `{"ok":true}`), nil, false)
		if err != nil {
			t.Fatalf("status %d: unexpected error %v", status, err)
		}
		if res.Status != status || string(res.Data) != `{"ok":true}` {
			t.Fatalf("status %d: unexpected result %+v", status, res)
		}
	}
}

func TestNormalizeFailureRaisesStatusError(t *testing.T) {
	for _, status := range []int{100, 199, 300, 302, 400, 404, 500, 503} {
		_, err := normalize(jsonResponse(status, `{"message":"bad thing"}`), nil, false)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("status %d: expected *StatusError, got %v", status, err)
		}
		if se.Status != status {
			t.Fatalf("status %d: got %d", status, se.Status)
		}
		if !reflect.DeepEqual(se.Errors, []string{"bad thing"}) {
			t.Fatalf("status %d: Errors = %#v", status, se.Errors)
		}
	}
}

func TestNormalizeFailureMessageSources(t *testing.T) {
	cases := []struct {
		name string
		resp *fakeResponse
		want []string
	}{
		{
			name: "message array",
			resp: jsonResponse(400, `{"message":["a","b"]}`),
			want: []string{"a", "b"},
		},
		{
			name: "errors objects",
			resp: jsonResponse(422, `{"errors":[{"message":"name required"},{"message":"age invalid"}]}`),
			want: []string{"name required", "age invalid"},
		},
		{
			name: "error string",
			resp: jsonResponse(401, `{"error":"unauthorized"}`),
			want: []string{"unauthorized"},
		},
		{
			name: "bare array",
			resp: jsonResponse(400, `["x","y"]`),
			want: []string{"x", "y"},
		},
		{
			name: "html title",
			resp: &fakeResponse{
				status: 502,
				body:   []byte(`<html><head><title>502 Bad Gateway</title></head><body><h1>oops</h1></body></html>`),
				header: http.Header{"Content-Type": []string{"text/html"}},
			},
			want: []string{"502 Bad Gateway"},
		},
		{
			name: "plain text",
			resp: &fakeResponse{
				status: 400,
				body:   []byte("nope\n"),
				header: http.Header{"Content-Type": []string{"text/plain"}},
			},
			want: []string{"nope"},
		},
		{
			name: "empty body",
			resp: &fakeResponse{status: 404},
			want: []string{"Not Found"},
		},
	}

	for _, tc := range cases {
		_, err := normalize(tc.resp, nil, false)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("%s: expected *StatusError, got %v", tc.name, err)
		}
		if !reflect.DeepEqual(se.Errors, tc.want) {
			t.Fatalf("%s: Errors = %#v, want %#v", tc.name, se.Errors, tc.want)
		}
	}
}

func TestNormalizeNoResponse(t *testing.T) {
	for _, tc := range []struct {
		resp Response
		err  error
	}{
		{resp: nil, err: nil},
		{resp: nil, err: errors.New("connection refused")},
		{resp: &fakeResponse{status: 0}, err: nil},
	} {
		res, err := normalize(tc.resp, tc.err, false)
		if res != nil {
			t.Fatalf("expected nil result, got %+v", res)
		}
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected *StatusError, got %v", err)
		}
		if se.Status != 404 || se.Message != "No response from server" {
			t.Fatalf("unexpected error %+v", se)
		}
		if !errors.Is(err, ErrNoResponse) {
			t.Fatalf("expected ErrNoResponse")
		}
	}
}

func TestNormalizeBinary(t *testing.T) {
	resp := &fakeResponse{
		status: 200,
		body:   []byte{0x25, 0x50, 0x44, 0x46},
		header: http.Header{
			"Content-Type":        []string{"application/pdf"},
			"Content-Disposition": []string{"inline; filename=report.pdf"},
		},
	}
	res, err := normalize(resp, nil, false)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.File == nil {
		t.Fatalf("expected file result")
	}
	if res.File.Filename != "report.pdf" {
		t.Fatalf("Filename = %q", res.File.Filename)
	}
	if string(res.File.Bytes) != "%PDF" {
		t.Fatalf("Bytes = %q", res.File.Bytes)
	}
}

func TestNormalizeBinaryWithoutDisposition(t *testing.T) {
	resp := &fakeResponse{status: 200, body: []byte("raw")}
	res, err := normalize(resp, nil, true)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.File == nil || res.File.Filename != "" || string(res.File.Bytes) != "raw" {
		t.Fatalf("unexpected file %+v", res.File)
	}
}

func TestFilenameFrom(t *testing.T) {
	cases := map[string]string{
		"":                                   "",
		"inline; filename=report.pdf":        "report.pdf",
		`inline; filename="quoted.csv"`:      "quoted.csv",
		`attachment; filename="archive.zip"`: "archive.zip",
		"attachment":                         "",
		"inline; filename=a.pdf; size=3":     "a.pdf",
		`inline; filename="b.txt";size=9`:    "b.txt",
	}
	for in, want := range cases {
		if got := filenameFrom(in); got != want {
			t.Fatalf("filenameFrom(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResultEmptyVersusFalsy(t *testing.T) {
	empty, err := normalize(&fakeResponse{status: 204}, nil, false)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !empty.Empty() {
		t.Fatalf("expected empty result")
	}
	if _, err := empty.Value(); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}

	for body, want := range map[string]any{"0": float64(0), "false": false, "null": nil} {
		res, err := normalize(jsonResponse(200, body), nil, false)
		if err != nil {
			t.Fatalf("normalize %s: %v", body, err)
		}
		if res.Empty() {
			t.Fatalf("body %s reported as empty", body)
		}
		got, err := res.Value()
		if err != nil {
			t.Fatalf("Value %s: %v", body, err)
		}
		if got != want {
			t.Fatalf("Value %s = %#v, want %#v", body, got, want)
		}
	}
}

func TestResultDecode(t *testing.T) {
	res, err := normalize(jsonResponse(200, `{"id":7,"name":"widget"}`), nil, false)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var out struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := res.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.ID != 7 || out.Name != "widget" {
		t.Fatalf("unexpected decode %+v", out)
	}
}
