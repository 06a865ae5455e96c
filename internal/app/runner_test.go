package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-http-client/internal/archive"
	"github.com/samvad-hq/samvad-http-client/internal/config"
	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                "test-client",
		BaseURL:                baseURL,
		Passphrase:             "user:pass",
		ArchiveType:            "bbolt",
		ArchivePath:            filepath.Join(t.TempDir(), "requests.db"),
		ArchiveTTL:             time.Hour,
		ArchiveCleanupInterval: time.Hour,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.UserAgent() != "test-client" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"missing user agent"}`))
			return
		}
		if r.Header.Get("Authorization") != "Basic dXNlcjpwYXNz" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		switch r.URL.Path {
		case "/items":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[{"id":1}],"q":"` + r.URL.Query().Get("q") + `"}`))
		case "/report":
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", "inline; filename=report.pdf")
			_, _ = w.Write([]byte("%PDF"))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no such route"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunnerSearchWritesJSONAndArchives(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(t, srv.URL)
	var out bytes.Buffer
	runner, err := NewRunner(context.Background(), cfg, nil, &out)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	err = runner.Execute(context.Background(), Command{
		Verb:     CmdSearch,
		Endpoint: "/items",
		Query:    httpclient.Params{"q": "x"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), `"q": "x"`) {
		t.Fatalf("unexpected output %s", out.String())
	}
	// Close flushes the archive write before the next process reads it.
	if err := runner.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out.Reset()
	history, err := NewRunner(context.Background(), cfg, nil, &out)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer history.Close()
	if err := history.Execute(context.Background(), Command{Verb: CmdHistory, Limit: 10}); err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []archive.Entry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 1 || entries[0].Record.QueryString != "?q=x" || entries[0].Record.Status != 200 {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestRunnerBinaryGetWritesFile(t *testing.T) {
	srv := newTestServer(t)
	var out bytes.Buffer
	runner, err := NewRunner(context.Background(), testConfig(t, srv.URL), nil, &out)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	dest := filepath.Join(t.TempDir(), "saved.pdf")
	if err := runner.Execute(context.Background(), Command{Verb: CmdGet, Endpoint: "/report", Binary: true, OutPath: dest}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "%PDF" {
		t.Fatalf("saved file = %q, %v", data, err)
	}
	if strings.TrimSpace(out.String()) != dest {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunnerReturnsStatusError(t *testing.T) {
	srv := newTestServer(t)
	runner, err := NewRunner(context.Background(), testConfig(t, srv.URL), nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	err = runner.Execute(context.Background(), Command{Verb: CmdDelete, Endpoint: "/missing"})
	var se *httpclient.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound || se.Message != "no such route" {
		t.Fatalf("unexpected error %v", err)
	}

	if err := runner.Execute(context.Background(), Command{Verb: "patch"}); err == nil {
		t.Fatalf("expected unknown command error")
	}
}

func TestNewRunnerWithSinksFile(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.SinksFile = filepath.Join(t.TempDir(), "sinks.yaml")
	if err := os.WriteFile(cfg.SinksFile, []byte("sinks:\n  - id: stdout\n    type: log\n"), 0o644); err != nil {
		t.Fatalf("write sinks file: %v", err)
	}

	runner, err := NewRunner(context.Background(), cfg, nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()
	if runner.fanout.Size() != 1 {
		t.Fatalf("expected 1 sink, got %d", runner.fanout.Size())
	}
}

func TestNewRunnerRejectsMissingSinksFile(t *testing.T) {
	cfg := testConfig(t, "https://example.com")
	cfg.SinksFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewRunner(context.Background(), cfg, nil, nil); err == nil {
		t.Fatalf("expected error for missing sinks file")
	}
}
