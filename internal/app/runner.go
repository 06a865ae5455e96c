package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/samvad-http-client/internal/archive"
	"github.com/samvad-hq/samvad-http-client/internal/config"
	"github.com/samvad-hq/samvad-http-client/internal/logger"
	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-http-client/pkg/sinks"
)

// Supported commands.
const (
	CmdGet     = "get"
	CmdSearch  = "search"
	CmdPut     = "put"
	CmdPost    = "post"
	CmdDelete  = "delete"
	CmdHistory = "history"

	defaultDownloadName = "download.bin"
)

// Command is one CLI invocation.
type Command struct {
	Verb     string
	Endpoint string
	Query    httpclient.Params
	Body     any
	Binary   bool
	OutPath  string
	Limit    int
}

// Runner owns the client and its request-log plumbing for the lifetime of one process.
type Runner struct {
	cfg      *config.Config
	log      logger.Logger
	client   *httpclient.Client
	recorder *Recorder
	store    archive.Store
	fanout   *sinks.Fanout
	out      io.Writer
}

// NewRunner builds the client, sinks and archive from config.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = os.Stdout
	}

	fanout, err := buildFanout(ctx, cfg.SinksFile, log)
	if err != nil {
		return nil, err
	}

	store, err := archive.NewStore(cfg.ArchiveType, cfg.ArchivePath, archive.Options{
		TTL:             cfg.ArchiveTTL,
		CleanupInterval: cfg.ArchiveCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}
	log.DebugObj("archive initialized", "archive_config", map[string]any{
		"type":        cfg.ArchiveType,
		"path":        cfg.ArchivePath,
		"ttl_seconds": int(cfg.ArchiveTTL.Seconds()),
	})

	recorder := NewRecorder(cfg.AppName, log, fanout, store)
	client, err := httpclient.New(httpclient.Config{
		BaseURL:         cfg.BaseURL,
		Passphrase:      cfg.Passphrase,
		RequestCallback: recorder.Callback,
	}, httpclient.WithTransport(newTransport(cfg)))
	if err != nil {
		recorder.Close()
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("build client: %w", err)
	}

	return &Runner{
		cfg:      cfg,
		log:      log,
		client:   client,
		recorder: recorder,
		store:    store,
		fanout:   fanout,
		out:      out,
	}, nil
}

// newTransport tags every request with the app name as its User-Agent.
func newTransport(cfg *config.Config) *httpclient.RestyTransport {
	rc := httpclient.NewRestyHTTPClient(cfg.Timeout)
	if name := strings.TrimSpace(cfg.AppName); name != "" {
		rc.SetHeader("User-Agent", name)
	}
	return httpclient.NewRestyTransportFrom(rc)
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*sinks.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return sinks.NewFanout(nil), nil
	}

	reg, err := sinks.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}
	enabled := reg.Enabled()
	built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(summaries),
		"sinks": summaries,
	})
	return sinks.NewFanout(built), nil
}

// Close flushes pending request logs, then releases the archive and sink connections.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	r.recorder.Close()
	return errors.Join(r.fanout.Close(), r.store.Close())
}

// Execute runs one command and writes its output.
func (r *Runner) Execute(ctx context.Context, cmd Command) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("runner is not initialized")
	}

	var (
		res *httpclient.Result
		err error
	)
	switch strings.ToLower(cmd.Verb) {
	case CmdGet:
		res, err = r.client.Get(ctx, cmd.Endpoint, cmd.Binary)
	case CmdSearch:
		res, err = r.client.Search(ctx, cmd.Endpoint, cmd.Query)
	case CmdPut:
		res, err = r.client.Put(ctx, cmd.Endpoint, cmd.Body)
	case CmdPost:
		res, err = r.client.Post(ctx, cmd.Endpoint, cmd.Body)
	case CmdDelete:
		res, err = r.client.Delete(ctx, cmd.Endpoint, cmd.Query)
	case CmdHistory:
		return r.history(cmd.Limit)
	default:
		return fmt.Errorf("unknown command %q", cmd.Verb)
	}
	if err != nil {
		return err
	}
	return r.write(res, cmd.OutPath)
}

func (r *Runner) write(res *httpclient.Result, outPath string) error {
	if res.File != nil {
		return r.writeFile(res.File, outPath)
	}
	if res.Empty() {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, res.Data, "", "  "); err != nil {
		buf.Reset()
		buf.Write(res.Data)
	}
	buf.WriteByte('\n')
	_, err := r.out.Write(buf.Bytes())
	return err
}

func (r *Runner) writeFile(f *httpclient.File, outPath string) error {
	path := outPath
	if path == "" {
		path = filepath.Base(f.Filename)
	}
	if path == "" || path == "." || path == string(filepath.Separator) {
		path = defaultDownloadName
	}
	if err := os.WriteFile(path, f.Bytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	r.log.InfoObj("file saved", "download", map[string]any{
		"path":  path,
		"bytes": len(f.Bytes),
	})
	_, err := fmt.Fprintln(r.out, path)
	return err
}

func (r *Runner) history(limit int) error {
	entries, err := r.store.Recent(limit)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []archive.Entry{}
	}
	return enc.Encode(entries)
}
