// Package archive keeps a bounded local history of request log records.
package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
)

// Entry is one archived exchange.
type Entry struct {
	Seq        uint64               `json:"seq"`
	RecordedAt time.Time            `json:"recorded_at"`
	Record     httpclient.LogRecord `json:"record"`
}

// Store persists request log records.
type Store interface {
	Close() error
	Save(rec httpclient.LogRecord) error
	Recent(limit int) ([]Entry, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 7 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured archive backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt archive requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported archive type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                    { return nil }
func (noopStore) Save(httpclient.LogRecord) error { return nil }
func (noopStore) Recent(int) ([]Entry, error)     { return nil, nil }
