package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
	bolt "go.etcd.io/bbolt"
)

func TestBoltStoreSavesNewestFirst(t *testing.T) {
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "nested", "requests.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	for _, method := range []string{"GET", "POST", "DELETE"} {
		if err := store.Save(httpclient.LogRecord{Method: method, Status: 200}); err != nil {
			t.Fatalf("Save %s: %v", method, err)
		}
	}

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Record.Method != "DELETE" || entries[1].Record.Method != "POST" {
		t.Fatalf("unexpected order %+v", entries)
	}
	if entries[0].Seq <= entries[1].Seq {
		t.Fatalf("expected descending sequence, got %d then %d", entries[0].Seq, entries[1].Seq)
	}

	all, err := store.Recent(0)
	if err != nil || len(all) != 3 {
		t.Fatalf("Recent(0) = %d entries, err %v", len(all), err)
	}
}

func TestBoltStoreExpiresRecords(t *testing.T) {
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "requests.db"), Options{
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	clock := time.Now()
	store.now = func() time.Time { return clock }

	if err := store.Save(httpclient.LogRecord{Method: "GET"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	clock = clock.Add(2 * time.Minute)
	entries, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected expired entry to be hidden, got %d", len(entries))
	}

	// The next write triggers cleanup, which removes the expired key.
	if err := store.Save(httpclient.LogRecord{Method: "PUT"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var keys int
	if err := store.db.View(func(tx *bolt.Tx) error {
		keys = tx.Bucket([]byte(recordBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if keys != 1 {
		t.Fatalf("expected 1 key after cleanup, got %d", keys)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Save(httpclient.LogRecord{}); err != nil {
		t.Fatalf("noop store Save: %v", err)
	}
	entries, err := store.Recent(5)
	if err != nil || len(entries) != 0 {
		t.Fatalf("noop Recent = %v, %v", entries, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
