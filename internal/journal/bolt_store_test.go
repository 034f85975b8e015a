package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "journal.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsNewestFirst(t *testing.T) {
	store := openTestStore(t, Options{})
	base := time.Now().Add(-time.Minute)

	for i, id := range []string{"first", "second", "third"} {
		e, err := store.Record(Entry{EndpointID: id, Method: "GET", At: base.Add(time.Duration(i) * time.Second)})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if e.ID == "" {
			t.Fatalf("expected generated id")
		}
	}

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 || entries[0].EndpointID != "third" || entries[1].EndpointID != "second" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	all, _ := store.Recent(0)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
}

func TestBoltStoreExpiresEntries(t *testing.T) {
	store := openTestStore(t, Options{TTL: time.Hour, CleanupInterval: time.Minute})
	now := time.Now()
	store.now = func() time.Time { return now }

	if _, err := store.Record(Entry{EndpointID: "old", At: now.Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if _, err := store.Record(Entry{EndpointID: "fresh"}); err != nil {
		t.Fatalf("Record fresh: %v", err)
	}

	entries, _ := store.Recent(0)
	if len(entries) != 1 || entries[0].EndpointID != "fresh" {
		t.Fatalf("expired entry should be hidden, got %+v", entries)
	}

	// Fast-forward the cleanup cadence so the next write sweeps the bucket.
	store.lastCleanup.Store(now.Add(-2 * time.Minute).Unix())
	if _, err := store.Record(Entry{EndpointID: "trigger"}); err != nil {
		t.Fatalf("Record trigger: %v", err)
	}

	count := 0
	_ = store.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(callsBucket)).Stats().KeyN
		return nil
	})
	if count != 2 {
		t.Fatalf("expected cleanup to leave 2 keys, got %d", count)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if _, err := store.Record(Entry{EndpointID: "x"}); err != nil {
		t.Fatalf("noop Record: %v", err)
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestNewStoreOpenFailureReturnsNilStore(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store, err := NewStore("bbolt", filepath.Join(blocker, "journal.db"), Options{})
	if err == nil {
		t.Fatalf("expected open under a regular file to fail")
	}
	if store != nil {
		t.Fatalf("expected nil Store on error, got %#v", store)
	}
}
