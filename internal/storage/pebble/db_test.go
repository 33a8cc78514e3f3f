package pebblestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/pebble/vfs"
)

type testMetrics struct {
	read         int
	batchCommits int
	batchBytes   int
}

func (m *testMetrics) ObserveRead(d time.Duration, bytes int) { m.read += bytes }
func (m *testMetrics) ObserveBatchCommit(d time.Duration, bytes int) {
	m.batchCommits++
	m.batchBytes += bytes
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	dir := t.TempDir()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       dir,
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestCRUD(t *testing.T) {
	db, metrics := newTestDB(t)

	key := []byte("k1")
	val := []byte("v1")
	if err := db.Set(key, val); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("got %q want %q", got, val)
	}
	if metrics.read == 0 {
		t.Fatalf("expected read metrics to record bytes")
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBatchCommitMetrics(t *testing.T) {
	db, metrics := newTestDB(t)

	b := db.NewBatch()
	if err := b.Set([]byte("a"), []byte("1"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := b.Set([]byte("b"), []byte("2"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	b.Close()

	if metrics.batchCommits != 1 {
		t.Fatalf("want 1 batch commit, got %d", metrics.batchCommits)
	}
	if metrics.batchBytes <= 0 {
		t.Fatalf("expected positive batch bytes")
	}
}

func TestScanPrefix(t *testing.T) {
	db, _ := newTestDB(t)
	for _, k := range []string{"a/1", "a/2", "a/3", "b/1"} {
		if err := db.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	var seen []string
	if err := db.ScanPrefix([]byte("a/"), func(k, _ []byte) bool {
		seen = append(seen, string(k))
		return len(seen) < 2
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a/1" || seen[1] != "a/2" {
		t.Fatalf("unexpected scan: %v", seen)
	}
}

func TestInMemoryReopenKeepsData(t *testing.T) {
	fs := vfs.NewMem()
	db, err := Open(Options{FS: fs, Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	db2, err := Open(Options{FS: fs, Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	if v, err := db2.Get([]byte("k")); err != nil || string(v) != "v" {
		t.Fatalf("reopen get: %q %v", v, err)
	}
}

func TestPrefixEnd(t *testing.T) {
	if got := PrefixEnd([]byte("ab")); string(got) != "ac" {
		t.Fatalf("got %q", got)
	}
	if got := PrefixEnd([]byte{'a', 0xff}); string(got) != "b" {
		t.Fatalf("got %q", got)
	}
	if got := PrefixEnd([]byte{0xff}); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
}
