package eventlog

import (
	"context"
	"strconv"
	"testing"

	"github.com/rzbill/streamer/pkg/id"
)

func TestReadAfterIsExclusiveAndOrdered(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	var ids []id.ID
	for i := 0; i < 5; i++ {
		entryID, err := l.Append(ctx, map[string]string{"n": strconv.Itoa(i)}, 0)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, entryID)
	}

	all, err := l.ReadAfter(id.Zero, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("want 5 items, got %d", len(all))
	}
	for i, it := range all {
		if it.ID != ids[i] || it.Fields["n"] != strconv.Itoa(i) {
			t.Fatalf("item %d mismatch: %+v", i, it)
		}
	}

	page, err := l.ReadAfter(ids[1], 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[2] || page[1].ID != ids[3] {
		t.Fatalf("unexpected page: %+v", page)
	}

	tail, err := l.ReadAfter(ids[4], 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tail) != 0 {
		t.Fatalf("expected nothing after last id, got %d", len(tail))
	}
}

func TestGetMissingEntry(t *testing.T) {
	l := newTestLog(t)
	entryID, err := l.Append(context.Background(), map[string]string{"hello": "world"}, 0)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	it, ok, err := l.Get(entryID)
	if err != nil || !ok || it.Fields["hello"] != "world" {
		t.Fatalf("get: %+v %v %v", it, ok, err)
	}
	if _, ok, err := l.Get(entryID.Successor()); ok || err != nil {
		t.Fatalf("expected missing entry, got ok=%v err=%v", ok, err)
	}
}
