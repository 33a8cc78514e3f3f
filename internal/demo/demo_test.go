package demo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/pebble/vfs"

	"github.com/rzbill/streamer/internal/consume"
	"github.com/rzbill/streamer/internal/fields"
	"github.com/rzbill/streamer/internal/logclient"
	pebblestore "github.com/rzbill/streamer/internal/storage/pebble"
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/internal/store/embedded"
	"github.com/rzbill/streamer/internal/store/storetest"
)

func newClient(t *testing.T) *logclient.Client {
	t.Helper()
	b, err := embedded.Open(embedded.Options{Storage: pebblestore.Options{FS: vfs.NewMem()}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return logclient.New(b, logclient.Options{})
}

func TestPayload(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_042)
	got := fields.Parse(fields.Encode(Payload(ts)))
	if got["hello"] != "world" {
		t.Fatalf("hello: %v", got["hello"])
	}
	nested, ok := got["nestedObj"].(map[string]any)
	if !ok || nested["num"] != float64(42) {
		t.Fatalf("nestedObj: %#v", got["nestedObj"])
	}
	if got["date"] != "2023-11-14T22:13:20.042Z" {
		t.Fatalf("date: %v", got["date"])
	}
}

func TestProducerAndReader(t *testing.T) {
	c := newClient(t)

	var (
		mu   sync.Mutex
		seen []store.Entry
		got  = make(chan struct{}, 16)
	)
	r := NewReader(context.Background(), c, "demo", func(e store.Entry) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
		got <- struct{}{}
	}, nil, consume.WithCount(10))
	r.Start()

	p := NewProducer(c, "demo", 10*time.Millisecond, nil)
	p.Start()

	for i := 0; i < 3; i++ {
		select {
		case <-got:
		case <-time.After(5 * time.Second):
			t.Fatalf("reader saw only %d entries", i)
		}
	}
	p.Stop()
	r.Stop()

	if p.Appended() < 3 {
		t.Fatalf("producer appended %d", p.Appended())
	}
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if seen[i-1].ID.Compare(seen[i].ID) >= 0 {
			t.Fatalf("entries out of order: %s then %s", seen[i-1].ID, seen[i].ID)
		}
	}
	if seen[0].Fields["hello"] != "world" {
		t.Fatalf("unexpected fields: %v", seen[0].Fields)
	}
}

func TestReadBlockIsNeverForever(t *testing.T) {
	if got := ReadBlock(0); got != DefaultReadBlock {
		t.Fatalf("ReadBlock(0) = %s", got)
	}
	for _, d := range []time.Duration{store.NoBlock, 5 * time.Millisecond, time.Minute} {
		if got := ReadBlock(d); got != d {
			t.Fatalf("ReadBlock(%s) = %s", d, got)
		}
	}
}

func TestReaderStopsWhileStoreIgnoresCancellation(t *testing.T) {
	fake := storetest.NewFake()
	never := make(chan struct{})
	t.Cleanup(func() { close(never) })
	entered := make(chan struct{}, 1)
	// Like a driver without a deadline: the read ends only when its block
	// window does.
	fake.ReadFunc = func(_ context.Context, _, _ string, block time.Duration, _ int) ([]store.Entry, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		switch {
		case block == 0:
			<-never
		case block > 0:
			time.Sleep(block)
		}
		return nil, nil
	}
	r := NewReader(context.Background(), logclient.New(fake, logclient.Options{}), "demo", nil, nil,
		consume.WithBlock(ReadBlock(0)))
	r.Start()
	<-entered

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(DefaultReadBlock + 2*time.Second):
		t.Fatalf("Stop did not return after the block window")
	}
}
