package streamsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/streamer/internal/config"
	"github.com/rzbill/streamer/internal/logclient"
	"github.com/rzbill/streamer/internal/runtime"
	"github.com/rzbill/streamer/pkg/id"
	"github.com/rzbill/streamer/pkg/log"
)

func newServiceForTest(t *testing.T) (*Service, *runtime.Runtime) {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Backend = cfgpkg.BackendEmbedded
	cfg.Embedded.DataDir = t.TempDir()
	cfg.Embedded.Fsync = "never"
	rt, err := runtime.Open(context.Background(), runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return NewWithLogger(rt, log.NewNopLogger()), rt
}

type pulled struct {
	msgs []Message
	err  error
}

// pullWhileAppending runs pull and keeps appending values until it returns,
// since pulls only see entries appended after they start.
func pullWhileAppending(t *testing.T, svc *Service, pull func(context.Context) ([]Message, error), values ...map[string]any) []Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan pulled, 1)
	go func() {
		msgs, err := pull(ctx)
		done <- pulled{msgs, err}
	}()
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case r := <-done:
			if r.err != nil {
				t.Fatalf("pull: %v", r.err)
			}
			return r.msgs
		case <-tick.C:
			if _, err := svc.Append(ctx, values[i%len(values)]); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
	}
}

func getOne(svc *Service) func(context.Context) ([]Message, error) {
	return func(ctx context.Context) ([]Message, error) {
		m, err := svc.GetOne(ctx)
		return []Message{m}, err
	}
}

func TestGetOneParsesFields(t *testing.T) {
	svc, _ := newServiceForTest(t)

	msgs := pullWhileAppending(t, svc, getOne(svc), map[string]any{"hello": "world"})
	if got := msgs[0].Fields["hello"]; got != "world" {
		t.Fatalf("hello: %#v", got)
	}

	msgs = pullWhileAppending(t, svc, getOne(svc), map[string]any{"n": 42})
	if got := msgs[0].Fields["n"]; got != float64(42) {
		t.Fatalf("n: %#v", got)
	}
	if _, err := id.Parse(msgs[0].ID); err != nil {
		t.Fatalf("bad id %q: %v", msgs[0].ID, err)
	}
}

func TestGetManyOrderAndFilter(t *testing.T) {
	svc, _ := newServiceForTest(t)

	msgs := pullWhileAppending(t, svc, func(ctx context.Context) ([]Message, error) {
		return svc.GetMany(ctx, 3, "")
	}, map[string]any{"k": "v"})
	if len(msgs) != 3 {
		t.Fatalf("want 3 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		prev, cur := id.MustParse(msgs[i-1].ID), id.MustParse(msgs[i].ID)
		if prev.Compare(cur) >= 0 {
			t.Fatalf("out of order: %s then %s", prev, cur)
		}
	}

	msgs = pullWhileAppending(t, svc, func(ctx context.Context) ([]Message, error) {
		return svc.GetMany(ctx, 2, `fields.kind == "keep"`)
	}, map[string]any{"kind": "drop"}, map[string]any{"kind": "keep"}, map[string]any{"other": 1})
	if len(msgs) != 2 {
		t.Fatalf("want 2 filtered messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Fields["kind"] != "keep" {
			t.Fatalf("filter let through %v", m.Fields)
		}
	}
}

func TestGetManyRejectsBadInput(t *testing.T) {
	svc, _ := newServiceForTest(t)
	ctx := context.Background()
	if _, err := svc.GetMany(ctx, 0, ""); !errors.Is(err, ErrBadCount) {
		t.Fatalf("want ErrBadCount, got %v", err)
	}
	if _, err := svc.GetMany(ctx, 1, "fields.("); !errors.Is(err, ErrBadFilter) {
		t.Fatalf("want ErrBadFilter, got %v", err)
	}
	if _, err := svc.ConsumeAsGroup(ctx, "", "c1", 1); !errors.Is(err, ErrMissingGroup) {
		t.Fatalf("want ErrMissingGroup, got %v", err)
	}
	if _, err := svc.Pending(ctx, "g", 0); !errors.Is(err, ErrBadCount) {
		t.Fatalf("want ErrBadCount, got %v", err)
	}
}

func TestConsumeAsGroupAcksBeforeReturning(t *testing.T) {
	svc, _ := newServiceForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.CreateGroup(ctx, "g", ""); err != nil {
		t.Fatalf("create group: %v", err)
	}
	// Creating it again is not an error.
	if err := svc.CreateGroup(ctx, "g", ""); err != nil {
		t.Fatalf("create group twice: %v", err)
	}
	appended, err := svc.Append(ctx, map[string]any{"task": "one"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	batch, err := svc.ConsumeAsGroup(ctx, "g", "c1", 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if batch.Group != "g" || batch.Consumer != "c1" {
		t.Fatalf("unexpected batch header %+v", batch)
	}
	if len(batch.Messages) != 1 || batch.Messages[0].ID != appended.String() {
		t.Fatalf("unexpected messages %+v", batch.Messages)
	}
	if batch.Messages[0].Fields["task"] != "one" {
		t.Fatalf("fields: %v", batch.Messages[0].Fields)
	}

	pending, err := svc.Pending(ctx, "g", 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty pending set, got %+v", pending)
	}
}

func TestPendingShowsUnackedDelivery(t *testing.T) {
	svc, rt := newServiceForTest(t)
	ctx := context.Background()

	if err := svc.CreateGroup(ctx, "g", id.Beginning); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := svc.Append(ctx, map[string]any{"a": 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	res := rt.Client().ReadAsGroupMember(ctx, svc.Stream(), "g", "c2", -1, 10)
	if res.Status != logclient.StatusOK {
		t.Fatalf("read group: %v %v", res.Status, res.Reason)
	}

	pending, err := svc.Pending(ctx, "g", 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Consumer != "c2" || pending[0].Deliveries != 1 {
		t.Fatalf("unexpected pending %+v", pending)
	}
}

func TestTailLimitAndSinkError(t *testing.T) {
	svc, _ := newServiceForTest(t)

	msgs := pullWhileAppending(t, svc, func(ctx context.Context) ([]Message, error) {
		var got []Message
		err := svc.Tail(ctx, TailOptions{Limit: 2}, func(m Message) error {
			got = append(got, m)
			return nil
		})
		return got, err
	}, map[string]any{"x": "y"})
	if len(msgs) != 2 {
		t.Fatalf("want 2 tailed messages, got %d", len(msgs))
	}

	boom := errors.New("sink closed")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Tail(ctx, TailOptions{}, func(Message) error { return boom })
	}()
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case err := <-errCh:
			if !errors.Is(err, boom) {
				t.Fatalf("want sink error, got %v", err)
			}
			return
		case <-tick.C:
			_, _ = svc.Append(ctx, map[string]any{"x": "z"})
		}
	}
}

func TestCELFilter(t *testing.T) {
	f, err := newCELFilter(`ts_ms > 5 && fields.n == 42.0 && id.startsWith("10-")`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	parsed := map[string]any{"n": float64(42)}
	if !f.Eval(entry(10, 0), parsed) {
		t.Fatalf("expected match")
	}
	if f.Eval(entry(3, 0), parsed) {
		t.Fatalf("expected no match for ts_ms 3")
	}
	if f.Eval(entry(10, 0), map[string]any{}) {
		t.Fatalf("missing field must not match")
	}

	off, err := newCELFilter("  ")
	if err != nil || !off.Eval(entry(1, 0), nil) {
		t.Fatalf("empty filter must match everything")
	}
}
