// Package storetest provides a scripted store.Backend for tests of the
// layers above the store.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/id"
)

// Call records one backend invocation.
type Call struct {
	Op       string
	Stream   string
	Group    string
	Consumer string
	Cursor   string
	Block    time.Duration
	Count    int
	MinIdle  time.Duration
	IDs      []id.ID
}

// Fake is a store.Backend whose behavior is set per operation. Unset hooks
// succeed with empty results.
type Fake struct {
	mu     sync.Mutex
	open   bool
	calls  []Call
	onCall func(Call)

	AppendFunc      func(stream string, fields map[string]string, maxLen int64) (id.ID, error)
	LastIDFunc      func(stream string) (id.ID, error)
	ReadFunc        func(ctx context.Context, stream, after string, block time.Duration, count int) ([]store.Entry, error)
	ReadGroupFunc   func(ctx context.Context, stream, group, consumer string, block time.Duration, count int) ([]store.Entry, error)
	AckFunc         func(stream, group string, ids []id.ID) (int64, error)
	AutoClaimFunc   func(stream, group, consumer string, minIdle time.Duration, start string, count int) ([]store.Entry, string, error)
	CreateGroupFunc func(stream, group, start string) error
	PendingFunc     func(stream, group string, count int) ([]store.PendingEntry, error)
	PingFunc        func() error
	ConnectFunc     func() error
}

var _ store.Backend = (*Fake)(nil)

// NewFake returns an open Fake.
func NewFake() *Fake { return &Fake{open: true} }

// OnCall registers a hook run synchronously after each call is recorded.
func (f *Fake) OnCall(fn func(Call)) {
	f.mu.Lock()
	f.onCall = fn
	f.mu.Unlock()
}

// SetOpen sets what IsOpen reports.
func (f *Fake) SetOpen(open bool) {
	f.mu.Lock()
	f.open = open
	f.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ops returns the recorded operation names in order.
func (f *Fake) Ops() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(c)
	}
}

func (f *Fake) Append(ctx context.Context, stream string, fields map[string]string, maxLen int64) (id.ID, error) {
	f.record(Call{Op: "append", Stream: stream, Count: int(maxLen)})
	if f.AppendFunc != nil {
		return f.AppendFunc(stream, fields, maxLen)
	}
	return id.ID{Ms: 1}, nil
}

func (f *Fake) LastID(ctx context.Context, stream string) (id.ID, error) {
	f.record(Call{Op: "lastid", Stream: stream})
	if f.LastIDFunc != nil {
		return f.LastIDFunc(stream)
	}
	return id.Zero, nil
}

func (f *Fake) Read(ctx context.Context, stream, after string, block time.Duration, count int) ([]store.Entry, error) {
	f.record(Call{Op: "read", Stream: stream, Cursor: after, Block: block, Count: count})
	if f.ReadFunc != nil {
		return f.ReadFunc(ctx, stream, after, block, count)
	}
	return nil, nil
}

func (f *Fake) ReadGroup(ctx context.Context, stream, group, consumer string, block time.Duration, count int) ([]store.Entry, error) {
	f.record(Call{Op: "readgroup", Stream: stream, Group: group, Consumer: consumer, Block: block, Count: count})
	if f.ReadGroupFunc != nil {
		return f.ReadGroupFunc(ctx, stream, group, consumer, block, count)
	}
	return nil, nil
}

func (f *Fake) Ack(ctx context.Context, stream, group string, ids ...id.ID) (int64, error) {
	f.record(Call{Op: "ack", Stream: stream, Group: group, IDs: append([]id.ID(nil), ids...)})
	if f.AckFunc != nil {
		return f.AckFunc(stream, group, ids)
	}
	return int64(len(ids)), nil
}

func (f *Fake) AutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, start string, count int) ([]store.Entry, string, error) {
	f.record(Call{Op: "autoclaim", Stream: stream, Group: group, Consumer: consumer, MinIdle: minIdle, Cursor: start, Count: count})
	if f.AutoClaimFunc != nil {
		return f.AutoClaimFunc(stream, group, consumer, minIdle, start, count)
	}
	return nil, id.Beginning, nil
}

func (f *Fake) CreateGroup(ctx context.Context, stream, group, start string) error {
	f.record(Call{Op: "creategroup", Stream: stream, Group: group, Cursor: start})
	if f.CreateGroupFunc != nil {
		return f.CreateGroupFunc(stream, group, start)
	}
	return nil
}

func (f *Fake) Pending(ctx context.Context, stream, group string, count int) ([]store.PendingEntry, error) {
	f.record(Call{Op: "pending", Stream: stream, Group: group, Count: count})
	if f.PendingFunc != nil {
		return f.PendingFunc(stream, group, count)
	}
	return nil, nil
}

func (f *Fake) Ping(ctx context.Context) error {
	f.record(Call{Op: "ping"})
	if f.PingFunc != nil {
		return f.PingFunc()
	}
	return nil
}

func (f *Fake) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Fake) Connect(ctx context.Context) error {
	f.record(Call{Op: "connect"})
	if f.ConnectFunc != nil {
		if err := f.ConnectFunc(); err != nil {
			return err
		}
	}
	f.SetOpen(true)
	return nil
}

func (f *Fake) Close() error {
	f.record(Call{Op: "close"})
	f.SetOpen(false)
	return nil
}

// Entries builds entries with IDs "ms-0" for each ms.
func Entries(ms ...uint64) []store.Entry {
	out := make([]store.Entry, len(ms))
	for i, m := range ms {
		out[i] = store.Entry{ID: id.ID{Ms: m}, Fields: map[string]string{"n": id.ID{Ms: m}.String()}}
	}
	return out
}
