package embedded

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/streamer/internal/eventlog"
	"github.com/rzbill/streamer/internal/groups"
	pebblestore "github.com/rzbill/streamer/internal/storage/pebble"
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/id"
	"github.com/rzbill/streamer/pkg/log"
)

// Options configures the embedded backend.
type Options struct {
	Storage pebblestore.Options
	// Clock drives pending-entry idle times. Defaults to time.Now.
	Clock  func() time.Time
	Logger log.Logger
}

type streamState struct {
	log    *eventlog.Log
	groups *groups.Manager
}

// Backend implements store.Backend on a local Pebble database.
//
// mu guards the database lifecycle: operations hold it shared while they
// touch Pebble, Close takes it exclusively. Blocked readers release it
// while they wait.
type Backend struct {
	opts   Options
	logger log.Logger

	mu       sync.RWMutex
	db       *pebblestore.DB
	closedCh chan struct{}

	streamsMu sync.Mutex
	streams   map[string]*streamState
}

var _ store.Backend = (*Backend)(nil)

// Open opens the database described by opts.
func Open(opts Options) (*Backend, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	b := &Backend{opts: opts, logger: opts.Logger.WithComponent("embedded")}
	if err := b.open(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) open() error {
	db, err := pebblestore.Open(b.opts.Storage)
	if err != nil {
		return fmt.Errorf("embedded: open pebble: %w", err)
	}
	b.db = db
	b.closedCh = make(chan struct{})
	b.streamsMu.Lock()
	b.streams = make(map[string]*streamState)
	b.streamsMu.Unlock()
	return nil
}

// IsOpen reports whether the database is open.
func (b *Backend) IsOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.db != nil
}

// Connect reopens the database after Close. It is a no-op when already open.
func (b *Backend) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.open(); err != nil {
		return err
	}
	b.logger.Info("reopened database", log.Str("dir", b.opts.Storage.DataDir))
	return nil
}

// Close closes the database and wakes blocked readers with store.ErrClientClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	close(b.closedCh)
	err := b.db.Close()
	b.db = nil
	return err
}

// do runs fn against the named stream while the database is held open.
func (b *Backend) do(name string, fn func(st *streamState) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return store.ErrClientClosed
	}
	st, err := b.streamLocked(name)
	if err != nil {
		return err
	}
	return fn(st)
}

// streamLocked returns the state for name, opening it on first use.
// The caller holds mu.
func (b *Backend) streamLocked(name string) (*streamState, error) {
	b.streamsMu.Lock()
	defer b.streamsMu.Unlock()
	if st, ok := b.streams[name]; ok {
		return st, nil
	}
	l, err := eventlog.OpenLog(b.db, name, eventlog.WithTrimErrorHandler(func(err error) {
		b.logger.Warn("trim failed; entry kept", log.Str("stream", name), log.Err(err))
	}))
	if err != nil {
		return nil, err
	}
	st := &streamState{log: l, groups: groups.NewManager(b.db, l, groups.WithClock(b.opts.Clock))}
	b.streams[name] = st
	return st, nil
}

// Append adds fields under a new ID and trims to roughly maxLen.
func (b *Backend) Append(ctx context.Context, stream string, fields map[string]string, maxLen int64) (id.ID, error) {
	var out id.ID
	err := b.do(stream, func(st *streamState) error {
		var err error
		out, err = st.log.Append(ctx, fields, maxLen)
		return err
	})
	return out, err
}

// LastID returns the newest appended ID of stream.
func (b *Backend) LastID(ctx context.Context, stream string) (id.ID, error) {
	var out id.ID
	err := b.do(stream, func(st *streamState) error {
		out = st.log.LastID()
		return nil
	})
	return out, err
}

// Read returns entries after the given position, waiting per block.
func (b *Backend) Read(ctx context.Context, stream, after string, block time.Duration, count int) ([]store.Entry, error) {
	var (
		from     id.ID
		resolved bool
	)
	return b.waitFor(ctx, stream, block, func(st *streamState) ([]eventlog.Item, error) {
		if !resolved {
			if after == id.Latest {
				from = st.log.LastID()
			} else {
				parsed, err := id.Parse(after)
				if err != nil {
					return nil, fmt.Errorf("%w: %q", store.ErrInvalidID, after)
				}
				from = parsed
			}
			resolved = true
		}
		return st.log.ReadAfter(from, count)
	})
}

// ReadGroup delivers never-delivered entries to consumer, waiting per block.
func (b *Backend) ReadGroup(ctx context.Context, stream, group, consumer string, block time.Duration, count int) ([]store.Entry, error) {
	return b.waitFor(ctx, stream, block, func(st *streamState) ([]eventlog.Item, error) {
		items, err := st.groups.ReadNew(ctx, group, consumer, count)
		return items, mapGroupErr(err)
	})
}

// waitFor runs fetch until it yields entries or the block window ends.
// The append signal is taken before each fetch so no append is missed.
func (b *Backend) waitFor(ctx context.Context, stream string, block time.Duration, fetch func(st *streamState) ([]eventlog.Item, error)) ([]store.Entry, error) {
	var deadline <-chan time.Time
	if block > 0 {
		timer := time.NewTimer(block)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		var (
			items  []eventlog.Item
			sig    <-chan struct{}
			closed <-chan struct{}
		)
		err := b.do(stream, func(st *streamState) error {
			sig, closed = st.log.AppendSignal(), b.closedCh
			var err error
			items, err = fetch(st)
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return toEntries(items), nil
		}
		if block < 0 {
			return nil, nil
		}
		select {
		case <-sig:
		case <-deadline:
			return nil, nil
		case <-closed:
			return nil, store.ErrClientClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Ack removes ids from the group's pending list.
func (b *Backend) Ack(ctx context.Context, stream, group string, ids ...id.ID) (int64, error) {
	var n int64
	err := b.do(stream, func(st *streamState) error {
		var err error
		n, err = st.groups.Ack(ctx, group, ids...)
		return err
	})
	return n, err
}

// AutoClaim transfers idle pending entries to consumer.
func (b *Backend) AutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, start string, count int) ([]store.Entry, string, error) {
	from, err := id.Parse(start)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", store.ErrInvalidID, start)
	}
	var (
		items []eventlog.Item
		next  id.ID
	)
	err = b.do(stream, func(st *streamState) error {
		var err error
		items, next, err = st.groups.AutoClaim(ctx, group, consumer, minIdle, from, count)
		return mapGroupErr(err)
	})
	if err != nil {
		return nil, "", err
	}
	return toEntries(items), next.String(), nil
}

// CreateGroup creates group at start ("$" for the current end), creating
// the stream when missing.
func (b *Backend) CreateGroup(ctx context.Context, stream, group, start string) error {
	return b.do(stream, func(st *streamState) error {
		from := st.log.LastID()
		if start != id.Latest {
			parsed, err := id.Parse(start)
			if err != nil {
				return fmt.Errorf("%w: %q", store.ErrInvalidID, start)
			}
			from = parsed
		}
		if err := st.log.Create(ctx); err != nil {
			return err
		}
		return mapGroupErr(st.groups.Create(ctx, group, from))
	})
}

// Pending lists up to count pending entries of group.
func (b *Backend) Pending(ctx context.Context, stream, group string, count int) ([]store.PendingEntry, error) {
	var out []store.PendingEntry
	err := b.do(stream, func(st *streamState) error {
		pending, err := st.groups.Pending(group, count)
		if err != nil {
			return mapGroupErr(err)
		}
		out = make([]store.PendingEntry, len(pending))
		for i, p := range pending {
			out[i] = store.PendingEntry{ID: p.ID, Consumer: p.Consumer, Idle: p.Idle, Deliveries: p.Deliveries}
		}
		return nil
	})
	return out, err
}

// Ping reports store.ErrClientClosed after Close.
func (b *Backend) Ping(ctx context.Context) error {
	if !b.IsOpen() {
		return store.ErrClientClosed
	}
	return ctx.Err()
}

func mapGroupErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, groups.ErrNoGroup):
		return fmt.Errorf("%w: %v", store.ErrNoGroup, err)
	case errors.Is(err, groups.ErrGroupExists):
		return fmt.Errorf("%w: %v", store.ErrBusyGroup, err)
	default:
		return err
	}
}

func toEntries(items []eventlog.Item) []store.Entry {
	out := make([]store.Entry, len(items))
	for i, it := range items {
		out[i] = store.Entry{ID: it.ID, Fields: it.Fields}
	}
	return out
}
