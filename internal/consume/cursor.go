package consume

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rzbill/streamer/internal/logclient"
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/log"
)

// Cursor reads a stream as a single reader, starting with the entries
// appended after it was created. It fetches a batch only when the previous
// one has been handed out and never yields an ID twice.
type Cursor struct {
	client *logclient.Client
	stream string
	opts   options
	logger log.Logger
	alive  atomic.Bool

	// position is published after every fetch so Position never waits on
	// a blocking read.
	position atomic.Pointer[string]

	// mu serializes Next.
	mu    sync.Mutex
	batch []store.Entry
	retry retryState
}

var _ Iterator = (*Cursor)(nil)

// NewCursor opens a Cursor positioned at the stream's current end.
func NewCursor(ctx context.Context, client *logclient.Client, stream string, opts ...Option) *Cursor {
	o := buildOptions(opts)
	c := &Cursor{
		client: client,
		stream: stream,
		opts:   o,
		logger: o.logger.With(log.Component("cursor"), log.Str("stream", stream)),
		retry:  retryState{max: o.maxRetries},
	}
	tail := client.Tail(ctx, stream)
	c.position.Store(&tail)
	c.alive.Store(true)
	return c
}

// Position returns the ID of the last entry fetched, or the opening position.
func (c *Cursor) Position() string { return *c.position.Load() }

// Stop ends the iterator. Entries already fetched are still handed out, then
// Next returns ErrStopped. A stopped Cursor never resumes.
func (c *Cursor) Stop() { c.alive.Store(false) }

// Next returns the next entry, blocking on the store when the local batch
// is empty. ctx is checked before and after every store call.
func (c *Cursor) Next(ctx context.Context) (store.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if len(c.batch) > 0 {
			e := c.batch[0]
			c.batch = c.batch[1:]
			return e, nil
		}
		if err := ctx.Err(); err != nil {
			return store.Entry{}, err
		}
		if !c.alive.Load() {
			return store.Entry{}, ErrStopped
		}

		res := c.client.ReadByCursor(ctx, c.stream, c.Position(), c.opts.block, c.opts.count)
		if res.Status == logclient.StatusOK {
			last := res.Entries[len(res.Entries)-1].ID.String()
			c.position.Store(&last)
			c.batch = res.Entries
		}
		if err := c.retry.observe(res); err != nil {
			c.logger.Error("giving up", log.Err(err))
			c.Stop()
			return store.Entry{}, err
		}
		if err := ctx.Err(); err != nil {
			return store.Entry{}, err
		}
	}
}
