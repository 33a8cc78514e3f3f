package demo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rzbill/streamer/internal/consume"
	"github.com/rzbill/streamer/internal/fields"
	"github.com/rzbill/streamer/internal/logclient"
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/log"
)

// DefaultReadBlock bounds how long a Reader's blocked read may delay Stop
// when the configured block is 0 (wait forever).
const DefaultReadBlock = time.Second

// ReadBlock returns the block window a Reader should use for the configured
// one. Stores are not guaranteed to abandon a blocked read on cancellation,
// so a Reader never blocks forever.
func ReadBlock(configured time.Duration) time.Duration {
	if configured == 0 {
		return DefaultReadBlock
	}
	return configured
}

// Reader follows a stream with a Cursor and logs every entry until stopped.
type Reader struct {
	cursor  *consume.Cursor
	logger  log.Logger
	onEntry func(store.Entry)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReader opens a Cursor on stream. onEntry, when set, is called for
// every entry after it is logged.
func NewReader(ctx context.Context, client *logclient.Client, stream string, onEntry func(store.Entry), logger log.Logger, opts ...consume.Option) *Reader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Reader{
		cursor:  consume.NewCursor(ctx, client, stream, opts...),
		logger:  logger.With(log.Component("demo-reader"), log.Str("stream", stream)),
		onEntry: onEntry,
		ctx:     runCtx,
		cancel:  cancel,
	}
}

// Start begins reading in the background.
func (r *Reader) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop stops the cursor, cancels the read context and waits for the loop.
// A read already blocked in the store is only observed once it returns,
// which is bounded by the block window unless the store honors
// cancellation.
func (r *Reader) Stop() {
	r.cursor.Stop()
	r.cancel()
	r.wg.Wait()
}

func (r *Reader) run() {
	defer r.wg.Done()
	for e, err := range consume.Seq(r.ctx, r.cursor) {
		if err != nil {
			if !errors.Is(err, consume.ErrStopped) && !errors.Is(err, context.Canceled) {
				r.logger.Error("demo reader ended", log.Err(err))
			}
			return
		}
		r.logger.Info("got message", log.Str("id", e.ID.String()), log.Any("message", fields.Parse(e.Fields)))
		if r.onEntry != nil {
			r.onEntry(e)
		}
	}
}
