package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/rzbill/streamer/internal/storage/pebble"
	"github.com/rzbill/streamer/pkg/id"
)

// Item is one decoded stream entry.
type Item struct {
	ID     id.ID
	Fields map[string]string
}

// Log provides append-only operations for a single stream.
type Log struct {
	db     *pebblestore.DB
	stream string

	mu       sync.Mutex
	exists   bool
	last     id.ID
	length   int64
	gen      *id.Generator
	notifyCh chan struct{}

	onTrimError func(error)
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithTrimErrorHandler receives failures of the trim that follows an
// append. Such failures never fail the append itself.
func WithTrimErrorHandler(fn func(error)) LogOption {
	return func(l *Log) { l.onTrimError = fn }
}

// OpenLog initializes a Log and loads the last ID and length from metadata (if any).
func OpenLog(db *pebblestore.DB, stream string, opts ...LogOption) (*Log, error) {
	if err := ValidateStreamName(stream); err != nil {
		return nil, err
	}
	l := &Log{db: db, stream: stream, notifyCh: make(chan struct{}), onTrimError: func(error) {}}
	for _, opt := range opts {
		opt(l)
	}
	meta, err := db.Get(KeyStreamMeta(stream))
	switch {
	case err == nil:
		last, length, ok := decodeMeta(meta)
		if !ok {
			return nil, fmt.Errorf("eventlog: stream %q: %w", stream, ErrCorruptRecord)
		}
		l.exists, l.last, l.length = true, last, length
	case errors.Is(err, pebblestore.ErrNotFound):
	default:
		return nil, err
	}
	l.gen = id.NewGeneratorAfter(l.last)
	return l, nil
}

// Stream returns the stream name.
func (l *Log) Stream() string { return l.stream }

// Exists reports whether the stream has been created or appended to.
func (l *Log) Exists() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exists
}

// LastID returns the newest ID ever appended, or id.Zero. Trimming does not
// lower it.
func (l *Log) LastID() id.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Len returns the number of stored entries.
func (l *Log) Len() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.length
}

// Create persists empty metadata for the stream if it does not exist yet.
func (l *Log) Create(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.exists {
		return nil
	}
	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Set(KeyStreamMeta(l.stream), encodeMeta(l.last, l.length), nil); err != nil {
		return err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	l.exists = true
	return nil
}

// Append stores fields under a newly generated ID. When maxLen > 0 the
// stream is trimmed approximately towards maxLen afterwards. The entry is
// committed before trimming starts, so a failed trim is reported to the
// trim error handler and the next append trims again.
func (l *Log) Append(ctx context.Context, fields map[string]string, maxLen int64) (id.ID, error) {
	val, err := encodeFields(fields)
	if err != nil {
		return id.ID{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.gen.Next()
	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Set(KeyEntry(l.stream, next), val, nil); err != nil {
		return id.ID{}, err
	}
	if err := b.Set(KeyStreamMeta(l.stream), encodeMeta(next, l.length+1), nil); err != nil {
		return id.ID{}, err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return id.ID{}, err
	}
	l.exists, l.last = true, next
	l.length++

	// notify waiters
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})

	if maxLen > 0 {
		if _, err := l.trimLocked(ctx, maxLen, true); err != nil {
			l.onTrimError(fmt.Errorf("eventlog: trim after append: %w", err))
		}
	}
	return next, nil
}

func encodeMeta(last id.ID, length int64) []byte {
	out := make([]byte, 0, 24)
	out = append(out, last.Bytes()...)
	return appendBE8(out, uint64(length))
}

func decodeMeta(b []byte) (id.ID, int64, bool) {
	if len(b) < 24 {
		return id.ID{}, 0, false
	}
	last, err := id.FromBytes(b[:16])
	if err != nil {
		return id.ID{}, 0, false
	}
	return last, int64(binary.BigEndian.Uint64(b[16:24])), true
}
