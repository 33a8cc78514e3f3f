package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/id"
	"github.com/rzbill/streamer/pkg/log"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	// PoolSize bounds concurrent connections. Every blocking read checks out
	// its own pooled connection for the duration of the call.
	PoolSize int
	Logger   log.Logger
}

// Backend implements store.Backend with Redis stream commands.
type Backend struct {
	newClient func() redis.UniversalClient
	logger    log.Logger

	mu     sync.RWMutex
	client redis.UniversalClient
	open   bool
}

var _ store.Backend = (*Backend)(nil)

// New creates a Backend. The connection is established lazily by the pool.
func New(opts Options) *Backend {
	ro := &redis.Options{
		Addr:                  opts.Addr,
		Username:              opts.Username,
		Password:              opts.Password,
		DB:                    opts.DB,
		PoolSize:              opts.PoolSize,
		ContextTimeoutEnabled: true,
	}
	return NewWithFactory(func() redis.UniversalClient { return redis.NewClient(ro) }, opts.Logger)
}

// NewWithFactory creates a Backend around clients produced by newClient,
// which is called again on every reconnect.
func NewWithFactory(newClient func() redis.UniversalClient, logger log.Logger) *Backend {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Backend{
		newClient: newClient,
		logger:    logger.WithComponent("redis"),
		client:    newClient(),
		open:      true,
	}
}

func (b *Backend) rdb() redis.UniversalClient {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.client
}

// IsOpen reports whether the client has not been closed. Socket-level
// reconnects of an open client are handled by the go-redis pool.
func (b *Backend) IsOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.open
}

// Connect replaces a closed client with a fresh one and pings it.
func (b *Backend) Connect(ctx context.Context) error {
	b.mu.Lock()
	if !b.open {
		b.client = b.newClient()
		b.open = true
	}
	c := b.client
	b.mu.Unlock()
	return mapErr(c.Ping(ctx).Err())
}

// Close closes the client; later commands fail with store.ErrClientClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil
	}
	b.open = false
	return b.client.Close()
}

// Ping sends PING.
func (b *Backend) Ping(ctx context.Context) error {
	return mapErr(b.rdb().Ping(ctx).Err())
}

// Append runs XADD stream MAXLEN ~ maxLen * fields.
func (b *Backend) Append(ctx context.Context, stream string, fields map[string]string, maxLen int64) (id.ID, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	args := &redis.XAddArgs{Stream: stream, ID: "*", Values: values}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	raw, err := b.rdb().XAdd(ctx, args).Result()
	if err != nil {
		return id.ID{}, mapErr(err)
	}
	return parseID(raw)
}

// LastID reads last-generated-id from XINFO STREAM. A missing stream
// reports id.Zero.
func (b *Backend) LastID(ctx context.Context, stream string) (id.ID, error) {
	info, err := b.rdb().XInfoStream(ctx, stream).Result()
	if err != nil {
		if isNoSuchKey(err) {
			return id.Zero, nil
		}
		return id.ID{}, mapErr(err)
	}
	return parseID(info.LastGeneratedID)
}

// blockArg rounds a positive sub-millisecond block up to 1ms. The driver
// sends BLOCK in whole milliseconds, and BLOCK 0 waits forever.
func blockArg(d time.Duration) time.Duration {
	if d > 0 && d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

// Read runs XREAD [BLOCK ms] COUNT count STREAMS stream after.
func (b *Backend) Read(ctx context.Context, stream, after string, block time.Duration, count int) ([]store.Entry, error) {
	res, err := b.rdb().XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, after},
		Count:   int64(count),
		Block:   blockArg(block),
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return firstStream(res)
}

// ReadGroup runs XREADGROUP GROUP group consumer [BLOCK ms] COUNT count STREAMS stream >.
func (b *Backend) ReadGroup(ctx context.Context, stream, group, consumer string, block time.Duration, count int) ([]store.Entry, error) {
	res, err := b.rdb().XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, id.Undelivered},
		Count:    int64(count),
		Block:    blockArg(block),
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return firstStream(res)
}

// Ack runs XACK.
func (b *Backend) Ack(ctx context.Context, stream, group string, ids ...id.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]string, len(ids))
	for i, entryID := range ids {
		raw[i] = entryID.String()
	}
	n, err := b.rdb().XAck(ctx, stream, group, raw...).Result()
	return n, mapErr(err)
}

// AutoClaim runs XAUTOCLAIM stream group consumer minIdle start COUNT count.
func (b *Backend) AutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, start string, count int) ([]store.Entry, string, error) {
	msgs, next, err := b.rdb().XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    start,
		Count:    int64(count),
	}).Result()
	if err != nil {
		return nil, "", mapErr(err)
	}
	entries, err := toEntries(msgs)
	return entries, next, err
}

// CreateGroup runs XGROUP CREATE stream group start MKSTREAM.
func (b *Backend) CreateGroup(ctx context.Context, stream, group, start string) error {
	return mapErr(b.rdb().XGroupCreateMkStream(ctx, stream, group, start).Err())
}

// Pending runs XPENDING stream group - + count.
func (b *Backend) Pending(ctx context.Context, stream, group string, count int) ([]store.PendingEntry, error) {
	if count <= 0 {
		count = 100
	}
	res, err := b.rdb().XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  int64(count),
	}).Result()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]store.PendingEntry, 0, len(res))
	for _, p := range res {
		entryID, err := parseID(p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, store.PendingEntry{ID: entryID, Consumer: p.Consumer, Idle: p.Idle, Deliveries: p.RetryCount})
	}
	return out, nil
}

func firstStream(res []redis.XStream) ([]store.Entry, error) {
	if len(res) == 0 {
		return nil, nil
	}
	return toEntries(res[0].Messages)
}

func toEntries(msgs []redis.XMessage) ([]store.Entry, error) {
	out := make([]store.Entry, 0, len(msgs))
	for _, m := range msgs {
		entryID, err := parseID(m.ID)
		if err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(m.Values))
		for k, v := range m.Values {
			fields[k] = fmt.Sprint(v)
		}
		out = append(out, store.Entry{ID: entryID, Fields: fields})
	}
	return out, nil
}

func parseID(raw string) (id.ID, error) {
	entryID, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, fmt.Errorf("%w: %q", store.ErrInvalidID, raw)
	}
	return entryID, nil
}

// mapErr translates go-redis and server errors into store errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %v", store.ErrClientClosed, err)
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "NOGROUP"):
		return fmt.Errorf("%w: %v", store.ErrNoGroup, err)
	case strings.HasPrefix(msg, "BUSYGROUP"):
		return fmt.Errorf("%w: %v", store.ErrBusyGroup, err)
	case strings.Contains(msg, "Invalid stream ID"):
		return fmt.Errorf("%w: %v", store.ErrInvalidID, err)
	}
	return err
}

func isNoSuchKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such key")
}
