package logclient

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/id"
	"github.com/rzbill/streamer/pkg/log"
)

// DefaultMaxLen is the approximate retention requested on every append.
const DefaultMaxLen = 100

// Options configures a Client.
type Options struct {
	// MaxLen is the approximate stream length kept by Append. Zero means
	// DefaultMaxLen, a negative value disables trimming.
	MaxLen int64
	Logger log.Logger
}

// Client is a facade over a store.Backend that turns failures into retry
// decisions: reads and claims never return errors, they return a Result.
type Client struct {
	backend    store.Backend
	maxLen     int64
	logger     log.Logger
	reconnects atomic.Int64
}

// New creates a Client over backend.
func New(backend store.Backend, opts Options) *Client {
	if opts.MaxLen == 0 {
		opts.MaxLen = DefaultMaxLen
	}
	if opts.MaxLen < 0 {
		opts.MaxLen = 0
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	return &Client{backend: backend, maxLen: opts.MaxLen, logger: opts.Logger.WithComponent("logclient")}
}

// Backend returns the wrapped backend.
func (c *Client) Backend() store.Backend { return c.backend }

// Append adds fields to stream with approximate MAXLEN trimming. Errors are
// returned to the caller and not retried.
func (c *Client) Append(ctx context.Context, stream string, fields map[string]string) (id.ID, error) {
	entryID, err := c.backend.Append(ctx, stream, fields, c.maxLen)
	if err != nil {
		c.handleFailure(ctx, c.logger.With(log.Str("op", "append"), log.Str("stream", stream)), err)
		return id.ID{}, err
	}
	return entryID, nil
}

// Tail returns the stream's newest ID as a cursor, so a reader starting from
// it sees only entries appended afterwards. If the lookup fails it returns
// id.Latest, which the store resolves at read time.
func (c *Client) Tail(ctx context.Context, stream string) string {
	last, err := c.backend.LastID(ctx, stream)
	if err != nil {
		c.handleFailure(ctx, c.logger.With(log.Str("op", "tail"), log.Str("stream", stream)), err)
		return id.Latest
	}
	return last.String()
}

// ReadByCursor reads up to count entries after cursor. block follows the
// store convention: 0 waits indefinitely, store.NoBlock does not wait.
func (c *Client) ReadByCursor(ctx context.Context, stream, cursor string, block time.Duration, count int) Result {
	entries, err := c.backend.Read(ctx, stream, cursor, block, count)
	if err != nil {
		c.handleFailure(ctx, c.logger.With(log.Str("op", "read"), log.Str("stream", stream), log.Str("cursor", cursor)), err)
		return Retryable(err)
	}
	return OK(entries)
}

// ReadAsGroupMember reads never-delivered entries for consumer. A missing
// group is created from the beginning of the stream and the call reports
// Empty so the next iteration reads again without counting a failure.
func (c *Client) ReadAsGroupMember(ctx context.Context, stream, group, consumer string, block time.Duration, count int) Result {
	entries, err := c.backend.ReadGroup(ctx, stream, group, consumer, block, count)
	if err == nil {
		return OK(entries)
	}
	logger := c.logger.With(log.Str("op", "readgroup"), log.Str("stream", stream), log.Str("group", group), log.Str("consumer", consumer))
	if errors.Is(err, store.ErrNoGroup) {
		logger.Info("group missing; creating", log.Err(err))
		if cerr := c.CreateGroup(ctx, stream, group, "0"); cerr != nil {
			return Retryable(cerr)
		}
		return Empty()
	}
	c.handleFailure(ctx, logger, err)
	return Retryable(err)
}

// Acknowledge marks ids as processed for group. It is best effort: a failure
// is logged and reported as Retryable, and the entries stay pending.
func (c *Client) Acknowledge(ctx context.Context, stream, group string, ids []id.ID) Result {
	if len(ids) == 0 {
		return Empty()
	}
	if _, err := c.backend.Ack(ctx, stream, group, ids...); err != nil {
		c.handleFailure(ctx, c.logger.With(log.Str("op", "ack"), log.Str("stream", stream), log.Str("group", group), log.Int("ids", len(ids))), err)
		return Retryable(err)
	}
	return Result{Status: StatusOK}
}

// AutoClaim moves up to count entries pending for at least minIdle to
// consumer. The scan always starts at the beginning of the pending list.
func (c *Client) AutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int) Result {
	entries, _, err := c.backend.AutoClaim(ctx, stream, group, consumer, minIdle, id.Beginning, count)
	if err != nil {
		c.handleFailure(ctx, c.logger.With(log.Str("op", "autoclaim"), log.Str("stream", stream), log.Str("group", group), log.Str("consumer", consumer)), err)
		return Retryable(err)
	}
	return OK(entries)
}

// CreateGroup creates group at start, creating the stream if needed. An
// existing group is not an error.
func (c *Client) CreateGroup(ctx context.Context, stream, group, start string) error {
	err := c.backend.CreateGroup(ctx, stream, group, start)
	if err == nil || errors.Is(err, store.ErrBusyGroup) {
		return nil
	}
	c.handleFailure(ctx, c.logger.With(log.Str("op", "creategroup"), log.Str("stream", stream), log.Str("group", group)), err)
	return err
}

// Pending lists up to count pending entries of group.
func (c *Client) Pending(ctx context.Context, stream, group string, count int) ([]store.PendingEntry, error) {
	pending, err := c.backend.Pending(ctx, stream, group, count)
	if err != nil {
		c.handleFailure(ctx, c.logger.With(log.Str("op", "pending"), log.Str("stream", stream), log.Str("group", group)), err)
		return nil, err
	}
	return pending, nil
}

// Ping probes the store and returns the round-trip latency.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.backend.Ping(ctx); err != nil {
		c.handleFailure(ctx, c.logger.With(log.Str("op", "ping")), err)
		return 0, err
	}
	return time.Since(start), nil
}
