package streamsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/rzbill/streamer/internal/consume"
	"github.com/rzbill/streamer/internal/fields"
	"github.com/rzbill/streamer/internal/runtime"
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/id"
	logpkg "github.com/rzbill/streamer/pkg/log"
)

// Service exposes the configured stream to transports: pulls through a fresh
// Cursor per request, group consumption through a Group iterator, appends and
// pending inspection.
type Service struct {
	rt     *runtime.Runtime
	stream string
	logger logpkg.Logger
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger returns a Service using the provided logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("streams"))
	}
	return &Service{rt: rt, stream: rt.Stream(), logger: logger}
}

// Stream returns the stream the service reads and writes.
func (s *Service) Stream() string { return s.stream }

// Ping returns the store round-trip latency.
func (s *Service) Ping(ctx context.Context) (time.Duration, error) {
	return s.rt.Client().Ping(ctx)
}

// Append encodes values and appends them as one entry.
func (s *Service) Append(ctx context.Context, values map[string]any) (id.ID, error) {
	start := time.Now()
	entryID, err := s.rt.Client().Append(ctx, s.stream, fields.Encode(values))
	if err != nil {
		return id.ID{}, err
	}
	s.logger.Debug("streams.append",
		logpkg.Str("stream", s.stream),
		logpkg.Str("id", entryID.String()),
		logpkg.Int64("dur_ms", time.Since(start).Milliseconds()),
	)
	return entryID, nil
}

// GetOne waits for the next entry appended after the call starts.
func (s *Service) GetOne(ctx context.Context) (Message, error) {
	msgs, err := s.GetMany(ctx, 1, "")
	if err != nil {
		return Message{}, err
	}
	return msgs[0], nil
}

// GetMany waits for count entries appended after the call starts. With a
// filter, non-matching entries are skipped and do not count.
func (s *Service) GetMany(ctx context.Context, count int, filter string) ([]Message, error) {
	if count <= 0 {
		return nil, ErrBadCount
	}
	f, err := newCELFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFilter, err)
	}
	cur := consume.NewCursor(ctx, s.rt.Client(), s.stream, s.cursorOptions(count)...)
	defer cur.Stop()

	out := make([]Message, 0, count)
	for e, err := range consume.Seq(ctx, cur) {
		if err != nil {
			return out, err
		}
		if m, ok := s.match(f, e); ok {
			out = append(out, m)
			if len(out) >= count {
				break
			}
		}
	}
	return out, nil
}

// ConsumeAsGroup pulls count entries as consumer of group. Entries are
// acknowledged before they are returned, including any fetched beyond count,
// which are dropped with the iterator.
func (s *Service) ConsumeAsGroup(ctx context.Context, group, consumer string, count int) (GroupBatch, error) {
	if group == "" || consumer == "" {
		return GroupBatch{}, ErrMissingGroup
	}
	if count <= 0 {
		return GroupBatch{}, ErrBadCount
	}
	opts := append(s.rt.ConsumeOptions(s.logger), consume.WithCount(count))
	it := consume.NewGroup(s.rt.Client(), s.stream, group, consumer, opts...)
	defer it.Stop()

	entries, err := consume.Take(ctx, it, count)
	batch := GroupBatch{Group: group, Consumer: consumer, Messages: toMessages(entries)}
	if err != nil {
		return batch, err
	}
	s.logger.Debug("streams.consume",
		logpkg.Str("group", group),
		logpkg.Str("consumer", consumer),
		logpkg.Int("n", len(entries)),
	)
	return batch, nil
}

// CreateGroup creates group at start. An existing group is left as is.
func (s *Service) CreateGroup(ctx context.Context, group, start string) error {
	if group == "" {
		return ErrMissingGroup
	}
	if start == "" {
		start = id.Latest
	}
	return s.rt.Client().CreateGroup(ctx, s.stream, group, start)
}

// Pending lists up to count entries delivered to group and not yet acknowledged.
func (s *Service) Pending(ctx context.Context, group string, count int) ([]PendingItem, error) {
	if group == "" {
		return nil, ErrMissingGroup
	}
	if count <= 0 {
		return nil, ErrBadCount
	}
	pending, err := s.rt.Client().Pending(ctx, s.stream, group, count)
	if err != nil {
		return nil, err
	}
	out := make([]PendingItem, 0, len(pending))
	for _, p := range pending {
		out = append(out, pendingItem(p))
	}
	return out, nil
}

// Tail sends every entry appended after the call starts to sink until ctx
// ends, sink fails or opts.Limit messages were sent.
func (s *Service) Tail(ctx context.Context, opts TailOptions, sink Sink) error {
	f, err := newCELFilter(opts.Filter)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadFilter, err)
	}
	cur := consume.NewCursor(ctx, s.rt.Client(), s.stream, s.rt.ConsumeOptions(s.logger)...)
	defer cur.Stop()

	sent := 0
	for e, err := range consume.Seq(ctx, cur) {
		if err != nil {
			return err
		}
		m, ok := s.match(f, e)
		if !ok {
			continue
		}
		if err := sink(m); err != nil {
			return err
		}
		sent++
		if opts.Limit > 0 && sent >= opts.Limit {
			return nil
		}
	}
	return nil
}

func (s *Service) cursorOptions(count int) []consume.Option {
	return append(s.rt.ConsumeOptions(s.logger), consume.WithCount(count))
}

func (s *Service) match(f celFilter, e store.Entry) (Message, bool) {
	m := toMessage(e)
	return m, f.Eval(e, m.Fields)
}

func toMessage(e store.Entry) Message {
	return Message{ID: e.ID.String(), Fields: fields.Parse(e.Fields)}
}

func toMessages(entries []store.Entry) []Message {
	out := make([]Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, toMessage(e))
	}
	return out
}
