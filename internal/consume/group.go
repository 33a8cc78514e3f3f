package consume

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rzbill/streamer/internal/logclient"
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/log"
)

// Phase selects what a Group loop iteration fetches.
type Phase int

const (
	// PhaseIntake reads entries never delivered to any group member.
	PhaseIntake Phase = iota
	// PhaseReclaim claims entries left idle by other members.
	PhaseReclaim
)

func (p Phase) String() string {
	if p == PhaseReclaim {
		return "reclaim"
	}
	return "intake"
}

// Stats counts Group loop iterations.
type Stats struct {
	Intake    int64
	Reclaim   int64
	Delivered int64
	Acked     int64
	Failures  int64
}

// Group consumes a stream as a member of a consumer group. Each loop
// iteration either reads new entries or reclaims idle ones, and the phase
// flips after every iteration whatever the outcome, so neither source can
// starve the other. With auto-ack, entries are acknowledged before they are
// handed out (at-least-once up to the in-flight batch).
type Group struct {
	client   *logclient.Client
	stream   string
	group    string
	consumer string
	opts     options
	logger   log.Logger
	alive    atomic.Bool

	// Readable without mu so Phase and Stats never wait on a blocking fetch.
	phase    atomic.Int32
	counters struct {
		intake, reclaim, delivered, acked, failures atomic.Int64
	}

	// mu serializes Next.
	mu    sync.Mutex
	batch []store.Entry
	retry retryState
}

var _ Iterator = (*Group)(nil)

// NewGroup creates a Group for consumer. Consumer names must be unique
// within the group.
func NewGroup(client *logclient.Client, stream, group, consumer string, opts ...Option) *Group {
	o := buildOptions(opts)
	g := &Group{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		opts:     o,
		logger: o.logger.With(
			log.Component("group-consumer"),
			log.Str("stream", stream),
			log.Str("group", group),
			log.Str("consumer", consumer),
		),
		retry: retryState{max: o.maxRetries},
	}
	g.alive.Store(true)
	return g
}

// Stop ends the iterator. Entries already fetched are still handed out, then
// Next returns ErrStopped. A stopped Group never resumes.
func (g *Group) Stop() { g.alive.Store(false) }

// Phase returns the phase the next fetch will use. It does not wait for an
// in-flight fetch.
func (g *Group) Phase() Phase { return Phase(g.phase.Load()) }

// Stats returns a snapshot of the loop counters. It does not wait for an
// in-flight fetch.
func (g *Group) Stats() Stats {
	return Stats{
		Intake:    g.counters.intake.Load(),
		Reclaim:   g.counters.reclaim.Load(),
		Delivered: g.counters.delivered.Load(),
		Acked:     g.counters.acked.Load(),
		Failures:  g.counters.failures.Load(),
	}
}

// Next returns the next entry, running fetch iterations until one yields
// entries. ctx is checked before and after every store call.
func (g *Group) Next(ctx context.Context) (store.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		if len(g.batch) > 0 {
			e := g.batch[0]
			g.batch = g.batch[1:]
			return e, nil
		}
		if err := ctx.Err(); err != nil {
			return store.Entry{}, err
		}
		if !g.alive.Load() {
			return store.Entry{}, ErrStopped
		}

		res := g.fetch(ctx)
		if res.Status == logclient.StatusOK {
			if g.opts.autoAck {
				g.ack(ctx, res)
			}
			g.counters.delivered.Add(int64(len(res.Entries)))
			g.batch = res.Entries
		}
		g.phase.Store(1 - g.phase.Load())

		if res.Failed() {
			g.counters.failures.Add(1)
		}
		if err := g.retry.observe(res); err != nil {
			g.logger.Error("giving up", log.Err(err))
			g.Stop()
			return store.Entry{}, err
		}
		if err := ctx.Err(); err != nil {
			return store.Entry{}, err
		}
	}
}

func (g *Group) fetch(ctx context.Context) logclient.Result {
	if g.Phase() == PhaseIntake {
		g.counters.intake.Add(1)
		return g.client.ReadAsGroupMember(ctx, g.stream, g.group, g.consumer, g.opts.block, g.opts.count)
	}
	g.counters.reclaim.Add(1)
	return g.client.AutoClaim(ctx, g.stream, g.group, g.consumer, g.opts.minIdle, g.opts.count)
}

// ack acknowledges exactly the entries of res. It runs even when ctx was
// cancelled during the fetch, since the entries will still be handed out.
func (g *Group) ack(ctx context.Context, res logclient.Result) {
	ackRes := g.client.Acknowledge(context.WithoutCancel(ctx), g.stream, g.group, res.IDs())
	if ackRes.Failed() {
		g.logger.Warn("auto-ack failed; entries stay pending", log.Int("count", len(res.Entries)), log.Err(ackRes.Reason))
		return
	}
	g.counters.acked.Add(int64(len(res.Entries)))
}
