package demo

import (
	"context"
	"sync"
	"time"

	"github.com/rzbill/streamer/internal/fields"
	"github.com/rzbill/streamer/internal/logclient"
	"github.com/rzbill/streamer/pkg/log"
)

// Producer appends a synthetic entry to a stream on every tick.
type Producer struct {
	client   *logclient.Client
	stream   string
	interval time.Duration
	now      func() time.Time
	logger   log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	appended int64
}

// NewProducer creates a Producer. interval defaults to one second.
func NewProducer(client *logclient.Client, stream string, interval time.Duration, logger log.Logger) *Producer {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Producer{
		client:   client,
		stream:   stream,
		interval: interval,
		now:      time.Now,
		logger:   logger.With(log.Component("demo-producer"), log.Str("stream", stream)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Payload builds the demo entry for t.
func Payload(t time.Time) map[string]any {
	return map[string]any{
		"hello":     "world",
		"date":      t.UTC(),
		"nestedObj": map[string]any{"num": t.UnixMilli() % 100},
	}
}

// Start begins appending in the background.
func (p *Producer) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop stops the producer and waits for the loop to exit.
func (p *Producer) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Appended returns how many entries were appended.
func (p *Producer) Appended() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.appended
}

func (p *Producer) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("demo producer started", log.Dur("interval", p.interval))
	for {
		select {
		case <-p.ctx.Done():
			p.logger.Info("demo producer stopped")
			return
		case <-ticker.C:
			p.appendOnce()
		}
	}
}

func (p *Producer) appendOnce() {
	entryID, err := p.client.Append(p.ctx, p.stream, fields.Encode(Payload(p.now())))
	if err != nil {
		if p.ctx.Err() == nil {
			p.logger.Error("demo append failed", log.Err(err))
		}
		return
	}
	p.mu.Lock()
	p.appended++
	p.mu.Unlock()
	p.logger.Debug("demo entry appended", log.Str("id", entryID.String()))
}
