package consume

import (
	"time"

	"github.com/rzbill/streamer/pkg/log"
)

const (
	// DefaultCount is the batch size requested per read.
	DefaultCount = 10
	// DefaultMinIdle is how long an entry must sit pending before the
	// reclaim phase takes it over.
	DefaultMinIdle = 5 * time.Second
)

type options struct {
	count      int
	block      time.Duration
	autoAck    bool
	minIdle    time.Duration
	maxRetries int
	logger     log.Logger
}

func defaultOptions() options {
	return options{
		count:   DefaultCount,
		autoAck: true,
		minIdle: DefaultMinIdle,
		logger:  log.NewNopLogger(),
	}
}

// Option configures a Cursor or a Group.
type Option func(*options)

// WithCount sets how many entries each read asks for.
func WithCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.count = n
		}
	}
}

// WithBlock sets the read block window. Zero, the default, waits until an
// entry arrives; store.NoBlock returns at once.
func WithBlock(d time.Duration) Option {
	return func(o *options) { o.block = d }
}

// WithAutoAck controls whether a Group acknowledges entries before handing
// them out. Enabled by default. Ignored by Cursor.
func WithAutoAck(enabled bool) Option {
	return func(o *options) { o.autoAck = enabled }
}

// WithMinIdle sets the idle threshold of the reclaim phase. Ignored by Cursor.
func WithMinIdle(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.minIdle = d
		}
	}
}

// WithMaxRetries ends the iterator with ErrRetriesExhausted after n
// consecutive failed calls. Zero, the default, retries forever.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
