package consume

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rzbill/streamer/internal/logclient"
	"github.com/rzbill/streamer/internal/store"
)

var (
	// ErrStopped is returned by Next once the iterator was stopped and its
	// already-fetched entries have been handed out.
	ErrStopped = errors.New("consume: iterator stopped")
	// ErrRetriesExhausted is returned when the retry ceiling is reached.
	ErrRetriesExhausted = errors.New("consume: retries exhausted")
)

// Iterator is a pull-based, cancellable sequence of stream entries. Next is
// meant for one goroutine; Stop may be called from any goroutine.
type Iterator interface {
	Next(ctx context.Context) (store.Entry, error)
	Stop()
}

// Take pulls n entries from it. On error it returns the entries pulled so far.
func Take(ctx context.Context, it Iterator, n int) ([]store.Entry, error) {
	out := make([]store.Entry, 0, n)
	for len(out) < n {
		e, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Seq adapts it to a range-over-func sequence. The sequence ends after the
// first error, which is yielded with a zero Entry.
func Seq(ctx context.Context, it Iterator) iter.Seq2[store.Entry, error] {
	return func(yield func(store.Entry, error) bool) {
		for {
			e, err := it.Next(ctx)
			if err != nil {
				yield(store.Entry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// retryState counts consecutive failed calls against an optional ceiling.
type retryState struct {
	max      int
	failures int
}

// observe records a result and returns a non-nil error once the ceiling
// is reached.
func (r *retryState) observe(res logclient.Result) error {
	if !res.Failed() {
		r.failures = 0
		return nil
	}
	r.failures++
	if r.max > 0 && r.failures >= r.max {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.failures, res.Reason)
	}
	return nil
}
