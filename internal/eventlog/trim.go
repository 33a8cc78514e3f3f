package eventlog

import (
	"context"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/streamer/internal/storage/pebble"
)

const trimBatchLimit = 1024

// TrimSlack is how far past maxLen an approximate trim lets the stream grow
// before it deletes anything.
func TrimSlack(maxLen int64) int64 {
	return max(1, maxLen/10)
}

// TrimToMaxLen deletes the oldest entries until at most maxLen remain.
// With approx set, nothing happens until the stream exceeds maxLen by
// TrimSlack(maxLen). Deletes are committed in batches. Returns the number of
// deleted entries.
func (l *Log) TrimToMaxLen(ctx context.Context, maxLen int64, approx bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.trimLocked(ctx, maxLen, approx)
}

func (l *Log) trimLocked(ctx context.Context, maxLen int64, approx bool) (int, error) {
	if maxLen < 0 {
		return 0, nil
	}
	threshold := maxLen
	if approx {
		threshold += TrimSlack(maxLen)
	}
	if l.length <= threshold {
		return 0, nil
	}
	excess := l.length - maxLen

	prefix := KeyEntryPrefix(l.stream)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: pebblestore.PrefixEnd(prefix)})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	deleted := 0
	for ok := iter.First(); ok && int64(deleted) < excess; {
		b := l.db.NewBatch()
		n := 0
		for ok && n < trimBatchLimit && int64(deleted+n) < excess {
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return deleted, err
			}
			n++
			ok = iter.Next()
		}
		if err := b.Set(KeyStreamMeta(l.stream), encodeMeta(l.last, l.length-int64(n)), nil); err != nil {
			b.Close()
			return deleted, err
		}
		if err := l.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, err
		}
		b.Close()
		deleted += n
		l.length -= int64(n)
	}
	return deleted, iter.Error()
}
