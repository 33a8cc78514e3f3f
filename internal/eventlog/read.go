package eventlog

import (
	"errors"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/streamer/internal/storage/pebble"
	"github.com/rzbill/streamer/pkg/id"
)

// ReadAfter returns up to limit entries with ID strictly greater than after,
// in ID order. limit <= 0 means no limit.
func (l *Log) ReadAfter(after id.ID, limit int) ([]Item, error) {
	prefix := KeyEntryPrefix(l.stream)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: pebblestore.PrefixEnd(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	items := make([]Item, 0, max(1, limit))
	start := KeyEntry(l.stream, after)
	for ok := iter.SeekGE(start); ok && (limit <= 0 || len(items) < limit); ok = iter.Next() {
		entryID, err := entryIDFromKey(iter.Key())
		if err != nil {
			return items, err
		}
		if entryID.Compare(after) <= 0 {
			continue
		}
		fields, err := decodeFields(iter.Value())
		if err != nil {
			return items, err
		}
		items = append(items, Item{ID: entryID, Fields: fields})
	}
	return items, iter.Error()
}

// Get loads one entry. The boolean is false when the entry does not exist,
// for example because it was trimmed.
func (l *Log) Get(entryID id.ID) (Item, bool, error) {
	val, err := l.db.Get(KeyEntry(l.stream, entryID))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, err
	}
	fields, err := decodeFields(val)
	if err != nil {
		return Item{}, false, err
	}
	return Item{ID: entryID, Fields: fields}, true, nil
}
