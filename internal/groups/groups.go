package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/streamer/internal/eventlog"
	pebblestore "github.com/rzbill/streamer/internal/storage/pebble"
	"github.com/rzbill/streamer/pkg/id"
)

var (
	// ErrNoGroup is returned when the group does not exist.
	ErrNoGroup = errors.New("groups: no such consumer group")
	// ErrGroupExists is returned by Create for an existing group.
	ErrGroupExists = errors.New("groups: consumer group already exists")
	// ErrBadGroupName is returned for empty names or names containing NUL.
	ErrBadGroupName = errors.New("groups: invalid group name")
)

// maxScanFactor bounds how many pending entries AutoClaim inspects per
// requested entry.
const maxScanFactor = 10

// Pending describes one delivered but unacknowledged entry.
type Pending struct {
	ID         id.ID
	Consumer   string
	Idle       time.Duration
	Deliveries int64
}

// Manager coordinates the consumer groups of one stream.
type Manager struct {
	db  *pebblestore.DB
	log *eventlog.Log
	now func() time.Time

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for idle times.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager over the stream held by log.
func NewManager(db *pebblestore.DB, log *eventlog.Log, opts ...Option) *Manager {
	m := &Manager{db: db, log: log, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func validateGroup(group string) error {
	if group == "" || strings.IndexByte(group, groupTerm) >= 0 {
		return ErrBadGroupName
	}
	return nil
}

// Create registers a group whose next delivery is the first entry after start.
func (m *Manager) Create(ctx context.Context, group string, start id.ID) error {
	if err := validateGroup(group); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := KeyGroupMeta(m.log.Stream(), group)
	if _, err := m.db.Get(key); err == nil {
		return ErrGroupExists
	} else if !errors.Is(err, pebblestore.ErrNotFound) {
		return err
	}
	meta, err := encodeMeta(groupMeta{LastDelivered: start.String(), CreatedMs: m.now().UnixMilli()})
	if err != nil {
		return err
	}
	b := m.db.NewBatch()
	defer b.Close()
	if err := b.Set(key, meta, nil); err != nil {
		return err
	}
	return m.db.CommitBatch(ctx, b)
}

// Exists reports whether the group has been created.
func (m *Manager) Exists(group string) (bool, error) {
	_, err := m.db.Get(KeyGroupMeta(m.log.Stream(), group))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pebblestore.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) loadMeta(group string) (groupMeta, id.ID, error) {
	val, err := m.db.Get(KeyGroupMeta(m.log.Stream(), group))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return groupMeta{}, id.ID{}, ErrNoGroup
	}
	if err != nil {
		return groupMeta{}, id.ID{}, err
	}
	return decodeMeta(val)
}

// ReadNew delivers up to count never-delivered entries to consumer, records
// them as pending and advances the group's last-delivered ID. It does not block.
func (m *Manager) ReadNew(ctx context.Context, group, consumer string, count int) ([]eventlog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta, last, err := m.loadMeta(group)
	if err != nil {
		return nil, err
	}
	items, err := m.log.ReadAfter(last, count)
	if err != nil || len(items) == 0 {
		return nil, err
	}

	nowMs := m.now().UnixMilli()
	b := m.db.NewBatch()
	defer b.Close()
	stream := m.log.Stream()
	for _, it := range items {
		rec, err := encodePending(pendingRecord{Consumer: consumer, DeliveredMs: nowMs, Deliveries: 1})
		if err != nil {
			return nil, err
		}
		if err := b.Set(KeyPending(stream, group, it.ID), rec, nil); err != nil {
			return nil, fmt.Errorf("groups: write pending: %w", err)
		}
	}
	meta.LastDelivered = items[len(items)-1].ID.String()
	metaVal, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}
	if err := b.Set(KeyGroupMeta(stream, group), metaVal, nil); err != nil {
		return nil, err
	}
	if err := m.db.CommitBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("groups: commit delivery: %w", err)
	}
	return items, nil
}

// Ack removes ids from the pending list and returns how many were pending.
// Acknowledging on a missing group is not an error and removes nothing.
func (m *Manager) Ack(ctx context.Context, group string, ids ...id.ID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stream := m.log.Stream()
	b := m.db.NewBatch()
	defer b.Close()
	var n int64
	for _, entryID := range ids {
		key := KeyPending(stream, group, entryID)
		if _, err := m.db.Get(key); err != nil {
			if errors.Is(err, pebblestore.ErrNotFound) {
				continue
			}
			return 0, err
		}
		if err := b.Delete(key, nil); err != nil {
			return 0, err
		}
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if err := m.db.CommitBatch(ctx, b); err != nil {
		return 0, fmt.Errorf("groups: commit ack: %w", err)
	}
	return n, nil
}

// AutoClaim scans the pending list from start and transfers up to count
// entries idle for at least minIdle to consumer. Pending entries whose
// stream entry was trimmed are dropped from the list. It returns the claimed
// entries and the ID to resume the scan from, which is id.Zero once the end
// of the list has been reached.
func (m *Manager) AutoClaim(ctx context.Context, group, consumer string, minIdle time.Duration, start id.ID, count int) ([]eventlog.Item, id.ID, error) {
	if count <= 0 {
		count = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, _, err := m.loadMeta(group); err != nil {
		return nil, id.ID{}, err
	}

	type claim struct {
		item eventlog.Item
		rec  pendingRecord
	}
	var (
		claims    []claim
		dropped   []id.ID
		next      id.ID
		scanned   int
		scanErr   error
		nowMs     = m.now().UnixMilli()
		minIdleMs = minIdle.Milliseconds()
		stream    = m.log.Stream()
	)
	prefix := KeyPendingPrefix(stream, group)
	err := m.db.ScanPrefix(prefix, func(k, v []byte) bool {
		pid, err := pendingIDFromKey(k)
		if err != nil {
			scanErr = err
			return false
		}
		if pid.Compare(start) < 0 {
			return true
		}
		if len(claims) >= count || scanned >= count*maxScanFactor {
			next = pid
			return false
		}
		scanned++
		rec, err := decodePending(v)
		if err != nil {
			scanErr = err
			return false
		}
		if nowMs-rec.DeliveredMs < minIdleMs {
			return true
		}
		it, ok, err := m.log.Get(pid)
		if err != nil {
			scanErr = err
			return false
		}
		if !ok {
			dropped = append(dropped, pid)
			return true
		}
		rec.Consumer = consumer
		rec.DeliveredMs = nowMs
		rec.Deliveries++
		claims = append(claims, claim{item: it, rec: rec})
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, id.ID{}, err
	}
	if len(claims) == 0 && len(dropped) == 0 {
		return nil, next, nil
	}

	b := m.db.NewBatch()
	defer b.Close()
	items := make([]eventlog.Item, 0, len(claims))
	for _, c := range claims {
		val, err := encodePending(c.rec)
		if err != nil {
			return nil, id.ID{}, err
		}
		if err := b.Set(KeyPending(stream, group, c.item.ID), val, nil); err != nil {
			return nil, id.ID{}, err
		}
		items = append(items, c.item)
	}
	for _, pid := range dropped {
		if err := b.Delete(KeyPending(stream, group, pid), nil); err != nil {
			return nil, id.ID{}, err
		}
	}
	if err := m.db.CommitBatch(ctx, b); err != nil {
		return nil, id.ID{}, fmt.Errorf("groups: commit claim: %w", err)
	}
	return items, next, nil
}

// Pending lists up to count pending entries in ID order. count <= 0 lists all.
func (m *Manager) Pending(group string, count int) ([]Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, _, err := m.loadMeta(group); err != nil {
		return nil, err
	}
	nowMs := m.now().UnixMilli()
	var (
		out     []Pending
		scanErr error
	)
	err := m.db.ScanPrefix(KeyPendingPrefix(m.log.Stream(), group), func(k, v []byte) bool {
		pid, err := pendingIDFromKey(k)
		if err != nil {
			scanErr = err
			return false
		}
		rec, err := decodePending(v)
		if err != nil {
			scanErr = err
			return false
		}
		out = append(out, Pending{
			ID:         pid,
			Consumer:   rec.Consumer,
			Idle:       time.Duration(max(0, nowMs-rec.DeliveredMs)) * time.Millisecond,
			Deliveries: rec.Deliveries,
		})
		return count <= 0 || len(out) < count
	})
	if err == nil {
		err = scanErr
	}
	return out, err
}
