package store

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/streamer/pkg/id"
)

// NoBlock asks a read to return immediately when nothing is available.
// A zero block duration waits indefinitely.
const NoBlock time.Duration = -1

var (
	// ErrClientClosed reports that the backend connection is closed.
	ErrClientClosed = errors.New("store: client is closed")
	// ErrNoGroup reports a read or claim against a missing consumer group.
	ErrNoGroup = errors.New("store: NOGROUP no such key or consumer group")
	// ErrBusyGroup reports that a consumer group already exists.
	ErrBusyGroup = errors.New("store: BUSYGROUP consumer group name already exists")
	// ErrInvalidID reports a malformed stream entry ID.
	ErrInvalidID = errors.New("store: invalid stream ID")
)

// Entry is a single stream record. Field values are always strings.
type Entry struct {
	ID     id.ID
	Fields map[string]string
}

// PendingEntry describes one delivered but unacknowledged entry of a group.
type PendingEntry struct {
	ID         id.ID
	Consumer   string
	Idle       time.Duration
	Deliveries int64
}

// Backend is the set of stream primitives the log client drives.
//
// Read and ReadGroup treat block == 0 as "wait until an entry arrives",
// block < 0 as "do not wait" and block > 0 as an upper bound. A wait that
// ends without entries returns an empty slice and a nil error.
type Backend interface {
	// Append adds an entry with an auto-generated ID, trimming the stream
	// to roughly maxLen entries when maxLen > 0.
	Append(ctx context.Context, stream string, fields map[string]string, maxLen int64) (id.ID, error)
	// LastID returns the ID of the newest entry ever appended, or id.Zero.
	LastID(ctx context.Context, stream string) (id.ID, error)
	// Read returns up to count entries with ID strictly greater than after.
	// after may be id.Latest.
	Read(ctx context.Context, stream, after string, block time.Duration, count int) ([]Entry, error)
	// ReadGroup delivers never-delivered entries to consumer and records them
	// as pending.
	ReadGroup(ctx context.Context, stream, group, consumer string, block time.Duration, count int) ([]Entry, error)
	// Ack removes ids from the group's pending set and reports how many
	// were removed.
	Ack(ctx context.Context, stream, group string, ids ...id.ID) (int64, error)
	// AutoClaim transfers entries idle for at least minIdle to consumer,
	// scanning the pending set from start. It returns the claimed entries
	// and the cursor for the next scan.
	AutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, start string, count int) ([]Entry, string, error)
	// CreateGroup creates a group positioned at start, creating the stream
	// if needed. It returns ErrBusyGroup when the group exists.
	CreateGroup(ctx context.Context, stream, group, start string) error
	// Pending lists up to count pending entries of the group in ID order.
	Pending(ctx context.Context, stream, group string, count int) ([]PendingEntry, error)
	Ping(ctx context.Context) error
	// IsOpen reports whether the underlying connection is usable.
	IsOpen() bool
	// Connect re-establishes a closed connection.
	Connect(ctx context.Context) error
	Close() error
}

// IDs returns the IDs of entries in order.
func IDs(entries []Entry) []id.ID {
	out := make([]id.ID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
