package groups

import (
	"github.com/rzbill/streamer/internal/eventlog"
	"github.com/rzbill/streamer/pkg/id"
)

// Keyspace helpers for consumer groups. Group keys live under the stream
// prefix so they sort next to the stream they coordinate:
// - s/{stream}\x00g/{group}\x00m        group metadata (JSON)
// - s/{stream}\x00g/{group}\x00p/{id16} pending entry (JSON)

const groupTerm = byte(0)

var (
	groupSeg   = []byte("g/")
	metaSuffix = []byte("m")
	pelSeg     = []byte("p/")
)

func keyGroupPrefix(stream, group string) []byte {
	k := eventlog.KeyStreamPrefix(stream)
	k = append(k, groupSeg...)
	k = append(k, group...)
	return append(k, groupTerm)
}

// KeyGroupMeta builds the group metadata key.
func KeyGroupMeta(stream, group string) []byte {
	return append(keyGroupPrefix(stream, group), metaSuffix...)
}

// KeyPendingPrefix is the prefix of all pending entries of a group.
func KeyPendingPrefix(stream, group string) []byte {
	return append(keyGroupPrefix(stream, group), pelSeg...)
}

// KeyPending builds the pending-entry key for one delivered entry.
func KeyPending(stream, group string, entryID id.ID) []byte {
	return append(KeyPendingPrefix(stream, group), entryID.Bytes()...)
}

func pendingIDFromKey(k []byte) (id.ID, error) {
	if len(k) < 16 {
		return id.ID{}, id.ErrInvalid
	}
	return id.FromBytes(k[len(k)-16:])
}
