package eventlog

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/rzbill/streamer/pkg/id"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - s/{stream}\x00m                  stream metadata: last ID, length
// - s/{stream}\x00e/{ms_be8}{seq_be8} entries
//
// The NUL terminator keeps one stream's keys from prefixing another's, so
// stream names may contain '/' but not NUL.

const streamTerm = byte(0)

var (
	streamPrefix = []byte("s/")
	metaSuffix   = []byte("m")
	entrySeg     = []byte("e/")
)

// ErrBadStreamName is returned for empty names or names containing NUL.
var ErrBadStreamName = errors.New("eventlog: invalid stream name")

// ValidateStreamName checks that name can be used in the keyspace.
func ValidateStreamName(name string) error {
	if name == "" || strings.IndexByte(name, streamTerm) >= 0 {
		return ErrBadStreamName
	}
	return nil
}

// KeyStreamPrefix is the prefix shared by every key of a stream, including
// keys owned by other packages such as consumer groups.
func KeyStreamPrefix(stream string) []byte {
	k := make([]byte, 0, len(streamPrefix)+len(stream)+1)
	k = append(k, streamPrefix...)
	k = append(k, stream...)
	k = append(k, streamTerm)
	return k
}

// KeyStreamMeta builds the stream metadata key.
func KeyStreamMeta(stream string) []byte {
	return append(KeyStreamPrefix(stream), metaSuffix...)
}

// KeyEntryPrefix is the prefix of all entry keys of a stream.
func KeyEntryPrefix(stream string) []byte {
	return append(KeyStreamPrefix(stream), entrySeg...)
}

// KeyEntry builds an entry key; big-endian ID bytes keep keys in ID order.
func KeyEntry(stream string, entryID id.ID) []byte {
	k := KeyEntryPrefix(stream)
	return append(k, entryID.Bytes()...)
}

// entryIDFromKey extracts the ID from the trailing 16 bytes of an entry key.
func entryIDFromKey(k []byte) (id.ID, error) {
	if len(k) < 16 {
		return id.ID{}, id.ErrInvalid
	}
	return id.FromBytes(k[len(k)-16:])
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}
