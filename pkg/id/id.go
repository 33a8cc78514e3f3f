package id

import (
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sentinels understood by stream reads in place of a concrete ID.
const (
	// Latest resolves to the newest entry at the time the read starts.
	Latest = "$"
	// Undelivered asks a consumer group for entries never delivered to any member.
	Undelivered = ">"
	// Beginning is the position before the first possible entry.
	Beginning = "0-0"
)

// ErrInvalid is returned when a string is not a valid entry ID.
var ErrInvalid = errors.New("id: invalid entry id")

// ID identifies a stream entry as milliseconds since the Unix epoch plus a
// sequence within that millisecond. The textual form is "<ms>-<seq>".
type ID struct {
	Ms  uint64
	Seq uint64
}

// Zero is the smallest ID ("0-0").
var Zero = ID{}

// String renders the ID as "<ms>-<seq>".
func (i ID) String() string {
	return strconv.FormatUint(i.Ms, 10) + "-" + strconv.FormatUint(i.Seq, 10)
}

// IsZero reports whether i is "0-0".
func (i ID) IsZero() bool { return i.Ms == 0 && i.Seq == 0 }

// Compare returns -1, 0, 1 based on (Ms, Seq) ordering.
func (i ID) Compare(other ID) int {
	switch {
	case i.Ms < other.Ms:
		return -1
	case i.Ms > other.Ms:
		return 1
	case i.Seq < other.Seq:
		return -1
	case i.Seq > other.Seq:
		return 1
	}
	return 0
}

// Successor returns the smallest ID strictly greater than i.
func (i ID) Successor() ID {
	if i.Seq == math.MaxUint64 {
		return ID{Ms: i.Ms + 1}
	}
	return ID{Ms: i.Ms, Seq: i.Seq + 1}
}

// Bytes returns the 16-byte big-endian form [ms][seq]; byte order matches ID order.
func (i ID) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], i.Ms)
	binary.BigEndian.PutUint64(b[8:16], i.Seq)
	return b
}

// FromBytes decodes the form produced by Bytes.
func FromBytes(b []byte) (ID, error) {
	if len(b) != 16 {
		return ID{}, ErrInvalid
	}
	return ID{Ms: binary.BigEndian.Uint64(b[0:8]), Seq: binary.BigEndian.Uint64(b[8:16])}, nil
}

// Parse accepts "<ms>-<seq>" or a bare "<ms>" (sequence 0).
func Parse(s string) (ID, error) {
	msPart, seqPart, hasSeq := strings.Cut(s, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return ID{}, ErrInvalid
	}
	if !hasSeq {
		return ID{Ms: ms}, nil
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return ID{}, ErrInvalid
	}
	return ID{Ms: ms, Seq: seq}, nil
}

// MustParse is Parse for constants in tests and examples; it panics on bad input.
func MustParse(s string) ID {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

// Generator produces strictly increasing IDs for one stream.
type Generator struct {
	mu       sync.Mutex
	lastMs   uint64
	sequence uint64
}

// NewGenerator creates a Generator with no history.
func NewGenerator() *Generator { return &Generator{} }

// NewGeneratorAfter creates a Generator whose first ID is greater than last.
func NewGeneratorAfter(last ID) *Generator {
	return &Generator{lastMs: last.Ms, sequence: last.Seq}
}

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns a new ID. If the clock goes backwards it stays on the last
// millisecond and increments the sequence. If the sequence would overflow it
// waits for the next millisecond.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := uint64(NowMs())
	if ms < g.lastMs {
		ms = g.lastMs
	}

	if ms == g.lastMs {
		if g.sequence == math.MaxUint64 {
			for {
				ms = uint64(NowMs())
				if ms > g.lastMs {
					break
				}
				time.Sleep(time.Millisecond / 8)
			}
			g.sequence = 0
		} else {
			g.sequence++
		}
	} else {
		g.sequence = 0
	}

	g.lastMs = ms
	return ID{Ms: ms, Seq: g.sequence}
}
