package eventlog

import (
	"bytes"
	"testing"

	"github.com/rzbill/streamer/pkg/id"
)

func TestEntryKeysSortByID(t *testing.T) {
	a := KeyEntry("s", id.ID{Ms: 1, Seq: 9})
	b := KeyEntry("s", id.ID{Ms: 2, Seq: 0})
	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("expected a < b")
	}
	got, err := entryIDFromKey(b)
	if err != nil || got != (id.ID{Ms: 2}) {
		t.Fatalf("round trip: %v %v", got, err)
	}
}

func TestStreamPrefixesDoNotOverlap(t *testing.T) {
	// "a" must not be a key prefix of stream "a/e".
	if bytes.HasPrefix(KeyEntryPrefix("a/e"), KeyStreamPrefix("a")) {
		t.Fatalf("stream prefixes overlap")
	}
}

func TestRecordChecksum(t *testing.T) {
	rec, err := encodeFields(map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	fields, err := decodeFields(rec)
	if err != nil || fields["k"] != "v" {
		t.Fatalf("decode: %v %v", fields, err)
	}
	rec[2] ^= 0xff
	if _, err := decodeFields(rec); err != ErrCorruptRecord {
		t.Fatalf("want ErrCorruptRecord, got %v", err)
	}
}
