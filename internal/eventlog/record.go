package eventlog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
)

// Record encoding: version(1B) | payload | crc32c(payload)
// The payload of an entry record is the JSON object of its string fields.

const recordVersion = byte(1)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ErrCorruptRecord is returned when a stored record fails its checksum.
var ErrCorruptRecord = errors.New("eventlog: corrupt record")

func EncodeRecord(payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload)+4)
	out = append(out, recordVersion)
	out = append(out, payload...)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc32.Checksum(payload, castagnoli))
	return append(out, crcb[:]...)
}

func DecodeRecord(b []byte) ([]byte, bool) {
	if len(b) < 1+4 || b[0] != recordVersion {
		return nil, false
	}
	payload := b[1 : len(b)-4]
	if crc32.Checksum(payload, castagnoli) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return nil, false
	}
	return append([]byte(nil), payload...), true
}

func encodeFields(fields map[string]string) ([]byte, error) {
	if fields == nil {
		fields = map[string]string{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return EncodeRecord(payload), nil
}

func decodeFields(b []byte) (map[string]string, error) {
	payload, ok := DecodeRecord(b)
	if !ok {
		return nil, ErrCorruptRecord
	}
	fields := map[string]string{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, ErrCorruptRecord
	}
	return fields, nil
}
