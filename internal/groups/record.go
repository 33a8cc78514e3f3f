package groups

import (
	"encoding/json"
	"fmt"

	"github.com/rzbill/streamer/pkg/id"
)

// groupMeta is the persisted state of a consumer group.
type groupMeta struct {
	LastDelivered string `json:"last_delivered"`
	CreatedMs     int64  `json:"created_ms"`
}

// pendingRecord is one entry of a group's pending entries list (PEL).
type pendingRecord struct {
	Consumer    string `json:"consumer"`
	DeliveredMs int64  `json:"delivered_ms"`
	Deliveries  int64  `json:"deliveries"`
}

func encodeMeta(m groupMeta) ([]byte, error) {
	return json.Marshal(m)
}

func decodeMeta(b []byte) (groupMeta, id.ID, error) {
	var m groupMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return m, id.ID{}, fmt.Errorf("groups: unmarshal meta: %w", err)
	}
	last, err := id.Parse(m.LastDelivered)
	if err != nil {
		return m, id.ID{}, fmt.Errorf("groups: meta last_delivered: %w", err)
	}
	return m, last, nil
}

func encodePending(r pendingRecord) ([]byte, error) {
	return json.Marshal(r)
}

func decodePending(b []byte) (pendingRecord, error) {
	var r pendingRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("groups: unmarshal pending: %w", err)
	}
	return r, nil
}
