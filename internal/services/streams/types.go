package streamsvc

import (
	"errors"

	"github.com/rzbill/streamer/internal/store"
)

var (
	// ErrBadCount is returned for a non-positive count.
	ErrBadCount = errors.New("streams: count must be positive")
	// ErrMissingGroup is returned when a group or consumer name is empty.
	ErrMissingGroup = errors.New("streams: group and consumer are required")
	// ErrBadFilter is returned when a filter expression does not compile.
	ErrBadFilter = errors.New("streams: invalid filter")
)

// Message is one entry with its fields parsed back into typed values.
type Message struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"message"`
}

// GroupBatch is the result of ConsumeAsGroup.
type GroupBatch struct {
	Group    string    `json:"group"`
	Consumer string    `json:"consumer"`
	Messages []Message `json:"messages"`
}

// PendingItem describes one entry in a group's pending set.
type PendingItem struct {
	ID         string `json:"id"`
	Consumer   string `json:"consumer"`
	IdleMs     int64  `json:"idle_ms"`
	Deliveries int64  `json:"deliveries"`
}

// TailOptions controls Tail.
type TailOptions struct {
	// Filter is an optional CEL expression over id, ts_ms, seq, fields and now_ms.
	Filter string
	// Limit stops the tail after that many messages. Zero means no limit.
	Limit int
}

// Sink receives messages from Tail. A non-nil error ends the tail.
type Sink func(Message) error

func pendingItem(p store.PendingEntry) PendingItem {
	return PendingItem{
		ID:         p.ID.String(),
		Consumer:   p.Consumer,
		IdleMs:     p.Idle.Milliseconds(),
		Deliveries: p.Deliveries,
	}
}
