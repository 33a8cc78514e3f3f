package transports

import (
	"context"
	"time"
)

// Message is one entry with parsed fields, as served by the streamer API.
type Message struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"message"`
}

// GroupBatch is the result of consuming as a group member.
type GroupBatch struct {
	Group    string    `json:"group"`
	Consumer string    `json:"consumer"`
	Messages []Message `json:"messages"`
}

// PendingItem is one unacknowledged entry of a group.
type PendingItem struct {
	ID         string `json:"id"`
	Consumer   string `json:"consumer"`
	IdleMs     int64  `json:"idle_ms"`
	Deliveries int64  `json:"deliveries"`
}

// PingResult is the reply of the ping endpoint.
type PingResult struct {
	Reply     string  `json:"reply"`
	LatencyMs float64 `json:"latency_ms"`
}

// TailRequest describes a tail streaming request.
type TailRequest struct {
	Filter string
	Limit  int
}

// StreamsTransport abstracts the transport used by the CLI.
type StreamsTransport interface {
	Ping(ctx context.Context) (PingResult, error)
	Append(ctx context.Context, fields map[string]any) (id string, err error)
	// GetMany waits up to timeout (0 = no limit) for count new entries.
	GetMany(ctx context.Context, count int, filter string, timeout time.Duration) ([]map[string]any, error)
	Consume(ctx context.Context, group, consumer string, count int, timeout time.Duration) (GroupBatch, error)
	CreateGroup(ctx context.Context, group, start string) error
	Pending(ctx context.Context, group string, count int) ([]PendingItem, error)
	Tail(ctx context.Context, req TailRequest, onMessage func(Message) error) error
}
