package logclient

import (
	"context"
	"errors"

	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/log"
)

// handleFailure is the connection supervisor. On a closed-client failure it
// reconnects once, and only when the backend reports itself closed; an open
// backend is left to the driver's own reconnect handling. The failed call is
// never retried here.
func (c *Client) handleFailure(ctx context.Context, logger log.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrClientClosed):
		if c.backend.IsOpen() {
			logger.Warn("client closed; deferring to driver reconnect", log.Err(err))
			return
		}
		logger.Warn("client closed; reconnecting", log.Err(err))
		if cerr := c.backend.Connect(ctx); cerr != nil {
			logger.Error("reconnect failed", log.Err(cerr))
			return
		}
		c.reconnects.Add(1)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug("call interrupted", log.Err(err))
	default:
		logger.Error("store call failed", log.Err(err))
	}
}

// Reconnects returns how many times the supervisor re-established the connection.
func (c *Client) Reconnects() int64 { return c.reconnects.Load() }
