package eventlog

import (
	"context"
	"time"
)

// AppendSignal returns a channel closed by the next append. Take the signal
// before reading so an append racing with the read is not missed.
func (l *Log) AppendSignal() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notifyCh
}

// WaitForAppend blocks until a new append occurs, ctx is done or timeout
// elapses. A timeout <= 0 waits without a deadline. It returns true if woken
// by an append.
func (l *Log) WaitForAppend(ctx context.Context, timeout time.Duration) bool {
	return WaitSignal(ctx, l.AppendSignal(), timeout)
}

// WaitSignal waits on ch with the same rules as WaitForAppend.
func WaitSignal(ctx context.Context, ch <-chan struct{}, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-ch:
			return true
		case <-ctx.Done():
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}
