package logclient

import (
	"github.com/rzbill/streamer/internal/store"
	"github.com/rzbill/streamer/pkg/id"
)

// Status classifies the outcome of a log client read.
type Status int

const (
	// StatusEmpty means the call succeeded and there was nothing to return.
	StatusEmpty Status = iota
	// StatusOK means the call returned at least one entry.
	StatusOK
	// StatusRetryable means the call failed; Reason says why. The caller is
	// expected to try again on its next loop iteration.
	StatusRetryable
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusOK:
		return "ok"
	case StatusRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// Result is what every log client read returns instead of an error.
type Result struct {
	Status  Status
	Entries []store.Entry
	Reason  error
}

// OK wraps entries; an empty slice yields an Empty result.
func OK(entries []store.Entry) Result {
	if len(entries) == 0 {
		return Empty()
	}
	return Result{Status: StatusOK, Entries: entries}
}

// Empty is a successful call with nothing to return.
func Empty() Result { return Result{Status: StatusEmpty} }

// Retryable records a failed call.
func Retryable(reason error) Result { return Result{Status: StatusRetryable, Reason: reason} }

// IDs returns the IDs of the result's entries.
func (r Result) IDs() []id.ID { return store.IDs(r.Entries) }

// Failed reports whether the call failed.
func (r Result) Failed() bool { return r.Status == StatusRetryable }
