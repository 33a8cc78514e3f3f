// Package logclient wraps a store.Backend with the failure policy the
// iterators rely on.
//
// Reads, claims and acknowledgments return a Result instead of an error:
// StatusOK with entries, StatusEmpty when there was nothing new, or
// StatusRetryable with the reason. A closed connection triggers at most one
// reconnect, a missing group is created lazily, and an existing group is
// treated as success. Append and Ping return errors to their caller.
package logclient
