// Package store defines the stream backend contract shared by the Redis and
// embedded implementations, together with the entry types and the error
// taxonomy the log client maps onto retry decisions.
package store
