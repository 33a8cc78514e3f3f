// Package embedded is a store.Backend over a local Pebble database. It
// gives single-node deployments and tests the same stream semantics as the
// Redis backend: auto-generated IDs, approximate MAXLEN trimming, blocking
// reads, consumer groups with a pending list, and idle-entry auto-claim.
package embedded
