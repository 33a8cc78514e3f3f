// Package id implements stream entry IDs.
//
// # Format
//
// An ID is a pair (milliseconds since epoch, sequence) written "<ms>-<seq>",
// e.g. "1526919030474-55". Ordering is by milliseconds, then sequence. The
// 16-byte big-endian encoding returned by Bytes sorts the same way, so it can
// be used directly in ordered key-value keys.
//
// # Sentinels
//
// Reads accept a few positions that are not IDs: Latest ("$"), Undelivered
// (">") and Beginning ("0-0").
//
// # Monotonicity
//
// The Generator guarantees strictly increasing IDs within a process:
//   - if the clock regresses it pins to the last millisecond and bumps the
//     sequence;
//   - if the sequence would overflow it waits for the next millisecond.
//
// Usage
//
//	g := id.NewGeneratorAfter(lastStored)
//	next := g.Next()
//	s := next.String() // "1700000000000-0"
package id
