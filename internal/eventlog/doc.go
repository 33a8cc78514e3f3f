// Package eventlog implements the embedded backend's append-only stream log.
//
// # Overview
//
// Each stream is persisted in Pebble under byte-sortable keys:
//   - s/{stream}\x00m                   (metadata: last ID, length)
//   - s/{stream}\x00e/{ms_be8}{seq_be8} (entries)
//
// Records are stored as: version(1B) | JSON fields | crc32c(JSON fields).
//
// API surface (internal)
//
//	l, _ := OpenLog(db, "orders")
//	entryID, _ := l.Append(ctx, map[string]string{"k": "v"}, 100)
//
//	// Entries strictly after an ID, oldest first
//	items, _ := l.ReadAfter(id.Zero, 10)
//
//	// Blocking wait/notify
//	woke := l.WaitForAppend(ctx, 200*time.Millisecond)
//
//	// Exact or approximate MAXLEN retention
//	_, _ = l.TrimToMaxLen(ctx, 100, true)
//
// IDs come from an id.Generator seeded with the persisted last ID, so they
// stay strictly increasing across restarts and trims.
package eventlog
