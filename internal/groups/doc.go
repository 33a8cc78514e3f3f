// Package groups implements consumer groups for the embedded backend: group
// metadata with a last-delivered ID, a pending entries list (PEL) per group,
// delivery of new entries, acknowledgment, idle-entry auto-claim and pending
// inspection. State is stored in Pebble next to the stream it coordinates.
//
//	m := groups.NewManager(db, streamLog)
//	_ = m.Create(ctx, "g", id.Zero)
//	items, _ := m.ReadNew(ctx, "g", "c1", 10)
//	_, _ = m.Ack(ctx, "g", items[0].ID)
//	claimed, next, _ := m.AutoClaim(ctx, "g", "c2", 5*time.Second, id.Zero, 10)
package groups
