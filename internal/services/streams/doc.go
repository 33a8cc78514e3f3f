// Package streamsvc exposes one configured stream to transports: single and
// batched pulls of new entries (optionally filtered with CEL), consumer
// group consumption with auto-ack, appends, pending inspection and a
// continuous tail.
//
// Example:
//
//	svc := streamsvc.New(rt)
//	_, _ = svc.Append(ctx, map[string]any{"hello": "world"})
//	msg, _ := svc.GetOne(ctx)
//	batch, _ := svc.ConsumeAsGroup(ctx, "workers", "c1", 10)
package streamsvc
