// Package runtime wires configuration, the store backend (Redis or embedded
// Pebble) and the log client into a single process. It exposes Open/Close,
// a store health check and the iterator options derived from config.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: config.Default(), Logger: logger})
//	defer rt.Close()
//	_ = rt.CheckHealth(ctx)
//	cur := consume.NewCursor(ctx, rt.Client(), rt.Stream(), rt.ConsumeOptions(nil)...)
package runtime
