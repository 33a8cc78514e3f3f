// Package serverrun exposes the Run entrypoint used by the CLI to start the
// streamer runtime, the HTTP gateway and the demo producer and reader, and to
// shut them down in order.
//
// Example:
//
//	cfg := config.Default()
//	config.FromEnv(&cfg)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
