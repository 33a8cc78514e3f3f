// Package httpserver is the REST gateway for the streamer service: example
// pull endpoints, consumer group consumption, appends, pending inspection
// and an SSE tail, routed with chi.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":3000")
package httpserver
