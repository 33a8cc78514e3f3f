// Package consume turns the log client's read primitives into pull-based
// iterators.
//
// A Cursor follows a stream from the moment it is created. A Group competes
// with other consumers of a consumer group, alternating between new entries
// and entries reclaimed from idle members:
//
//	g := consume.NewGroup(client, "orders", "billing", "worker-1",
//	    consume.WithMinIdle(5*time.Second))
//	defer g.Stop()
//	for e, err := range consume.Seq(ctx, g) {
//	    if err != nil {
//	        break
//	    }
//	    handle(e)
//	}
//
// Both iterators fetch only when their local batch is empty, check ctx
// before and after each blocking call, and treat Stop as final. Failed calls
// are retried on the next loop iteration, forever unless WithMaxRetries sets
// a ceiling.
package consume
