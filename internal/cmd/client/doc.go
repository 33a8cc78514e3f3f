// Package client provides the `streamer` command-line client.
//
// The CLI talks to the streamer HTTP API to append, pull and tail entries
// and to consume as a consumer group member from a terminal.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. The standalone binary reads STREAMER_HTTP and
// defaults to http://127.0.0.1:3000.
//
// Usage
//
//	streamer ping
//	streamer stream append --data '{"hello":"world","n":42}'
//	streamer stream get --count 3 --filter 'fields.n > 10.0'
//	streamer stream tail --limit 5
//	streamer group create --group workers --start 0
//	streamer group consume --group workers --consumer c1 --count 10
//	streamer group pending --group workers
package client
