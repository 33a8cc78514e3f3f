package client

import (
	"encoding/json"
	"io"
	"os"

	transports "github.com/rzbill/streamer/internal/cmd/client/transports"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// DefaultBaseURL returns STREAMER_HTTP or http://127.0.0.1:3000.
func DefaultBaseURL() string {
	if v := os.Getenv("STREAMER_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:3000"
}

// newTransport is replaced in tests.
var newTransport = func(baseURL BaseURLFunc) transports.StreamsTransport {
	return transports.NewHTTPTransport(baseURL)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
