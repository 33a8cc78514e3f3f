package controllers

import (
	"encoding/json"
	"net/http"

	streamsvc "github.com/rzbill/streamer/internal/services/streams"
)

// sseSink writes tailed messages as Server-Sent Events.
type sseSink struct {
	w http.ResponseWriter
}

// Send writes one message as an SSE event with its entry ID and flushes.
func (s sseSink) Send(m streamsvc.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("id: " + m.ID + "\ndata: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
