package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	streamsvc "github.com/rzbill/streamer/internal/services/streams"
	"github.com/rzbill/streamer/internal/store"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeCreated writes a 201 Created response with a JSON body.
func writeCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service and store errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, streamsvc.ErrBadCount),
		errors.Is(err, streamsvc.ErrMissingGroup),
		errors.Is(err, streamsvc.ErrBadFilter),
		errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "no new entries before timeout")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	case errors.Is(err, store.ErrNoGroup):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrClientClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseLimit parses a positive integer, falling back to def for empty or
// invalid values.
func parseLimit(limitStr string, def int) int {
	if limitStr == "" {
		return def
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return def
}

// withTimeout bounds ctx by the timeout_ms query parameter when present.
func withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	ms := parseLimit(r.URL.Query().Get("timeout_ms"), 0)
	if ms == 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), time.Duration(ms)*time.Millisecond)
}
