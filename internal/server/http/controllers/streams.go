package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	streamsvc "github.com/rzbill/streamer/internal/services/streams"
	"github.com/rzbill/streamer/pkg/log"
)

const (
	defaultManyCount    = 3
	defaultGroup        = "example-group"
	defaultPendingCount = 100
	maxFilterLen        = 2048
)

// StreamsController handles the message, group and tail endpoints of the
// configured stream.
type StreamsController struct {
	st     *streamsvc.Service
	logger log.Logger
}

// NewStreamsController creates a new streams controller.
func NewStreamsController(svc *streamsvc.Service, logger log.Logger) *StreamsController {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &StreamsController{st: svc, logger: logger.WithComponent("http.streams")}
}

// RegisterRoutes registers stream routes with the given router.
func (c *StreamsController) RegisterRoutes(r chi.Router) {
	// Pull endpoints. Each request opens its own cursor at the stream tail.
	r.Get("/message", c.handleGetOne)
	r.Get("/messages", c.handleGetMany)
	r.Get("/consume/message", c.handleConsume)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/streams/append", c.handleAppend)
		r.Get("/streams/tail", c.handleTailSSE)
		r.Post("/groups", c.handleCreateGroup)
		r.Get("/groups/{group}/pending", c.handlePending)
	})
}

// handleGetOne waits for the next new entry and returns its parsed fields.
// Query params: timeout_ms
func (c *StreamsController) handleGetOne(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()
	m, err := c.st.GetOne(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, m.Fields)
}

// handleGetMany waits for count new entries (default 3) and returns their
// parsed fields. Query params: count, filter, timeout_ms
func (c *StreamsController) handleGetMany(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := q.Get("filter")
	if len(filter) > maxFilterLen {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()
	msgs, err := c.st.GetMany(ctx, parseLimit(q.Get("count"), defaultManyCount), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Fields)
	}
	writeJSON(w, out)
}

// handleConsume pulls entries as a consumer group member.
// Query params: group, consumer, count, timeout_ms
func (c *StreamsController) handleConsume(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	group := q.Get("group")
	if group == "" {
		group = defaultGroup
	}
	consumer := q.Get("consumer")
	if consumer == "" {
		consumer = "consumer-" + uuid.NewString()
	}
	ctx, cancel := withTimeout(r)
	defer cancel()
	batch, err := c.st.ConsumeAsGroup(ctx, group, consumer, parseLimit(q.Get("count"), 1))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, batch)
}

// handleAppend appends the request fields as one entry.
func (c *StreamsController) handleAppend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req appendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entryID, err := c.st.Append(r.Context(), req.Fields)
	if err != nil {
		c.logger.Error("append failed", log.Err(err))
		writeServiceError(w, err)
		return
	}
	c.logger.Debug("http.append", log.Str("id", entryID.String()), log.Int64("dur_ms", time.Since(start).Milliseconds()))
	writeCreated(w, appendResp{ID: entryID.String(), Stream: c.st.Stream()})
}

// handleCreateGroup creates a consumer group; an existing group is kept.
func (c *StreamsController) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.st.CreateGroup(r.Context(), req.Group, req.Start); err != nil {
		writeServiceError(w, err)
		return
	}
	writeCreated(w, map[string]string{"group": req.Group, "stream": c.st.Stream()})
}

// handlePending lists a group's unacknowledged entries. Query params: count
func (c *StreamsController) handlePending(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	items, err := c.st.Pending(r.Context(), group, parseLimit(r.URL.Query().Get("count"), defaultPendingCount))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"group": group, "pending": items})
}

// handleTailSSE streams new entries over SSE until the client disconnects.
// Query params: filter, limit
func (c *StreamsController) handleTailSSE(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := strings.TrimSpace(q.Get("filter"))
	if len(filter) > maxFilterLen {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}
	opts := streamsvc.TailOptions{Filter: filter, Limit: parseLimit(q.Get("limit"), 0)}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sink := sseSink{w: w}
	if err := c.st.Tail(r.Context(), opts, sink.Send); err != nil {
		// Bad filters fail before anything is written.
		writeServiceError(w, err)
		return
	}
}
