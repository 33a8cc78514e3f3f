package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/streamer/internal/runtime"
	streamsvc "github.com/rzbill/streamer/internal/services/streams"
)

const indexHTML = `<!DOCTYPE html>
<html>
  <body>
    <p>To see examples use:</p>
    <ul>
      <li><a href="/message">/message</a> for a single message</li>
      <li><a href="/messages">/messages</a> to fetch 3 messages</li>
      <li><a href="/consume/message">/consume/message</a> to consume as a group member</li>
    </ul>
  </body>
</html>
`

// GeneralController handles the index page, ping and health endpoints.
type GeneralController struct {
	rt  *runtime.Runtime
	svc *streamsvc.Service
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime, svc *streamsvc.Service) *GeneralController {
	return &GeneralController{rt: rt, svc: svc}
}

// RegisterRoutes registers general routes with the given router.
func (c *GeneralController) RegisterRoutes(r chi.Router) {
	r.Get("/", c.handleIndex)
	r.Get("/redis-ping", c.handlePing)
	r.Get("/v1/ping", c.handlePing)
	r.Get("/v1/healthz", c.handleHealth)
}

func (c *GeneralController) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// handlePing round-trips to the store and reports the latency.
func (c *GeneralController) handlePing(w http.ResponseWriter, r *http.Request) {
	d, err := c.svc.Ping(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, pingResp{Reply: "PONG", LatencyMs: float64(d.Microseconds()) / 1000})
}

// handleHealth returns 200 with {"status":"ok"} when the store answers,
// 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
