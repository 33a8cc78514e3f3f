package controllers

// appendReq is the body of POST /v1/streams/append.
type appendReq struct {
	Fields map[string]any `json:"fields"`
}

// appendResp is returned after a successful append.
type appendResp struct {
	ID     string `json:"id"`
	Stream string `json:"stream"`
}

// createGroupReq is the body of POST /v1/groups.
type createGroupReq struct {
	Group string `json:"group"`
	// Start is an entry ID, "$" (default) or "0".
	Start string `json:"start"`
}

// pingResp is returned by the ping endpoints.
type pingResp struct {
	Reply     string  `json:"reply"`
	LatencyMs float64 `json:"latency_ms"`
}
