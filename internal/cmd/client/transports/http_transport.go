package transports

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPTransport implements StreamsTransport against the streamer HTTP API.
type HTTPTransport struct {
	baseURL func() string
	client  *http.Client
}

// NewHTTPTransport creates a transport. Requests carry no client-side
// timeout; pulls are bounded by ctx and the server-side timeout_ms.
func NewHTTPTransport(baseURL func() string) *HTTPTransport {
	return &HTTPTransport{baseURL: baseURL, client: &http.Client{}}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (t *HTTPTransport) Ping(ctx context.Context) (PingResult, error) {
	var out PingResult
	err := t.do(ctx, http.MethodGet, "/v1/ping", nil, nil, &out)
	return out, err
}

func (t *HTTPTransport) Append(ctx context.Context, fields map[string]any) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := t.do(ctx, http.MethodPost, "/v1/streams/append", nil, map[string]any{"fields": fields}, &out)
	return out.ID, err
}

func (t *HTTPTransport) GetMany(ctx context.Context, count int, filter string, timeout time.Duration) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	if filter != "" {
		q.Set("filter", filter)
	}
	setTimeout(q, timeout)
	var out []map[string]any
	err := t.do(ctx, http.MethodGet, "/messages", q, nil, &out)
	return out, err
}

func (t *HTTPTransport) Consume(ctx context.Context, group, consumer string, count int, timeout time.Duration) (GroupBatch, error) {
	q := url.Values{}
	q.Set("group", group)
	q.Set("consumer", consumer)
	q.Set("count", strconv.Itoa(count))
	setTimeout(q, timeout)
	var out GroupBatch
	err := t.do(ctx, http.MethodGet, "/consume/message", q, nil, &out)
	return out, err
}

func (t *HTTPTransport) CreateGroup(ctx context.Context, group, start string) error {
	return t.do(ctx, http.MethodPost, "/v1/groups", nil, map[string]string{"group": group, "start": start}, nil)
}

func (t *HTTPTransport) Pending(ctx context.Context, group string, count int) ([]PendingItem, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	var out struct {
		Pending []PendingItem `json:"pending"`
	}
	err := t.do(ctx, http.MethodGet, "/v1/groups/"+url.PathEscape(group)+"/pending", q, nil, &out)
	return out.Pending, err
}

// Tail reads the SSE tail and calls onMessage per event until the server
// closes the stream, ctx ends or onMessage fails.
func (t *HTTPTransport) Tail(ctx context.Context, req TailRequest, onMessage func(Message) error) error {
	q := url.Values{}
	if req.Filter != "" {
		q.Set("filter", req.Filter)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	resp, err := t.send(ctx, http.MethodGet, "/v1/streams/tail", q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var m Message
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := onMessage(m); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	resp, err := t.send(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (t *HTTPTransport) send(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	u := strings.TrimRight(t.baseURL(), "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	return resp, nil
}

func setTimeout(q url.Values, timeout time.Duration) {
	if timeout > 0 {
		q.Set("timeout_ms", strconv.FormatInt(timeout.Milliseconds(), 10))
	}
}
