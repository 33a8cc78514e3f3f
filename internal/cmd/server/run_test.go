package serverrun

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/streamer/internal/config"
	logpkg "github.com/rzbill/streamer/pkg/log"
)

func testConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.Backend = cfgpkg.BackendEmbedded
	cfg.Embedded.DataDir = t.TempDir()
	cfg.Embedded.Fsync = "never"
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Demo.IntervalMs = 10
	cfg.Log.Level = "error"
	return cfg
}

func TestRunServesAndShutsDown(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{Config: cfg, OnListening: func(addr string) { addrCh <- addr }})
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not start")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status: %d", resp.StatusCode)
	}

	// The demo producer feeds /message.
	resp, err = client.Get("http://" + addr + "/message?timeout_ms=3000")
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	var msg map[string]any
	err = json.NewDecoder(resp.Body).Decode(&msg)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg["hello"] != "world" {
		t.Fatalf("unexpected demo message: %v", msg)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not shut down")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stream.Name = ""
	err := Run(context.Background(), Options{Config: cfg, Logger: logpkg.NewNopLogger()})
	if !errors.Is(err, cfgpkg.ErrMissingStream) {
		t.Fatalf("want ErrMissingStream, got %v", err)
	}
}

func TestRunFailsOnBusyAddress(t *testing.T) {
	first := testConfig(t)
	first.Demo.Enabled = false
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addrCh := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{Config: first, Logger: logpkg.NewNopLogger(), OnListening: func(a string) { addrCh <- a }})
	}()
	addr := <-addrCh

	second := testConfig(t)
	second.HTTP.Addr = addr
	if err := Run(context.Background(), Options{Config: second, Logger: logpkg.NewNopLogger()}); err == nil {
		t.Fatalf("expected listen error on %s", addr)
	}
	cancel()
	<-done
}

func TestBuildLoggerFallsBack(t *testing.T) {
	if l := buildLogger(cfgpkg.LogConfig{Level: "loud", Format: "text"}); l == nil {
		t.Fatalf("expected fallback logger")
	}
}
