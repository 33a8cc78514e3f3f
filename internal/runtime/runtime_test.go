package runtime

import (
	"context"
	"errors"
	"testing"

	cfgpkg "github.com/rzbill/streamer/internal/config"
	"github.com/rzbill/streamer/internal/store"
)

func embeddedConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.Backend = cfgpkg.BackendEmbedded
	cfg.Embedded.DataDir = t.TempDir()
	cfg.Embedded.Fsync = "always"
	return cfg
}

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(context.Background(), Options{Config: embeddedConfig(t)})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// The supervisor reconnects a closed embedded backend on the next ping.
	if err := rt.CheckHealth(context.Background()); !errors.Is(err, store.ErrClientClosed) {
		t.Fatalf("want ErrClientClosed, got %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health after reconnect: %v", err)
	}
	_ = rt.Close()
}

func TestAppendThroughClient(t *testing.T) {
	rt, err := Open(context.Background(), Options{Config: embeddedConfig(t)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	if rt.Stream() != "example-stream" {
		t.Fatalf("stream: %s", rt.Stream())
	}
	if _, err := rt.Client().Append(context.Background(), rt.Stream(), map[string]string{"k": "v"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if n := len(rt.ConsumeOptions(nil)); n != 5 {
		t.Fatalf("expected 5 consume options, got %d", n)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Backend = "nope"
	if _, err := Open(context.Background(), Options{Config: cfg}); !errors.Is(err, cfgpkg.ErrUnknownBackend) {
		t.Fatalf("want ErrUnknownBackend, got %v", err)
	}
	cfg = embeddedConfig(t)
	cfg.Embedded.Fsync = "sometimes"
	if _, err := Open(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatalf("expected fsync parse error")
	}
}
