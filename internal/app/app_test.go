package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dujiao-next/checkout/internal/config"
)

type stubService struct {
	name     string
	startErr error
	stopErr  error

	mu      sync.Mutex
	stopped bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *stubService) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return s.stopErr
}

func (s *stubService) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, " API ": ModeAPI, "worker": ModeWorker, "all": ModeAll}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) want %s got %s err=%v", raw, want, got, err)
		}
	}
	if _, err := ParseMode("admin"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestNewHTTPServiceAppliesTimeouts(t *testing.T) {
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "0", ReadHeaderTimeoutSeconds: 3, WriteTimeoutSeconds: 30}, http.NotFoundHandler())
	if svc.server.Addr != "127.0.0.1:0" {
		t.Fatalf("addr want 127.0.0.1:0 got %s", svc.server.Addr)
	}
	if svc.server.ReadHeaderTimeout != 3*time.Second {
		t.Fatalf("read header timeout want 3s got %s", svc.server.ReadHeaderTimeout)
	}
	if svc.server.WriteTimeout != 30*time.Second {
		t.Fatalf("write timeout want 30s got %s", svc.server.WriteTimeout)
	}
	if svc.server.ReadTimeout != defaultReadTimeout || svc.server.IdleTimeout != defaultIdleTimeout {
		t.Fatalf("unset timeouts should fall back to defaults: read=%s idle=%s", svc.server.ReadTimeout, svc.server.IdleTimeout)
	}
}

func TestHTTPServiceStartAndStop(t *testing.T) {
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, http.NotFoundHandler())
	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start should return nil after shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("start did not return after shutdown")
	}
}

func TestRunnerStopsAllServicesWhenContextEnds(t *testing.T) {
	first := &stubService{name: "http"}
	second := &stubService{name: "worker"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewRunner(first, nil, second).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("graceful shutdown should return nil, got %v", err)
	}
	if !first.wasStopped() || !second.wasStopped() {
		t.Fatalf("every service should be stopped")
	}
}

func TestRunnerReportsStartAndStopErrors(t *testing.T) {
	startErr := errors.New("bind failed")
	stopErr := errors.New("drain failed")
	failing := &stubService{name: "http", startErr: startErr}
	sibling := &stubService{name: "worker", stopErr: stopErr}

	err := NewRunner(failing, sibling).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, startErr) || !errors.Is(err, stopErr) {
		t.Fatalf("want both start and stop errors, got %v", err)
	}
	if !sibling.wasStopped() {
		t.Fatalf("sibling should be stopped after early exit")
	}
}

func TestBuildRunnerRequiresConfig(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
}
