package service

import (
	"context"
	"testing"
	"time"

	"github.com/dujiao-next/checkout/internal/config"
	"github.com/dujiao-next/checkout/internal/metrics"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/queue"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
)

func TestQueueNotifierDisabledClientIsNoop(t *testing.T) {
	reg := metrics.NewRegistry()
	notifier := NewQueueNotifier(nil, BreakerOptions{}, reg)
	notifier.OrderCreated(context.Background(), &models.Order{ID: 1})
	notifier.OrderCanceled(context.Background(), &models.Order{ID: 1})

	if got := testutil.ToFloat64(reg.EnqueueFailures); got != 0 {
		t.Fatalf("disabled client should not count failures, got %v", got)
	}
}

func TestQueueNotifierOpensBreakerOnEnqueueFailures(t *testing.T) {
	// 端口 1 不可连接，入队必定失败
	client, err := queue.NewClient(&config.QueueConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	reg := metrics.NewRegistry()
	notifier := NewQueueNotifier(client, BreakerOptions{MaxFailures: 2, OpenTimeout: time.Minute}, reg)
	order := &models.Order{ID: 7, OrderCode: "DJ7"}
	for i := 0; i < 3; i++ {
		notifier.OrderCreated(context.Background(), order)
	}

	if notifier.breaker.State() != gobreaker.StateOpen {
		t.Fatalf("breaker should be open, got %s", notifier.breaker.State())
	}
	if got := testutil.ToFloat64(reg.EnqueueFailures); got != 3 {
		t.Fatalf("enqueue failures want 3 got %v", got)
	}
}
