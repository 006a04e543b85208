package service

import (
	"context"
	"time"

	"github.com/dujiao-next/checkout/internal/logger"
	"github.com/dujiao-next/checkout/internal/metrics"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/queue"

	"github.com/sony/gobreaker/v2"
)

// OrderNotifier 订单事件通知（失败只记录日志，不影响结算结果）
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderCanceled(ctx context.Context, order *models.Order)
}

// BreakerOptions 入队熔断配置
type BreakerOptions struct {
	MaxFailures int
	OpenTimeout time.Duration
	Interval    time.Duration
}

// QueueNotifier 通过 asynq 推送订单事件，Redis 异常时熔断
type QueueNotifier struct {
	client  *queue.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	metrics *metrics.Registry
}

// NewQueueNotifier 创建队列通知器
func NewQueueNotifier(client *queue.Client, opts BreakerOptions, reg *metrics.Registry) *QueueNotifier {
	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        "order_event_enqueue",
		MaxRequests: 1,
		Interval:    opts.Interval,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("order_event_breaker_state_changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &QueueNotifier{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		metrics: reg,
	}
}

// OrderCreated 推送订单创建事件
func (n *QueueNotifier) OrderCreated(_ context.Context, order *models.Order) {
	if n == nil || order == nil || !n.client.Enabled() {
		return
	}
	payload := queue.OrderCreatedPayload{
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		CheckoutNo: order.CheckoutNo,
		BuyerID:    order.BuyerID,
		ShopID:     order.ShopID,
	}
	_, err := n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.client.EnqueueOrderCreated(payload)
	})
	if err != nil {
		n.metrics.IncEnqueueFailure()
		logger.Warnw("order_created_enqueue_failed", "order_id", order.ID, "order_code", order.OrderCode, "error", err)
	}
}

// OrderCanceled 推送订单取消事件
func (n *QueueNotifier) OrderCanceled(_ context.Context, order *models.Order) {
	if n == nil || order == nil || !n.client.Enabled() {
		return
	}
	payload := queue.OrderCanceledPayload{
		OrderID:   order.ID,
		OrderCode: order.OrderCode,
		BuyerID:   order.BuyerID,
	}
	_, err := n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.client.EnqueueOrderCanceled(payload)
	})
	if err != nil {
		n.metrics.IncEnqueueFailure()
		logger.Warnw("order_canceled_enqueue_failed", "order_id", order.ID, "order_code", order.OrderCode, "error", err)
	}
}
