package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/logger"
	"github.com/dujiao-next/checkout/internal/provider"
	"github.com/dujiao-next/checkout/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	outcomeHandled = "handled"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderCreated, c.handleOrderCreated)
	mux.HandleFunc(queue.TaskOrderCanceled, c.handleOrderCanceled)
}

func (c *Consumer) handleOrderCreated(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_created_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_created_unmarshal_failed", "error", err)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCreated, outcomeFailed)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_created_skip_invalid_payload", "order_id", payload.OrderID)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCreated, outcomeSkipped)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_created_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCreated, outcomeFailed)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_created_skip_order_not_found", "order_id", payload.OrderID)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCreated, outcomeSkipped)
		return nil
	}
	if order.Status != constants.OrderStatusCreated {
		// 买家在事件消费前已取消
		logger.Debugw("worker_order_created_skip_stale_status", "order_id", order.ID, "order_code", order.OrderCode, "status", order.Status)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCreated, outcomeSkipped)
		return nil
	}
	logger.Infow("worker_order_created_handled",
		"order_id", order.ID,
		"order_code", order.OrderCode,
		"checkout_no", order.CheckoutNo,
		"shop_id", order.ShopID,
		"buyer_id", order.BuyerID,
		"total_amount", order.TotalAmount.String(),
		"items", len(order.Items),
	)
	c.Metrics.ObserveOrderEvent(queue.TaskOrderCreated, outcomeHandled)
	return nil
}

func (c *Consumer) handleOrderCanceled(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_canceled_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderCanceledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_canceled_unmarshal_failed", "error", err)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCanceled, outcomeFailed)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_canceled_skip_invalid_payload", "order_id", payload.OrderID)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCanceled, outcomeSkipped)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_canceled_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCanceled, outcomeFailed)
		return err
	}
	if order == nil || order.Status != constants.OrderStatusCanceled {
		logger.Debugw("worker_order_canceled_skip", "order_id", payload.OrderID, "found", order != nil)
		c.Metrics.ObserveOrderEvent(queue.TaskOrderCanceled, outcomeSkipped)
		return nil
	}
	logger.Infow("worker_order_canceled_handled",
		"order_id", order.ID,
		"order_code", order.OrderCode,
		"shop_id", order.ShopID,
		"buyer_id", order.BuyerID,
	)
	c.Metrics.ObserveOrderEvent(queue.TaskOrderCanceled, outcomeHandled)
	return nil
}
