package queue

import (
	"encoding/json"

	"github.com/dujiao-next/checkout/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderCreated 订单创建事件任务
	TaskOrderCreated = constants.TaskOrderCreated
	// TaskOrderCanceled 订单取消事件任务
	TaskOrderCanceled = constants.TaskOrderCanceled
)

// OrderCreatedPayload 订单创建任务载荷
type OrderCreatedPayload struct {
	OrderID    uint   `json:"order_id"`
	OrderCode  string `json:"order_code"`
	CheckoutNo string `json:"checkout_no"`
	BuyerID    uint   `json:"buyer_id"`
	ShopID     uint   `json:"shop_id"`
}

// OrderCanceledPayload 订单取消任务载荷
type OrderCanceledPayload struct {
	OrderID   uint   `json:"order_id"`
	OrderCode string `json:"order_code"`
	BuyerID   uint   `json:"buyer_id"`
}

// NewOrderCreatedTask 创建订单创建事件任务
func NewOrderCreatedTask(payload OrderCreatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCreated, body), nil
}

// NewOrderCanceledTask 创建订单取消事件任务
func NewOrderCanceledTask(payload OrderCanceledPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCanceled, body), nil
}
