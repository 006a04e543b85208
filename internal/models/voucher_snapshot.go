package models

import "time"

// VoucherSnapshot 下单时的优惠券条款快照（按值复制，后续修改优惠券不影响订单）
type VoucherSnapshot struct {
	VoucherID      uint       `json:"voucher_id"`
	Code           string     `json:"code"`
	Scope          string     `json:"scope"`
	ShopID         *uint      `json:"shop_id,omitempty"`
	Type           string     `json:"type"`
	Value          Money      `json:"value"`
	MinOrderValue  Money      `json:"min_order_value"`
	MaxDiscount    Money      `json:"max_discount"`
	UsageLimit     int        `json:"usage_limit"`
	PerUserLimit   int        `json:"per_user_limit"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
	DiscountAmount Money      `json:"discount_amount"`
}
