package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（每个店铺一单，同一次结算的订单共享 CheckoutNo）
type Order struct {
	ID                        uint             `gorm:"primarykey" json:"id"`                                                // 主键
	OrderCode                 string           `gorm:"uniqueIndex;not null" json:"order_code"`                              // 订单编号
	CheckoutNo                string           `gorm:"type:varchar(64);index;not null" json:"checkout_no"`                  // 结算批次号
	BuyerID                   uint             `gorm:"index;not null" json:"buyer_id"`                                      // 买家ID
	ShopID                    uint             `gorm:"index;not null" json:"shop_id"`                                       // 店铺ID
	Status                    string           `gorm:"index;not null" json:"status"`                                        // 订单状态
	PaymentMethod             string           `gorm:"type:varchar(32);not null" json:"payment_method"`                     // 支付方式
	SubtotalAmount            Money            `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`        // 商品原价小计
	ShopDiscountAmount        Money            `gorm:"type:decimal(20,2);not null;default:0" json:"shop_discount_amount"`   // 店铺券优惠
	SystemDiscountAmount      Money            `gorm:"type:decimal(20,2);not null;default:0" json:"system_discount_amount"` // 平台券分摊优惠
	ShippingFee               Money            `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`           // 运费
	TotalAmount               Money            `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`           // 实付金额
	ShopVoucher               *VoucherSnapshot `gorm:"type:text;serializer:json" json:"shop_voucher,omitempty"`             // 店铺券条款快照
	SystemVoucher             *VoucherSnapshot `gorm:"type:text;serializer:json" json:"system_voucher,omitempty"`           // 平台券条款快照
	PickupAddressSnapshotID   *uint            `gorm:"index" json:"pickup_address_snapshot_id,omitempty"`                   // 发货地址快照ID
	DeliveryAddressSnapshotID uint             `gorm:"index;not null" json:"delivery_address_snapshot_id"`                  // 收货地址快照ID
	Note                      string           `gorm:"type:varchar(500)" json:"note,omitempty"`                             // 买家备注
	CanceledAt                *time.Time       `gorm:"index" json:"canceled_at,omitempty"`                                  // 取消时间
	CreatedAt                 time.Time        `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt                 time.Time        `gorm:"index" json:"updated_at"`                                             // 更新时间
	DeletedAt                 gorm.DeletedAt   `gorm:"index" json:"-"`                                                      // 软删除时间

	Items           []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`                              // 订单项
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`                     // 状态流转记录
	PickupAddress   *AddressSnapshot     `gorm:"foreignKey:PickupAddressSnapshotID" json:"pickup_address,omitempty"`     // 发货地址快照
	DeliveryAddress *AddressSnapshot     `gorm:"foreignKey:DeliveryAddressSnapshotID" json:"delivery_address,omitempty"` // 收货地址快照
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
