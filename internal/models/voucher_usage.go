package models

import (
	"fmt"
	"time"
)

// VoucherUsage 优惠券使用记录
type VoucherUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	VoucherID      uint      `gorm:"index;not null" json:"voucher_id"`                             // 优惠券ID
	BuyerID        uint      `gorm:"index;not null" json:"buyer_id"`                               // 买家ID
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                               // 订单ID
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	UniqueKey      *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`                        // 每人限用一次时的唯一键（voucher:buyer）
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (VoucherUsage) TableName() string {
	return "voucher_usages"
}

// BuildVoucherUsageUniqueKey 生成每人限用一次的唯一键，其它情况返回 nil
func BuildVoucherUsageUniqueKey(voucher *Voucher, buyerID uint) *string {
	if voucher == nil || voucher.PerUserLimit != 1 {
		return nil
	}
	key := fmt.Sprintf("%d:%d", voucher.ID, buyerID)
	return &key
}
