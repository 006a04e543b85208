package models

import (
	"time"

	"gorm.io/gorm"
)

// Voucher 优惠券（平台券/店铺券）
type Voucher struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                         // 主键
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`                             // 优惠码（统一大写存储）
	Scope         string         `gorm:"type:varchar(16);not null;index" json:"scope"`                 // 适用范围（system/shop）
	ShopID        *uint          `gorm:"index" json:"shop_id,omitempty"`                               // 所属店铺（平台券为空）
	Type          string         `gorm:"type:varchar(16);not null" json:"type"`                        // 类型（fixed/percent）
	Value         Money          `gorm:"type:decimal(20,2);not null" json:"value"`                     // 数值（固定金额或百分比）
	MinOrderValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"` // 使用门槛
	MaxDiscount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"`    // 最大优惠金额（0 表示不限制）
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"`                        // 总使用上限（0 表示不限制）
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`                         // 已使用次数
	PerUserLimit  int            `gorm:"not null;default:0" json:"per_user_limit"`                     // 每人使用上限（0 表示不限制）
	StartsAt      *time.Time     `gorm:"index" json:"starts_at"`                                       // 生效时间
	EndsAt        *time.Time     `gorm:"index" json:"ends_at"`                                         // 失效时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}

// Snapshot 复制优惠券条款，用于写入订单
func (v *Voucher) Snapshot(discount Money) *VoucherSnapshot {
	if v == nil {
		return nil
	}
	snapshot := &VoucherSnapshot{
		VoucherID:      v.ID,
		Code:           v.Code,
		Scope:          v.Scope,
		Type:           v.Type,
		Value:          v.Value,
		MinOrderValue:  v.MinOrderValue,
		MaxDiscount:    v.MaxDiscount,
		UsageLimit:     v.UsageLimit,
		PerUserLimit:   v.PerUserLimit,
		DiscountAmount: discount,
	}
	if v.ShopID != nil {
		shopID := *v.ShopID
		snapshot.ShopID = &shopID
	}
	if v.StartsAt != nil {
		startsAt := *v.StartsAt
		snapshot.StartsAt = &startsAt
	}
	if v.EndsAt != nil {
		endsAt := *v.EndsAt
		snapshot.EndsAt = &endsAt
	}
	return snapshot
}
