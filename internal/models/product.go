package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`                         // 主键
	ShopID    uint           `gorm:"not null;index" json:"shop_id"`                // 店铺ID
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`       // 商品名称
	IsActive  bool           `gorm:"not null;default:true;index" json:"is_active"` // 是否上架
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                      // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间

	Shop     *Shop            `gorm:"foreignKey:ShopID" json:"shop,omitempty"`        // 所属店铺
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
