package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格表（价格+库存维度）
type ProductVariant struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                                                          // 主键
	ProductID   uint           `gorm:"not null;index;uniqueIndex:idx_product_variant_sku" json:"product_id"`                          // 商品ID
	SKUCode     string         `gorm:"column:sku_code;type:varchar(64);not null;uniqueIndex:idx_product_variant_sku" json:"sku_code"` // SKU编码（同商品内唯一）
	Name        string         `gorm:"type:varchar(200)" json:"name"`                                                                 // 规格名称
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`                                     // 单价
	Stock       int            `gorm:"not null;default:0" json:"stock"`                                                               // 当前库存
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                                                       // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                                                       // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                                                // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// VariantSnapshot 规格实时快照（只读视图，不对应数据表）
type VariantSnapshot struct {
	VariantID     uint   `gorm:"column:variant_id" json:"variant_id"`
	ProductID     uint   `gorm:"column:product_id" json:"product_id"`
	ShopID        uint   `gorm:"column:shop_id" json:"shop_id"`
	SKUCode       string `gorm:"column:sku_code" json:"sku_code"`
	VariantName   string `gorm:"column:variant_name" json:"variant_name"`
	ProductName   string `gorm:"column:product_name" json:"product_name"`
	ShopName      string `gorm:"column:shop_name" json:"shop_name"`
	ShopSlug      string `gorm:"column:shop_slug" json:"shop_slug"`
	UnitPrice     Money  `gorm:"column:unit_price" json:"unit_price"`
	Stock         int    `gorm:"column:stock" json:"stock"`
	ProductActive bool   `gorm:"column:product_active" json:"product_active"`
	ShopBlocked   bool   `gorm:"column:shop_blocked" json:"shop_blocked"`
	ShippingFee   Money  `gorm:"column:shipping_fee" json:"shipping_fee"`
}
