package repository

import (
	"context"
	"errors"

	"github.com/dujiao-next/checkout/internal/models"

	"gorm.io/gorm"
)

// VariantRepository 商品规格数据访问接口
type VariantRepository interface {
	ListSnapshots(ctx context.Context, ids []uint) ([]models.VariantSnapshot, error)
	GetByID(id uint) (*models.ProductVariant, error)
	DecrementStock(variantID uint, quantity int) (int64, error)
	RestoreStock(variantID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) VariantRepository
}

// GormVariantRepository GORM 实现
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建规格仓库
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// ListSnapshots 一次查询读取规格、商品与店铺的实时状态
// 已删除的规格/商品/店铺不会出现在结果中，调用方据此判定 not found。
func (r *GormVariantRepository) ListSnapshots(ctx context.Context, ids []uint) ([]models.VariantSnapshot, error) {
	if len(ids) == 0 {
		return []models.VariantSnapshot{}, nil
	}
	var rows []models.VariantSnapshot
	err := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select(`v.id AS variant_id, v.product_id AS product_id, p.shop_id AS shop_id,
			v.sku_code AS sku_code, v.name AS variant_name, p.name AS product_name,
			s.name AS shop_name, s.slug AS shop_slug, v.price_amount AS unit_price,
			v.stock AS stock, p.is_active AS product_active, s.is_blocked AS shop_blocked,
			s.shipping_fee AS shipping_fee`).
		Joins("JOIN products AS p ON p.id = v.product_id AND p.deleted_at IS NULL").
		Joins("JOIN shops AS s ON s.id = p.shop_id AND s.deleted_at IS NULL").
		Where("v.id IN ? AND v.deleted_at IS NULL", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByID 根据 ID 获取规格
func (r *GormVariantRepository) GetByID(id uint) (*models.ProductVariant, error) {
	if id == 0 {
		return nil, errors.New("invalid variant id")
	}
	var item models.ProductVariant
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// DecrementStock 条件扣减库存（stock >= quantity 时才生效）
// 返回受影响行数，0 表示库存不足或规格不存在。
func (r *GormVariantRepository) DecrementStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RestoreStock 回补库存（订单取消）
func (r *GormVariantRepository) RestoreStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock restore params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
