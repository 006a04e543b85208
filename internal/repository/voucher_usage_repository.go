package repository

import (
	"errors"

	"github.com/dujiao-next/checkout/internal/models"

	"gorm.io/gorm"
)

// VoucherUsageRepository 优惠券使用记录数据访问接口
type VoucherUsageRepository interface {
	Create(usage *models.VoucherUsage) error
	CountByBuyer(voucherID, buyerID uint) (int64, error)
	ListByOrderID(orderID uint) ([]models.VoucherUsage, error)
	GetByVoucherAndOrders(voucherID uint, orderIDs []uint) (*models.VoucherUsage, error)
	UpdateHolder(id, orderID uint, discount models.Money) (int64, error)
	DeleteByID(id uint) error
	WithTx(tx *gorm.DB) VoucherUsageRepository
}

// GormVoucherUsageRepository GORM 实现
type GormVoucherUsageRepository struct {
	db *gorm.DB
}

// NewVoucherUsageRepository 创建优惠券使用记录仓库
func NewVoucherUsageRepository(db *gorm.DB) *GormVoucherUsageRepository {
	return &GormVoucherUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherUsageRepository) WithTx(tx *gorm.DB) VoucherUsageRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherUsageRepository{db: tx}
}

// Create 创建使用记录，unique_key 冲突时返回数据库错误
func (r *GormVoucherUsageRepository) Create(usage *models.VoucherUsage) error {
	return r.db.Create(usage).Error
}

// CountByBuyer 获取买家使用次数
func (r *GormVoucherUsageRepository) CountByBuyer(voucherID, buyerID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.VoucherUsage{}).
		Where("voucher_id = ? AND buyer_id = ?", voucherID, buyerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByOrderID 获取订单使用记录
func (r *GormVoucherUsageRepository) ListByOrderID(orderID uint) ([]models.VoucherUsage, error) {
	var usages []models.VoucherUsage
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

// GetByVoucherAndOrders 在一组订单中查找某张优惠券的使用记录
func (r *GormVoucherUsageRepository) GetByVoucherAndOrders(voucherID uint, orderIDs []uint) (*models.VoucherUsage, error) {
	if voucherID == 0 || len(orderIDs) == 0 {
		return nil, nil
	}
	var usage models.VoucherUsage
	if err := r.db.Where("voucher_id = ? AND order_id IN ?", voucherID, orderIDs).Order("id asc").First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// UpdateHolder 更新使用记录归属订单与累计优惠金额
func (r *GormVoucherUsageRepository) UpdateHolder(id, orderID uint, discount models.Money) (int64, error) {
	result := r.db.Model(&models.VoucherUsage{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"order_id":        orderID,
			"discount_amount": discount,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteByID 删除单条使用记录
func (r *GormVoucherUsageRepository) DeleteByID(id uint) error {
	return r.db.Delete(&models.VoucherUsage{}, id).Error
}
