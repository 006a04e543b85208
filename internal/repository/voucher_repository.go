package repository

import (
	"errors"
	"strings"

	"github.com/dujiao-next/checkout/internal/models"

	"gorm.io/gorm"
)

// VoucherRepository 优惠券数据访问接口
type VoucherRepository interface {
	GetByID(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	Create(voucher *models.Voucher) error
	IncrementUsedCount(id uint) (int64, error)
	DecrementUsedCount(id uint) (int64, error)
	WithTx(tx *gorm.DB) VoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠券仓库
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) VoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// NormalizeVoucherCode 统一优惠码格式（去空白并转大写）
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetByID 根据ID获取优惠券
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByCode 根据优惠码获取优惠券（软删除视为不存在）
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	normalized := NormalizeVoucherCode(code)
	if normalized == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Where("code = ?", normalized).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// Create 创建优惠券
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	voucher.Code = NormalizeVoucherCode(voucher.Code)
	return r.db.Create(voucher).Error
}

// IncrementUsedCount 条件增加使用次数（未达总上限时才生效）
// 返回受影响行数，0 表示已达上限。
func (r *GormVoucherRepository) IncrementUsedCount(id uint) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid voucher id")
	}
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DecrementUsedCount 减少使用次数（不会减到负数）
func (r *GormVoucherRepository) DecrementUsedCount(id uint) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid voucher id")
	}
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND used_count >= ?", id, 1).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
