package repository

import (
	"errors"

	"github.com/dujiao-next/checkout/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 地址数据访问接口
type AddressRepository interface {
	GetByID(id uint) (*models.Address, error)
	GetByOwner(id uint, ownerType string, ownerID uint) (*models.Address, error)
	Create(address *models.Address) error
	CreateSnapshot(snapshot *models.AddressSnapshot) error
	WithTx(tx *gorm.DB) AddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// GetByID 根据 ID 获取地址
func (r *GormAddressRepository) GetByID(id uint) (*models.Address, error) {
	if id == 0 {
		return nil, nil
	}
	var address models.Address
	if err := r.db.First(&address, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// GetByOwner 获取指定归属的地址，归属不匹配视为不存在
func (r *GormAddressRepository) GetByOwner(id uint, ownerType string, ownerID uint) (*models.Address, error) {
	if id == 0 || ownerID == 0 {
		return nil, nil
	}
	var address models.Address
	if err := r.db.Where("id = ? AND owner_type = ? AND owner_id = ?", id, ownerType, ownerID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// Create 创建地址
func (r *GormAddressRepository) Create(address *models.Address) error {
	return r.db.Create(address).Error
}

// CreateSnapshot 写入地址快照
func (r *GormAddressRepository) CreateSnapshot(snapshot *models.AddressSnapshot) error {
	return r.db.Create(snapshot).Error
}
