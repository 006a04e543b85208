package repository

import (
	"errors"
	"strings"

	"github.com/dujiao-next/checkout/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem, history *models.OrderStatusHistory) error
	GetByID(id uint) (*models.Order, error)
	GetByCodeAndBuyer(orderCode string, buyerID uint) (*models.Order, error)
	ListByBuyer(filter OrderListFilter) ([]models.Order, int64, error)
	ListByCheckoutNo(checkoutNo string) ([]models.Order, error)
	UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	AppendHistory(history *models.OrderStatusHistory) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("PickupAddress").
		Preload("DeliveryAddress")
}

// Create 创建订单、订单项与首条状态记录
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem, history *models.OrderStatusHistory) error {
	if err := r.db.Omit("Items", "StatusHistory", "PickupAddress", "DeliveryAddress").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	if history != nil {
		history.OrderID = order.ID
		if err := r.db.Create(history).Error; err != nil {
			return err
		}
		order.StatusHistory = []models.OrderStatusHistory{*history}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByCodeAndBuyer 获取买家订单详情
func (r *GormOrderRepository) GetByCodeAndBuyer(orderCode string, buyerID uint) (*models.Order, error) {
	code := strings.TrimSpace(orderCode)
	if code == "" || buyerID == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.withDetail(r.db).Where("order_code = ? AND buyer_id = ?", code, buyerID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByBuyer 获取买家订单列表
func (r *GormOrderRepository) ListByBuyer(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("buyer_id = ?", filter.BuyerID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ShopID > 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.CheckoutNo != "" {
		query = query.Where("checkout_no = ?", filter.CheckoutNo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByCheckoutNo 获取同一次结算产生的全部订单
func (r *GormOrderRepository) ListByCheckoutNo(checkoutNo string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("checkout_no = ?", checkoutNo).Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 条件更新订单状态（当前状态匹配 fromStatus 时才生效）
func (r *GormOrderRepository) UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	payload := map[string]interface{}{"status": toStatus}
	for key, value := range updates {
		payload[key] = value
	}
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(payload)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AppendHistory 追加状态流转记录
func (r *GormOrderRepository) AppendHistory(history *models.OrderStatusHistory) error {
	return r.db.Create(history).Error
}
