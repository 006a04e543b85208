package service

import (
	"context"
	"strings"
	"time"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/logger"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 买家订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	variantRepo repository.VariantRepository
	voucherRepo repository.VoucherRepository
	usageRepo   repository.VoucherUsageRepository
	notifier    OrderNotifier
	now         func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(repos CheckoutRepositories, notifier OrderNotifier) *OrderService {
	return &OrderService{
		orderRepo:   repos.Order,
		variantRepo: repos.Variant,
		voucherRepo: repos.Voucher,
		usageRepo:   repos.Usage,
		notifier:    notifier,
		now:         time.Now,
	}
}

// ListOrdersInput 买家订单列表输入
type ListOrdersInput struct {
	BuyerID    uint
	Status     string
	ShopID     uint
	CheckoutNo string
	Page       int
	PageSize   int
}

// ListOrdersByBuyer 分页查询买家订单
func (s *OrderService) ListOrdersByBuyer(input ListOrdersInput) ([]models.Order, int64, error) {
	if input.BuyerID == 0 {
		return nil, 0, ErrInvalidBuyer
	}
	page, pageSize := repository.NormalizePagination(input.Page, input.PageSize)
	return s.orderRepo.ListByBuyer(repository.OrderListFilter{
		BuyerID:    input.BuyerID,
		Status:     strings.TrimSpace(input.Status),
		ShopID:     input.ShopID,
		CheckoutNo: strings.TrimSpace(input.CheckoutNo),
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetOrderByBuyer 获取买家订单详情
func (s *OrderService) GetOrderByBuyer(orderCode string, buyerID uint) (*models.Order, error) {
	if buyerID == 0 {
		return nil, ErrInvalidBuyer
	}
	code := strings.TrimSpace(orderCode)
	if code == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByCodeAndBuyer(code, buyerID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder 取消未处理订单，回滚库存与优惠券使用次数
func (s *OrderService) CancelOrder(ctx context.Context, orderCode string, buyerID uint) (*models.Order, error) {
	order, err := s.GetOrderByBuyer(orderCode, buyerID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusCreated {
		return nil, ErrOrderStatusInvalid
	}

	now := s.now()
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)
		voucherRepo := s.voucherRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		affected, err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusCreated, constants.OrderStatusCanceled, map[string]interface{}{
			"canceled_at": now,
		})
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == 0 {
			return ErrOrderStatusInvalid
		}
		for _, item := range order.Items {
			if _, err := variantRepo.RestoreStock(item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		usages, err := usageRepo.ListByOrderID(order.ID)
		if err != nil {
			return err
		}
		systemVoucherID := uint(0)
		if order.SystemVoucher != nil {
			systemVoucherID = order.SystemVoucher.VoucherID
		}
		holdsSystem := false
		for _, usage := range usages {
			if systemVoucherID != 0 && usage.VoucherID == systemVoucherID {
				holdsSystem = true
				transferred, err := transferSystemUsage(orderRepo, usageRepo, order, usage)
				if err != nil {
					return err
				}
				if transferred {
					continue
				}
			}
			if _, err := voucherRepo.DecrementUsedCount(usage.VoucherID); err != nil {
				return err
			}
			if err := usageRepo.DeleteByID(usage.ID); err != nil {
				return err
			}
		}
		if systemVoucherID != 0 && !holdsSystem {
			if err := releaseSystemShare(orderRepo, usageRepo, order, systemVoucherID); err != nil {
				return err
			}
		}
		return orderRepo.AppendHistory(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: constants.OrderStatusCreated,
			ToStatus:   constants.OrderStatusCanceled,
			Note:       "buyer canceled",
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_canceled", "order_id", order.ID, "order_code", order.OrderCode, "buyer_id", buyerID)
	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	if s.notifier != nil {
		s.notifier.OrderCanceled(ctx, updated)
	}
	return updated, nil
}

// liveSystemSiblings 同一结算批次中仍未取消且分摊了平台券的其它订单
func liveSystemSiblings(orderRepo repository.OrderRepository, order *models.Order) ([]models.Order, error) {
	orders, err := orderRepo.ListByCheckoutNo(order.CheckoutNo)
	if err != nil {
		return nil, err
	}
	siblings := make([]models.Order, 0, len(orders))
	for _, sibling := range orders {
		if sibling.ID == order.ID || sibling.Status != constants.OrderStatusCreated {
			continue
		}
		if !sibling.SystemDiscountAmount.Decimal.GreaterThan(decimal.Zero) {
			continue
		}
		siblings = append(siblings, sibling)
	}
	return siblings, nil
}

// transferSystemUsage 平台券使用记录随取消转移到仍享受分摊的兄弟订单
// 返回 false 表示已无兄弟订单共享，调用方应释放使用次数。
func transferSystemUsage(orderRepo repository.OrderRepository, usageRepo repository.VoucherUsageRepository, order *models.Order, usage models.VoucherUsage) (bool, error) {
	siblings, err := liveSystemSiblings(orderRepo, order)
	if err != nil {
		return false, err
	}
	if len(siblings) == 0 {
		return false, nil
	}
	heir := siblings[0]
	remaining := floorZero(usage.DiscountAmount.Decimal.Sub(order.SystemDiscountAmount.Decimal))
	affected, err := usageRepo.UpdateHolder(usage.ID, heir.ID, models.NewMoneyFromDecimal(remaining))
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, ErrOrderUpdateFailed
	}
	logger.Infow("order_system_voucher_usage_transferred",
		"usage_id", usage.ID,
		"voucher_id", usage.VoucherID,
		"from_order_id", order.ID,
		"to_order_id", heir.ID,
		"discount_amount", remaining.StringFixed(2),
	)
	return true, nil
}

// releaseSystemShare 取消未持有使用记录的兄弟订单时，从记录中扣除其分摊额
func releaseSystemShare(orderRepo repository.OrderRepository, usageRepo repository.VoucherUsageRepository, order *models.Order, voucherID uint) error {
	if !order.SystemDiscountAmount.Decimal.GreaterThan(decimal.Zero) {
		return nil
	}
	orders, err := orderRepo.ListByCheckoutNo(order.CheckoutNo)
	if err != nil {
		return err
	}
	siblingIDs := make([]uint, 0, len(orders))
	for _, sibling := range orders {
		if sibling.ID != order.ID {
			siblingIDs = append(siblingIDs, sibling.ID)
		}
	}
	usage, err := usageRepo.GetByVoucherAndOrders(voucherID, siblingIDs)
	if err != nil || usage == nil {
		return err
	}
	remaining := floorZero(usage.DiscountAmount.Decimal.Sub(order.SystemDiscountAmount.Decimal))
	_, err = usageRepo.UpdateHolder(usage.ID, usage.OrderID, models.NewMoneyFromDecimal(remaining))
	return err
}
