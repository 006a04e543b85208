package service

import (
	"errors"
	"fmt"

	"github.com/dujiao-next/checkout/internal/models"
)

var (
	ErrCartEmpty                = errors.New("未选择任何商品")
	ErrInvalidCartLine          = errors.New("商品数量无效")
	ErrInvalidBuyer             = errors.New("买家身份无效")
	ErrDeliveryAddressRequired  = errors.New("缺少收货地址")
	ErrAddressNotFound          = errors.New("收货地址不存在")
	ErrPaymentMethodUnsupported = errors.New("不支持的支付方式")
	ErrDraftNotFound            = errors.New("草稿订单不存在或已过期")
	ErrVoucherSlotInvalid       = errors.New("优惠券适用范围无效")
	ErrVoucherCodeRequired      = errors.New("缺少优惠码")
	ErrValidationFailed         = errors.New("结算校验失败")
	ErrOrderNotFound            = errors.New("订单不存在")
	ErrOrderStatusInvalid       = errors.New("订单状态不允许该操作")
	ErrOrderUpdateFailed        = errors.New("订单更新失败")
	ErrStockConflict            = errors.New("库存扣减冲突")
	ErrVoucherUsageConflict     = errors.New("优惠券使用冲突")
	ErrOrderCodeConflict        = errors.New("订单号冲突")
	ErrIllegalTransition        = errors.New("非法的结算状态流转")
)

// InvalidItem 失效的购物行
type InvalidItem struct {
	VariantID         uint          `json:"variant_id"`
	ShopID            uint          `json:"shop_id,omitempty"`
	Reason            string        `json:"reason"`
	Stock             int           `json:"stock"`
	RequestedQty      int           `json:"requested_qty"`
	UnitPrice         *models.Money `json:"unit_price,omitempty"`
	ExpectedUnitPrice *models.Money `json:"expected_unit_price,omitempty"`
}

// RejectedVoucher 被拒绝的优惠券
type RejectedVoucher struct {
	Code      string        `json:"code"`
	Scope     string        `json:"scope"`
	ShopID    uint          `json:"shop_id,omitempty"`
	Reason    string        `json:"reason"`
	Shortfall *models.Money `json:"shortfall,omitempty"`
}

// ValidationError 结算前重新校验失败，列出全部失效商品与优惠券
type ValidationError struct {
	InvalidItems     []InvalidItem     `json:"invalid_items"`
	RejectedVouchers []RejectedVoucher `json:"rejected_vouchers"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d invalid items, %d rejected vouchers", ErrValidationFailed.Error(), len(e.InvalidItems), len(e.RejectedVouchers))
}

// Is 使 errors.Is(err, ErrValidationFailed) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
