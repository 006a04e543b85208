package service

import (
	"context"
	"strings"
	"time"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// VoucherRequest 单次优惠券校验请求
type VoucherRequest struct {
	Code         string
	Scope        string // system / shop
	ShopID       uint   // scope=shop 时为目标店铺
	TargetAmount models.Money
	BuyerID      uint
}

// VoucherApplication 优惠券校验结果
type VoucherApplication struct {
	Code           string        `json:"code"`
	Scope          string        `json:"scope"`
	ShopID         uint          `json:"shop_id,omitempty"`
	Approved       bool          `json:"approved"`
	VoucherID      uint          `json:"voucher_id,omitempty"`
	DiscountAmount models.Money  `json:"discount_amount"`
	TargetAmount   models.Money  `json:"target_amount"`
	Reason         string        `json:"reason,omitempty"`
	Shortfall      *models.Money `json:"shortfall,omitempty"`

	voucher *models.Voucher
}

// Rejected 转为拒绝记录，已通过时返回 nil
func (a *VoucherApplication) Rejected() *RejectedVoucher {
	if a == nil || a.Approved {
		return nil
	}
	return &RejectedVoucher{
		Code:      a.Code,
		Scope:     a.Scope,
		ShopID:    a.ShopID,
		Reason:    a.Reason,
		Shortfall: a.Shortfall,
	}
}

// VoucherEvaluator 优惠券校验器（只读，不修改使用次数）
type VoucherEvaluator struct {
	voucherRepo repository.VoucherRepository
	usageRepo   repository.VoucherUsageRepository
	now         func() time.Time
}

// NewVoucherEvaluator 创建优惠券校验器
func NewVoucherEvaluator(voucherRepo repository.VoucherRepository, usageRepo repository.VoucherUsageRepository) *VoucherEvaluator {
	return &VoucherEvaluator{
		voucherRepo: voucherRepo,
		usageRepo:   usageRepo,
		now:         time.Now,
	}
}

// WithClock 替换时钟
func (e *VoucherEvaluator) WithClock(now func() time.Time) *VoucherEvaluator {
	if now == nil {
		now = time.Now
	}
	return &VoucherEvaluator{
		voucherRepo: e.voucherRepo,
		usageRepo:   e.usageRepo,
		now:         now,
	}
}

// Evaluate 校验优惠券并计算优惠金额
// 资格不满足时返回 Approved=false 与原因；error 仅表示读库失败。
func (e *VoucherEvaluator) Evaluate(ctx context.Context, req VoucherRequest) (VoucherApplication, error) {
	code := repository.NormalizeVoucherCode(req.Code)
	app := VoucherApplication{
		Code:           code,
		Scope:          req.Scope,
		DiscountAmount: models.ZeroMoney(),
		TargetAmount:   req.TargetAmount,
	}
	if req.Scope == constants.VoucherScopeShop {
		app.ShopID = req.ShopID
	}
	if err := ctx.Err(); err != nil {
		return app, err
	}
	if code == "" {
		return reject(app, constants.VoucherReasonNotFound), nil
	}

	voucher, err := e.voucherRepo.GetByCode(code)
	if err != nil {
		return app, err
	}
	if voucher == nil {
		return reject(app, constants.VoucherReasonNotFound), nil
	}
	app.VoucherID = voucher.ID

	if !scopeMatches(voucher, req) {
		return reject(app, constants.VoucherReasonScopeMismatch), nil
	}

	now := e.now()
	if voucher.StartsAt != nil && now.Before(*voucher.StartsAt) {
		return reject(app, constants.VoucherReasonNotStarted), nil
	}
	if voucher.EndsAt != nil && now.After(*voucher.EndsAt) {
		return reject(app, constants.VoucherReasonExpired), nil
	}

	target := req.TargetAmount.Decimal
	if target.LessThan(voucher.MinOrderValue.Decimal) {
		shortfall := models.NewMoneyFromDecimal(voucher.MinOrderValue.Decimal.Sub(target))
		app.Shortfall = &shortfall
		return reject(app, constants.VoucherReasonMinOrderNotMet), nil
	}

	if voucher.UsageLimit > 0 && voucher.UsedCount >= voucher.UsageLimit {
		return reject(app, constants.VoucherReasonUsageLimit), nil
	}

	if voucher.PerUserLimit > 0 && req.BuyerID != 0 {
		count, err := e.usageRepo.CountByBuyer(voucher.ID, req.BuyerID)
		if err != nil {
			return app, err
		}
		if int(count) >= voucher.PerUserLimit {
			return reject(app, constants.VoucherReasonPerUserLimit), nil
		}
	}

	raw, ok := rawVoucherDiscount(voucher, target)
	if !ok {
		// 未知类型的券无法计算优惠
		return reject(app, constants.VoucherReasonNotFound), nil
	}
	app.Approved = true
	app.DiscountAmount = models.NewMoneyFromDecimal(clampDiscount(raw, voucher.MaxDiscount.Decimal, target))
	app.voucher = voucher
	return app, nil
}

func reject(app VoucherApplication, reason string) VoucherApplication {
	app.Approved = false
	app.Reason = reason
	app.DiscountAmount = models.ZeroMoney()
	return app
}

func scopeMatches(voucher *models.Voucher, req VoucherRequest) bool {
	scope := strings.ToLower(strings.TrimSpace(voucher.Scope))
	if scope != req.Scope {
		return false
	}
	if scope == constants.VoucherScopeShop {
		return voucher.ShopID != nil && *voucher.ShopID == req.ShopID
	}
	return scope == constants.VoucherScopeSystem
}

func rawVoucherDiscount(voucher *models.Voucher, target decimal.Decimal) (decimal.Decimal, bool) {
	switch strings.ToLower(strings.TrimSpace(voucher.Type)) {
	case constants.VoucherTypeFixed:
		return voucher.Value.Decimal, true
	case constants.VoucherTypePercent:
		return target.Mul(voucher.Value.Decimal).Div(hundred).Round(2), true
	default:
		return decimal.Zero, false
	}
}

// clampDiscount 优惠不超过上限与目标金额，且不为负
func clampDiscount(raw, maxDiscount, target decimal.Decimal) decimal.Decimal {
	discount := raw
	if maxDiscount.GreaterThan(decimal.Zero) && discount.GreaterThan(maxDiscount) {
		discount = maxDiscount
	}
	if discount.GreaterThan(target) {
		discount = target
	}
	if discount.LessThan(decimal.Zero) {
		discount = decimal.Zero
	}
	return discount.Round(2)
}
