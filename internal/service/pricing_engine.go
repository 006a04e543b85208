package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/metrics"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultVoucherEvalConcurrency = 4

// DraftStore 草稿持久化接口
type DraftStore interface {
	Save(ctx context.Context, draftID string, value interface{}) error
	Load(ctx context.Context, draftID string, dest interface{}) (bool, error)
}

// PricingInput 定价输入
type PricingInput struct {
	BuyerID           uint
	Lines             []CartLine
	ShopVoucherCodes  map[uint]string
	SystemVoucherCode string
}

// DraftOrder 定价后的草稿订单
type DraftOrder struct {
	DraftID          string              `json:"draft_id,omitempty"`
	Groups           []*ShopGroup        `json:"groups"`
	InvalidItems     []InvalidItem       `json:"invalid_items"`
	RejectedVouchers []RejectedVoucher   `json:"rejected_vouchers"`
	GrandSubtotal    models.Money        `json:"grand_subtotal"`
	ShippingFee      models.Money        `json:"shipping_fee"`
	SystemVoucher    *VoucherApplication `json:"system_voucher,omitempty"`
	SystemDiscount   models.Money        `json:"system_discount"`
	GrandTotal       models.Money        `json:"grand_total"`
	PricedAt         time.Time           `json:"priced_at"`
}

// draftRecord 草稿存储结构
type draftRecord struct {
	DraftID           string                `json:"draft_id"`
	BuyerID           uint                  `json:"buyer_id"`
	Lines             []CartLine            `json:"lines"`
	ShopVoucherCodes  map[uint]string       `json:"shop_voucher_codes"`
	SystemVoucherCode string                `json:"system_voucher_code"`
	UnitPrices        map[uint]models.Money `json:"unit_prices"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func (r *draftRecord) input() PricingInput {
	return PricingInput{
		BuyerID:           r.BuyerID,
		Lines:             r.Lines,
		ShopVoucherCodes:  copyVoucherCodes(r.ShopVoucherCodes),
		SystemVoucherCode: r.SystemVoucherCode,
	}
}

// PricingEngine 订单定价引擎
type PricingEngine struct {
	grouper            *CartGrouper
	evaluator          *VoucherEvaluator
	drafts             DraftStore
	metrics            *metrics.Registry
	defaultShippingFee models.Money
	concurrency        int
	now                func() time.Time
}

// PricingOptions 定价配置
type PricingOptions struct {
	DefaultShippingFee     models.Money
	VoucherEvalConcurrency int
}

// NewPricingEngine 创建定价引擎
func NewPricingEngine(grouper *CartGrouper, evaluator *VoucherEvaluator, drafts DraftStore, reg *metrics.Registry, opts PricingOptions) *PricingEngine {
	concurrency := opts.VoucherEvalConcurrency
	if concurrency <= 0 {
		concurrency = defaultVoucherEvalConcurrency
	}
	return &PricingEngine{
		grouper:            grouper,
		evaluator:          evaluator,
		drafts:             drafts,
		metrics:            reg,
		defaultShippingFee: opts.DefaultShippingFee,
		concurrency:        concurrency,
		now:                time.Now,
	}
}

// Price 根据购物行与优惠码计算草稿订单（纯计算，不落库）
func (e *PricingEngine) Price(ctx context.Context, input PricingInput) (*DraftOrder, error) {
	started := time.Now()
	defer func() { e.metrics.ObservePricing(time.Since(started)) }()

	grouped, err := e.grouper.Group(ctx, input.Lines)
	if err != nil {
		return nil, err
	}
	draft := &DraftOrder{
		Groups:           grouped.Groups,
		InvalidItems:     grouped.InvalidItems,
		RejectedVouchers: make([]RejectedVoucher, 0),
		PricedAt:         e.now(),
	}

	codes := normalizeVoucherCodes(input.ShopVoucherCodes)
	for _, shopID := range sortedShopIDs(codes) {
		if grouped.Group(shopID) != nil {
			continue
		}
		draft.RejectedVouchers = append(draft.RejectedVouchers, RejectedVoucher{
			Code:   codes[shopID],
			Scope:  constants.VoucherScopeShop,
			ShopID: shopID,
			Reason: constants.VoucherReasonScopeMismatch,
		})
		e.metrics.ObserveVoucherReject(constants.VoucherScopeShop, constants.VoucherReasonScopeMismatch)
	}

	if err := e.applyShopVouchers(ctx, grouped.Groups, codes, input.BuyerID); err != nil {
		return nil, err
	}

	grandSubtotal := decimal.Zero
	shipping := decimal.Zero
	for _, group := range grouped.Groups {
		group.ShippingFee = e.shippingFeeFor(group)
		grandSubtotal = grandSubtotal.Add(group.DiscountedSubtotal.Decimal)
		shipping = shipping.Add(group.ShippingFee.Decimal)
		if rejected := group.ShopVoucher.Rejected(); rejected != nil {
			draft.RejectedVouchers = append(draft.RejectedVouchers, *rejected)
		}
	}
	draft.GrandSubtotal = models.NewMoneyFromDecimal(grandSubtotal)
	draft.ShippingFee = models.NewMoneyFromDecimal(shipping)
	draft.SystemDiscount = models.ZeroMoney()

	if code := repository.NormalizeVoucherCode(input.SystemVoucherCode); code != "" {
		app, err := e.evaluateSystem(ctx, code, grandSubtotal.Add(shipping), input.BuyerID)
		if err != nil {
			return nil, err
		}
		draft.SystemVoucher = &app
		if app.Approved {
			draft.SystemDiscount = app.DiscountAmount
		} else {
			draft.RejectedVouchers = append(draft.RejectedVouchers, *app.Rejected())
		}
	}

	draft.GrandTotal = models.NewMoneyFromDecimal(floorZero(grandSubtotal.Add(shipping).Sub(draft.SystemDiscount.Decimal)))
	return draft, nil
}

// applyShopVouchers 并发校验各店铺券（只读），结果按下标回写
func (e *PricingEngine) applyShopVouchers(ctx context.Context, groups []*ShopGroup, codes map[uint]string, buyerID uint) error {
	results := make([]*VoucherApplication, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for i, group := range groups {
		code, ok := codes[group.ShopID]
		if !ok {
			continue
		}
		i, group := i, group
		eg.Go(func() error {
			app, err := e.evaluator.Evaluate(egCtx, VoucherRequest{
				Code:         code,
				Scope:        constants.VoucherScopeShop,
				ShopID:       group.ShopID,
				TargetAmount: group.RawSubtotal,
				BuyerID:      buyerID,
			})
			if err != nil {
				return err
			}
			results[i] = &app
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, group := range groups {
		group.ShopVoucher = results[i]
		group.ShopDiscount = models.ZeroMoney()
		if app := results[i]; app != nil {
			if app.Approved {
				group.ShopDiscount = app.DiscountAmount
			} else {
				e.metrics.ObserveVoucherReject(constants.VoucherScopeShop, app.Reason)
			}
		}
		discounted := group.RawSubtotal.Decimal.Sub(group.ShopDiscount.Decimal)
		if discounted.GreaterThan(group.RawSubtotal.Decimal) {
			discounted = group.RawSubtotal.Decimal
		}
		group.DiscountedSubtotal = models.NewMoneyFromDecimal(floorZero(discounted))
	}
	return nil
}

func (e *PricingEngine) evaluateSystem(ctx context.Context, code string, target decimal.Decimal, buyerID uint) (VoucherApplication, error) {
	app, err := e.evaluator.Evaluate(ctx, VoucherRequest{
		Code:         code,
		Scope:        constants.VoucherScopeSystem,
		TargetAmount: models.NewMoneyFromDecimal(target),
		BuyerID:      buyerID,
	})
	if err != nil {
		return app, err
	}
	if !app.Approved {
		e.metrics.ObserveVoucherReject(constants.VoucherScopeSystem, app.Reason)
	}
	return app, nil
}

// shippingFeeFor 有可结算商品的店铺收取运费，店铺未设置时使用默认运费
func (e *PricingEngine) shippingFeeFor(group *ShopGroup) models.Money {
	if !group.HasValidLines() {
		return models.ZeroMoney()
	}
	if group.baseShippingFee.Decimal.GreaterThan(decimal.Zero) {
		return group.baseShippingFee
	}
	return models.NewMoneyFromDecimal(floorZero(e.defaultShippingFee.Decimal))
}

// Preview 定价并保存草稿，返回带 DraftID 的草稿订单
func (e *PricingEngine) Preview(ctx context.Context, input PricingInput) (*DraftOrder, error) {
	record := &draftRecord{
		DraftID:           uuid.NewString(),
		BuyerID:           input.BuyerID,
		Lines:             stripExpectedPrices(input.Lines),
		ShopVoucherCodes:  normalizeVoucherCodes(input.ShopVoucherCodes),
		SystemVoucherCode: repository.NormalizeVoucherCode(input.SystemVoucherCode),
	}
	return e.repriceAndSave(ctx, record)
}

// ApplyShopVoucher 设置店铺券并全量重新定价
func (e *PricingEngine) ApplyShopVoucher(ctx context.Context, buyerID uint, draftID string, shopID uint, code string) (*DraftOrder, error) {
	normalized := repository.NormalizeVoucherCode(code)
	if normalized == "" {
		return nil, ErrVoucherCodeRequired
	}
	if shopID == 0 {
		return nil, ErrVoucherSlotInvalid
	}
	record, err := e.loadDraft(ctx, buyerID, draftID)
	if err != nil {
		return nil, err
	}
	record.ShopVoucherCodes[shopID] = normalized
	return e.repriceAndSave(ctx, record)
}

// RemoveShopVoucher 清空店铺券并全量重新定价
func (e *PricingEngine) RemoveShopVoucher(ctx context.Context, buyerID uint, draftID string, shopID uint) (*DraftOrder, error) {
	record, err := e.loadDraft(ctx, buyerID, draftID)
	if err != nil {
		return nil, err
	}
	delete(record.ShopVoucherCodes, shopID)
	return e.repriceAndSave(ctx, record)
}

// ApplySystemVoucher 设置平台券并全量重新定价
func (e *PricingEngine) ApplySystemVoucher(ctx context.Context, buyerID uint, draftID string, code string) (*DraftOrder, error) {
	normalized := repository.NormalizeVoucherCode(code)
	if normalized == "" {
		return nil, ErrVoucherCodeRequired
	}
	record, err := e.loadDraft(ctx, buyerID, draftID)
	if err != nil {
		return nil, err
	}
	record.SystemVoucherCode = normalized
	return e.repriceAndSave(ctx, record)
}

// RemoveSystemVoucher 清空平台券并全量重新定价
func (e *PricingEngine) RemoveSystemVoucher(ctx context.Context, buyerID uint, draftID string) (*DraftOrder, error) {
	record, err := e.loadDraft(ctx, buyerID, draftID)
	if err != nil {
		return nil, err
	}
	record.SystemVoucherCode = ""
	return e.repriceAndSave(ctx, record)
}

func (e *PricingEngine) repriceAndSave(ctx context.Context, record *draftRecord) (*DraftOrder, error) {
	draft, err := e.Price(ctx, record.input())
	if err != nil {
		return nil, err
	}
	draft.DraftID = record.DraftID

	// 不属于草稿内店铺的券码不保留在槽位中
	for shopID := range record.ShopVoucherCodes {
		if draft.group(shopID) == nil {
			delete(record.ShopVoucherCodes, shopID)
		}
	}
	record.UnitPrices = make(map[uint]models.Money)
	for _, group := range draft.Groups {
		for _, line := range group.Lines {
			record.UnitPrices[line.VariantID] = line.UnitPrice
		}
		for _, item := range group.InvalidItems {
			if item.UnitPrice != nil {
				record.UnitPrices[item.VariantID] = *item.UnitPrice
			}
		}
	}
	record.UpdatedAt = draft.PricedAt
	if e.drafts != nil {
		if err := e.drafts.Save(ctx, record.DraftID, record); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

func (e *PricingEngine) loadDraft(ctx context.Context, buyerID uint, draftID string) (*draftRecord, error) {
	id := strings.TrimSpace(draftID)
	if id == "" || e.drafts == nil {
		return nil, ErrDraftNotFound
	}
	var record draftRecord
	hit, err := e.drafts.Load(ctx, id, &record)
	if err != nil {
		return nil, err
	}
	if !hit || record.BuyerID != buyerID {
		return nil, ErrDraftNotFound
	}
	if record.ShopVoucherCodes == nil {
		record.ShopVoucherCodes = make(map[uint]string)
	}
	return &record, nil
}

func (d *DraftOrder) group(shopID uint) *ShopGroup {
	for _, group := range d.Groups {
		if group.ShopID == shopID {
			return group
		}
	}
	return nil
}

func normalizeVoucherCodes(codes map[uint]string) map[uint]string {
	result := make(map[uint]string, len(codes))
	for shopID, code := range codes {
		normalized := repository.NormalizeVoucherCode(code)
		if shopID == 0 || normalized == "" {
			continue
		}
		result[shopID] = normalized
	}
	return result
}

func copyVoucherCodes(codes map[uint]string) map[uint]string {
	result := make(map[uint]string, len(codes))
	for shopID, code := range codes {
		result[shopID] = code
	}
	return result
}

func sortedShopIDs(codes map[uint]string) []uint {
	ids := make([]uint, 0, len(codes))
	for shopID := range codes {
		ids = append(ids, shopID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func stripExpectedPrices(lines []CartLine) []CartLine {
	result := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		result = append(result, CartLine{VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return result
}

func floorZero(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return amount
}
