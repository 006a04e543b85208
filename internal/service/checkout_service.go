package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/logger"
	"github.com/dujiao-next/checkout/internal/metrics"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultCommitTimeout = 5 * time.Second

// CheckoutRepositories 结算提交依赖的仓库
type CheckoutRepositories struct {
	Variant repository.VariantRepository
	Voucher repository.VoucherRepository
	Usage   repository.VoucherUsageRepository
	Order   repository.OrderRepository
	Address repository.AddressRepository
	Shop    repository.ShopRepository
}

// CheckoutOptions 结算提交配置
type CheckoutOptions struct {
	CommitTimeout   time.Duration
	OrderCodePrefix string
	PaymentMethods  []string
}

// CheckoutService 结算提交服务
type CheckoutService struct {
	engine          *PricingEngine
	repos           CheckoutRepositories
	notifier        OrderNotifier
	metrics         *metrics.Registry
	commitTimeout   time.Duration
	orderCodePrefix string
	paymentMethods  map[string]struct{}
	now             func() time.Time
	orderCode       func(prefix string, now time.Time) string
}

// NewCheckoutService 创建结算提交服务
func NewCheckoutService(engine *PricingEngine, repos CheckoutRepositories, notifier OrderNotifier, reg *metrics.Registry, opts CheckoutOptions) *CheckoutService {
	timeout := opts.CommitTimeout
	if timeout <= 0 {
		timeout = defaultCommitTimeout
	}
	methods := make(map[string]struct{}, len(opts.PaymentMethods))
	for _, method := range opts.PaymentMethods {
		if normalized := normalizePaymentMethod(method); normalized != "" {
			methods[normalized] = struct{}{}
		}
	}
	return &CheckoutService{
		engine:          engine,
		repos:           repos,
		notifier:        notifier,
		metrics:         reg,
		commitTimeout:   timeout,
		orderCodePrefix: opts.OrderCodePrefix,
		paymentMethods:  methods,
		now:             time.Now,
		orderCode:       generateOrderCode,
	}
}

// PlaceOrderInput 提交订单输入
type PlaceOrderInput struct {
	BuyerID           uint
	DraftID           string
	Lines             []CartLine
	DeliveryAddressID uint
	ShopVoucherCodes  map[uint]string
	SystemVoucherCode string
	PaymentMethod     string
	Note              string
}

// ShopRejection 单个店铺的拒绝原因
type ShopRejection struct {
	Reason           string            `json:"reason"`
	InvalidItems     []InvalidItem     `json:"invalid_items,omitempty"`
	RejectedVouchers []RejectedVoucher `json:"rejected_vouchers,omitempty"`
}

// ShopCommitResult 单个店铺的结算结果
type ShopCommitResult struct {
	ShopID    uint           `json:"shop_id"`
	State     string         `json:"state"`
	Order     *models.Order  `json:"order,omitempty"`
	Rejection *ShopRejection `json:"rejection,omitempty"`
}

// CheckoutResult 一次结算的汇总结果
type CheckoutResult struct {
	CheckoutNo     string              `json:"checkout_no"`
	Shops          []ShopCommitResult  `json:"shops"`
	SystemVoucher  *VoucherApplication `json:"system_voucher,omitempty"`
	CommittedCount int                 `json:"committed_count"`
	GrandTotal     models.Money        `json:"grand_total"`
}

type shopCommit struct {
	group       *ShopGroup
	state       string
	systemShare decimal.Decimal
	total       decimal.Decimal
	order       *models.Order
	rejection   *ShopRejection
	elapsed     time.Duration
}

func (c *shopCommit) transition(to string) error {
	if !canTransition(c.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.state, to)
	}
	c.state = to
	return nil
}

func (c *shopCommit) reject(rejection *ShopRejection) {
	if err := c.transition(constants.ShopCommitRejected); err != nil {
		logger.Errorw("checkout_shop_transition_failed", "shop_id", c.group.ShopID, "error", err)
		return
	}
	c.rejection = rejection
}

func (c *shopCommit) weight() decimal.Decimal {
	return c.group.DiscountedSubtotal.Decimal.Add(c.group.ShippingFee.Decimal)
}

type checkoutPlan struct {
	checkoutNo    string
	buyerID       uint
	paymentMethod string
	note          string
	delivery      *models.Address
	shops         []*shopCommit
	systemVoucher *VoucherApplication
	// systemUsage 平台券使用记录，金额为已提交店铺分摊额之和
	systemUsage *models.VoucherUsage
}

func (p *checkoutPlan) pending() []*shopCommit {
	result := make([]*shopCommit, 0, len(p.shops))
	for _, commit := range p.shops {
		if !isTerminalShopState(commit.state) {
			result = append(result, commit)
		}
	}
	return result
}

// PlaceOrder 重新校验并按店铺逐个提交订单
// 校验失败（变体不存在、平台券失效、无可提交店铺等）返回 *ValidationError 且不落库；
// 单店铺失败只影响该店铺，已提交的兄弟订单保持不变。
func (s *CheckoutService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*CheckoutResult, error) {
	plan, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, plan), nil
}

func (s *CheckoutService) prepare(ctx context.Context, input PlaceOrderInput) (*checkoutPlan, error) {
	paymentMethod, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}
	address, err := s.repos.Address.GetByOwner(input.DeliveryAddressID, constants.AddressOwnerBuyer, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}

	pricing := s.resolvePricingInput(ctx, input)
	draft, err := s.engine.Price(ctx, pricing)
	if err != nil {
		return nil, err
	}

	plan := &checkoutPlan{
		checkoutNo:    uuid.NewString(),
		buyerID:       input.BuyerID,
		paymentMethod: paymentMethod,
		note:          strings.TrimSpace(input.Note),
		delivery:      address,
		shops:         make([]*shopCommit, 0, len(draft.Groups)),
	}
	validation := &ValidationError{
		InvalidItems:     draft.InvalidItems,
		RejectedVouchers: make([]RejectedVoucher, 0),
	}
	abort := false
	for _, item := range draft.InvalidItems {
		if item.ShopID == 0 {
			abort = true
		}
	}
	for _, rejected := range draft.RejectedVouchers {
		if rejected.Scope != constants.VoucherScopeShop {
			continue
		}
		validation.RejectedVouchers = append(validation.RejectedVouchers, rejected)
		if draft.group(rejected.ShopID) == nil {
			abort = true
		}
	}

	for _, group := range draft.Groups {
		commit := &shopCommit{group: group, state: constants.ShopCommitPriced, total: decimal.Zero}
		if err := commit.transition(constants.ShopCommitValidating); err != nil {
			return nil, err
		}
		rejectedVoucher := group.ShopVoucher.Rejected()
		if len(group.InvalidItems) > 0 || rejectedVoucher != nil || !group.HasValidLines() {
			rejection := &ShopRejection{
				Reason:       constants.CommitReasonValidationFailed,
				InvalidItems: group.InvalidItems,
			}
			if rejectedVoucher != nil {
				rejection.RejectedVouchers = []RejectedVoucher{*rejectedVoucher}
			}
			commit.reject(rejection)
		}
		plan.shops = append(plan.shops, commit)
	}

	surviving := plan.pending()
	if abort || len(surviving) == 0 {
		return nil, validation
	}

	if code := repository.NormalizeVoucherCode(pricing.SystemVoucherCode); code != "" {
		target := decimal.Zero
		for _, commit := range surviving {
			target = target.Add(commit.weight())
		}
		app, err := s.engine.evaluateSystem(ctx, code, target, input.BuyerID)
		if err != nil {
			return nil, err
		}
		if !app.Approved {
			validation.RejectedVouchers = append(validation.RejectedVouchers, *app.Rejected())
			return nil, validation
		}
		plan.systemVoucher = &app
		allocateSystemDiscount(surviving, app.DiscountAmount.Decimal)
	}
	for _, commit := range surviving {
		commit.total = floorZero(commit.weight().Sub(commit.systemShare)).Round(2)
	}
	return plan, nil
}

func (s *CheckoutService) commit(ctx context.Context, plan *checkoutPlan) *CheckoutResult {
	systemPending := plan.systemVoucher != nil
	systemConflict := false

	for _, commit := range plan.shops {
		if isTerminalShopState(commit.state) {
			continue
		}
		if systemConflict && commit.systemShare.GreaterThan(decimal.Zero) {
			commit.reject(&ShopRejection{Reason: constants.CommitReasonVoucherUsageConflict})
			continue
		}
		if err := ctx.Err(); err != nil {
			commit.reject(&ShopRejection{Reason: constants.CommitReasonFailed})
			continue
		}

		started := time.Now()
		err := s.commitShop(ctx, plan, commit, systemPending, plan.systemVoucher != nil && !systemConflict)
		commit.elapsed = time.Since(started)
		if err == nil {
			if transitionErr := commit.transition(constants.ShopCommitCommitted); transitionErr != nil {
				logger.Errorw("checkout_shop_transition_failed", "shop_id", commit.group.ShopID, "error", transitionErr)
			}
			systemPending = false
			if s.notifier != nil {
				s.notifier.OrderCreated(ctx, commit.order)
			}
			continue
		}

		var conflict *voucherUsageConflictError
		if errors.As(err, &conflict) && conflict.scope == constants.VoucherScopeSystem {
			systemConflict = true
			systemPending = false
		}
		commit.order = nil
		commit.reject(&ShopRejection{Reason: classifyCommitError(err)})
		logger.Warnw("checkout_shop_commit_failed",
			"checkout_no", plan.checkoutNo,
			"buyer_id", plan.buyerID,
			"shop_id", commit.group.ShopID,
			"reason", commit.rejection.Reason,
			"error", err,
		)
	}

	result := &CheckoutResult{
		CheckoutNo:    plan.checkoutNo,
		Shops:         make([]ShopCommitResult, 0, len(plan.shops)),
		SystemVoucher: plan.systemVoucher,
	}
	grandTotal := decimal.Zero
	for _, commit := range plan.shops {
		reason := ""
		if commit.rejection != nil {
			reason = commit.rejection.Reason
		}
		s.metrics.ObserveShopCommit(commit.state, reason, commit.elapsed)
		if commit.state == constants.ShopCommitCommitted {
			result.CommittedCount++
			grandTotal = grandTotal.Add(commit.order.TotalAmount.Decimal)
		}
		result.Shops = append(result.Shops, ShopCommitResult{
			ShopID:    commit.group.ShopID,
			State:     commit.state,
			Order:     commit.order,
			Rejection: commit.rejection,
		})
	}
	result.GrandTotal = models.NewMoneyFromDecimal(grandTotal)
	logger.Infow("checkout_completed",
		"checkout_no", plan.checkoutNo,
		"buyer_id", plan.buyerID,
		"shops", len(plan.shops),
		"committed", result.CommittedCount,
		"grand_total", result.GrandTotal.String(),
	)
	return result
}

// commitShop 在单个事务内完成扣库存、地址快照、建单与优惠券使用记录
func (s *CheckoutService) commitShop(ctx context.Context, plan *checkoutPlan, commit *shopCommit, carrySystem, withSystemSnapshot bool) error {
	commitCtx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	now := s.now()
	group := commit.group
	var (
		created     *models.Order
		systemUsage *models.VoucherUsage
	)
	err := models.DB.WithContext(commitCtx).Transaction(func(tx *gorm.DB) error {
		variantRepo := s.repos.Variant.WithTx(tx)
		addressRepo := s.repos.Address.WithTx(tx)
		orderRepo := s.repos.Order.WithTx(tx)
		voucherRepo := s.repos.Voucher.WithTx(tx)
		usageRepo := s.repos.Usage.WithTx(tx)

		for _, line := range group.Lines {
			affected, err := variantRepo.DecrementStock(line.VariantID, line.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: variant %d", ErrStockConflict, line.VariantID)
			}
		}

		pickup, err := s.snapshotPickupAddress(tx, group.ShopID, now)
		if err != nil {
			return err
		}
		delivery := models.NewAddressSnapshot(constants.AddressKindDelivery, plan.delivery, now)
		if err := addressRepo.CreateSnapshot(delivery); err != nil {
			return err
		}

		order := &models.Order{
			OrderCode:                 s.orderCode(s.orderCodePrefix, now),
			CheckoutNo:                plan.checkoutNo,
			BuyerID:                   plan.buyerID,
			ShopID:                    group.ShopID,
			Status:                    constants.OrderStatusCreated,
			PaymentMethod:             plan.paymentMethod,
			SubtotalAmount:            group.RawSubtotal,
			ShopDiscountAmount:        group.ShopDiscount,
			SystemDiscountAmount:      models.NewMoneyFromDecimal(commit.systemShare),
			ShippingFee:               group.ShippingFee,
			TotalAmount:               models.NewMoneyFromDecimal(commit.total),
			DeliveryAddressSnapshotID: delivery.ID,
			Note:                      plan.note,
			CreatedAt:                 now,
			UpdatedAt:                 now,
		}
		if pickup != nil {
			order.PickupAddressSnapshotID = &pickup.ID
		}
		if app := group.ShopVoucher; app != nil && app.Approved {
			order.ShopVoucher = app.voucher.Snapshot(group.ShopDiscount)
		}
		if withSystemSnapshot {
			order.SystemVoucher = plan.systemVoucher.voucher.Snapshot(models.NewMoneyFromDecimal(commit.systemShare))
		}

		history := &models.OrderStatusHistory{
			ToStatus:  constants.OrderStatusCreated,
			Note:      "checkout " + plan.checkoutNo,
			CreatedAt: now,
		}
		if err := orderRepo.Create(order, buildOrderItems(group.Lines, now), history); err != nil {
			if isUniqueViolation(err) {
				// 同秒内随机后缀重复，不重试
				return fmt.Errorf("%w: %s", ErrOrderCodeConflict, order.OrderCode)
			}
			return err
		}

		if app := group.ShopVoucher; app != nil && app.Approved {
			if _, err := recordVoucherUsage(voucherRepo, usageRepo, app.voucher, plan.buyerID, order.ID, group.ShopDiscount, now); err != nil {
				return err
			}
		}
		share := models.NewMoneyFromDecimal(commit.systemShare)
		switch {
		case carrySystem:
			usage, err := recordVoucherUsage(voucherRepo, usageRepo, plan.systemVoucher.voucher, plan.buyerID, order.ID, share, now)
			if err != nil {
				return err
			}
			systemUsage = usage
		case withSystemSnapshot && plan.systemUsage != nil && commit.systemShare.GreaterThan(decimal.Zero):
			accumulated := models.NewMoneyFromDecimal(plan.systemUsage.DiscountAmount.Decimal.Add(commit.systemShare))
			affected, err := usageRepo.UpdateHolder(plan.systemUsage.ID, plan.systemUsage.OrderID, accumulated)
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("system voucher usage %d missing", plan.systemUsage.ID)
			}
			updated := *plan.systemUsage
			updated.DiscountAmount = accumulated
			systemUsage = &updated
		}

		order.PickupAddress = pickup
		order.DeliveryAddress = delivery
		created = order
		return nil
	})
	if err != nil {
		if errors.Is(commitCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return err
	}
	commit.order = created
	if systemUsage != nil {
		plan.systemUsage = systemUsage
	}
	return nil
}

func (s *CheckoutService) snapshotPickupAddress(tx *gorm.DB, shopID uint, now time.Time) (*models.AddressSnapshot, error) {
	shop, err := s.repos.Shop.WithTx(tx).GetByID(shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil || shop.PickupAddressID == nil {
		return nil, nil
	}
	addressRepo := s.repos.Address.WithTx(tx)
	address, err := addressRepo.GetByID(*shop.PickupAddressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, nil
	}
	snapshot := models.NewAddressSnapshot(constants.AddressKindPickup, address, now)
	if err := addressRepo.CreateSnapshot(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *CheckoutService) validateInput(input PlaceOrderInput) (string, error) {
	if input.BuyerID == 0 {
		return "", ErrInvalidBuyer
	}
	if len(input.Lines) == 0 {
		return "", ErrCartEmpty
	}
	for _, line := range input.Lines {
		if line.VariantID == 0 || line.Quantity <= 0 {
			return "", ErrInvalidCartLine
		}
	}
	if input.DeliveryAddressID == 0 {
		return "", ErrDeliveryAddressRequired
	}
	method := normalizePaymentMethod(input.PaymentMethod)
	if _, ok := s.paymentMethods[method]; !ok {
		return "", ErrPaymentMethodUnsupported
	}
	return method, nil
}

// resolvePricingInput 草稿存在时以草稿单价作为期望价格，未传优惠码时沿用草稿中的优惠码
func (s *CheckoutService) resolvePricingInput(ctx context.Context, input PlaceOrderInput) PricingInput {
	lines := make([]CartLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		copied := CartLine{VariantID: line.VariantID, Quantity: line.Quantity}
		if line.ExpectedUnitPrice != nil {
			price := *line.ExpectedUnitPrice
			copied.ExpectedUnitPrice = &price
		}
		lines = append(lines, copied)
	}
	pricing := PricingInput{
		BuyerID:           input.BuyerID,
		Lines:             lines,
		ShopVoucherCodes:  input.ShopVoucherCodes,
		SystemVoucherCode: input.SystemVoucherCode,
	}

	draftID := strings.TrimSpace(input.DraftID)
	if draftID == "" {
		return pricing
	}
	record, err := s.engine.loadDraft(ctx, input.BuyerID, draftID)
	if err != nil {
		logger.Warnw("checkout_draft_unavailable", "buyer_id", input.BuyerID, "draft_id", draftID, "error", err)
		return pricing
	}
	for i := range pricing.Lines {
		if price, ok := record.UnitPrices[pricing.Lines[i].VariantID]; ok {
			expected := price
			pricing.Lines[i].ExpectedUnitPrice = &expected
		}
	}
	if len(normalizeVoucherCodes(pricing.ShopVoucherCodes)) == 0 && repository.NormalizeVoucherCode(pricing.SystemVoucherCode) == "" {
		pricing.ShopVoucherCodes = copyVoucherCodes(record.ShopVoucherCodes)
		pricing.SystemVoucherCode = record.SystemVoucherCode
	}
	return pricing
}

// allocateSystemDiscount 按各店铺（折后小计 + 运费）比例分摊平台券优惠，最后一个店铺承担余数
func allocateSystemDiscount(commits []*shopCommit, discount decimal.Decimal) {
	if len(commits) == 0 || discount.LessThanOrEqual(decimal.Zero) {
		return
	}
	totalWeight := decimal.Zero
	for _, commit := range commits {
		totalWeight = totalWeight.Add(commit.weight())
	}
	if totalWeight.LessThanOrEqual(decimal.Zero) {
		return
	}

	remaining := discount
	for i, commit := range commits {
		weight := commit.weight()
		if i == len(commits)-1 {
			alloc := remaining.Round(2)
			if alloc.GreaterThan(weight) {
				alloc = weight
			}
			commit.systemShare = floorZero(alloc)
			break
		}
		alloc := discount.Mul(weight).Div(totalWeight).Round(2)
		if alloc.GreaterThan(remaining) {
			alloc = remaining
		}
		if alloc.GreaterThan(weight) {
			alloc = weight
		}
		commit.systemShare = floorZero(alloc)
		remaining = remaining.Sub(commit.systemShare)
	}
}

func buildOrderItems(lines []PricedLine, now time.Time) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			VariantName: line.VariantName,
			SKUCode:     line.SKUCode,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			TotalPrice:  line.LineTotal,
			CreatedAt:   now,
		})
	}
	return items
}

func normalizePaymentMethod(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func classifyCommitError(err error) string {
	switch {
	case errors.Is(err, ErrStockConflict):
		return constants.CommitReasonStockConflict
	case errors.Is(err, ErrVoucherUsageConflict):
		return constants.CommitReasonVoucherUsageConflict
	case errors.Is(err, ErrOrderCodeConflict):
		return constants.CommitReasonOrderCodeConflict
	case errors.Is(err, context.DeadlineExceeded):
		return constants.CommitReasonTimeout
	default:
		return constants.CommitReasonFailed
	}
}
