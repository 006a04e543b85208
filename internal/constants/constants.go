package constants

// 订单状态常量
const (
	OrderStatusCreated  = "created"
	OrderStatusCanceled = "canceled"
)

// 优惠券范围与类型常量
const (
	VoucherScopeSystem = "system"
	VoucherScopeShop   = "shop"

	VoucherTypeFixed   = "fixed"
	VoucherTypePercent = "percent"
)

// 购物行失效原因
const (
	InvalidReasonVariantNotFound = "VARIANT_NOT_FOUND"
	InvalidReasonOutOfStock      = "OUT_OF_STOCK"
	InvalidReasonProductInactive = "PRODUCT_INACTIVE"
	InvalidReasonShopBlocked     = "SHOP_BLOCKED"
	InvalidReasonPriceChanged    = "PRICE_CHANGED"
)

// 优惠券拒绝原因
const (
	VoucherReasonNotFound       = "VOUCHER_NOT_FOUND"
	VoucherReasonScopeMismatch  = "VOUCHER_SCOPE_MISMATCH"
	VoucherReasonExpired        = "VOUCHER_EXPIRED"
	VoucherReasonNotStarted     = "VOUCHER_NOT_STARTED"
	VoucherReasonMinOrderNotMet = "MIN_ORDER_NOT_MET"
	VoucherReasonUsageLimit     = "USAGE_LIMIT_REACHED"
	VoucherReasonPerUserLimit   = "PER_USER_LIMIT_REACHED"
)

// 结算失败分类
const (
	CommitReasonValidationFailed     = "VALIDATION_FAILED"
	CommitReasonStockConflict        = "STOCK_CONFLICT"
	CommitReasonVoucherUsageConflict = "VOUCHER_USAGE_CONFLICT"
	CommitReasonOrderCodeConflict    = "ORDER_CODE_CONFLICT"
	CommitReasonTimeout              = "COMMIT_TIMEOUT"
	CommitReasonFailed               = "COMMIT_FAILED"
)

// 店铺结算状态
const (
	ShopCommitPriced     = "priced"
	ShopCommitValidating = "validating"
	ShopCommitCommitted  = "committed"
	ShopCommitRejected   = "rejected"
)

// 地址常量
const (
	AddressOwnerBuyer = "buyer"
	AddressOwnerShop  = "shop"

	AddressKindPickup   = "pickup"
	AddressKindDelivery = "delivery"
)

// 队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskOrderCreated  = "order:created"
	TaskOrderCanceled = "order:canceled"
)
