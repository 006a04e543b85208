package i18n

var catalog = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":                "请求参数错误",
		"error.unauthorized":               "未登录或登录已失效",
		"error.forbidden":                  "无权访问",
		"error.not_found":                  "资源不存在",
		"error.internal":                   "服务器内部错误",
		"error.jwt_secret_missing":         "鉴权配置缺失",
		"error.auth_header_missing":        "缺少 Authorization 请求头",
		"error.auth_header_invalid":        "Authorization 格式错误",
		"error.token_invalid":              "登录凭证无效",
		"error.buyer_id_invalid":           "买家 ID 无效",
		"error.buyer_id_type_invalid":      "买家 ID 类型错误",
		"error.rate_limited":               "操作过于频繁，请 %d 秒后再试",
		"error.place_order_too_many":       "下单过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":     "限流服务不可用",
		"error.cart_empty":                 "请至少选择一件商品",
		"error.cart_line_invalid":          "商品或数量无效",
		"error.delivery_address_required":  "请选择收货地址",
		"error.address_not_found":          "收货地址不存在",
		"error.payment_method_unsupported": "不支持的支付方式",
		"error.draft_not_found":            "结算草稿不存在或已过期，请重新结算",
		"error.voucher_slot_invalid":       "优惠券适用范围无效",
		"error.voucher_code_required":      "请输入优惠码",
		"error.checkout_validation_failed": "部分商品或优惠券已失效，请调整后重试",
		"error.checkout_preview_failed":    "结算预览失败",
		"error.checkout_failed":            "提交订单失败",
		"error.order_not_found":            "订单不存在",
		"error.order_status_invalid":       "当前订单状态不允许该操作",
		"error.order_fetch_failed":         "获取订单失败",
		"error.order_update_failed":        "订单更新失败",
		"checkout.partial_committed":       "部分店铺订单提交失败",
		"checkout.committed":               "下单成功",
	},
	LocaleEnUS: {
		"error.bad_request":                "Invalid request",
		"error.unauthorized":               "Not signed in or session expired",
		"error.forbidden":                  "Forbidden",
		"error.not_found":                  "Resource not found",
		"error.internal":                   "Internal server error",
		"error.jwt_secret_missing":         "Authentication is not configured",
		"error.auth_header_missing":        "Missing Authorization header",
		"error.auth_header_invalid":        "Malformed Authorization header",
		"error.token_invalid":              "Invalid token",
		"error.buyer_id_invalid":           "Invalid buyer id",
		"error.buyer_id_type_invalid":      "Invalid buyer id type",
		"error.rate_limited":               "Too many requests, retry in %d seconds",
		"error.place_order_too_many":       "Too many orders, retry in %d seconds",
		"error.rate_limit_unavailable":     "Rate limiter unavailable",
		"error.cart_empty":                 "Select at least one item",
		"error.cart_line_invalid":          "Invalid item or quantity",
		"error.delivery_address_required":  "Delivery address is required",
		"error.address_not_found":          "Delivery address not found",
		"error.payment_method_unsupported": "Unsupported payment method",
		"error.draft_not_found":            "Checkout draft not found or expired",
		"error.voucher_slot_invalid":       "Invalid voucher scope",
		"error.voucher_code_required":      "Voucher code is required",
		"error.checkout_validation_failed": "Some items or vouchers are no longer valid",
		"error.checkout_preview_failed":    "Failed to price checkout",
		"error.checkout_failed":            "Failed to place order",
		"error.order_not_found":            "Order not found",
		"error.order_status_invalid":       "Order status does not allow this action",
		"error.order_fetch_failed":         "Failed to fetch order",
		"error.order_update_failed":        "Failed to update order",
		"checkout.partial_committed":       "Some shop orders could not be placed",
		"checkout.committed":               "Order placed",
	},
}
