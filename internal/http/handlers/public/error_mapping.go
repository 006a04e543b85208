package public

import (
	"errors"

	"github.com/dujiao-next/checkout/internal/constants"
	handlershared "github.com/dujiao-next/checkout/internal/http/handlers/shared"
	"github.com/dujiao-next/checkout/internal/http/response"
	"github.com/dujiao-next/checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var cartInputErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrInvalidCartLine, code: response.CodeBadRequest, key: "error.cart_line_invalid"},
	{target: service.ErrInvalidBuyer, code: response.CodeUnauthorized, key: "error.unauthorized"},
}

var draftErrorRules = []mappedHandlerError{
	{target: service.ErrDraftNotFound, code: response.CodeNotFound, key: "error.draft_not_found"},
	{target: service.ErrVoucherSlotInvalid, code: response.CodeBadRequest, key: "error.voucher_slot_invalid"},
	{target: service.ErrVoucherCodeRequired, code: response.CodeBadRequest, key: "error.voucher_code_required"},
}

var placeOrderErrorRules = []mappedHandlerError{
	{target: service.ErrDeliveryAddressRequired, code: response.CodeBadRequest, key: "error.delivery_address_required"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, key: "error.address_not_found"},
	{target: service.ErrPaymentMethodUnsupported, code: response.CodeBadRequest, key: "error.payment_method_unsupported"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidBuyer, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
}

func respondCheckoutPreviewError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartInputErrorRules, draftErrorRules), response.CodeInternal, "error.checkout_preview_failed")
}

// respondPlaceOrderError 校验失败时返回逐项的失效商品与优惠券
func respondPlaceOrderError(c *gin.Context, err error) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		handlershared.RequestLog(c).Infow("checkout_validation_rejected",
			"invalid_items", len(validation.InvalidItems),
			"rejected_vouchers", len(validation.RejectedVouchers),
		)
		handlershared.RespondErrorWithData(c, response.CodeUnprocessableEntity, "error.checkout_validation_failed", gin.H{
			"reason":            constants.CommitReasonValidationFailed,
			"invalid_items":     validation.InvalidItems,
			"rejected_vouchers": validation.RejectedVouchers,
		})
		return
	}
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartInputErrorRules, placeOrderErrorRules), response.CodeInternal, "error.checkout_failed")
}

func respondOrderError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, fallbackKey)
}
