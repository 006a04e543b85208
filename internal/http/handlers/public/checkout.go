package public

import (
	"strconv"
	"strings"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/http/response"
	"github.com/dujiao-next/checkout/internal/i18n"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutItemRequest 结算商品行
type CheckoutItemRequest struct {
	VariantID         uint          `json:"variant_id" binding:"required"`
	Quantity          int           `json:"quantity" binding:"required"`
	ExpectedUnitPrice *models.Money `json:"expected_unit_price"`
}

// ShopVoucherRequest 店铺券选择
type ShopVoucherRequest struct {
	ShopID uint   `json:"shop_id" binding:"required"`
	Code   string `json:"code"`
}

// CheckoutPreviewRequest 结算预览请求
type CheckoutPreviewRequest struct {
	Items             []CheckoutItemRequest `json:"items" binding:"required"`
	ShopVouchers      []ShopVoucherRequest  `json:"shop_vouchers"`
	SystemVoucherCode string                `json:"system_voucher_code"`
}

// DraftVoucherRequest 草稿优惠券槽位请求
type DraftVoucherRequest struct {
	Scope  string `json:"scope" binding:"required"`
	ShopID uint   `json:"shop_id"`
	Code   string `json:"code" binding:"required"`
}

// PlaceOrderRequest 提交订单请求
type PlaceOrderRequest struct {
	DraftID           string                `json:"draft_id"`
	Items             []CheckoutItemRequest `json:"items" binding:"required"`
	DeliveryAddressID uint                  `json:"delivery_address_id"`
	ShopVouchers      []ShopVoucherRequest  `json:"shop_vouchers"`
	SystemVoucherCode string                `json:"system_voucher_code"`
	PaymentMethod     string                `json:"payment_method"`
	Note              string                `json:"note"`
}

func toCartLines(items []CheckoutItemRequest) []service.CartLine {
	lines := make([]service.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, service.CartLine{
			VariantID:         item.VariantID,
			Quantity:          item.Quantity,
			ExpectedUnitPrice: item.ExpectedUnitPrice,
		})
	}
	return lines
}

func toShopVoucherCodes(vouchers []ShopVoucherRequest) map[uint]string {
	codes := make(map[uint]string, len(vouchers))
	for _, voucher := range vouchers {
		if voucher.ShopID == 0 || strings.TrimSpace(voucher.Code) == "" {
			continue
		}
		codes[voucher.ShopID] = voucher.Code
	}
	return codes
}

// PreviewCheckout 结算预览（生成草稿）
func (h *Handler) PreviewCheckout(c *gin.Context) {
	buyerID, ok := getBuyerID(c)
	if !ok {
		return
	}

	var req CheckoutPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	draft, err := h.PricingEngine.Preview(c.Request.Context(), service.PricingInput{
		BuyerID:           buyerID,
		Lines:             toCartLines(req.Items),
		ShopVoucherCodes:  toShopVoucherCodes(req.ShopVouchers),
		SystemVoucherCode: req.SystemVoucherCode,
	})
	if err != nil {
		respondCheckoutPreviewError(c, err)
		return
	}

	response.Success(c, draft)
}

// ApplyDraftVoucher 为草稿设置店铺券或平台券
func (h *Handler) ApplyDraftVoucher(c *gin.Context) {
	buyerID, ok := getBuyerID(c)
	if !ok {
		return
	}

	var req DraftVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	draftID := strings.TrimSpace(c.Param("draft_id"))
	var (
		draft *service.DraftOrder
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(req.Scope)) {
	case constants.VoucherScopeShop:
		draft, err = h.PricingEngine.ApplyShopVoucher(c.Request.Context(), buyerID, draftID, req.ShopID, req.Code)
	case constants.VoucherScopeSystem:
		draft, err = h.PricingEngine.ApplySystemVoucher(c.Request.Context(), buyerID, draftID, req.Code)
	default:
		err = service.ErrVoucherSlotInvalid
	}
	if err != nil {
		respondCheckoutPreviewError(c, err)
		return
	}

	response.Success(c, draft)
}

// RemoveDraftVoucher 清空草稿的优惠券槽位
func (h *Handler) RemoveDraftVoucher(c *gin.Context) {
	buyerID, ok := getBuyerID(c)
	if !ok {
		return
	}

	draftID := strings.TrimSpace(c.Param("draft_id"))
	var (
		draft *service.DraftOrder
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(c.Query("scope"))) {
	case constants.VoucherScopeShop:
		shopID, parseErr := strconv.ParseUint(c.Query("shop_id"), 10, 64)
		if parseErr != nil || shopID == 0 {
			respondError(c, response.CodeBadRequest, "error.voucher_slot_invalid", nil)
			return
		}
		draft, err = h.PricingEngine.RemoveShopVoucher(c.Request.Context(), buyerID, draftID, uint(shopID))
	case constants.VoucherScopeSystem:
		draft, err = h.PricingEngine.RemoveSystemVoucher(c.Request.Context(), buyerID, draftID)
	default:
		err = service.ErrVoucherSlotInvalid
	}
	if err != nil {
		respondCheckoutPreviewError(c, err)
		return
	}

	response.Success(c, draft)
}

// PlaceOrder 提交订单（按店铺独立提交）
func (h *Handler) PlaceOrder(c *gin.Context) {
	buyerID, ok := getBuyerID(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.CheckoutService.PlaceOrder(c.Request.Context(), service.PlaceOrderInput{
		BuyerID:           buyerID,
		DraftID:           req.DraftID,
		Lines:             toCartLines(req.Items),
		DeliveryAddressID: req.DeliveryAddressID,
		ShopVoucherCodes:  toShopVoucherCodes(req.ShopVouchers),
		SystemVoucherCode: req.SystemVoucherCode,
		PaymentMethod:     req.PaymentMethod,
		Note:              req.Note,
	})
	if err != nil {
		respondPlaceOrderError(c, err)
		return
	}

	msgKey := "checkout.committed"
	if result.CommittedCount < len(result.Shops) {
		msgKey = "checkout.partial_committed"
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), msgKey), result)
}
