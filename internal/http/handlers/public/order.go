package public

import (
	"strconv"
	"strings"

	"github.com/dujiao-next/checkout/internal/http/response"
	"github.com/dujiao-next/checkout/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 买家订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	buyerID, ok := getBuyerID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var shopID uint
	if raw := strings.TrimSpace(c.Query("shop_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		shopID = uint(parsed)
	}

	orders, total, err := h.OrderService.ListOrdersByBuyer(service.ListOrdersInput{
		BuyerID:    buyerID,
		Status:     c.Query("status"),
		ShopID:     shopID,
		CheckoutNo: c.Query("checkout_no"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondOrderError(c, err, "error.order_fetch_failed")
		return
	}

	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 买家订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	buyerID, ok := getBuyerID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrderByBuyer(c.Param("order_code"), buyerID)
	if err != nil {
		respondOrderError(c, err, "error.order_fetch_failed")
		return
	}

	response.Success(c, order)
}

// CancelOrder 买家取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	buyerID, ok := getBuyerID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.CancelOrder(c.Request.Context(), c.Param("order_code"), buyerID)
	if err != nil {
		respondOrderError(c, err, "error.order_update_failed")
		return
	}

	response.Success(c, order)
}
