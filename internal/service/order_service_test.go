package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeTestCheckout(t *testing.T, f *checkoutFixture) *CheckoutResult {
	t.Helper()
	input := f.input()
	input.ShopVoucherCodes = map[uint]string{f.alpha.ID: "SHOP30K"}
	input.SystemVoucherCode = "SYS10K"
	result, err := f.checkout.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 2, result.CommittedCount)
	return result
}

func systemUsageAmounts(t *testing.T, f *checkoutFixture, voucherID uint, orderIDs ...uint) map[uint]string {
	t.Helper()
	held := map[uint]string{}
	for _, orderID := range orderIDs {
		usages, err := f.repos.Usage.ListByOrderID(orderID)
		require.NoError(t, err)
		for _, usage := range usages {
			if usage.VoucherID == voucherID {
				held[orderID] = usage.DiscountAmount.String()
			}
		}
	}
	return held
}

func TestCancelOrderRestoresStockAndVoucherUsage(t *testing.T) {
	f := newCheckoutFixture(t)
	result := placeTestCheckout(t, f)
	alpha := shopResult(t, result, f.alpha.ID).Order
	beta := shopResult(t, result, f.beta.ID).Order

	alphaVoucher, err := f.repos.Voucher.GetByCode("SHOP30K")
	require.NoError(t, err)
	require.Equal(t, 1, alphaVoucher.UsedCount)
	systemVoucher, err := f.repos.Voucher.GetByCode("SYS10K")
	require.NoError(t, err)

	canceled, err := f.orders.CancelOrder(context.Background(), alpha.OrderCode, 1)
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)
	require.Len(t, canceled.StatusHistory, 2)
	assert.Equal(t, constants.OrderStatusCanceled, canceled.StatusHistory[1].ToStatus)

	assert.Equal(t, 10, reloadVariant(t, f.db, f.alpha1.ID).Stock)
	assert.Equal(t, 9, reloadVariant(t, f.db, f.beta1.ID).Stock, "sibling shop order is untouched")
	assert.Equal(t, 0, reloadVoucher(t, f.db, alphaVoucher.ID).UsedCount)

	// 兄弟订单仍享受平台券分摊，使用记录随之转移
	assert.Equal(t, 1, reloadVoucher(t, f.db, systemVoucher.ID).UsedCount)
	assert.Equal(t, map[uint]string{beta.ID: "719.26"}, systemUsageAmounts(t, f, systemVoucher.ID, alpha.ID, beta.ID))
	usages, err := f.repos.Usage.ListByOrderID(alpha.ID)
	require.NoError(t, err)
	assert.Empty(t, usages)

	_, err = f.orders.CancelOrder(context.Background(), beta.OrderCode, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadVoucher(t, f.db, systemVoucher.ID).UsedCount)
	assert.Empty(t, systemUsageAmounts(t, f, systemVoucher.ID, alpha.ID, beta.ID))
}

func TestCancelNonHolderSiblingShrinksSystemUsage(t *testing.T) {
	f := newCheckoutFixture(t)
	result := placeTestCheckout(t, f)
	alpha := shopResult(t, result, f.alpha.ID).Order
	beta := shopResult(t, result, f.beta.ID).Order
	systemVoucher, err := f.repos.Voucher.GetByCode("SYS10K")
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(context.Background(), beta.OrderCode, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadVoucher(t, f.db, systemVoucher.ID).UsedCount)
	assert.Equal(t, map[uint]string{alpha.ID: "9280.74"}, systemUsageAmounts(t, f, systemVoucher.ID, alpha.ID, beta.ID))

	_, err = f.orders.CancelOrder(context.Background(), alpha.OrderCode, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadVoucher(t, f.db, systemVoucher.ID).UsedCount)
	assert.Empty(t, systemUsageAmounts(t, f, systemVoucher.ID, alpha.ID, beta.ID))
}

func TestCancelOrderKeepsPerUserLimitWhileSiblingHoldsDiscount(t *testing.T) {
	f := newCheckoutFixture(t)
	createTestVoucher(t, f.db, &models.Voucher{Code: "SYSONCE", Type: constants.VoucherTypeFixed, Value: money("8000"), PerUserLimit: 1})

	input := f.input()
	input.SystemVoucherCode = "SYSONCE"
	result, err := f.checkout.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 2, result.CommittedCount)
	alpha := shopResult(t, result, f.alpha.ID).Order
	beta := shopResult(t, result, f.beta.ID).Order
	require.True(t, beta.SystemDiscountAmount.Decimal.IsPositive())

	_, err = f.orders.CancelOrder(context.Background(), alpha.OrderCode, 1)
	require.NoError(t, err)

	req := VoucherRequest{Code: "SYSONCE", Scope: constants.VoucherScopeSystem, TargetAmount: money("100000"), BuyerID: 1}
	app, err := f.evaluator.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, app.Approved)
	assert.Equal(t, constants.VoucherReasonPerUserLimit, app.Reason)

	_, err = f.orders.CancelOrder(context.Background(), beta.OrderCode, 1)
	require.NoError(t, err)
	app, err = f.evaluator.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, app.Approved, "voucher is released once no sibling keeps a share")
}

func TestCancelOrderRejectsRepeatAndForeignBuyer(t *testing.T) {
	f := newCheckoutFixture(t)
	result := placeTestCheckout(t, f)
	beta := shopResult(t, result, f.beta.ID).Order

	_, err := f.orders.CancelOrder(context.Background(), beta.OrderCode, 2)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign buyer want ErrOrderNotFound got %v", err)
	}

	_, err = f.orders.CancelOrder(context.Background(), beta.OrderCode, 1)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(context.Background(), beta.OrderCode, 1)
	if !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("second cancel want ErrOrderStatusInvalid got %v", err)
	}
	assert.Equal(t, 10, reloadVariant(t, f.db, f.beta1.ID).Stock, "stock restored exactly once")
}

func TestListOrdersByBuyerFilters(t *testing.T) {
	f := newCheckoutFixture(t)
	result := placeTestCheckout(t, f)

	cases := []struct {
		name  string
		input ListOrdersInput
		want  int64
	}{
		{name: "all", input: ListOrdersInput{BuyerID: 1}, want: 2},
		{name: "by checkout", input: ListOrdersInput{BuyerID: 1, CheckoutNo: " " + result.CheckoutNo + " "}, want: 2},
		{name: "by shop", input: ListOrdersInput{BuyerID: 1, ShopID: f.alpha.ID}, want: 1},
		{name: "by status", input: ListOrdersInput{BuyerID: 1, Status: constants.OrderStatusCanceled}, want: 0},
		{name: "other buyer", input: ListOrdersInput{BuyerID: 2}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders, total, err := f.orders.ListOrdersByBuyer(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, total)
			assert.Len(t, orders, int(tc.want))
		})
	}

	_, _, err := f.orders.ListOrdersByBuyer(ListOrdersInput{})
	if !errors.Is(err, ErrInvalidBuyer) {
		t.Fatalf("missing buyer want ErrInvalidBuyer got %v", err)
	}
}

func TestGetOrderByBuyer(t *testing.T) {
	f := newCheckoutFixture(t)
	result := placeTestCheckout(t, f)
	alpha := shopResult(t, result, f.alpha.ID).Order

	order, err := f.orders.GetOrderByBuyer(alpha.OrderCode, 1)
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, order.ID)
	require.Len(t, order.Items, 1)

	if _, err := f.orders.GetOrderByBuyer("  ", 1); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("blank code want ErrOrderNotFound got %v", err)
	}
	if _, err := f.orders.GetOrderByBuyer(alpha.OrderCode, 0); !errors.Is(err, ErrInvalidBuyer) {
		t.Fatalf("zero buyer want ErrInvalidBuyer got %v", err)
	}
}
