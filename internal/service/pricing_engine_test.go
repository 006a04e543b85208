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

type pricingFixture struct {
	*serviceFixture
	alpha  *models.Shop
	beta   *models.Shop
	alpha1 *models.ProductVariant
	beta1  *models.ProductVariant
	lines  []CartLine
}

func newPricingFixture(t *testing.T) *pricingFixture {
	t.Helper()
	f := newServiceFixture(t)
	alpha := createTestShop(t, f.db, "alpha", "12000")
	beta := createTestShop(t, f.db, "beta", "0")
	alpha1 := createTestVariant(t, f.db, alpha, "A-1", "109000", 10)
	beta1 := createTestVariant(t, f.db, beta, "B-1", "500", 10)

	shopFixed := shopVoucher(alpha, "SHOP30K", constants.VoucherTypeFixed, "30000")
	shopFixed.MinOrderValue = money("50000")
	createTestVoucher(t, f.db, shopFixed)
	createTestVoucher(t, f.db, &models.Voucher{Code: "SYS10K", Type: constants.VoucherTypeFixed, Value: money("10000")})
	createTestVoucher(t, f.db, &models.Voucher{Code: "SYSMIN", Type: constants.VoucherTypeFixed, Value: money("5000"), MinOrderValue: money("230000")})

	return &pricingFixture{
		serviceFixture: f,
		alpha:          alpha,
		beta:           beta,
		alpha1:         alpha1,
		beta1:          beta1,
		lines: []CartLine{
			{VariantID: alpha1.ID, Quantity: 2},
			{VariantID: beta1.ID, Quantity: 1},
		},
	}
}

func TestPriceGrandTotalIdentity(t *testing.T) {
	f := newPricingFixture(t)
	draft, err := f.engine.Price(context.Background(), PricingInput{
		BuyerID:           1,
		Lines:             f.lines,
		ShopVoucherCodes:  map[uint]string{f.alpha.ID: "shop30k"},
		SystemVoucherCode: "sys10k",
	})
	require.NoError(t, err)
	require.Len(t, draft.Groups, 2)

	alpha := draft.group(f.alpha.ID)
	beta := draft.group(f.beta.ID)
	assert.Equal(t, "218000.00", alpha.RawSubtotal.String())
	assert.Equal(t, "30000.00", alpha.ShopDiscount.String())
	assert.Equal(t, "188000.00", alpha.DiscountedSubtotal.String())
	assert.Equal(t, "12000.00", alpha.ShippingFee.String())
	assert.Equal(t, "15000.00", beta.ShippingFee.String(), "default fee applies when the shop has none")

	assert.Equal(t, "188500.00", draft.GrandSubtotal.String())
	assert.Equal(t, "27000.00", draft.ShippingFee.String())
	require.NotNil(t, draft.SystemVoucher)
	assert.True(t, draft.SystemVoucher.Approved)
	assert.Equal(t, "215500.00", draft.SystemVoucher.TargetAmount.String())
	assert.Equal(t, "205500.00", draft.GrandTotal.String())
	assert.Empty(t, draft.RejectedVouchers)
	assert.Empty(t, draft.InvalidItems)

	expected := draft.GrandSubtotal.Decimal.Add(draft.ShippingFee.Decimal).Sub(draft.SystemDiscount.Decimal)
	assert.True(t, expected.Equal(draft.GrandTotal.Decimal))
}

func TestPriceRejectsCodeForAbsentShop(t *testing.T) {
	f := newPricingFixture(t)
	draft, err := f.engine.Price(context.Background(), PricingInput{
		BuyerID:          1,
		Lines:            f.lines,
		ShopVoucherCodes: map[uint]string{9999: "SHOP30K"},
	})
	require.NoError(t, err)
	require.Len(t, draft.RejectedVouchers, 1)
	assert.Equal(t, uint(9999), draft.RejectedVouchers[0].ShopID)
	assert.Equal(t, constants.VoucherReasonScopeMismatch, draft.RejectedVouchers[0].Reason)
	for _, group := range draft.Groups {
		assert.Nil(t, group.ShopVoucher)
	}
}

func TestPriceSkipsShippingForShopWithoutValidLines(t *testing.T) {
	f := newPricingFixture(t)
	draft, err := f.engine.Price(context.Background(), PricingInput{
		BuyerID: 1,
		Lines: []CartLine{
			{VariantID: f.alpha1.ID, Quantity: 1},
			{VariantID: f.beta1.ID, Quantity: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", draft.group(f.beta.ID).ShippingFee.String())
	assert.Equal(t, "12000.00", draft.ShippingFee.String())
	assert.Equal(t, "121000.00", draft.GrandTotal.String())
	require.Len(t, draft.InvalidItems, 1)
	assert.Equal(t, constants.InvalidReasonOutOfStock, draft.InvalidItems[0].Reason)
}

func TestDraftVoucherSlotsRepriceSystemVoucher(t *testing.T) {
	f := newPricingFixture(t)
	ctx := context.Background()

	draft, err := f.engine.Preview(ctx, PricingInput{BuyerID: 1, Lines: f.lines, SystemVoucherCode: "SYSMIN"})
	require.NoError(t, err)
	require.NotEmpty(t, draft.DraftID)
	require.True(t, draft.SystemVoucher.Approved)
	assert.Equal(t, "245500.00", draft.SystemVoucher.TargetAmount.String())

	draft, err = f.engine.ApplyShopVoucher(ctx, 1, draft.DraftID, f.alpha.ID, "shop30k")
	require.NoError(t, err)
	assert.True(t, draft.group(f.alpha.ID).ShopVoucher.Approved)
	require.NotNil(t, draft.SystemVoucher)
	assert.False(t, draft.SystemVoucher.Approved)
	assert.Equal(t, constants.VoucherReasonMinOrderNotMet, draft.SystemVoucher.Reason)
	require.NotNil(t, draft.SystemVoucher.Shortfall)
	assert.Equal(t, "14500.00", draft.SystemVoucher.Shortfall.String())
	assert.Equal(t, "215500.00", draft.GrandTotal.String())

	draft, err = f.engine.RemoveShopVoucher(ctx, 1, draft.DraftID, f.alpha.ID)
	require.NoError(t, err)
	assert.Nil(t, draft.group(f.alpha.ID).ShopVoucher)
	assert.True(t, draft.SystemVoucher.Approved)
	assert.Equal(t, "240500.00", draft.GrandTotal.String())

	draft, err = f.engine.RemoveSystemVoucher(ctx, 1, draft.DraftID)
	require.NoError(t, err)
	assert.Nil(t, draft.SystemVoucher)
	assert.Equal(t, "245500.00", draft.GrandTotal.String())

	draft, err = f.engine.ApplySystemVoucher(ctx, 1, draft.DraftID, "sys10k")
	require.NoError(t, err)
	assert.True(t, draft.SystemVoucher.Approved)
	assert.Equal(t, "235500.00", draft.GrandTotal.String())
}

func TestDraftOperationsRequireOwner(t *testing.T) {
	f := newPricingFixture(t)
	ctx := context.Background()
	draft, err := f.engine.Preview(ctx, PricingInput{BuyerID: 1, Lines: f.lines})
	require.NoError(t, err)

	_, err = f.engine.ApplySystemVoucher(ctx, 2, draft.DraftID, "SYS10K")
	assert.True(t, errors.Is(err, ErrDraftNotFound))
	_, err = f.engine.RemoveShopVoucher(ctx, 1, "missing", f.alpha.ID)
	assert.True(t, errors.Is(err, ErrDraftNotFound))
	_, err = f.engine.ApplyShopVoucher(ctx, 1, draft.DraftID, f.alpha.ID, "  ")
	assert.True(t, errors.Is(err, ErrVoucherCodeRequired))
	_, err = f.engine.ApplyShopVoucher(ctx, 1, draft.DraftID, 0, "SHOP30K")
	assert.True(t, errors.Is(err, ErrVoucherSlotInvalid))
}

func TestDraftDropsCodeForAbsentShop(t *testing.T) {
	f := newPricingFixture(t)
	ctx := context.Background()
	draft, err := f.engine.Preview(ctx, PricingInput{BuyerID: 1, Lines: f.lines})
	require.NoError(t, err)

	draft, err = f.engine.ApplyShopVoucher(ctx, 1, draft.DraftID, 9999, "SHOP30K")
	require.NoError(t, err)
	require.Len(t, draft.RejectedVouchers, 1)

	draft, err = f.engine.RemoveSystemVoucher(ctx, 1, draft.DraftID)
	require.NoError(t, err)
	assert.Empty(t, draft.RejectedVouchers)
}

func TestPricingDoesNotConsumeVouchers(t *testing.T) {
	f := newPricingFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.engine.Price(context.Background(), PricingInput{
			BuyerID:           1,
			Lines:             f.lines,
			ShopVoucherCodes:  map[uint]string{f.alpha.ID: "SHOP30K"},
			SystemVoucherCode: "SYS10K",
		})
		require.NoError(t, err)
	}
	var total int64
	require.NoError(t, f.db.Model(&models.VoucherUsage{}).Count(&total).Error)
	assert.Zero(t, total)
	assert.Equal(t, 10, reloadVariant(t, f.db, f.alpha1.ID).Stock)
}
