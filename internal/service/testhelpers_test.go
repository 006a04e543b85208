package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/dujiao-next/checkout/internal/cache"
	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db        *gorm.DB
	repos     CheckoutRepositories
	drafts    *cache.DraftStore
	evaluator *VoucherEvaluator
	engine    *PricingEngine
	checkout  *CheckoutService
	orders    *OrderService
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	previous := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = previous
		_ = sqlDB.Close()
	})
	return db
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	repos := CheckoutRepositories{
		Variant: repository.NewVariantRepository(db),
		Voucher: repository.NewVoucherRepository(db),
		Usage:   repository.NewVoucherUsageRepository(db),
		Order:   repository.NewOrderRepository(db),
		Address: repository.NewAddressRepository(db),
		Shop:    repository.NewShopRepository(db),
	}
	drafts := cache.NewDraftStore(time.Hour)
	evaluator := NewVoucherEvaluator(repos.Voucher, repos.Usage)
	grouper := NewCartGrouper(NewVariantSnapshotService(repos.Variant))
	engine := NewPricingEngine(grouper, evaluator, drafts, nil, PricingOptions{
		DefaultShippingFee:     money("15000"),
		VoucherEvalConcurrency: 2,
	})
	checkout := NewCheckoutService(engine, repos, nil, nil, CheckoutOptions{
		CommitTimeout:   5 * time.Second,
		OrderCodePrefix: "DJ",
		PaymentMethods:  []string{"cod", "bank_transfer"},
	})
	return &serviceFixture{
		db:        db,
		repos:     repos,
		drafts:    drafts,
		evaluator: evaluator,
		engine:    engine,
		checkout:  checkout,
		orders:    NewOrderService(repos, nil),
	}
}

func money(raw string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func moneyPtr(raw string) *models.Money {
	value := money(raw)
	return &value
}

func createTestShop(t *testing.T, db *gorm.DB, slug string, shippingFee string) *models.Shop {
	t.Helper()
	shop := &models.Shop{Slug: slug, Name: "店铺 " + slug, ShippingFee: money(shippingFee)}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	return shop
}

func createTestVariant(t *testing.T, db *gorm.DB, shop *models.Shop, sku string, price string, stock int) *models.ProductVariant {
	t.Helper()
	product := &models.Product{ShopID: shop.ID, Name: "商品 " + sku, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.ProductVariant{
		ProductID:   product.ID,
		SKUCode:     sku,
		Name:        "规格 " + sku,
		PriceAmount: money(price),
		Stock:       stock,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func createTestVoucher(t *testing.T, db *gorm.DB, voucher *models.Voucher) *models.Voucher {
	t.Helper()
	if voucher.Scope == "" {
		voucher.Scope = constants.VoucherScopeSystem
	}
	if voucher.Type == "" {
		voucher.Type = constants.VoucherTypeFixed
	}
	if err := repository.NewVoucherRepository(db).Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return voucher
}

func shopVoucher(shop *models.Shop, code string, voucherType string, value string) *models.Voucher {
	shopID := shop.ID
	return &models.Voucher{
		Code:   code,
		Scope:  constants.VoucherScopeShop,
		ShopID: &shopID,
		Type:   voucherType,
		Value:  money(value),
	}
}

func createBuyerAddress(t *testing.T, db *gorm.DB, buyerID uint) *models.Address {
	t.Helper()
	address := &models.Address{
		OwnerType:   constants.AddressOwnerBuyer,
		OwnerID:     buyerID,
		ContactName: "张三",
		Phone:       "13800000000",
		Line1:       "人民路 1 号",
		City:        "上海",
	}
	if err := db.Create(address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	return address
}

func reloadVariant(t *testing.T, db *gorm.DB, id uint) *models.ProductVariant {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, id).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	return &variant
}

func reloadVoucher(t *testing.T, db *gorm.DB, id uint) *models.Voucher {
	t.Helper()
	var voucher models.Voucher
	if err := db.First(&voucher, id).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	return &voucher
}
