package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return db
}

func createTestVariant(t *testing.T, db *gorm.DB, shopSlug string, price int64, stock int) (*models.Shop, *models.Product, *models.ProductVariant) {
	t.Helper()
	shop := &models.Shop{Slug: shopSlug, Name: "店铺 " + shopSlug, ShippingFee: models.NewMoneyFromInt(12000)}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	product := &models.Product{ShopID: shop.ID, Name: "商品 " + shopSlug, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.ProductVariant{
		ProductID:   product.ID,
		SKUCode:     "SKU-" + shopSlug,
		Name:        "默认规格",
		PriceAmount: models.NewMoneyFromInt(price),
		Stock:       stock,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return shop, product, variant
}

func TestListSnapshotsJoinsShopAndProduct(t *testing.T) {
	db := setupRepositoryTestDB(t)
	shop, product, variant := createTestVariant(t, db, "alpha", 109000, 3)
	if err := db.Model(shop).Update("is_blocked", true).Error; err != nil {
		t.Fatalf("block shop failed: %v", err)
	}
	if err := db.Model(product).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	repo := NewVariantRepository(db)
	rows, err := repo.ListSnapshots(context.Background(), []uint{variant.ID, 9999})
	if err != nil {
		t.Fatalf("list snapshots failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(rows))
	}
	row := rows[0]
	if row.VariantID != variant.ID || row.ShopID != shop.ID || row.ProductID != product.ID {
		t.Fatalf("unexpected ids: %+v", row)
	}
	if row.UnitPrice.String() != "109000.00" || row.Stock != 3 {
		t.Fatalf("unexpected price/stock: %s/%d", row.UnitPrice.String(), row.Stock)
	}
	if row.ProductActive || !row.ShopBlocked {
		t.Fatalf("unexpected flags: active=%v blocked=%v", row.ProductActive, row.ShopBlocked)
	}
	if row.ShippingFee.String() != "12000.00" || row.SKUCode != "SKU-alpha" {
		t.Fatalf("unexpected shop data: %+v", row)
	}
}

func TestListSnapshotsSkipsSoftDeleted(t *testing.T) {
	db := setupRepositoryTestDB(t)
	_, product, variant := createTestVariant(t, db, "beta", 5000, 1)
	if err := db.Delete(product).Error; err != nil {
		t.Fatalf("delete product failed: %v", err)
	}

	rows, err := NewVariantRepository(db).ListSnapshots(context.Background(), []uint{variant.ID})
	if err != nil {
		t.Fatalf("list snapshots failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("soft deleted product should hide variant, got %d rows", len(rows))
	}
}

func TestDecrementStockGuarded(t *testing.T) {
	db := setupRepositoryTestDB(t)
	_, _, variant := createTestVariant(t, db, "gamma", 1000, 2)
	repo := NewVariantRepository(db)

	affected, err := repo.DecrementStock(variant.ID, 3)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("over-decrement should affect 0 rows, got %d", affected)
	}
	affected, err = repo.DecrementStock(variant.ID, 2)
	if err != nil || affected != 1 {
		t.Fatalf("decrement want 1 row got %d err=%v", affected, err)
	}
	affected, err = repo.DecrementStock(variant.ID, 1)
	if err != nil || affected != 0 {
		t.Fatalf("empty stock want 0 row got %d err=%v", affected, err)
	}
	if _, err := repo.RestoreStock(variant.ID, 2); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	reloaded, err := repo.GetByID(variant.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if reloaded.Stock != 2 {
		t.Fatalf("stock want 2 got %d", reloaded.Stock)
	}
}

func TestVoucherIncrementRespectsUsageLimit(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewVoucherRepository(db)
	voucher := &models.Voucher{
		Code:       " summer10 ",
		Scope:      constants.VoucherScopeSystem,
		Type:       constants.VoucherTypePercent,
		Value:      models.NewMoneyFromInt(10),
		UsageLimit: 1,
	}
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	found, err := repo.GetByCode("Summer10")
	if err != nil || found == nil {
		t.Fatalf("lookup normalized code failed: %v", err)
	}
	if affected, err := repo.IncrementUsedCount(voucher.ID); err != nil || affected != 1 {
		t.Fatalf("first increment want 1 row got %d err=%v", affected, err)
	}
	if affected, err := repo.IncrementUsedCount(voucher.ID); err != nil || affected != 0 {
		t.Fatalf("second increment want 0 row got %d err=%v", affected, err)
	}
	if affected, err := repo.DecrementUsedCount(voucher.ID); err != nil || affected != 1 {
		t.Fatalf("decrement want 1 row got %d err=%v", affected, err)
	}
	if affected, err := repo.DecrementUsedCount(voucher.ID); err != nil || affected != 0 {
		t.Fatalf("decrement below zero want 0 row got %d err=%v", affected, err)
	}
}

func TestVoucherIncrementUnlimited(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewVoucherRepository(db)
	voucher := &models.Voucher{
		Code:  "FREESHIP",
		Scope: constants.VoucherScopeSystem,
		Type:  constants.VoucherTypeFixed,
		Value: models.NewMoneyFromInt(20000),
	}
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if affected, err := repo.IncrementUsedCount(voucher.ID); err != nil || affected != 1 {
			t.Fatalf("unlimited increment #%d want 1 row got %d err=%v", i, affected, err)
		}
	}
}

func TestVoucherUsageUniqueKeyRejectsDuplicate(t *testing.T) {
	db := setupRepositoryTestDB(t)
	voucher := &models.Voucher{ID: 7, PerUserLimit: 1}
	repo := NewVoucherUsageRepository(db)

	first := &models.VoucherUsage{VoucherID: 7, BuyerID: 3, OrderID: 1, UniqueKey: models.BuildVoucherUsageUniqueKey(voucher, 3)}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first usage failed: %v", err)
	}
	second := &models.VoucherUsage{VoucherID: 7, BuyerID: 3, OrderID: 2, UniqueKey: models.BuildVoucherUsageUniqueKey(voucher, 3)}
	if err := repo.Create(second); err == nil {
		t.Fatalf("duplicate unique key should fail")
	}

	count, err := repo.CountByBuyer(7, 3)
	if err != nil || count != 1 {
		t.Fatalf("count want 1 got %d err=%v", count, err)
	}
	if err := repo.DeleteByID(first.ID); err != nil {
		t.Fatalf("delete usage failed: %v", err)
	}
	second.ID = 0
	if err := repo.Create(second); err != nil {
		t.Fatalf("usage should be allowed after delete: %v", err)
	}
}

func TestVoucherUsageHolderMovesBetweenOrders(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewVoucherUsageRepository(db)

	usage := &models.VoucherUsage{VoucherID: 9, BuyerID: 3, OrderID: 11, DiscountAmount: models.NewMoneyFromInt(100)}
	if err := repo.Create(usage); err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	found, err := repo.GetByVoucherAndOrders(9, []uint{10, 11})
	if err != nil || found == nil || found.ID != usage.ID {
		t.Fatalf("lookup by sibling orders failed: %+v err=%v", found, err)
	}
	missing, err := repo.GetByVoucherAndOrders(9, []uint{12})
	if err != nil || missing != nil {
		t.Fatalf("unrelated order should not match: %+v err=%v", missing, err)
	}

	affected, err := repo.UpdateHolder(usage.ID, 12, models.NewMoneyFromInt(40))
	if err != nil || affected != 1 {
		t.Fatalf("update holder failed: affected=%d err=%v", affected, err)
	}
	moved, err := repo.ListByOrderID(12)
	if err != nil || len(moved) != 1 {
		t.Fatalf("moved usage want 1 got %d err=%v", len(moved), err)
	}
	if moved[0].DiscountAmount.String() != "40.00" {
		t.Fatalf("discount want 40.00 got %s", moved[0].DiscountAmount.String())
	}
	if left, _ := repo.ListByOrderID(11); len(left) != 0 {
		t.Fatalf("previous holder should have no usage, got %d", len(left))
	}
}

func TestAddressGetByOwnerRejectsForeignOwner(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewAddressRepository(db)
	address := &models.Address{
		OwnerType:   constants.AddressOwnerBuyer,
		OwnerID:     10,
		ContactName: "张三",
		Phone:       "13800000000",
		Line1:       "人民路 1 号",
	}
	if err := repo.Create(address); err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	got, err := repo.GetByOwner(address.ID, constants.AddressOwnerBuyer, 11)
	if err != nil {
		t.Fatalf("get by owner failed: %v", err)
	}
	if got != nil {
		t.Fatalf("foreign buyer should not see address")
	}
	got, err = repo.GetByOwner(address.ID, constants.AddressOwnerBuyer, 10)
	if err != nil || got == nil {
		t.Fatalf("owner should see address: %v", err)
	}
}

func TestOrderCreateAndListByBuyer(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	for i := 0; i < 3; i++ {
		order := &models.Order{
			OrderCode:                 fmt.Sprintf("DJ-TEST-%d", i),
			CheckoutNo:                "checkout-1",
			BuyerID:                   5,
			ShopID:                    uint(i + 1),
			Status:                    constants.OrderStatusCreated,
			PaymentMethod:             "cod",
			DeliveryAddressSnapshotID: 1,
		}
		items := []models.OrderItem{{ProductID: 1, VariantID: 1, ProductName: "商品", UnitPrice: models.NewMoneyFromInt(100), Quantity: 1, TotalPrice: models.NewMoneyFromInt(100)}}
		history := &models.OrderStatusHistory{ToStatus: constants.OrderStatusCreated}
		if err := repo.Create(order, items, history); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	orders, total, err := repo.ListByBuyer(OrderListFilter{BuyerID: 5, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 3 || len(orders) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(orders))
	}
	if len(orders[0].Items) != 1 {
		t.Fatalf("items should be preloaded")
	}

	detail, err := repo.GetByCodeAndBuyer("DJ-TEST-0", 5)
	if err != nil || detail == nil {
		t.Fatalf("get order failed: %v", err)
	}
	if len(detail.StatusHistory) != 1 || detail.StatusHistory[0].ToStatus != constants.OrderStatusCreated {
		t.Fatalf("unexpected history: %+v", detail.StatusHistory)
	}
	if other, _ := repo.GetByCodeAndBuyer("DJ-TEST-0", 6); other != nil {
		t.Fatalf("other buyer must not read order")
	}

	affected, err := repo.UpdateStatus(detail.ID, constants.OrderStatusCreated, constants.OrderStatusCanceled, nil)
	if err != nil || affected != 1 {
		t.Fatalf("update status want 1 row got %d err=%v", affected, err)
	}
	affected, err = repo.UpdateStatus(detail.ID, constants.OrderStatusCreated, constants.OrderStatusCanceled, nil)
	if err != nil || affected != 0 {
		t.Fatalf("stale status update want 0 row got %d err=%v", affected, err)
	}
}

func TestNormalizePagination(t *testing.T) {
	page, size := NormalizePagination(0, 0)
	if page != 1 || size != defaultPageSize {
		t.Fatalf("unexpected defaults: %d/%d", page, size)
	}
	_, size = NormalizePagination(2, 1000)
	if size != maxPageSize {
		t.Fatalf("page size should be capped, got %d", size)
	}
}
