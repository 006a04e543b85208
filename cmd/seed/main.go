package main

import (
	"flag"
	"time"

	"github.com/dujiao-next/checkout/internal/config"
	"github.com/dujiao-next/checkout/internal/constants"
	"github.com/dujiao-next/checkout/internal/logger"
	"github.com/dujiao-next/checkout/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedVariant struct {
	SKU   string
	Name  string
	Price string
	Stock int
}

type seedProduct struct {
	Name     string
	Active   bool
	Variants []seedVariant
}

type seedShop struct {
	Slug        string
	Name        string
	ShippingFee string
	Blocked     bool
	Pickup      models.Address
	Products    []seedProduct
}

func main() {
	var buyerID uint
	flag.UintVar(&buyerID, "buyer", 1, "演示买家ID（用于生成收货地址与测试令牌）")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	shops := []seedShop{
		{
			Slug:        "tech-corner",
			Name:        "Tech Corner",
			ShippingFee: "15000",
			Pickup: models.Address{
				ContactName: "Tech Corner Warehouse",
				Phone:       "02812345678",
				Line1:       "12 Nguyen Hue",
				City:        "Ho Chi Minh City",
				Region:      "District 1",
			},
			Products: []seedProduct{
				{Name: "Wireless Earphones", Active: true, Variants: []seedVariant{
					{SKU: "EAR-BLK", Name: "Black", Price: "450000", Stock: 50},
					{SKU: "EAR-WHT", Name: "White", Price: "450000", Stock: 5},
				}},
				{Name: "USB-C Cable", Active: true, Variants: []seedVariant{
					{SKU: "USBC-1M", Name: "1m", Price: "59000", Stock: 200},
					{SKU: "USBC-2M", Name: "2m", Price: "79000", Stock: 0},
				}},
				{Name: "Legacy Charger", Active: false, Variants: []seedVariant{
					{SKU: "CHG-OLD", Name: "5W", Price: "39000", Stock: 20},
				}},
			},
		},
		{
			Slug: "home-goods",
			Name: "Home Goods",
			Pickup: models.Address{
				ContactName: "Home Goods Store",
				Phone:       "02487654321",
				Line1:       "88 Hang Bac",
				City:        "Hanoi",
				Region:      "Hoan Kiem",
			},
			Products: []seedProduct{
				{Name: "Ceramic Mug", Active: true, Variants: []seedVariant{
					{SKU: "MUG-350", Name: "350ml", Price: "120000", Stock: 30},
				}},
				{Name: "Linen Towel", Active: true, Variants: []seedVariant{
					{SKU: "TWL-S", Name: "Small", Price: "90000", Stock: 40},
					{SKU: "TWL-L", Name: "Large", Price: "150000", Stock: 15},
				}},
			},
		},
		{
			Slug:    "blocked-bazaar",
			Name:    "Blocked Bazaar",
			Blocked: true,
			Pickup: models.Address{
				ContactName: "Blocked Bazaar",
				Phone:       "02400000000",
				Line1:       "1 Closed Street",
				City:        "Da Nang",
			},
			Products: []seedProduct{
				{Name: "Souvenir Magnet", Active: true, Variants: []seedVariant{
					{SKU: "MAG-1", Name: "Default", Price: "25000", Stock: 100},
				}},
			},
		},
	}

	shopIDs := map[string]uint{}
	for _, item := range shops {
		shop, err := ensureShop(models.DB, item)
		if err != nil {
			stdLog.Printf("Failed to create shop %s: %v", item.Slug, err)
			continue
		}
		shopIDs[item.Slug] = shop.ID
		for _, product := range item.Products {
			if err := ensureProduct(models.DB, shop.ID, product); err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Name, err)
				continue
			}
			stdLog.Printf("Seeded product: %s / %s", item.Slug, product.Name)
		}
	}

	// 优惠券
	now := time.Now()
	expiredAt := now.Add(-24 * time.Hour)
	futureEnd := now.AddDate(0, 3, 0)
	techShopID := shopIDs["tech-corner"]
	homeShopID := shopIDs["home-goods"]
	vouchers := []models.Voucher{
		{Code: "TECH50K", Scope: constants.VoucherScopeShop, ShopID: &techShopID, Type: constants.VoucherTypeFixed, Value: money("50000"), MinOrderValue: money("300000"), UsageLimit: 100, PerUserLimit: 1, StartsAt: &now, EndsAt: &futureEnd},
		{Code: "HOME10", Scope: constants.VoucherScopeShop, ShopID: &homeShopID, Type: constants.VoucherTypePercent, Value: money("10"), MaxDiscount: money("30000"), UsageLimit: 1},
		{Code: "FREESHIP", Scope: constants.VoucherScopeSystem, Type: constants.VoucherTypeFixed, Value: money("30000"), MinOrderValue: money("200000")},
		{Code: "MEGA5", Scope: constants.VoucherScopeSystem, Type: constants.VoucherTypePercent, Value: money("5"), MaxDiscount: money("100000"), PerUserLimit: 2},
		{Code: "EXPIRED", Scope: constants.VoucherScopeSystem, Type: constants.VoucherTypeFixed, Value: money("20000"), EndsAt: &expiredAt},
	}
	for _, voucher := range vouchers {
		var existing models.Voucher
		if err := models.DB.Where("code = ?", voucher.Code).First(&existing).Error; err == nil {
			stdLog.Printf("Voucher already exists: %s", voucher.Code)
			continue
		}
		if err := models.DB.Create(&voucher).Error; err != nil {
			stdLog.Printf("Failed to create voucher %s: %v", voucher.Code, err)
		} else {
			stdLog.Printf("Created voucher: %s", voucher.Code)
		}
	}

	// 买家收货地址
	var addressCount int64
	models.DB.Model(&models.Address{}).
		Where("owner_type = ? AND owner_id = ?", constants.AddressOwnerBuyer, buyerID).
		Count(&addressCount)
	if addressCount == 0 {
		address := models.Address{
			OwnerType:   constants.AddressOwnerBuyer,
			OwnerID:     buyerID,
			ContactName: "Demo Buyer",
			Phone:       "0901234567",
			Line1:       "45 Le Loi",
			City:        "Ho Chi Minh City",
			Region:      "District 3",
			PostalCode:  "700000",
		}
		if err := models.DB.Create(&address).Error; err != nil {
			stdLog.Printf("Failed to create buyer address: %v", err)
		} else {
			stdLog.Printf("Created buyer address: id=%d", address.ID)
		}
	}

	// 本地调试令牌（与网关签发格式一致）
	if cfg.Server.Mode != "release" && cfg.BuyerJWT.SecretKey != "" {
		claims := jwt.MapClaims{
			"buyer_id": buyerID,
			"exp":      now.Add(24 * time.Hour).Unix(),
			"iat":      now.Unix(),
		}
		if cfg.BuyerJWT.Issuer != "" {
			claims["iss"] = cfg.BuyerJWT.Issuer
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.BuyerJWT.SecretKey))
		if err != nil {
			stdLog.Printf("Failed to sign demo buyer token: %v", err)
		} else {
			stdLog.Printf("Demo buyer token (24h): %s", token)
		}
	}

	stdLog.Println("Seed data created successfully!")
}

func ensureShop(db *gorm.DB, item seedShop) (*models.Shop, error) {
	var shop models.Shop
	err := db.Where("slug = ?", item.Slug).First(&shop).Error
	if err == nil {
		return &shop, nil
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		shop = models.Shop{
			Slug:        item.Slug,
			Name:        item.Name,
			IsBlocked:   item.Blocked,
			ShippingFee: money(item.ShippingFee),
		}
		if err := tx.Create(&shop).Error; err != nil {
			return err
		}
		pickup := item.Pickup
		pickup.OwnerType = constants.AddressOwnerShop
		pickup.OwnerID = shop.ID
		if err := tx.Create(&pickup).Error; err != nil {
			return err
		}
		return tx.Model(&shop).Update("pickup_address_id", pickup.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func ensureProduct(db *gorm.DB, shopID uint, item seedProduct) error {
	var product models.Product
	if err := db.Where("shop_id = ? AND name = ?", shopID, item.Name).First(&product).Error; err == nil {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		product = models.Product{ShopID: shopID, Name: item.Name, IsActive: true}
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		// IsActive 带 default:true，false 需显式更新
		if !item.Active {
			if err := tx.Model(&product).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		for _, variant := range item.Variants {
			row := models.ProductVariant{
				ProductID:   product.ID,
				SKUCode:     variant.SKU,
				Name:        variant.Name,
				PriceAmount: money(variant.Price),
				Stock:       variant.Stock,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func money(raw string) models.Money {
	if raw == "" {
		return models.ZeroMoney()
	}
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}
