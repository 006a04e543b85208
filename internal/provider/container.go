package provider

import (
	"strings"
	"time"

	"github.com/dujiao-next/checkout/internal/cache"
	"github.com/dujiao-next/checkout/internal/config"
	"github.com/dujiao-next/checkout/internal/logger"
	"github.com/dujiao-next/checkout/internal/metrics"
	"github.com/dujiao-next/checkout/internal/models"
	"github.com/dujiao-next/checkout/internal/queue"
	"github.com/dujiao-next/checkout/internal/repository"
	"github.com/dujiao-next/checkout/internal/service"

	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Registry
	DraftStore  *cache.DraftStore

	// Repositories
	VariantRepo      repository.VariantRepository
	VoucherRepo      repository.VoucherRepository
	VoucherUsageRepo repository.VoucherUsageRepository
	OrderRepo        repository.OrderRepository
	AddressRepo      repository.AddressRepository
	ShopRepo         repository.ShopRepository

	// Services
	SnapshotService  *service.VariantSnapshotService
	CartGrouper      *service.CartGrouper
	VoucherEvaluator *service.VoucherEvaluator
	PricingEngine    *service.PricingEngine
	CheckoutService  *service.CheckoutService
	OrderService     *service.OrderService
	Notifier         service.OrderNotifier
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     metrics.NewRegistry(),
		DraftStore:  cache.NewDraftStore(secondsOr(cfg.Checkout.DraftTTLSeconds, 1800)),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.VariantRepo = repository.NewVariantRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.VoucherUsageRepo = repository.NewVoucherUsageRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.ShopRepo = repository.NewShopRepository(db)
}

func (c *Container) repositories() service.CheckoutRepositories {
	return service.CheckoutRepositories{
		Variant: c.VariantRepo,
		Voucher: c.VoucherRepo,
		Usage:   c.VoucherUsageRepo,
		Order:   c.OrderRepo,
		Address: c.AddressRepo,
		Shop:    c.ShopRepo,
	}
}

func (c *Container) initServices() {
	checkoutCfg := c.Config.Checkout
	breakerCfg := c.Config.Queue.Breaker

	c.Notifier = service.NewQueueNotifier(c.QueueClient, service.BreakerOptions{
		MaxFailures: breakerCfg.MaxFailures,
		OpenTimeout: secondsOr(breakerCfg.OpenSeconds, 30),
		Interval:    secondsOr(breakerCfg.IntervalSeconds, 60),
	}, c.Metrics)

	c.SnapshotService = service.NewVariantSnapshotService(c.VariantRepo)
	c.CartGrouper = service.NewCartGrouper(c.SnapshotService)
	c.VoucherEvaluator = service.NewVoucherEvaluator(c.VoucherRepo, c.VoucherUsageRepo)
	c.PricingEngine = service.NewPricingEngine(c.CartGrouper, c.VoucherEvaluator, c.DraftStore, c.Metrics, service.PricingOptions{
		DefaultShippingFee:     parseShippingFee(checkoutCfg.DefaultShippingFee),
		VoucherEvalConcurrency: checkoutCfg.VoucherEvalConcurrency,
	})
	c.CheckoutService = service.NewCheckoutService(c.PricingEngine, c.repositories(), c.Notifier, c.Metrics, service.CheckoutOptions{
		CommitTimeout:   secondsOr(checkoutCfg.CommitTimeoutSeconds, 5),
		OrderCodePrefix: checkoutCfg.OrderCodePrefix,
		PaymentMethods:  checkoutCfg.PaymentMethods,
	})
	c.OrderService = service.NewOrderService(c.repositories(), c.Notifier)
}

func parseShippingFee(raw string) models.Money {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.ZeroMoney()
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		logger.Warnw("provider_invalid_default_shipping_fee", "value", raw, "error", err)
		return models.ZeroMoney()
	}
	return models.NewMoneyFromDecimal(amount)
}

func secondsOr(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
