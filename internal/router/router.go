package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dujiao-next/checkout/internal/cache"
	"github.com/dujiao-next/checkout/internal/config"
	publichandlers "github.com/dujiao-next/checkout/internal/http/handlers/public"
	"github.com/dujiao-next/checkout/internal/logger"
	"github.com/dujiao-next/checkout/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ck"
	}
	placeOrderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:place_order", redisPrefix),
		WindowSeconds: cfg.Security.PlaceOrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PlaceOrderRateLimit.MaxRequests,
		MessageKey:    "error.place_order_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 买家接口（需鉴权）
		buyer := apiV1.Group("")
		buyer.Use(BuyerJWTAuthMiddleware(cfg.BuyerJWT))
		{
			buyer.POST("/checkout/preview", publicHandler.PreviewCheckout)
			buyer.POST("/checkout/drafts/:draft_id/vouchers", publicHandler.ApplyDraftVoucher)
			buyer.DELETE("/checkout/drafts/:draft_id/vouchers", publicHandler.RemoveDraftVoucher)
			buyer.POST("/checkout/orders", RateLimitMiddleware(cache.Client(), placeOrderRule, KeyByBuyer), publicHandler.PlaceOrder)
			buyer.GET("/orders", publicHandler.ListOrders)
			buyer.GET("/orders/:order_code", publicHandler.GetOrder)
			buyer.POST("/orders/:order_code/cancel", publicHandler.CancelOrder)
		}
	}

	if cfg.Metrics.Enabled && c.Metrics != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		redisStatus := "disabled"
		if cache.Enabled() {
			redisStatus = "ok"
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				redisStatus = "unavailable"
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
	})

	return r
}
