package public

import "github.com/dujiao-next/checkout/internal/provider"

// Handler 买家侧接口处理器入口
// 说明：结算与订单接口均要求买家身份，由路由层 JWT 中间件注入 buyer_id。
type Handler struct {
	*provider.Container
}

// New 创建买家侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
