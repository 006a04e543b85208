package shared

import (
	"github.com/dujiao-next/checkout/internal/http/response"

	"github.com/gin-gonic/gin"
)

// BuyerIDKey 鉴权中间件写入买家 ID 的上下文键
const BuyerIDKey = "buyer_id"

// GetBuyerID 读取鉴权中间件写入的买家 ID，缺失或非法时直接写出错误响应
func GetBuyerID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(BuyerIDKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	buyerID, ok := value.(uint)
	if !ok {
		RespondError(c, response.CodeInternal, "error.buyer_id_type_invalid", nil)
		return 0, false
	}
	if buyerID == 0 {
		RespondError(c, response.CodeUnauthorized, "error.buyer_id_invalid", nil)
		return 0, false
	}
	return buyerID, true
}
