package public

import (
	handlershared "github.com/dujiao-next/checkout/internal/http/handlers/shared"
	"github.com/dujiao-next/checkout/internal/repository"

	"github.com/gin-gonic/gin"
)

func getBuyerID(c *gin.Context) (uint, bool) {
	return handlershared.GetBuyerID(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return repository.NormalizePagination(page, pageSize)
}
