package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const defaultOrderCodePrefix = "DJ"

// generateOrderCode 生成订单号：前缀 + 秒级时间 + 6 位随机数
func generateOrderCode(prefix string, now time.Time) string {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = defaultOrderCodePrefix
	}
	return fmt.Sprintf("%s%s%s", p, now.Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
