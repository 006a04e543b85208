package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		header string
		value  string
		want   string
	}{
		{header: "Accept-Language", value: "en-GB,en;q=0.9", want: LocaleEnUS},
		{header: "Accept-Language", value: "fr-FR, zh;q=0.8", want: LocaleZhCN},
		{header: "X-Locale", value: "en", want: LocaleEnUS},
		{header: "Accept-Language", value: "", want: DefaultLocale},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if tc.value != "" {
			c.Request.Header.Set(tc.header, tc.value)
		}
		if got := ResolveLocale(c); got != tc.want {
			t.Fatalf("%s=%q want %s got %s", tc.header, tc.value, tc.want, got)
		}
	}
}

func TestTranslateFallback(t *testing.T) {
	if got := T(LocaleEnUS, "error.order_not_found"); got != "Order not found" {
		t.Fatalf("unexpected en message: %s", got)
	}
	if got := T("ja-JP", "error.order_not_found"); got != "订单不存在" {
		t.Fatalf("unknown locale should fall back to default, got %s", got)
	}
	if got := T(LocaleEnUS, "error.missing_key"); got != "error.missing_key" {
		t.Fatalf("missing key should echo key, got %s", got)
	}
	if got := Sprintf(LocaleEnUS, "error.rate_limited", 5); got != "Too many requests, retry in 5 seconds" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}
