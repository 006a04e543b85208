package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveShopCommitCountsByLabel(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveShopCommit("committed", "", 20*time.Millisecond)
	reg.ObserveShopCommit("rejected", "STOCK_CONFLICT", 5*time.Millisecond)
	reg.ObserveShopCommit("rejected", "STOCK_CONFLICT", 0)

	if got := testutil.ToFloat64(reg.ShopCommits.WithLabelValues("rejected", "STOCK_CONFLICT")); got != 2 {
		t.Fatalf("stock conflict count want 2 got %v", got)
	}
	if got := testutil.ToFloat64(reg.ShopCommits.WithLabelValues("committed", "")); got != 1 {
		t.Fatalf("committed count want 1 got %v", got)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var reg *Registry
	reg.ObserveShopCommit("committed", "", time.Second)
	reg.ObserveVoucherReject("shop", "VOUCHER_EXPIRED")
	reg.ObservePricing(time.Millisecond)
	reg.IncEnqueueFailure()
	reg.ObserveOrderEvent("order:created", "handled")
	if reg.Handler() == nil {
		t.Fatalf("nil registry should still expose a handler")
	}
}
