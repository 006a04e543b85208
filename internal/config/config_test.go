package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestSetDefaultsCheckoutSection(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	if cfg.Checkout.CommitTimeoutSeconds != 5 {
		t.Fatalf("commit timeout want 5 got %d", cfg.Checkout.CommitTimeoutSeconds)
	}
	if cfg.Checkout.OrderCodePrefix != "DJ" {
		t.Fatalf("order code prefix want DJ got %s", cfg.Checkout.OrderCodePrefix)
	}
	if len(cfg.Checkout.PaymentMethods) != 3 {
		t.Fatalf("unexpected payment methods: %v", cfg.Checkout.PaymentMethods)
	}
	if cfg.Queue.Queues["critical"] != 5 {
		t.Fatalf("critical queue weight want 5 got %d", cfg.Queue.Queues["critical"])
	}
	if cfg.Database.Pool.MaxOpenConns != 1 {
		t.Fatalf("sqlite default pool want 1 conn got %d", cfg.Database.Pool.MaxOpenConns)
	}
}

func TestSetDefaultsServerTimeouts(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	if cfg.Server.ReadHeaderTimeoutSeconds != 5 {
		t.Fatalf("read header timeout want 5 got %d", cfg.Server.ReadHeaderTimeoutSeconds)
	}
	if cfg.Server.WriteTimeoutSeconds <= cfg.Checkout.CommitTimeoutSeconds {
		t.Fatalf("write timeout %d must exceed commit timeout %d", cfg.Server.WriteTimeoutSeconds, cfg.Checkout.CommitTimeoutSeconds)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Fatalf("addr want 0.0.0.0:8080 got %s", addr)
	}
}
