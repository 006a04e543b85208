package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 结算相关指标
// 方法均允许 nil 接收者，未启用指标时调用方无需判空。
type Registry struct {
	reg             *prometheus.Registry
	ShopCommits     *prometheus.CounterVec
	VoucherRejects  *prometheus.CounterVec
	PricingLatency  prometheus.Histogram
	CommitLatency   prometheus.Histogram
	EnqueueFailures prometheus.Counter
	OrderEvents     *prometheus.CounterVec
}

// NewRegistry 创建并注册指标
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	shopCommits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_shop_commits_total",
		Help: "Per-shop commit outcomes by final state and reason.",
	}, []string{"state", "reason"})
	voucherRejects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_voucher_rejections_total",
		Help: "Voucher evaluations that did not approve, by scope and reason.",
	}, []string{"scope", "reason"})
	pricingLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_pricing_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	commitLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_shop_commit_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	enqueueFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_task_enqueue_failures_total",
	})
	orderEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_order_events_handled_total",
		Help: "Order lifecycle tasks consumed by the worker, by task type and outcome.",
	}, []string{"task", "outcome"})

	r.MustRegister(
		shopCommits,
		voucherRejects,
		pricingLatency,
		commitLatency,
		enqueueFailures,
		orderEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:             r,
		ShopCommits:     shopCommits,
		VoucherRejects:  voucherRejects,
		PricingLatency:  pricingLatency,
		CommitLatency:   commitLatency,
		EnqueueFailures: enqueueFailures,
		OrderEvents:     orderEvents,
	}
}

// Handler 返回 /metrics 处理器
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer 返回底层注册表
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.DefaultGatherer
	}
	return r.reg
}

// ObserveShopCommit 记录单个店铺的结算结果
func (r *Registry) ObserveShopCommit(state, reason string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ShopCommits.WithLabelValues(state, reason).Inc()
	if elapsed > 0 {
		r.CommitLatency.Observe(elapsed.Seconds())
	}
}

// ObserveVoucherReject 记录优惠券拒绝
func (r *Registry) ObserveVoucherReject(scope, reason string) {
	if r == nil {
		return
	}
	r.VoucherRejects.WithLabelValues(scope, reason).Inc()
}

// ObservePricing 记录一次定价耗时
func (r *Registry) ObservePricing(elapsed time.Duration) {
	if r == nil {
		return
	}
	r.PricingLatency.Observe(elapsed.Seconds())
}

// IncEnqueueFailure 记录任务入队失败
func (r *Registry) IncEnqueueFailure() {
	if r == nil {
		return
	}
	r.EnqueueFailures.Inc()
}

// ObserveOrderEvent 记录 worker 消费的订单事件
func (r *Registry) ObserveOrderEvent(task, outcome string) {
	if r == nil {
		return
	}
	r.OrderEvents.WithLabelValues(task, outcome).Inc()
}
