package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OrderMetrics 订单/支付子系统指标
type OrderMetrics struct {
	// 购买校验相关指标
	PurchaseCheckTotal *prometheus.CounterVec // 购买校验总数（按结果）

	// 订单相关指标
	OrderCreateTotal    *prometheus.CounterVec // 订单创建总数（按结果：created/reused/rejected/failed）
	OrderStatusTotal    *prometheus.CounterVec // 订单状态迁移总数（按目标状态）
	OrderCreateDuration prometheus.Histogram   // 订单创建耗时

	// 支付网关相关指标
	GatewayRequestTotal    *prometheus.CounterVec   // 网关请求总数（按操作、结果）
	GatewayRequestDuration *prometheus.HistogramVec // 网关请求耗时（按操作）

	// Webhook 相关指标
	WebhookTotal *prometheus.CounterVec // webhook 处理总数（按结果：applied/invalid_signature/failed）

	// 报名相关指标
	EnrollmentIssueTotal *prometheus.CounterVec // 报名签发总数（按结果：created/already_exists/failed）

	// 清扫相关指标
	SweepCancelledTotal prometheus.Counter     // 清扫取消的订单总数
	SweepSkippedTotal   prometheus.Counter     // 条件更新零行、被跳过的订单总数
	SweepFailedTotal    prometheus.Counter     // 清扫单项失败总数
	SweepDuration       prometheus.Histogram   // 单轮清扫耗时
	LockAcquireTotal    *prometheus.CounterVec // 清扫锁获取总数（按结果）
}

// NewOrderMetrics 创建订单子系统指标
func NewOrderMetrics() *OrderMetrics {
	return &OrderMetrics{
		PurchaseCheckTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_order_purchase_check_total",
				Help: "Total number of purchase guard checks",
			},
			[]string{"result"}, // result: allowed/already_enrolled/order_completed
		),

		OrderCreateTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_order_create_total",
				Help: "Total number of order creation attempts",
			},
			[]string{"result"},
		),
		OrderStatusTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_order_status_transition_total",
				Help: "Total number of order status transitions",
			},
			[]string{"status"},
		),
		OrderCreateDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "course_order_create_duration_seconds",
				Help:    "Duration of order creation",
				Buckets: prometheus.DefBuckets,
			},
		),

		GatewayRequestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_order_gateway_request_total",
				Help: "Total number of payment gateway requests",
			},
			[]string{"operation", "result"}, // operation: create/status/cancel/store_info
		),
		GatewayRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "course_order_gateway_request_duration_seconds",
				Help:    "Duration of payment gateway requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		WebhookTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_order_webhook_total",
				Help: "Total number of payment webhooks processed",
			},
			[]string{"result"},
		),

		EnrollmentIssueTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_order_enrollment_issue_total",
				Help: "Total number of enrollment issuance attempts",
			},
			[]string{"result"},
		),

		SweepCancelledTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "course_order_sweep_cancelled_total",
				Help: "Total number of expired pending orders cancelled by the sweeper",
			},
		),
		SweepSkippedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "course_order_sweep_skipped_total",
				Help: "Total number of orders skipped because they were already resolved",
			},
		),
		SweepFailedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "course_order_sweep_failed_total",
				Help: "Total number of per-order sweep failures",
			},
		),
		SweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "course_order_sweep_duration_seconds",
				Help:    "Duration of a full sweep pass",
				Buckets: prometheus.DefBuckets,
			},
		),
		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "course_order_sweep_lock_acquire_total",
				Help: "Total number of sweep lock acquisition attempts",
			},
			[]string{"result"}, // result: success/failed
		),
	}
}

// 全局指标实例
var defaultMetrics *OrderMetrics

// InitMetrics 初始化全局指标
func InitMetrics() {
	defaultMetrics = NewOrderMetrics()
}

// GetMetrics 获取全局指标实例
func GetMetrics() *OrderMetrics {
	if defaultMetrics == nil {
		InitMetrics()
	}
	return defaultMetrics
}
