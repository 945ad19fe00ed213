package constants

// 订单状态常量
const (
	// OrderStatusPending 待支付
	OrderStatusPending = "pending"
	// OrderStatusProcessing 支付处理中
	OrderStatusProcessing = "processing"
	// OrderStatusCompleted 已完成
	OrderStatusCompleted = "completed"
	// OrderStatusCancelled 已取消
	OrderStatusCancelled = "cancelled"
	// OrderStatusRefunded 已退款
	OrderStatusRefunded = "refunded"
)

// 历史数据中的完成态别名（旧版 API 写入过 success/paid）
var OrderStatusCompletedAliases = []string{
	OrderStatusCompleted,
	"success",
	"paid",
}

// 报名状态常量
const (
	// EnrollmentStatusActive 生效中
	EnrollmentStatusActive = "active"
	// EnrollmentStatusExpired 已过期
	EnrollmentStatusExpired = "expired"
	// EnrollmentStatusCancelled 已取消
	EnrollmentStatusCancelled = "cancelled"
)

// 购买校验拒绝原因
const (
	// GuardReasonAlreadyEnrolled 已持有课程报名
	GuardReasonAlreadyEnrolled = "already_enrolled"
	// GuardReasonOrderCompleted 已有支付完成的订单
	GuardReasonOrderCompleted = "order_completed"
)

// 幂等结果原因
const (
	// ReasonAlreadyExists 报名已存在（重复回调/并发轮询）
	ReasonAlreadyExists = "already_exists"
	// ReasonOrderNotFound 订单不存在
	ReasonOrderNotFound = "order_not_found"
	// ReasonExpiredPendingTimeout 待支付超时被回收
	ReasonExpiredPendingTimeout = "expired_pending_timeout"
)

// 支付方式常量（网关侧词汇）
const (
	// PayMethodCard 信用卡/借记卡统一归一为 card
	PayMethodCard = "card"
	// PayMethodQR 二维码支付
	PayMethodQR = "qr-none"
)

// 特殊流水标记
const (
	// ChargeIDFreeCourse 零元课程直接完成时写入的合成流水号
	ChargeIDFreeCourse = "free_course"
)

// Redis Key 前缀常量
const (
	// RedisKeyCourse 课程配置缓存 key 前缀
	RedisKeyCourse = "course:"
	// RedisKeySweepLock 过期订单清扫锁
	RedisKeySweepLock = "order:sweep:lock"
)

// 事件类型常量（发往实时通知层）
const (
	EventOrderCreated      = "order:created"
	EventOrderCompleted    = "order:completed"
	EventOrderCancelled    = "order:cancelled"
	EventPaymentUpdated    = "payment:updated"
	EventPaymentCancelled  = "payment:cancelled"
	EventEnrollmentCreated = "enrollment:created"
)
