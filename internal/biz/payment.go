package biz

import (
	"context"
	"encoding/json"
	"time"
)

// Payment 支付状态记录领域对象。每个订单至多一行，原地更新保存"当前"
// 网关状态，不是追加日志；行缺失时允许重建。
type Payment struct {
	OrderID   string
	Status    Status
	ChargeID  string          // 网关交易流水号
	Raw       json.RawMessage // 网关原始报文，仅留档
	Reason    string          // 状态补充说明，如 expired_pending_timeout
	UpdatedAt time.Time
}

// PaymentRepo 支付状态数据层接口（定义在 biz 层）
type PaymentRepo interface {
	GetPayment(ctx context.Context, orderID string) (*Payment, error)
	GetPaymentByChargeID(ctx context.Context, chargeID string) (*Payment, error)
	// UpsertPayment 存在则更新、缺失则插入。状态永远是归一后的内部值，
	// 不落网关原始词汇。
	UpsertPayment(ctx context.Context, payment *Payment) error
}
