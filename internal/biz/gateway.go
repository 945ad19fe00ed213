package biz

import (
	"context"
	"encoding/json"
	"strings"

	"course-order-service/internal/constants"
)

// Status 内部支付/订单状态。orders 表只使用
// pending/processing/completed/cancelled/refunded 子集，payments 表额外
// 允许 failed 以及未识别的网关原始值（小写透传，Known() 返回 false）。
type Status string

const (
	StatusPending    Status = constants.OrderStatusPending
	StatusProcessing Status = constants.OrderStatusProcessing
	StatusCompleted  Status = constants.OrderStatusCompleted
	StatusCancelled  Status = constants.OrderStatusCancelled
	StatusRefunded   Status = constants.OrderStatusRefunded
	StatusFailed     Status = "failed"
)

// Known 返回状态是否属于内部闭集。未识别的网关词汇归一后 Known 为 false，
// 原始值（小写）仍保留在 Status 里，调用方据此决定是否落库。
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded, StatusFailed:
		return true
	}
	return false
}

// Terminal 返回状态对本子系统是否为终态
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// NormalizeProviderStatus 将网关状态词汇归一为内部状态。
// 网关的词汇表是开放的，未识别的值小写后原样携带，不静默丢弃。
func NormalizeProviderStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ok":
		return StatusPending
	case "paysuccess", "success":
		return StatusCompleted
	case "fail":
		return StatusFailed
	case "cancel":
		return StatusCancelled
	default:
		return Status(strings.ToLower(strings.TrimSpace(raw)))
	}
}

// Customer 支付人信息（缺失字段由适配层兜底）
type Customer struct {
	Name  string
	Email string
	Phone string
}

// CreateTransactionRequest 创建网关交易请求
type CreateTransactionRequest struct {
	OrderID     string
	Amount      int64 // 单位：最小货币单位（สตางค์）
	Description string
	Method      string // 客户端原始支付方式词汇，归一在适配层完成
	Customer    Customer
	ReturnURL   string
	NotifyURL   string
}

// CreateTransactionResult 创建网关交易结果
type CreateTransactionResult struct {
	ChargeID    string
	RedirectURL string
	PaymentType string
	QRImage     string          // 可选，二维码图片
	EmbedHTML   string          // 可选，可内嵌的收银台片段
	Raw         json.RawMessage // 网关原始响应
}

// GatewayResult 状态查询/取消的归一结果
type GatewayResult struct {
	Status    Status
	RawStatus string
	ChargeID  string
	OrderRef  string // 网关回传的业务订单号，可能为空
	Raw       json.RawMessage
}

// WebhookNotice 验签通过后的 webhook 内容
type WebhookNotice struct {
	ChargeID  string
	Amount    string // 网关回传原样保留，参与验签
	RawStatus string
	OrderID   string
}

// PaymentGateway 支付网关适配接口。实现在 data 层，负责与外部网关的
// 全部交互：协议、响应形状差异、状态词汇差异都不外泄。
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*CreateTransactionResult, error)
	CheckTransactionStatus(ctx context.Context, chargeID string) (*GatewayResult, error)
	CancelTransaction(ctx context.Context, chargeID string) (*GatewayResult, error)
	// DecodeWebhook 验签并解析 webhook。任何缺字段/签名不符都返回 ok=false，
	// 绝不返回错误：网关对非 200 响应会无限重投。
	DecodeWebhook(payload []byte) (*WebhookNotice, bool)
	FetchStoreInfo(ctx context.Context) (json.RawMessage, error)
}
