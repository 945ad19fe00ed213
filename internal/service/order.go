package service

import (
	"context"
	"encoding/json"

	"course-order-service/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

// OrderService 面向 LIFF 前端与管理后台的服务
type OrderService struct {
	uc  *biz.OrderUseCase
	log *log.Helper
}

// NewOrderService 创建 OrderService
func NewOrderService(uc *biz.OrderUseCase, logger log.Logger) *OrderService {
	return &OrderService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
}

// OrderView 订单视图
type OrderView struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	Status     string `json:"status"`
	TotalPrice int64  `json:"total_price"`
	CreatedAt  int64  `json:"created_at"`
}

// CreateOrderReply 下单响应。Allowed 为 false 时带拒绝原因。
type CreateOrderReply struct {
	Allowed bool       `json:"allowed"`
	Reason  string     `json:"reason,omitempty"`
	Message string     `json:"message,omitempty"`
	Reused  bool       `json:"reused,omitempty"`
	Order   *OrderView `json:"order,omitempty"`
}

// CreateOrder 创建（或复用）订单
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderReply, error) {
	outcome, err := s.uc.CreateOrder(ctx, req.UserID, req.CourseID)
	if err != nil {
		s.log.Errorf("CreateOrder failed: %v", err)
		return nil, err
	}

	reply := &CreateOrderReply{
		Allowed: outcome.Allowed,
		Reason:  outcome.Reason,
		Message: outcome.Message,
		Reused:  outcome.Reused,
	}
	if outcome.Order != nil {
		reply.Order = toOrderView(outcome.Order)
	}
	return reply, nil
}

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	UserID        string `json:"user_id"`
	CourseID      string `json:"course_id"`
	PaymentMethod string `json:"payment_method"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	ReturnURL     string `json:"return_url"`
	NotifyURL     string `json:"notify_url"`
}

// CreatePaymentReply 发起支付响应
type CreatePaymentReply struct {
	Allowed     bool       `json:"allowed"`
	Reason      string     `json:"reason,omitempty"`
	Message     string     `json:"message,omitempty"`
	Free        bool       `json:"free,omitempty"`
	ChargeID    string     `json:"charge_id,omitempty"`
	RedirectURL string     `json:"redirect_url,omitempty"`
	PaymentType string     `json:"payment_type,omitempty"`
	QRImage     string     `json:"qr_image,omitempty"`
	EmbedHTML   string     `json:"embed_html,omitempty"`
	Order       *OrderView `json:"order,omitempty"`
}

// CreatePayment 发起支付
func (s *OrderService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentReply, error) {
	outcome, err := s.uc.CreatePayment(ctx, &biz.CreatePaymentParams{
		UserID:   req.UserID,
		CourseID: req.CourseID,
		Method:   req.PaymentMethod,
		Customer: biz.Customer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		ReturnURL: req.ReturnURL,
		NotifyURL: req.NotifyURL,
	})
	if err != nil {
		s.log.Errorf("CreatePayment failed: %v", err)
		return nil, err
	}

	if !outcome.Allowed {
		return &CreatePaymentReply{Allowed: false, Reason: outcome.Reason, Message: outcome.Message}, nil
	}

	intent := outcome.Intent
	return &CreatePaymentReply{
		Allowed:     true,
		Free:        intent.Free,
		ChargeID:    intent.ChargeID,
		RedirectURL: intent.RedirectURL,
		PaymentType: intent.PaymentType,
		QRImage:     intent.QRImage,
		EmbedHTML:   intent.EmbedHTML,
		Order:       toOrderView(intent.Order),
	}, nil
}

// PaymentStatusRequest 状态轮询/取消请求
type PaymentStatusRequest struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id"`
}

// PaymentStatusReply 状态轮询/取消响应
type PaymentStatusReply struct {
	Status    string     `json:"status"`
	RawStatus string     `json:"raw_status,omitempty"`
	OrderID   string     `json:"order_id"`
	Order     *OrderView `json:"order,omitempty"`
}

// CheckPaymentStatus 主动轮询网关状态（与 webhook 同一条对账路径）
func (s *OrderService) CheckPaymentStatus(ctx context.Context, req *PaymentStatusRequest) (*PaymentStatusReply, error) {
	result, err := s.uc.CheckPaymentStatus(ctx, req.TransactionID, req.OrderID)
	if err != nil {
		s.log.Errorf("CheckPaymentStatus failed: transaction_id=%s, error=%v", req.TransactionID, err)
		return nil, err
	}
	return toStatusReply(result), nil
}

// CancelPayment 取消交易
func (s *OrderService) CancelPayment(ctx context.Context, req *PaymentStatusRequest) (*PaymentStatusReply, error) {
	result, err := s.uc.CancelPayment(ctx, req.TransactionID, req.OrderID)
	if err != nil {
		s.log.Errorf("CancelPayment failed: transaction_id=%s, error=%v", req.TransactionID, err)
		return nil, err
	}
	return toStatusReply(result), nil
}

// WebhookReply webhook 响应。HTTP 层始终回 200，验签失败只体现在字段里，
// 避免网关重投风暴。
type WebhookReply struct {
	SignatureValid bool   `json:"signature_valid"`
	Applied        bool   `json:"applied,omitempty"`
	Status         string `json:"status,omitempty"`
}

// HandleWebhook 处理网关回调（原始报文透传进来）
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte) *WebhookReply {
	outcome := s.uc.HandleWebhook(ctx, payload)
	return &WebhookReply{
		SignatureValid: outcome.SignatureValid,
		Applied:        outcome.Applied,
		Status:         string(outcome.Status),
	}
}

// GetOrderRequest 订单详情请求
type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

// GetOrder 订单详情
func (s *OrderService) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderView, error) {
	order, err := s.uc.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	return toOrderView(order), nil
}

// GetStoreInfo 网关商户信息（诊断）
func (s *OrderService) GetStoreInfo(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.uc.FetchStoreInfo(ctx)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func toOrderView(order *biz.Order) *OrderView {
	if order == nil {
		return nil
	}
	return &OrderView{
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		CourseID:   order.CourseID,
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt.Unix(),
	}
}

func toStatusReply(result *biz.ReconcileResult) *PaymentStatusReply {
	reply := &PaymentStatusReply{
		Status:    string(result.Status),
		RawStatus: result.RawStatus,
		OrderID:   result.OrderID,
	}
	if result.Order != nil {
		reply.Order = toOrderView(result.Order)
	}
	return reply
}
