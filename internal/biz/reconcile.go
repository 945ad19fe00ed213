package biz

import (
	"context"
	"time"

	"course-order-service/internal/constants"
	orderErrors "course-order-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
)

// WebhookOutcome webhook 处理结果。SignatureValid 为 false 时未发生任何写入。
type WebhookOutcome struct {
	SignatureValid bool
	Applied        bool
	Status         Status
	Order          *Order
}

// ReconcileResult 轮询/取消的返回结果
type ReconcileResult struct {
	Status    Status
	RawStatus string
	OrderID   string
	Order     *Order
}

// orderStatusFrom 返回允许迁入 to 的前置状态集合。
// 终态只进不出；不在表里的状态不落 orders 表（payments 表照常记录）。
func orderStatusFrom(to Status) []Status {
	switch to {
	case StatusProcessing:
		return []Status{StatusPending}
	case StatusCompleted, StatusCancelled:
		return []Status{StatusPending, StatusProcessing}
	case StatusRefunded:
		return []Status{StatusCompleted}
	}
	return nil
}

// ApplyGatewayStatus 对账核心：按归一状态条件更新订单行，再写支付状态
// 记录，completed 时签发报名，最后发事件。订单写与支付写是独立语句而
// 非事务——重复施加同一终态是幂等空操作，报名签发自身的幂等检查是重投
// 场景的真正保护。
func (uc *OrderUseCase) ApplyGatewayStatus(ctx context.Context, orderID string, status Status, chargeID string, raw []byte, reason string) (*Order, error) {
	if from := orderStatusFrom(status); from != nil {
		updated, err := uc.orderRepo.UpdateStatus(ctx, orderID, from, status)
		if err != nil {
			return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeOrderUpdateFailed)
		}
		if updated {
			uc.metrics.OrderStatusTotal.WithLabelValues(string(status)).Inc()
		} else {
			// 零行更新：并发方已经落定了这个订单，不视为错误
			uc.log.Infof("Order already resolved, status write skipped: order_id=%s, status=%s", orderID, status)
		}
	}

	payment := &Payment{
		OrderID:  orderID,
		Status:   status,
		ChargeID: chargeID,
		Raw:      raw,
		Reason:   reason,
	}
	if err := uc.paymentRepo.UpsertPayment(ctx, payment); err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodePaymentWriteFailed)
	}

	if status == StatusCompleted {
		// 支付确认已经落库，报名失败不回滚；重放一次状态轮询即可补发
		if _, err := uc.enrollment.EnsureEnrollmentForOrder(ctx, orderID); err != nil {
			uc.log.Errorf("Enrollment issuance failed after payment: order_id=%s, error=%v", orderID, err)
		}
	}

	order, err := uc.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeOrderQueryFailed)
	}
	if order != nil {
		uc.publishEvent(ctx, &Event{
			Type:     orderEventType(status),
			OrderID:  order.OrderID,
			UserID:   order.UserID,
			CourseID: order.CourseID,
			Status:   string(order.Status),
			Reason:   reason,
		})
		uc.publishEvent(ctx, &Event{
			Type:    paymentEventType(status),
			OrderID: order.OrderID,
			Status:  string(status),
			Reason:  reason,
		})
	}
	return order, nil
}

func orderEventType(status Status) string {
	switch status {
	case StatusCompleted:
		return constants.EventOrderCompleted
	case StatusCancelled:
		return constants.EventOrderCancelled
	}
	return constants.EventOrderCreated
}

func paymentEventType(status Status) string {
	if status == StatusCancelled {
		return constants.EventPaymentCancelled
	}
	return constants.EventPaymentUpdated
}

// HandleWebhook 处理网关回调。验签失败返回 SignatureValid=false 且无任何
// 写入；落库失败同样不向上抛——HTTP 层必须回 200，否则网关会风暴式重投。
func (uc *OrderUseCase) HandleWebhook(ctx context.Context, payload []byte) *WebhookOutcome {
	notice, ok := uc.gateway.DecodeWebhook(payload)
	if !ok {
		uc.metrics.WebhookTotal.WithLabelValues("invalid_signature").Inc()
		uc.log.Warnf("Webhook signature rejected")
		return &WebhookOutcome{SignatureValid: false}
	}

	status := NormalizeProviderStatus(notice.RawStatus)
	outcome := &WebhookOutcome{SignatureValid: true, Status: status}

	orderID, err := uc.resolveOrderID(ctx, notice.OrderID, "", notice.ChargeID)
	if err != nil {
		uc.metrics.WebhookTotal.WithLabelValues("failed").Inc()
		uc.log.Errorf("Webhook order resolution failed: charge_id=%s, error=%v", notice.ChargeID, err)
		return outcome
	}

	order, err := uc.ApplyGatewayStatus(ctx, orderID, status, notice.ChargeID, payload, "")
	if err != nil {
		uc.metrics.WebhookTotal.WithLabelValues("failed").Inc()
		uc.log.Errorf("Webhook reconcile failed: order_id=%s, status=%s, error=%v", orderID, status, err)
		return outcome
	}

	uc.metrics.WebhookTotal.WithLabelValues("applied").Inc()
	outcome.Applied = true
	outcome.Order = order
	return outcome
}

// CheckPaymentStatus 主动轮询网关状态，并走与 webhook 相同的对账路径。
// 交互边界：错误向上抛给路由层。
func (uc *OrderUseCase) CheckPaymentStatus(ctx context.Context, chargeID, orderID string) (*ReconcileResult, error) {
	if chargeID == "" {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeInvalidRequest)
	}

	gwStart := time.Now()
	result, err := uc.gateway.CheckTransactionStatus(ctx, chargeID)
	uc.metrics.GatewayRequestDuration.WithLabelValues("status").Observe(time.Since(gwStart).Seconds())
	if err != nil {
		uc.metrics.GatewayRequestTotal.WithLabelValues("status", "failed").Inc()
		return nil, err
	}
	uc.metrics.GatewayRequestTotal.WithLabelValues("status", "success").Inc()

	return uc.reconcileGatewayResult(ctx, result, orderID, chargeID, "")
}

// CancelPayment 请求网关取消交易，成功后订单进入 cancelled。
func (uc *OrderUseCase) CancelPayment(ctx context.Context, chargeID, orderID string) (*ReconcileResult, error) {
	if chargeID == "" {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeInvalidRequest)
	}

	gwStart := time.Now()
	result, err := uc.gateway.CancelTransaction(ctx, chargeID)
	uc.metrics.GatewayRequestDuration.WithLabelValues("cancel").Observe(time.Since(gwStart).Seconds())
	if err != nil {
		uc.metrics.GatewayRequestTotal.WithLabelValues("cancel", "failed").Inc()
		return nil, err
	}
	uc.metrics.GatewayRequestTotal.WithLabelValues("cancel", "success").Inc()

	return uc.reconcileGatewayResult(ctx, result, orderID, chargeID, "")
}

func (uc *OrderUseCase) reconcileGatewayResult(ctx context.Context, result *GatewayResult, orderID, chargeID, reason string) (*ReconcileResult, error) {
	resolvedID, err := uc.resolveOrderID(ctx, orderID, result.OrderRef, chargeID)
	if err != nil {
		return nil, err
	}

	order, err := uc.ApplyGatewayStatus(ctx, resolvedID, result.Status, result.ChargeID, result.Raw, reason)
	if err != nil {
		return nil, err
	}

	return &ReconcileResult{
		Status:    result.Status,
		RawStatus: result.RawStatus,
		OrderID:   resolvedID,
		Order:     order,
	}, nil
}

// resolveOrderID 关联订单：显式参数 → 网关回传的业务单号 → 支付记录里
// 以流水号反查。全都落空按流水无法关联处理。
func (uc *OrderUseCase) resolveOrderID(ctx context.Context, provided, orderRef, chargeID string) (string, error) {
	if provided != "" {
		return provided, nil
	}
	if orderRef != "" {
		return orderRef, nil
	}
	if chargeID != "" {
		payment, err := uc.paymentRepo.GetPaymentByChargeID(ctx, chargeID)
		if err != nil {
			return "", pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeOrderQueryFailed)
		}
		if payment != nil {
			return payment.OrderID, nil
		}
	}
	return "", pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeTransactionNotFound)
}

// GetOrder 查询订单（路由层详情页使用）
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeInvalidRequest)
	}
	order, err := uc.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeOrderQueryFailed)
	}
	if order == nil {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeOrderNotFound)
	}
	return order, nil
}

// FetchStoreInfo 网关侧商户信息，诊断用，不在关键路径上
func (uc *OrderUseCase) FetchStoreInfo(ctx context.Context) ([]byte, error) {
	gwStart := time.Now()
	raw, err := uc.gateway.FetchStoreInfo(ctx)
	uc.metrics.GatewayRequestDuration.WithLabelValues("store_info").Observe(time.Since(gwStart).Seconds())
	if err != nil {
		uc.metrics.GatewayRequestTotal.WithLabelValues("store_info", "failed").Inc()
		return nil, err
	}
	uc.metrics.GatewayRequestTotal.WithLabelValues("store_info", "success").Inc()
	return raw, nil
}
