package data

import (
	"context"
	"encoding/json"
	"errors"

	"course-order-service/internal/biz"
	"course-order-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepo 支付状态记录数据访问
type paymentRepo struct {
	data *Data
	log  *log.Helper
}

// NewPaymentRepo 创建支付状态 repo（返回 biz.PaymentRepo 接口）
func NewPaymentRepo(data *Data, logger log.Logger) biz.PaymentRepo {
	return &paymentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetPayment 通过订单ID查询支付状态记录
func (r *paymentRepo) GetPayment(ctx context.Context, orderID string) (*biz.Payment, error) {
	var m model.Payment
	if err := r.data.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizPayment(&m), nil
}

// GetPaymentByChargeID 通过网关流水号反查支付状态记录
func (r *paymentRepo) GetPaymentByChargeID(ctx context.Context, chargeID string) (*biz.Payment, error) {
	var m model.Payment
	err := r.data.db.WithContext(ctx).
		Where("charge_id = ?", chargeID).
		Order("updated_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizPayment(&m), nil
}

// UpsertPayment 存在则更新、缺失则插入。流水号与原始报文只在有值时覆盖，
// 避免后到的轮询/清扫把 webhook 已落的留档清掉。
func (r *paymentRepo) UpsertPayment(ctx context.Context, payment *biz.Payment) error {
	assignments := map[string]interface{}{
		"status": string(payment.Status),
	}
	if payment.ChargeID != "" {
		assignments["charge_id"] = payment.ChargeID
	}
	if len(payment.Raw) > 0 {
		assignments["raw"] = string(payment.Raw)
	}
	if payment.Reason != "" {
		assignments["reason"] = payment.Reason
	}

	m := model.Payment{
		OrderID:  payment.OrderID,
		Status:   string(payment.Status),
		ChargeID: payment.ChargeID,
		Raw:      string(payment.Raw),
		Reason:   payment.Reason,
	}
	return r.data.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&m).Error
}

func toBizPayment(m *model.Payment) *biz.Payment {
	var raw json.RawMessage
	if m.Raw != "" {
		raw = json.RawMessage(m.Raw)
	}
	return &biz.Payment{
		OrderID:   m.OrderID,
		Status:    biz.Status(m.Status),
		ChargeID:  m.ChargeID,
		Raw:       raw,
		Reason:    m.Reason,
		UpdatedAt: m.UpdatedAt,
	}
}
