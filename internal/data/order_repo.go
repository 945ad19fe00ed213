package data

import (
	"context"
	"errors"
	"time"

	"course-order-service/internal/biz"
	"course-order-service/internal/constants"
	"course-order-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// orderRepo 订单相关数据访问
type orderRepo struct {
	data *Data
	log  *log.Helper
}

// NewOrderRepo 创建订单 repo（返回 biz.OrderRepo 接口）
func NewOrderRepo(data *Data, logger log.Logger) biz.OrderRepo {
	return &orderRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateOrder 创建订单记录
func (r *orderRepo) CreateOrder(ctx context.Context, order *biz.Order) error {
	m := model.Order{
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		CourseID:   order.CourseID,
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice,
	}
	if err := r.data.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	order.CreatedAt = m.CreatedAt
	order.UpdatedAt = m.UpdatedAt
	return nil
}

// GetOrder 通过订单ID查询订单
func (r *orderRepo) GetOrder(ctx context.Context, orderID string) (*biz.Order, error) {
	var m model.Order
	if err := r.data.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizOrder(&m), nil
}

// FindReusableOrder 返回该 (用户, 课程) 最新的在途订单
func (r *orderRepo) FindReusableOrder(ctx context.Context, userID, courseID string) (*biz.Order, error) {
	var m model.Order
	err := r.data.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND status IN ?", userID, courseID,
			[]string{constants.OrderStatusPending, constants.OrderStatusProcessing}).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizOrder(&m), nil
}

// HasCompletedOrder 是否存在完成态订单（含历史别名 success/paid）
func (r *orderRepo) HasCompletedOrder(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := r.data.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ? AND course_id = ? AND status IN ?", userID, courseID,
			constants.OrderStatusCompletedAliases).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus 条件更新订单状态。WHERE status IN (from) 是并发竞争的唯一
// 防线：影响零行表示订单已被其他路径（webhook/轮询/清扫）落定。
func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, from []biz.Status, to biz.Status) (bool, error) {
	fromStrs := make([]string, 0, len(from))
	for _, s := range from {
		fromStrs = append(fromStrs, string(s))
	}

	result := r.data.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status IN ?", orderID, fromStrs).
		Update("status", string(to))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListExpiredPending 返回创建时间早于 olderThan 的待支付订单
func (r *orderRepo) ListExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]*biz.Order, error) {
	var ms []model.Order
	err := r.data.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", constants.OrderStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*biz.Order, 0, len(ms))
	for i := range ms {
		orders = append(orders, toBizOrder(&ms[i]))
	}
	return orders, nil
}

func toBizOrder(m *model.Order) *biz.Order {
	return &biz.Order{
		OrderID:    m.OrderID,
		UserID:     m.UserID,
		CourseID:   m.CourseID,
		Status:     biz.Status(m.Status),
		TotalPrice: m.TotalPrice,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
