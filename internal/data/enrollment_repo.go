package data

import (
	"context"
	"errors"

	"course-order-service/internal/biz"
	"course-order-service/internal/constants"
	"course-order-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// enrollmentRepo 课程报名数据访问
type enrollmentRepo struct {
	data *Data
	log  *log.Helper
}

// NewEnrollmentRepo 创建报名 repo（返回 biz.EnrollmentRepo 接口）
func NewEnrollmentRepo(data *Data, logger log.Logger) biz.EnrollmentRepo {
	return &enrollmentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// FindByOrderID 通过订单ID查询报名
func (r *enrollmentRepo) FindByOrderID(ctx context.Context, orderID string) (*biz.Enrollment, error) {
	var m model.Enrollment
	if err := r.data.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizEnrollment(&m), nil
}

// FindNonCancelled 返回该 (用户, 课程) 的非 cancelled 报名
func (r *enrollmentRepo) FindNonCancelled(ctx context.Context, userID, courseID string) (*biz.Enrollment, error) {
	var m model.Enrollment
	err := r.data.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND status <> ?", userID, courseID,
			constants.EnrollmentStatusCancelled).
		Order("enrolled_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizEnrollment(&m), nil
}

// FindBlocking 返回会拦截复购的报名。状态条件与剩余次数条件是 OR 关系，
// 与线上行为保持一致：expired 状态但 remaining_access > 0 的报名仍然拦截。
func (r *enrollmentRepo) FindBlocking(ctx context.Context, userID, courseID string) (*biz.Enrollment, error) {
	var m model.Enrollment
	err := r.data.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Where("status NOT IN ? OR remaining_access IS NULL OR remaining_access > 0",
			[]string{constants.EnrollmentStatusExpired, constants.EnrollmentStatusCancelled}).
		Order("enrolled_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizEnrollment(&m), nil
}

// CreateEnrollment 创建报名记录
func (r *enrollmentRepo) CreateEnrollment(ctx context.Context, enrollment *biz.Enrollment) error {
	m := model.Enrollment{
		EnrollmentID:    enrollment.EnrollmentID,
		UserID:          enrollment.UserID,
		CourseID:        enrollment.CourseID,
		Status:          enrollment.Status,
		RemainingAccess: enrollment.RemainingAccess,
	}
	if enrollment.OrderID != "" {
		orderID := enrollment.OrderID
		m.OrderID = &orderID
	}
	if err := r.data.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	enrollment.EnrolledAt = m.EnrolledAt
	enrollment.UpdatedAt = m.UpdatedAt
	return nil
}

func toBizEnrollment(m *model.Enrollment) *biz.Enrollment {
	e := &biz.Enrollment{
		EnrollmentID:    m.EnrollmentID,
		UserID:          m.UserID,
		CourseID:        m.CourseID,
		Status:          m.Status,
		RemainingAccess: m.RemainingAccess,
		EnrolledAt:      m.EnrolledAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.OrderID != nil {
		e.OrderID = *m.OrderID
	}
	return e
}
