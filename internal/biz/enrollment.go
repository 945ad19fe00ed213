package biz

import (
	"context"
	"time"

	"course-order-service/internal/constants"
	orderErrors "course-order-service/internal/errors"
	"course-order-service/internal/metrics"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Enrollment 课程报名领域对象。订单触发创建，后续由签到流程（不在本服务）
// 扣减剩余次数。
type Enrollment struct {
	EnrollmentID    string
	UserID          string
	CourseID        string
	OrderID         string // 可为空：后台手工授予的报名没有订单
	Status          string
	RemainingAccess *int // nil 表示不限次
	EnrolledAt      time.Time
	UpdatedAt       time.Time
}

// EnrollmentRepo 报名数据层接口（定义在 biz 层）
type EnrollmentRepo interface {
	FindByOrderID(ctx context.Context, orderID string) (*Enrollment, error)
	// FindNonCancelled 返回该 (用户, 课程) 的非 cancelled 报名
	FindNonCancelled(ctx context.Context, userID, courseID string) (*Enrollment, error)
	// FindBlocking 返回会拦截复购的报名：状态非终态 或 剩余次数为空/大于零
	FindBlocking(ctx context.Context, userID, courseID string) (*Enrollment, error)
	CreateEnrollment(ctx context.Context, enrollment *Enrollment) error
}

// EnrollmentGrant 报名签发结果
type EnrollmentGrant struct {
	Created    bool
	Reason     string
	Enrollment *Enrollment
}

// EnrollmentUseCase 报名签发：把已完成订单幂等地转成课程访问权
type EnrollmentUseCase struct {
	repo       EnrollmentRepo
	orderRepo  OrderRepo
	courseRepo CourseRepo
	events     EventPublisher
	log        *log.Helper
	metrics    *metrics.OrderMetrics
}

// NewEnrollmentUseCase 创建报名 UseCase
func NewEnrollmentUseCase(
	repo EnrollmentRepo,
	orderRepo OrderRepo,
	courseRepo CourseRepo,
	events EventPublisher,
	logger log.Logger,
) *EnrollmentUseCase {
	return &EnrollmentUseCase{
		repo:       repo,
		orderRepo:  orderRepo,
		courseRepo: courseRepo,
		events:     events,
		log:        log.NewHelper(logger),
		metrics:    metrics.GetMetrics(),
	}
}

// EnsureEnrollmentForOrder 为已完成订单签发报名，可安全重复调用。
// 幂等检查：同订单号已有报名，或同 (用户, 课程) 已有非 cancelled 报名，
// 都按已存在返回——这是 webhook 重投和轮询/回调并发竞争下防止重复授予
// 的关键保护（没有分布式锁，存在性检查加唯一插入路径是唯一防线）。
func (uc *EnrollmentUseCase) EnsureEnrollmentForOrder(ctx context.Context, orderID string) (*EnrollmentGrant, error) {
	order, err := uc.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeOrderQueryFailed)
	}
	if order == nil {
		uc.metrics.EnrollmentIssueTotal.WithLabelValues("failed").Inc()
		return &EnrollmentGrant{Reason: constants.ReasonOrderNotFound},
			pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeOrderNotFound)
	}

	existing, err := uc.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeEnrollmentQueryFailed)
	}
	if existing == nil {
		existing, err = uc.repo.FindNonCancelled(ctx, order.UserID, order.CourseID)
		if err != nil {
			return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeEnrollmentQueryFailed)
		}
	}
	if existing != nil {
		uc.metrics.EnrollmentIssueTotal.WithLabelValues(constants.ReasonAlreadyExists).Inc()
		uc.log.Infof("Enrollment already exists: order_id=%s, enrollment_id=%s", orderID, existing.EnrollmentID)
		return &EnrollmentGrant{Created: false, Reason: constants.ReasonAlreadyExists, Enrollment: existing}, nil
	}

	course, err := uc.courseRepo.GetCourse(ctx, order.CourseID)
	if err != nil {
		return nil, err
	}
	var remaining *int
	if course != nil && course.AccessTimes != nil {
		n := *course.AccessTimes
		remaining = &n
	}

	enrollment := &Enrollment{
		EnrollmentID:    uuid.New().String(),
		UserID:          order.UserID,
		CourseID:        order.CourseID,
		OrderID:         orderID,
		Status:          constants.EnrollmentStatusActive,
		RemainingAccess: remaining,
	}
	if err := uc.repo.CreateEnrollment(ctx, enrollment); err != nil {
		uc.metrics.EnrollmentIssueTotal.WithLabelValues("failed").Inc()
		uc.log.Errorf("CreateEnrollment failed: order_id=%s, error=%v", orderID, err)
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeEnrollmentCreateFailed)
	}

	if uc.events != nil {
		event := &Event{
			Type:       constants.EventEnrollmentCreated,
			OrderID:    orderID,
			UserID:     order.UserID,
			CourseID:   order.CourseID,
			Status:     constants.EnrollmentStatusActive,
			OccurredAt: time.Now().UTC(),
		}
		if err := uc.events.Publish(ctx, event); err != nil {
			uc.log.Warnf("Publish enrollment event failed: order_id=%s, error=%v", orderID, err)
		}
	}

	uc.metrics.EnrollmentIssueTotal.WithLabelValues("created").Inc()
	uc.log.Infof("Enrollment created: enrollment_id=%s, order_id=%s, user_id=%s, course_id=%s", enrollment.EnrollmentID, orderID, order.UserID, order.CourseID)
	return &EnrollmentGrant{Created: true, Enrollment: enrollment}, nil
}
