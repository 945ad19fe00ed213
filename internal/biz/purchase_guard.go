package biz

import (
	"context"

	"course-order-service/internal/constants"
	"course-order-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
)

// PurchaseDecision 购买校验结论。拒绝不是系统错误，带原因返回。
type PurchaseDecision struct {
	Allowed    bool
	Reason     string
	Message    string
	Enrollment *Enrollment // reason=already_enrolled 时附带
}

// PurchaseGuard 购买防重校验，纯读逻辑
type PurchaseGuard struct {
	orderRepo      OrderRepo
	enrollmentRepo EnrollmentRepo
	log            *log.Helper
	metrics        *metrics.OrderMetrics
}

// NewPurchaseGuard 创建购买校验器
func NewPurchaseGuard(orderRepo OrderRepo, enrollmentRepo EnrollmentRepo, logger log.Logger) *PurchaseGuard {
	return &PurchaseGuard{
		orderRepo:      orderRepo,
		enrollmentRepo: enrollmentRepo,
		log:            log.NewHelper(logger),
		metrics:        metrics.GetMetrics(),
	}
}

// AssertPurchasable 判定用户能否购买课程。依次检查：
//  1. 是否已持有仍可用的报名——状态非终态 或 剩余次数为空/大于零，
//     两个条件是 OR 关系（expired 状态但剩余次数>0 仍然拦截）；
//  2. 是否已有完成态订单（含历史别名 success/paid）。
func (g *PurchaseGuard) AssertPurchasable(ctx context.Context, userID, courseID string) (*PurchaseDecision, error) {
	enrollment, err := g.enrollmentRepo.FindBlocking(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment != nil {
		g.metrics.PurchaseCheckTotal.WithLabelValues(constants.GuardReasonAlreadyEnrolled).Inc()
		g.log.Infof("Purchase blocked, already enrolled: user_id=%s, course_id=%s, enrollment_id=%s", userID, courseID, enrollment.EnrollmentID)
		return &PurchaseDecision{
			Reason:     constants.GuardReasonAlreadyEnrolled,
			Message:    "คุณมีคอร์สนี้อยู่แล้ว กรุณาตรวจสอบที่คอร์สของฉัน", // 已持有该课程，请到"我的课程"查看
			Enrollment: enrollment,
		}, nil
	}

	completed, err := g.orderRepo.HasCompletedOrder(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if completed {
		g.metrics.PurchaseCheckTotal.WithLabelValues(constants.GuardReasonOrderCompleted).Inc()
		g.log.Infof("Purchase blocked, completed order exists: user_id=%s, course_id=%s", userID, courseID)
		return &PurchaseDecision{
			Reason:  constants.GuardReasonOrderCompleted,
			Message: "คอร์สนี้ชำระเงินเรียบร้อยแล้ว", // 该课程已完成付款
		}, nil
	}

	g.metrics.PurchaseCheckTotal.WithLabelValues("allowed").Inc()
	return &PurchaseDecision{Allowed: true}, nil
}

// FindReusableOrder 返回该 (用户, 课程) 最新的在途订单，没有则 nil
func (g *PurchaseGuard) FindReusableOrder(ctx context.Context, userID, courseID string) (*Order, error) {
	return g.orderRepo.FindReusableOrder(ctx, userID, courseID)
}
