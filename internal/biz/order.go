package biz

import (
	"context"
	"time"

	"course-order-service/internal/conf"
	"course-order-service/internal/constants"
	orderErrors "course-order-service/internal/errors"
	"course-order-service/internal/metrics"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Order 订单领域对象，代表一次购买意图
type Order struct {
	OrderID    string
	UserID     string
	CourseID   string
	Status     Status
	TotalPrice int64 // 单位：最小货币单位
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderRepo 订单数据层接口（定义在 biz 层）
type OrderRepo interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	// FindReusableOrder 返回该 (用户, 课程) 最新的 pending/processing 订单，
	// 没有则返回 nil
	FindReusableOrder(ctx context.Context, userID, courseID string) (*Order, error)
	// HasCompletedOrder 是否存在完成态（含历史别名 success/paid）订单
	HasCompletedOrder(ctx context.Context, userID, courseID string) (bool, error)
	// UpdateStatus 条件更新：仅当当前状态仍在 from 集合内才写入 to。
	// 返回是否真的更新了行；零行表示已被并发方抢先落定，调用方按已解决处理。
	UpdateStatus(ctx context.Context, orderID string, from []Status, to Status) (bool, error)
	// ListExpiredPending 返回创建时间早于 olderThan 且仍为 pending 的订单
	ListExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]*Order, error)
}

// CreateOrderOutcome 下单结果：要么拒绝（带原因），要么给出可用订单
type CreateOrderOutcome struct {
	Allowed bool
	Reason  string
	Message string
	Order   *Order
	Reused  bool
}

// PaymentIntent 发起支付的结果。Free 为 true 时订单已直接完成，
// 前端无需跳转网关。
type PaymentIntent struct {
	Order       *Order
	Free        bool
	ChargeID    string
	RedirectURL string
	PaymentType string
	QRImage     string
	EmbedHTML   string
}

// OrderUseCase 订单编排：购买校验、订单生命周期、网关对账、报名签发的
// 组合入口。状态机 pending → processing → completed|cancelled|refunded，
// 终态只进不出。
type OrderUseCase struct {
	orderRepo   OrderRepo
	paymentRepo PaymentRepo
	courseRepo  CourseRepo
	guard       *PurchaseGuard
	enrollment  *EnrollmentUseCase
	gateway     PaymentGateway
	events      EventPublisher
	conf        *conf.Bootstrap
	log         *log.Helper
	metrics     *metrics.OrderMetrics
}

// NewOrderUseCase 创建订单 UseCase
func NewOrderUseCase(
	orderRepo OrderRepo,
	paymentRepo PaymentRepo,
	courseRepo CourseRepo,
	guard *PurchaseGuard,
	enrollment *EnrollmentUseCase,
	gateway PaymentGateway,
	events EventPublisher,
	bc *conf.Bootstrap,
	logger log.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		courseRepo:  courseRepo,
		guard:       guard,
		enrollment:  enrollment,
		gateway:     gateway,
		events:      events,
		conf:        bc,
		log:         log.NewHelper(logger),
		metrics:     metrics.GetMetrics(),
	}
}

// CreateOrder 创建（或复用）订单。先走购买校验，再找可复用的在途订单，
// 都没有才插入新的 pending 订单和 pending 支付记录。
func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID, courseID string) (*CreateOrderOutcome, error) {
	startTime := time.Now()

	if userID == "" || courseID == "" {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeInvalidRequest)
	}

	decision, err := uc.guard.AssertPurchasable(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		uc.metrics.OrderCreateTotal.WithLabelValues("rejected").Inc()
		return &CreateOrderOutcome{
			Allowed: false,
			Reason:  decision.Reason,
			Message: decision.Message,
		}, nil
	}

	// 重试结账时复用在途订单，避免同一 (用户, 课程) 堆出重复行
	existing, err := uc.guard.FindReusableOrder(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		uc.log.Infof("Reusing pending order: order_id=%s, user_id=%s, course_id=%s", existing.OrderID, userID, courseID)
		uc.metrics.OrderCreateTotal.WithLabelValues("reused").Inc()
		return &CreateOrderOutcome{Allowed: true, Order: existing, Reused: true}, nil
	}

	course, err := uc.courseRepo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeCourseNotFound)
	}
	if !course.IsActive {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeCourseInactive)
	}

	order := &Order{
		OrderID:    uuid.New().String(),
		UserID:     userID,
		CourseID:   courseID,
		Status:     StatusPending,
		TotalPrice: course.Price,
	}
	if err := uc.orderRepo.CreateOrder(ctx, order); err != nil {
		uc.log.Errorf("CreateOrder failed: user_id=%s, course_id=%s, error=%v", userID, courseID, err)
		uc.metrics.OrderCreateTotal.WithLabelValues("failed").Inc()
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodeOrderCreateFailed)
	}

	// 支付状态记录随订单创建，初始 pending
	if err := uc.paymentRepo.UpsertPayment(ctx, &Payment{OrderID: order.OrderID, Status: StatusPending}); err != nil {
		uc.log.Errorf("Init payment record failed: order_id=%s, error=%v", order.OrderID, err)
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodePaymentWriteFailed)
	}

	uc.publishEvent(ctx, &Event{
		Type:     constants.EventOrderCreated,
		OrderID:  order.OrderID,
		UserID:   userID,
		CourseID: courseID,
		Status:   string(StatusPending),
	})

	uc.metrics.OrderCreateTotal.WithLabelValues("created").Inc()
	uc.metrics.OrderCreateDuration.Observe(time.Since(startTime).Seconds())
	uc.log.Infof("Order created: order_id=%s, user_id=%s, course_id=%s, total_price=%d", order.OrderID, userID, courseID, order.TotalPrice)
	return &CreateOrderOutcome{Allowed: true, Order: order}, nil
}

// CreatePaymentParams 发起支付参数
type CreatePaymentParams struct {
	UserID    string
	CourseID  string
	Method    string
	Customer  Customer
	ReturnURL string
	NotifyURL string
}

// PaymentOutcome 发起支付结果：购买校验拒绝不是错误，带原因返回
type PaymentOutcome struct {
	Allowed bool
	Reason  string
	Message string
	Intent  *PaymentIntent
}

// CreatePayment 为订单发起网关交易。零元课程不走网关：订单直接置
// completed，支付记录写入合成流水号，报名立即签发。
func (uc *OrderUseCase) CreatePayment(ctx context.Context, params *CreatePaymentParams) (*PaymentOutcome, error) {
	if params == nil || params.UserID == "" || params.CourseID == "" {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeInvalidRequest)
	}

	outcome, err := uc.CreateOrder(ctx, params.UserID, params.CourseID)
	if err != nil {
		return nil, err
	}
	if !outcome.Allowed {
		return &PaymentOutcome{Allowed: false, Reason: outcome.Reason, Message: outcome.Message}, nil
	}
	order := outcome.Order

	course, err := uc.courseRepo.GetCourse(ctx, params.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, orderErrors.ErrCodeCourseNotFound)
	}

	if order.TotalPrice == 0 {
		uc.log.Infof("Free course, completing order without gateway: order_id=%s", order.OrderID)
		updated, err := uc.ApplyGatewayStatus(ctx, order.OrderID, StatusCompleted, constants.ChargeIDFreeCourse, nil, "")
		if err != nil {
			return nil, err
		}
		return &PaymentOutcome{
			Allowed: true,
			Intent:  &PaymentIntent{Order: updated, Free: true, ChargeID: constants.ChargeIDFreeCourse},
		}, nil
	}

	gwStart := time.Now()
	result, err := uc.gateway.CreateTransaction(ctx, &CreateTransactionRequest{
		OrderID:     order.OrderID,
		Amount:      order.TotalPrice,
		Description: course.Title,
		Method:      params.Method,
		Customer:    params.Customer,
		ReturnURL:   params.ReturnURL,
		NotifyURL:   params.NotifyURL,
	})
	uc.metrics.GatewayRequestDuration.WithLabelValues("create").Observe(time.Since(gwStart).Seconds())
	if err != nil {
		uc.metrics.GatewayRequestTotal.WithLabelValues("create", "failed").Inc()
		uc.log.Errorf("CreateTransaction failed: order_id=%s, error=%v", order.OrderID, err)
		return nil, err
	}
	uc.metrics.GatewayRequestTotal.WithLabelValues("create", "success").Inc()

	// 先落流水号，webhook 可能先于响应处理到达
	if err := uc.paymentRepo.UpsertPayment(ctx, &Payment{
		OrderID:  order.OrderID,
		Status:   StatusPending,
		ChargeID: result.ChargeID,
		Raw:      result.Raw,
	}); err != nil {
		uc.log.Errorf("Persist charge id failed: order_id=%s, charge_id=%s, error=%v", order.OrderID, result.ChargeID, err)
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodePaymentWriteFailed)
	}

	uc.log.Infof("Gateway transaction created: order_id=%s, charge_id=%s, payment_type=%s", order.OrderID, result.ChargeID, result.PaymentType)
	return &PaymentOutcome{
		Allowed: true,
		Intent: &PaymentIntent{
			Order:       order,
			ChargeID:    result.ChargeID,
			RedirectURL: result.RedirectURL,
			PaymentType: result.PaymentType,
			QRImage:     result.QRImage,
			EmbedHTML:   result.EmbedHTML,
		},
	}, nil
}

func (uc *OrderUseCase) publishEvent(ctx context.Context, event *Event) {
	if uc.events == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := uc.events.Publish(ctx, event); err != nil {
		uc.log.Warnf("Publish event failed: type=%s, order_id=%s, error=%v", event.Type, event.OrderID, err)
	}
}
