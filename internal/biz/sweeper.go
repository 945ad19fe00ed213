package biz

import (
	"context"
	"time"

	"course-order-service/internal/conf"
	"course-order-service/internal/constants"
	"course-order-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
)

// SweepReport 单轮清扫统计
type SweepReport struct {
	Scanned   int
	Cancelled int
	Skipped   int // 条件更新零行：订单已被 webhook/轮询落定
	Failed    int
}

// SweeperUseCase 过期订单清扫：回收用户放弃的结账。
// 每单的并发保护只有条件更新 `status='cancelled' WHERE status='pending'`；
// redsync 锁只用来避免多副本同时扫表，不参与单订单的竞争裁决。
type SweeperUseCase struct {
	orderRepo   OrderRepo
	paymentRepo PaymentRepo
	events      EventPublisher
	rs          *redsync.Redsync
	conf        *conf.Bootstrap
	log         *log.Helper
	metrics     *metrics.OrderMetrics
}

// NewSweeperUseCase 创建清扫 UseCase
func NewSweeperUseCase(
	orderRepo OrderRepo,
	paymentRepo PaymentRepo,
	events EventPublisher,
	rs *redsync.Redsync,
	bc *conf.Bootstrap,
	logger log.Logger,
) *SweeperUseCase {
	return &SweeperUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		events:      events,
		rs:          rs,
		conf:        bc,
		log:         log.NewHelper(logger),
		metrics:     metrics.GetMetrics(),
	}
}

// SweepExpiredPending 清扫超时的待支付订单。单个订单失败不中断整批，
// 逐单记日志继续。
func (uc *SweeperUseCase) SweepExpiredPending(ctx context.Context) (*SweepReport, error) {
	startTime := time.Now()
	report := &SweepReport{}

	if uc.rs != nil {
		mutex := uc.rs.NewMutex(
			constants.RedisKeySweepLock,
			redsync.WithExpiry(uc.conf.SweeperInterval()),
			redsync.WithTries(1),
		)
		if err := mutex.LockContext(ctx); err != nil {
			// 其他副本正在清扫
			uc.metrics.LockAcquireTotal.WithLabelValues("failed").Inc()
			uc.log.Infof("Sweep skipped, lock busy: %v", err)
			return report, nil
		}
		uc.metrics.LockAcquireTotal.WithLabelValues("success").Inc()
		defer func() {
			if _, err := mutex.UnlockContext(ctx); err != nil {
				uc.log.Warnf("Sweep lock unlock failed: %v", err)
			}
		}()
	}

	cutoff := time.Now().Add(-uc.conf.PendingTimeout())
	orders, err := uc.orderRepo.ListExpiredPending(ctx, cutoff, uc.conf.SweeperBatchLimit())
	if err != nil {
		uc.log.Errorf("ListExpiredPending failed: %v", err)
		return report, err
	}
	report.Scanned = len(orders)

	for _, order := range orders {
		if err := uc.sweepOne(ctx, order, report); err != nil {
			report.Failed++
			uc.metrics.SweepFailedTotal.Inc()
			uc.log.Errorf("Sweep order failed: order_id=%s, error=%v", order.OrderID, err)
		}
	}

	uc.metrics.SweepDuration.Observe(time.Since(startTime).Seconds())
	if report.Scanned > 0 {
		uc.log.Infof("Sweep finished: scanned=%d, cancelled=%d, skipped=%d, failed=%d", report.Scanned, report.Cancelled, report.Skipped, report.Failed)
	}
	return report, nil
}

func (uc *SweeperUseCase) sweepOne(ctx context.Context, order *Order, report *SweepReport) error {
	// WHERE status='pending' 是唯一的竞争防线：webhook 刚把订单置成
	// completed 时这里影响零行，按已解决跳过
	updated, err := uc.orderRepo.UpdateStatus(ctx, order.OrderID, []Status{StatusPending}, StatusCancelled)
	if err != nil {
		return err
	}
	if !updated {
		report.Skipped++
		uc.metrics.SweepSkippedTotal.Inc()
		uc.log.Infof("Order already resolved, sweep skipped: order_id=%s", order.OrderID)
		return nil
	}

	report.Cancelled++
	uc.metrics.SweepCancelledTotal.Inc()
	uc.metrics.OrderStatusTotal.WithLabelValues(string(StatusCancelled)).Inc()
	uc.log.Infof("Expired pending order cancelled: order_id=%s, user_id=%s, created_at=%s", order.OrderID, order.UserID, order.CreatedAt.Format(time.RFC3339))

	if err := uc.paymentRepo.UpsertPayment(ctx, &Payment{
		OrderID: order.OrderID,
		Status:  StatusCancelled,
		Reason:  constants.ReasonExpiredPendingTimeout,
	}); err != nil {
		return err
	}

	uc.publishCancelEvents(ctx, order)
	return nil
}

func (uc *SweeperUseCase) publishCancelEvents(ctx context.Context, order *Order) {
	if uc.events == nil {
		return
	}
	now := time.Now().UTC()
	for _, event := range []*Event{
		{
			Type:       constants.EventOrderCancelled,
			OrderID:    order.OrderID,
			UserID:     order.UserID,
			CourseID:   order.CourseID,
			Status:     string(StatusCancelled),
			Reason:     constants.ReasonExpiredPendingTimeout,
			OccurredAt: now,
		},
		{
			Type:       constants.EventPaymentCancelled,
			OrderID:    order.OrderID,
			Status:     string(StatusCancelled),
			Reason:     constants.ReasonExpiredPendingTimeout,
			OccurredAt: now,
		},
	} {
		if err := uc.events.Publish(ctx, event); err != nil {
			uc.log.Warnf("Publish sweep event failed: type=%s, order_id=%s, error=%v", event.Type, order.OrderID, err)
		}
	}
}
