package biz

import (
	"context"
	"testing"
	"time"

	"course-order-service/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(h *testHarness) *SweeperUseCase {
	// 锁工厂传 nil：单测里没有 Redis，清扫逻辑本身不依赖锁
	return NewSweeperUseCase(h.orders, h.payments, h.events, nil, testConf(), testLogger())
}

func TestSweepExpiredPending_CancelsTimedOutOrders(t *testing.T) {
	h := newTestHarness()
	sweeper := newTestSweeper(h)

	h.orders.put(&Order{OrderID: "ord-old", UserID: "user-1", CourseID: "course-1", Status: StatusPending, CreatedAt: time.Now().Add(-time.Hour)})
	h.orders.put(&Order{OrderID: "ord-fresh", UserID: "user-2", CourseID: "course-1", Status: StatusPending, CreatedAt: time.Now()})

	report, err := sweeper.SweepExpiredPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Cancelled)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	old, err := h.orders.GetOrder(context.Background(), "ord-old")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, old.Status)

	fresh, err := h.orders.GetOrder(context.Background(), "ord-fresh")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.Status)

	payment, err := h.payments.GetPayment(context.Background(), "ord-old")
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, StatusCancelled, payment.Status)
	assert.Equal(t, constants.ReasonExpiredPendingTimeout, payment.Reason)

	assert.Contains(t, h.events.types(), constants.EventOrderCancelled)
	assert.Contains(t, h.events.types(), constants.EventPaymentCancelled)
}

// 清扫与 webhook 竞争：条件更新零行的订单按已解决跳过，不覆盖支付结论
func TestSweepExpiredPending_SkipsConcurrentlyResolvedOrder(t *testing.T) {
	h := newTestHarness()
	sweeper := newTestSweeper(h)

	h.orders.put(&Order{OrderID: "ord-1", UserID: "user-1", CourseID: "course-1", Status: StatusPending, CreatedAt: time.Now().Add(-time.Hour)})

	// 模拟列出之后、更新之前 webhook 把订单置成 completed
	h.orders.orders["ord-1"].Status = StatusCompleted

	report, err := sweeper.SweepExpiredPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 0, report.Cancelled)
	assert.Equal(t, 1, report.Skipped)

	order, err := h.orders.GetOrder(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, order.Status)
	assert.Empty(t, h.payments.payments)
}

func TestSweepExpiredPending_EmptyBatch(t *testing.T) {
	h := newTestHarness()
	sweeper := newTestSweeper(h)

	report, err := sweeper.SweepExpiredPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Empty(t, h.events.events)
}

// 单个订单失败不中断整批
func TestSweepExpiredPending_ContinuesAfterFailure(t *testing.T) {
	h := newTestHarness()
	sweeper := newTestSweeper(h)

	h.orders.put(&Order{OrderID: "ord-a", UserID: "user-1", CourseID: "course-1", Status: StatusPending, CreatedAt: time.Now().Add(-2 * time.Hour)})
	h.orders.put(&Order{OrderID: "ord-b", UserID: "user-2", CourseID: "course-1", Status: StatusPending, CreatedAt: time.Now().Add(-time.Hour)})
	h.payments.UpsertErr = assert.AnError

	report, err := sweeper.SweepExpiredPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Failed)
}
