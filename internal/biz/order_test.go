package biz

import (
	"context"
	"encoding/json"
	"testing"

	"course-order-service/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_NewPendingOrder(t *testing.T) {
	h := newTestHarness(&Course{CourseID: "course-1", Title: "Vinyasa Flow", Price: 150000, IsActive: true})

	outcome, err := h.order.CreateOrder(context.Background(), "user-1", "course-1")

	require.NoError(t, err)
	assert.True(t, outcome.Allowed)
	assert.False(t, outcome.Reused)
	require.NotNil(t, outcome.Order)
	assert.Equal(t, StatusPending, outcome.Order.Status)
	assert.Equal(t, int64(150000), outcome.Order.TotalPrice)
	assert.NotEmpty(t, outcome.Order.OrderID)

	// 支付状态记录随订单创建
	payment, err := h.payments.GetPayment(context.Background(), outcome.Order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, StatusPending, payment.Status)

	assert.Contains(t, h.events.types(), constants.EventOrderCreated)
}

func TestCreateOrder_RejectedWhenAlreadyEnrolled(t *testing.T) {
	h := newTestHarness(&Course{CourseID: "course-1", Title: "Vinyasa Flow", Price: 150000, IsActive: true})
	h.enrollments.enrollments = append(h.enrollments.enrollments, &Enrollment{
		EnrollmentID: "enr-1",
		UserID:       "user-1",
		CourseID:     "course-1",
		Status:       constants.EnrollmentStatusActive,
	})

	outcome, err := h.order.CreateOrder(context.Background(), "user-1", "course-1")

	require.NoError(t, err)
	assert.False(t, outcome.Allowed)
	assert.Equal(t, constants.GuardReasonAlreadyEnrolled, outcome.Reason)
	assert.NotEmpty(t, outcome.Message)
	assert.Nil(t, outcome.Order)
	assert.Empty(t, h.orders.orders)
}

// 重试结账复用在途订单，不堆重复行
func TestCreateOrder_ReusesPendingOrder(t *testing.T) {
	h := newTestHarness(&Course{CourseID: "course-1", Title: "Vinyasa Flow", Price: 150000, IsActive: true})

	first, err := h.order.CreateOrder(context.Background(), "user-1", "course-1")
	require.NoError(t, err)

	second, err := h.order.CreateOrder(context.Background(), "user-1", "course-1")
	require.NoError(t, err)

	assert.True(t, second.Allowed)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Order.OrderID, second.Order.OrderID)
	assert.Len(t, h.orders.orders, 1)
}

func TestCreateOrder_CourseNotFound(t *testing.T) {
	h := newTestHarness()

	_, err := h.order.CreateOrder(context.Background(), "user-1", "missing")

	require.Error(t, err)
}

func TestCreateOrder_CourseInactive(t *testing.T) {
	h := newTestHarness(&Course{CourseID: "course-1", Title: "Retired", Price: 150000, IsActive: false})

	_, err := h.order.CreateOrder(context.Background(), "user-1", "course-1")

	require.Error(t, err)
}

func TestCreateOrder_EmptyArgs(t *testing.T) {
	h := newTestHarness()

	_, err := h.order.CreateOrder(context.Background(), "", "course-1")
	require.Error(t, err)

	_, err = h.order.CreateOrder(context.Background(), "user-1", "")
	require.Error(t, err)
}

// 零元课程不走网关：订单直接完成，写合成流水号，报名立即签发
func TestCreatePayment_FreeCourseBypassesGateway(t *testing.T) {
	h := newTestHarness(&Course{CourseID: "course-free", Title: "Intro Session", Price: 0, IsActive: true})

	outcome, err := h.order.CreatePayment(context.Background(), &CreatePaymentParams{
		UserID:   "user-1",
		CourseID: "course-free",
	})

	require.NoError(t, err)
	require.True(t, outcome.Allowed)
	intent := outcome.Intent
	require.NotNil(t, intent)
	assert.True(t, intent.Free)
	assert.Equal(t, constants.ChargeIDFreeCourse, intent.ChargeID)
	assert.Empty(t, intent.RedirectURL)
	assert.Equal(t, 0, h.gateway.CreateCalls)

	require.NotNil(t, intent.Order)
	assert.Equal(t, StatusCompleted, intent.Order.Status)

	payment, err := h.payments.GetPayment(context.Background(), intent.Order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, StatusCompleted, payment.Status)
	assert.Equal(t, constants.ChargeIDFreeCourse, payment.ChargeID)

	assert.Len(t, h.enrollments.enrollments, 1)
}

func TestCreatePayment_PaidCourseCreatesGatewayTransaction(t *testing.T) {
	h := newTestHarness(&Course{CourseID: "course-1", Title: "Vinyasa Flow", Price: 150000, IsActive: true})
	h.gateway.CreateResult = &CreateTransactionResult{
		ChargeID:    "txn-123",
		RedirectURL: "https://pay.example.com/checkout/txn-123",
		PaymentType: "card",
		Raw:         json.RawMessage(`{"transectionID":"txn-123"}`),
	}

	outcome, err := h.order.CreatePayment(context.Background(), &CreatePaymentParams{
		UserID:   "user-1",
		CourseID: "course-1",
		Method:   "credit_card",
	})

	require.NoError(t, err)
	require.True(t, outcome.Allowed)
	intent := outcome.Intent
	require.NotNil(t, intent)
	assert.False(t, intent.Free)
	assert.Equal(t, "txn-123", intent.ChargeID)
	assert.Equal(t, "https://pay.example.com/checkout/txn-123", intent.RedirectURL)
	assert.Equal(t, 1, h.gateway.CreateCalls)

	// 流水号先落库，webhook 可能先于响应处理到达
	payment, err := h.payments.GetPaymentByChargeID(context.Background(), "txn-123")
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, intent.Order.OrderID, payment.OrderID)
	assert.Equal(t, StatusPending, payment.Status)

	// 订单保持 pending，等网关确认
	assert.Equal(t, StatusPending, intent.Order.Status)
	assert.Empty(t, h.enrollments.enrollments)
}

func TestCreatePayment_GuardRejectionIsNotError(t *testing.T) {
	h := newTestHarness(&Course{CourseID: "course-1", Title: "Vinyasa Flow", Price: 150000, IsActive: true})
	h.orders.put(&Order{OrderID: "ord-done", UserID: "user-1", CourseID: "course-1", Status: StatusCompleted})

	outcome, err := h.order.CreatePayment(context.Background(), &CreatePaymentParams{
		UserID:   "user-1",
		CourseID: "course-1",
	})

	require.NoError(t, err)
	assert.False(t, outcome.Allowed)
	assert.Equal(t, constants.GuardReasonOrderCompleted, outcome.Reason)
	assert.Nil(t, outcome.Intent)
	assert.Equal(t, 0, h.gateway.CreateCalls)
}
