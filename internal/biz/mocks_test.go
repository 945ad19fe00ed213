package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"course-order-service/internal/conf"
	"course-order-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

func testConf() *conf.Bootstrap {
	return &conf.Bootstrap{}
}

// memOrderRepo implements OrderRepo in memory for testing
type memOrderRepo struct {
	orders map[string]*Order
	// CreateErr forces CreateOrder to fail
	CreateErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]*Order{}}
}

func (m *memOrderRepo) put(order *Order) {
	cp := *order
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.orders[cp.OrderID] = &cp
}

func (m *memOrderRepo) CreateOrder(_ context.Context, order *Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	m.put(order)
	return nil
}

func (m *memOrderRepo) GetOrder(_ context.Context, orderID string) (*Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (m *memOrderRepo) FindReusableOrder(_ context.Context, userID, courseID string) (*Order, error) {
	var candidates []*Order
	for _, order := range m.orders {
		if order.UserID == userID && order.CourseID == courseID &&
			(order.Status == StatusPending || order.Status == StatusProcessing) {
			candidates = append(candidates, order)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (m *memOrderRepo) HasCompletedOrder(_ context.Context, userID, courseID string) (bool, error) {
	for _, order := range m.orders {
		if order.UserID != userID || order.CourseID != courseID {
			continue
		}
		for _, alias := range constants.OrderStatusCompletedAliases {
			if string(order.Status) == alias {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memOrderRepo) UpdateStatus(_ context.Context, orderID string, from []Status, to Status) (bool, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if order.Status == s {
			order.Status = to
			order.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (m *memOrderRepo) ListExpiredPending(_ context.Context, olderThan time.Time, limit int) ([]*Order, error) {
	var expired []*Order
	for _, order := range m.orders {
		if order.Status == StatusPending && order.CreatedAt.Before(olderThan) {
			cp := *order
			expired = append(expired, &cp)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].CreatedAt.Before(expired[j].CreatedAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// memPaymentRepo implements PaymentRepo in memory for testing
type memPaymentRepo struct {
	payments map[string]*Payment
	// UpsertErr forces UpsertPayment to fail
	UpsertErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: map[string]*Payment{}}
}

func (m *memPaymentRepo) GetPayment(_ context.Context, orderID string) (*Payment, error) {
	payment, ok := m.payments[orderID]
	if !ok {
		return nil, nil
	}
	cp := *payment
	return &cp, nil
}

func (m *memPaymentRepo) GetPaymentByChargeID(_ context.Context, chargeID string) (*Payment, error) {
	for _, payment := range m.payments {
		if payment.ChargeID == chargeID {
			cp := *payment
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPaymentRepo) UpsertPayment(_ context.Context, payment *Payment) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	existing, ok := m.payments[payment.OrderID]
	if !ok {
		cp := *payment
		cp.UpdatedAt = time.Now()
		m.payments[payment.OrderID] = &cp
		return nil
	}
	existing.Status = payment.Status
	if payment.ChargeID != "" {
		existing.ChargeID = payment.ChargeID
	}
	if len(payment.Raw) > 0 {
		existing.Raw = payment.Raw
	}
	if payment.Reason != "" {
		existing.Reason = payment.Reason
	}
	existing.UpdatedAt = time.Now()
	return nil
}

// memEnrollmentRepo implements EnrollmentRepo in memory for testing
type memEnrollmentRepo struct {
	enrollments []*Enrollment
	// CreateErr forces CreateEnrollment to fail
	CreateErr error
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{}
}

func (m *memEnrollmentRepo) FindByOrderID(_ context.Context, orderID string) (*Enrollment, error) {
	for _, e := range m.enrollments {
		if e.OrderID == orderID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memEnrollmentRepo) FindNonCancelled(_ context.Context, userID, courseID string) (*Enrollment, error) {
	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID && e.Status != constants.EnrollmentStatusCancelled {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memEnrollmentRepo) FindBlocking(_ context.Context, userID, courseID string) (*Enrollment, error) {
	for _, e := range m.enrollments {
		if e.UserID != userID || e.CourseID != courseID {
			continue
		}
		nonTerminal := e.Status != constants.EnrollmentStatusExpired && e.Status != constants.EnrollmentStatusCancelled
		hasRemaining := e.RemainingAccess == nil || *e.RemainingAccess > 0
		if nonTerminal || hasRemaining {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memEnrollmentRepo) CreateEnrollment(_ context.Context, enrollment *Enrollment) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	enrollment.EnrolledAt = time.Now()
	cp := *enrollment
	m.enrollments = append(m.enrollments, &cp)
	return nil
}

// memCourseRepo implements CourseRepo in memory for testing
type memCourseRepo struct {
	courses map[string]*Course
}

func newMemCourseRepo(courses ...*Course) *memCourseRepo {
	m := &memCourseRepo{courses: map[string]*Course{}}
	for _, c := range courses {
		m.courses[c.CourseID] = c
	}
	return m
}

func (m *memCourseRepo) GetCourse(_ context.Context, courseID string) (*Course, error) {
	course, ok := m.courses[courseID]
	if !ok {
		return nil, nil
	}
	cp := *course
	return &cp, nil
}

// captureEvents records published events for assertions
type captureEvents struct {
	events []*Event
}

func (c *captureEvents) Publish(_ context.Context, event *Event) error {
	cp := *event
	c.events = append(c.events, &cp)
	return nil
}

func (c *captureEvents) types() []string {
	var out []string
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeGateway implements PaymentGateway with scripted responses
type fakeGateway struct {
	CreateResult *CreateTransactionResult
	CreateErr    error
	StatusResult *GatewayResult
	StatusErr    error
	CancelResult *GatewayResult
	CancelErr    error
	Notice       *WebhookNotice
	NoticeOK     bool
	StoreInfo    json.RawMessage

	CreateCalls int
	StatusCalls int
	CancelCalls int
}

func (f *fakeGateway) CreateTransaction(_ context.Context, _ *CreateTransactionRequest) (*CreateTransactionResult, error) {
	f.CreateCalls++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if f.CreateResult == nil {
		return nil, fmt.Errorf("no scripted create result")
	}
	return f.CreateResult, nil
}

func (f *fakeGateway) CheckTransactionStatus(_ context.Context, _ string) (*GatewayResult, error) {
	f.StatusCalls++
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}
	return f.StatusResult, nil
}

func (f *fakeGateway) CancelTransaction(_ context.Context, _ string) (*GatewayResult, error) {
	f.CancelCalls++
	if f.CancelErr != nil {
		return nil, f.CancelErr
	}
	return f.CancelResult, nil
}

func (f *fakeGateway) DecodeWebhook(_ []byte) (*WebhookNotice, bool) {
	if !f.NoticeOK {
		return nil, false
	}
	return f.Notice, true
}

func (f *fakeGateway) FetchStoreInfo(_ context.Context) (json.RawMessage, error) {
	return f.StoreInfo, nil
}

// testHarness 组合一套全内存依赖的用例
type testHarness struct {
	orders      *memOrderRepo
	payments    *memPaymentRepo
	enrollments *memEnrollmentRepo
	courses     *memCourseRepo
	events      *captureEvents
	gateway     *fakeGateway
	guard       *PurchaseGuard
	enrollment  *EnrollmentUseCase
	order       *OrderUseCase
}

func newTestHarness(courses ...*Course) *testHarness {
	h := &testHarness{
		orders:      newMemOrderRepo(),
		payments:    newMemPaymentRepo(),
		enrollments: newMemEnrollmentRepo(),
		courses:     newMemCourseRepo(courses...),
		events:      &captureEvents{},
		gateway:     &fakeGateway{},
	}
	logger := testLogger()
	h.guard = NewPurchaseGuard(h.orders, h.enrollments, logger)
	h.enrollment = NewEnrollmentUseCase(h.enrollments, h.orders, h.courses, h.events, logger)
	h.order = NewOrderUseCase(h.orders, h.payments, h.courses, h.guard, h.enrollment, h.gateway, h.events, testConf(), logger)
	return h
}
