package data

import (
	"context"
	"io"
	"testing"
	"time"

	"course-order-service/internal/biz"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockedOrderRepo(t *testing.T) (biz.OrderRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	repo := NewOrderRepo(&Data{db: gdb}, log.NewStdLogger(io.Discard))
	return repo, mock
}

// 条件更新命中：状态仍在 from 集合内，影响一行
func TestUpdateStatus_Applied(t *testing.T) {
	repo, mock := newMockedOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WithArgs("completed", sqlmock.AnyArg(), "ord-1", "pending", "processing").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.UpdateStatus(context.Background(), "ord-1",
		[]biz.Status{biz.StatusPending, biz.StatusProcessing}, biz.StatusCompleted)

	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 条件更新零行：订单已被并发方落定，不报错
func TestUpdateStatus_ZeroRowsMeansAlreadyResolved(t *testing.T) {
	repo, mock := newMockedOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WithArgs("cancelled", sqlmock.AnyArg(), "ord-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	updated, err := repo.UpdateStatus(context.Background(), "ord-1",
		[]biz.Status{biz.StatusPending}, biz.StatusCancelled)

	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_NotFoundReturnsNil(t *testing.T) {
	repo, mock := newMockedOrderRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE order_id = ?").
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

	order, err := repo.GetOrder(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestHasCompletedOrder_IncludesLegacyAliases(t *testing.T) {
	repo, mock := newMockedOrderRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `orders`").
		WithArgs("user-1", "course-1", "completed", "success", "paid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	completed, err := repo.HasCompletedOrder(context.Background(), "user-1", "course-1")

	require.NoError(t, err)
	assert.True(t, completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpiredPending(t *testing.T) {
	repo, mock := newMockedOrderRepo(t)

	cutoff := time.Now().Add(-10 * time.Minute)
	rows := sqlmock.NewRows([]string{"order_id", "user_id", "course_id", "status", "total_price", "created_at", "updated_at"}).
		AddRow("ord-1", "user-1", "course-1", "pending", int64(150000), cutoff.Add(-time.Hour), cutoff.Add(-time.Hour))

	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE status = \\? AND created_at < \\?").
		WithArgs("pending", sqlmock.AnyArg(), 200).
		WillReturnRows(rows)

	orders, err := repo.ListExpiredPending(context.Background(), cutoff, 200)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord-1", orders[0].OrderID)
	assert.Equal(t, biz.StatusPending, orders[0].Status)
	assert.Equal(t, int64(150000), orders[0].TotalPrice)
}
