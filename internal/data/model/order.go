package model

import (
	"course-order-service/internal/constants"
	"time"
)

// 订单状态常量（引用 constants 包中的常量，保持一致性）
const (
	OrderStatusPending    = constants.OrderStatusPending
	OrderStatusProcessing = constants.OrderStatusProcessing
	OrderStatusCompleted  = constants.OrderStatusCompleted
	OrderStatusCancelled  = constants.OrderStatusCancelled
	OrderStatusRefunded   = constants.OrderStatusRefunded
)

// Order 订单表。状态迁移只经由对账路径的条件更新，本服务不删除订单行。
type Order struct {
	OrderID    string    `gorm:"primaryKey;type:varchar(64)"`
	UserID     string    `gorm:"type:varchar(64);not null;index:idx_orders_user_course"`
	CourseID   string    `gorm:"type:varchar(64);not null;index:idx_orders_user_course"`
	Status     string    `gorm:"type:varchar(32);not null;default:'pending';index"`
	TotalPrice int64     `gorm:"not null"` // 单位：最小货币单位
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
