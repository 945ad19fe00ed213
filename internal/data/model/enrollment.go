package model

import (
	"course-order-service/internal/constants"
	"time"
)

// 报名状态常量（引用 constants 包中的常量，保持一致性）
const (
	EnrollmentStatusActive    = constants.EnrollmentStatusActive
	EnrollmentStatusExpired   = constants.EnrollmentStatusExpired
	EnrollmentStatusCancelled = constants.EnrollmentStatusCancelled
)

// Enrollment 课程报名表。本服务只负责创建，签到流程在别处扣减
// remaining_access。
type Enrollment struct {
	EnrollmentID    string    `gorm:"primaryKey;type:varchar(64)"`
	UserID          string    `gorm:"type:varchar(64);not null;index:idx_enrollments_user_course"`
	CourseID        string    `gorm:"type:varchar(64);not null;index:idx_enrollments_user_course"`
	OrderID         *string   `gorm:"type:varchar(64);uniqueIndex"` // 后台手工授予时为空
	Status          string    `gorm:"type:varchar(32);not null;default:'active';index"`
	RemainingAccess *int      // NULL 表示不限次
	EnrolledAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Enrollment) TableName() string {
	return "course_enrollments"
}
