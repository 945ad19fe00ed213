package model

import "time"

// Course 课程表。管理后台维护，本服务只读定价与次数配置。
type Course struct {
	CourseID    string    `gorm:"primaryKey;type:varchar(64)"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Price       int64     `gorm:"not null"` // 单位：最小货币单位
	AccessTimes *int      // NULL 表示不限次
	IsActive    bool      `gorm:"not null;default:true"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Course) TableName() string {
	return "courses"
}
