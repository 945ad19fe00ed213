package biz

import (
	"context"
	"time"
)

// Course 课程领域对象（本服务只读，定价与次数配置来自管理后台）
type Course struct {
	CourseID    string
	Title       string
	Price       int64 // 单位：最小货币单位
	AccessTimes *int  // 可进入次数，nil 表示不限次
	IsActive    bool
	UpdatedAt   time.Time
}

// CourseRepo 课程数据层接口（定义在 biz 层）
type CourseRepo interface {
	GetCourse(ctx context.Context, courseID string) (*Course, error)
}
