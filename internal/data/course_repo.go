package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"course-order-service/internal/biz"
	"course-order-service/internal/constants"
	"course-order-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// courseRepo 课程配置数据访问。课程是静态配置，走 Redis 缓存；
// 订单/报名状态按规定永远直读数据库，不在此缓存。
type courseRepo struct {
	data *Data
	log  *log.Helper
}

// NewCourseRepo 创建课程 repo（返回 biz.CourseRepo 接口）
func NewCourseRepo(data *Data, logger log.Logger) biz.CourseRepo {
	return &courseRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

type cachedCourse struct {
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	AccessTimes *int   `json:"access_times"`
	IsActive    bool   `json:"is_active"`
}

// GetCourse 查询课程，5 分钟缓存
func (r *courseRepo) GetCourse(ctx context.Context, courseID string) (*biz.Course, error) {
	cacheKey := fmt.Sprintf("%s%s", constants.RedisKeyCourse, courseID)

	if cached, err := r.data.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var c cachedCourse
		if err := json.Unmarshal([]byte(cached), &c); err == nil {
			return &biz.Course{
				CourseID:    c.CourseID,
				Title:       c.Title,
				Price:       c.Price,
				AccessTimes: c.AccessTimes,
				IsActive:    c.IsActive,
			}, nil
		}
	}

	var m model.Course
	if err := r.data.db.WithContext(ctx).Where("course_id = ?", courseID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// 缓存更新失败不影响主流程，只记日志
	if payload, err := json.Marshal(cachedCourse{
		CourseID:    m.CourseID,
		Title:       m.Title,
		Price:       m.Price,
		AccessTimes: m.AccessTimes,
		IsActive:    m.IsActive,
	}); err == nil {
		cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cacheCancel()
		if err := r.data.rdb.Set(cacheCtx, cacheKey, payload, 5*time.Minute).Err(); err != nil {
			r.log.Warnf("failed to update course cache: course_id=%s, error=%v", courseID, err)
		}
	}

	return &biz.Course{
		CourseID:    m.CourseID,
		Title:       m.Title,
		Price:       m.Price,
		AccessTimes: m.AccessTimes,
		IsActive:    m.IsActive,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}
