package biz

import (
	"context"
	"encoding/json"
	"time"
)

// Event 发往实时通知层的结构化事件。类型形如 order:<type>、payment:<type>，
// WebSocket 网关消费后推给前端刷新。
type Event struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	CourseID   string          `json:"course_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventPublisher 事件发布接口。投递失败只记日志，业务写入永远不回滚。
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
}
