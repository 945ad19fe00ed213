package data

import (
	"context"
	"encoding/json"

	"course-order-service/internal/biz"
	"course-order-service/internal/conf"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/go-kratos/kratos/v2/log"
)

// eventPublisher 把 order:*/payment:* 事件投到 RocketMQ，WebSocket 网关
// 消费后推给前端。RocketMQ 未启用时降级为只记日志。
type eventPublisher struct {
	data  *Data
	topic string
	log   *log.Helper
}

// NewEventPublisher 创建事件发布器（返回 biz.EventPublisher 接口）
func NewEventPublisher(data *Data, c *conf.Bootstrap, logger log.Logger) biz.EventPublisher {
	topic := ""
	if c.Data != nil && c.Data.Rocketmq != nil {
		topic = c.Data.Rocketmq.Topic
	}
	return &eventPublisher{
		data:  data,
		topic: topic,
		log:   log.NewHelper(logger),
	}
}

// Publish 发布事件。投递失败只向上返回错误由调用方记日志，业务写入不回滚。
func (p *eventPublisher) Publish(ctx context.Context, event *biz.Event) error {
	if p.data.mq == nil || p.topic == "" {
		p.log.Debugf("Event publishing disabled, dropped: type=%s, order_id=%s", event.Type, event.OrderID)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := primitive.NewMessage(p.topic, body)
	msg.WithTag(event.Type)
	if event.OrderID != "" {
		msg.WithKeys([]string{event.OrderID})
	}

	if _, err := p.data.mq.SendSync(ctx, msg); err != nil {
		return err
	}
	p.log.Debugf("Event published: type=%s, order_id=%s", event.Type, event.OrderID)
	return nil
}
