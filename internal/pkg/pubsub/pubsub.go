package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelSubscriptionEvents = "subscription_events"
)

// 订阅生命周期事件类型
const (
	EventRequestApproved = "request_approved"
	EventRequestRejected = "request_rejected"
	EventExtended        = "extended"
	EventUsageReset      = "usage_reset"
	EventSuspended       = "suspended"
	EventReactivated     = "reactivated"
	EventExpired         = "expired"
	EventExpiringSoon    = "expiring_soon"
)

// 事件对应的提示消息
var EventMessages = map[string]string{
	EventRequestApproved: "套餐变更申请已通过",
	EventRequestRejected: "套餐变更申请被拒绝",
	EventExtended:        "订阅有效期已延长",
	EventUsageReset:      "配额计数已重置",
	EventSuspended:       "订阅已被停用",
	EventReactivated:     "订阅已恢复",
	EventExpired:         "订阅已到期",
	EventExpiringSoon:    "订阅即将到期",
}

// SubscriptionEvent 订阅变更事件，客户端收到后应强制刷新权益数据
type SubscriptionEvent struct {
	Type           string `json:"type"`
	UserID         int64  `json:"user_id"`
	SubscriptionID int64  `json:"subscription_id"`
	PlanID         int64  `json:"plan_id,omitempty"`
	PlanName       string `json:"plan_name,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher 创建发布者，channel 为空时使用默认频道
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = ChannelSubscriptionEvents
	}
	return &Publisher{client: client, channel: channel}
}

// Publish 发布订阅事件，未设置 Message 时填充默认提示
func (p *Publisher) Publish(ctx context.Context, event *SubscriptionEvent) error {
	if event.Message == "" {
		event.Message = EventMessages[event.Type]
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client  *redis.Client
	channel string
}

func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	if channel == "" {
		channel = ChannelSubscriptionEvents
	}
	return &Subscriber{client: client, channel: channel}
}

// Subscribe 订阅事件频道，对每条消息调用 handler，ctx 取消时退出
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*SubscriptionEvent)) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event SubscriptionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			handler(&event)
		}
	}
}
