// 文件: pkg/market/publisher.go
// 利率事件发布接口 + NATS 实现
//
// 利率刷新后对外广播一条 RateUpdateEvent，
// 行情前端 / 风控 / 监控各自订阅消费。

package market

import (
	"maxfi.com/pkg/nats"
)

// RatePublisher 利率事件发布器
type RatePublisher interface {
	PublishRateUpdate(event *RateUpdateEvent) error
	Close() error
}

// =============================================================================
// NatsRatePublisher - NATS 实现
// =============================================================================

// 确保实现了接口
var _ RatePublisher = (*NatsRatePublisher)(nil)

// NatsRatePublisher NATS 利率事件发布器
type NatsRatePublisher struct {
	publisher *nats.Publisher
}

// NewNatsRatePublisher 创建 NATS 发布器
func NewNatsRatePublisher(natsURL string) (*NatsRatePublisher, error) {
	publisher, err := nats.NewPublisher(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsRatePublisher{publisher: publisher}, nil
}

// PublishRateUpdate 发布利率刷新事件
func (p *NatsRatePublisher) PublishRateUpdate(event *RateUpdateEvent) error {
	return p.publisher.Publish(TopicRateUpdates, event)
}

// Close 关闭连接
func (p *NatsRatePublisher) Close() error {
	p.publisher.Close()
	return nil
}
