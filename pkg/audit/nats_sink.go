// 文件: pkg/audit/nats_sink.go
// 模型构造审计 - NATS 接收器
//
// 利率模型构造时推导出的单周期常量必须对外可见:
// 监控系统订阅审计主题，独立核对 floor(年化 / PeriodsPerYear)，
// 参数配错 (少个零、多个零) 能在上线前被拦下来。

package audit

import (
	"maxfi.com/pkg/nats"
	"maxfi.com/pkg/rates"
)

const (
	// TopicModelAudits 模型构造审计主题
	TopicModelAudits = "rates.model.constructed"
)

// 确保实现了接口
var _ rates.AuditSink = (*NatsSink)(nil)

// NatsSink NATS 审计接收器
type NatsSink struct {
	publisher *nats.Publisher
}

// NewNatsSink 创建 NATS 审计接收器
func NewNatsSink(natsURL string) (*NatsSink, error) {
	publisher, err := nats.NewPublisher(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsSink{publisher: publisher}, nil
}

// PublishModelAudit 发布模型构造审计记录
// Flush 确保记录已到达服务端: 审计没发出去，模型构造就算失败
func (s *NatsSink) PublishModelAudit(a *rates.ModelAudit) error {
	if err := s.publisher.Publish(TopicModelAudits, a); err != nil {
		return err
	}
	return s.publisher.Flush()
}

// Close 关闭连接
func (s *NatsSink) Close() error {
	s.publisher.Close()
	return nil
}
