// 文件: pkg/audit/kafka_sink.go
// 模型构造审计 - Kafka 接收器
//
// 使用通用 kafka 包发送审计记录
// modelAuditMessage 把 rates.ModelAudit 适配成 kafka.Message 接口

package audit

import (
	"encoding/json"
	"log"

	"maxfi.com/pkg/kafka"
	"maxfi.com/pkg/rates"
)

const (
	// KafkaTopicModelAudits Kafka 审计 topic
	KafkaTopicModelAudits = "rate-model-audits"

	// 审计记录没有天然分区键，固定 key 保证全量有序
	auditPartitionKey = "rate-model"
)

// =============================================================================
// modelAuditMessage 实现 kafka.Message 接口
// =============================================================================

type modelAuditMessage struct {
	audit *rates.ModelAudit
}

// Topic 返回 Kafka topic
func (m *modelAuditMessage) Topic() string {
	return KafkaTopicModelAudits
}

// Key 返回分区 key
func (m *modelAuditMessage) Key() string {
	return auditPartitionKey
}

// Value 返回序列化后的消息体
func (m *modelAuditMessage) Value() ([]byte, error) {
	return json.Marshal(m.audit)
}

// =============================================================================
// KafkaSink - Kafka 审计接收器
// =============================================================================

// 确保实现了接口
var _ rates.AuditSink = (*KafkaSink)(nil)

// KafkaSink Kafka 审计接收器
type KafkaSink struct {
	producer *kafka.Producer
}

// NewKafkaSink 创建 Kafka 审计接收器
func NewKafkaSink(brokers []string) (*KafkaSink, error) {
	cfg := kafka.DefaultProducerConfig(brokers)
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{producer: producer}, nil
}

// PublishModelAudit 发布模型构造审计记录
func (s *KafkaSink) PublishModelAudit(a *rates.ModelAudit) error {
	return s.producer.Send(&modelAuditMessage{audit: a})
}

// Close 关闭生产者 (flush 未发送的消息)
func (s *KafkaSink) Close() error {
	stats := s.producer.Stats()
	log.Printf("[Audit] kafka sink closing: sent=%d failed=%d", stats.SentCount, stats.ErrorCount)
	return s.producer.Close()
}
