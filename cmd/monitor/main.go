// 文件: cmd/monitor/main.go
// 利率监控终端
//
// 订阅 NATS 上的利率刷新事件和模型构造审计，实时打印年化利率,
// 给运营/风控同学盯盘用。配了 Redis 时还会核对利率预警订阅,
// 把触发的预警打出来。多开实例时走 queue group 负载均衡。
//
// 用法:
//
//	go run ./cmd/monitor --nats-url nats://localhost:4222
//	go run ./cmd/monitor --redis-addr localhost:6379          # 开启利率预警
//	go run ./cmd/monitor --queue rate-monitors                # 负载均衡模式
//	go run ./cmd/monitor --kafka-brokers localhost:9092       # 回放 Kafka 审计流
package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"maxfi.com/pkg/alert"
	"maxfi.com/pkg/audit"
	"maxfi.com/pkg/kafka"
	"maxfi.com/pkg/market"
	natsx "maxfi.com/pkg/nats"
	"maxfi.com/pkg/rates"
)

// monitor 持有预警管理器和每个市场的上一次指标值
type monitor struct {
	mu     sync.Mutex
	alerts alert.SubscriptionManager            // nil 表示未开启预警
	last   map[string]map[alert.Metric]float64 // market -> metric -> 上次值
}

func main() {
	var (
		natsURL      string
		redisAddr    string
		queue        string
		kafkaBrokers []string
		kafkaGroup   string
	)

	pflag.StringVar(&natsURL, "nats-url", "nats://localhost:4222", "NATS server url")
	pflag.StringVar(&redisAddr, "redis-addr", "", "enable rate alerts backed by this Redis")
	pflag.StringVar(&queue, "queue", "", "queue group for load-balanced consumption")
	pflag.StringSliceVar(&kafkaBrokers, "kafka-brokers", nil, "replay the audit stream from these Kafka brokers")
	pflag.StringVar(&kafkaGroup, "kafka-group", "rate-monitors", "Kafka consumer group")
	pflag.Parse()

	m := &monitor{last: make(map[string]map[alert.Metric]float64)}
	if redisAddr != "" {
		m.alerts = alert.NewRedisSubscriptionManager(redisAddr)
		log.Printf("[Monitor] rate alerts enabled via %s", redisAddr)
	}

	sub, err := natsx.NewSubscriber(natsURL, m.handleMessage)
	if err != nil {
		log.Fatalf("[Monitor] connect nats: %v", err)
	}
	defer sub.Close()

	if queue != "" {
		if err := sub.SubscribeQueue(market.TopicRateUpdates, queue); err != nil {
			log.Fatalf("[Monitor] subscribe queue: %v", err)
		}
	} else {
		if err := sub.Subscribe(market.TopicRateUpdates, audit.TopicModelAudits); err != nil {
			log.Fatalf("[Monitor] subscribe: %v", err)
		}
	}

	// Kafka 审计流回放 (可选)
	if len(kafkaBrokers) > 0 {
		cfg := kafka.DefaultConsumerConfig(kafkaBrokers, kafkaGroup, []string{audit.KafkaTopicModelAudits})
		consumer, err := kafka.NewConsumer(cfg, func(topic string, partition int32, offset int64, key, value []byte) error {
			return printModelAudit(value)
		})
		if err != nil {
			log.Fatalf("[Monitor] create kafka consumer: %v", err)
		}
		consumer.Start()
		defer consumer.Stop()
		log.Printf("[Monitor] replaying audit stream from %v", kafkaBrokers)
	}

	log.Printf("[Monitor] listening on %s", natsURL)

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[Monitor] shutting down")
}

// handleMessage 按主题分发
func (m *monitor) handleMessage(subject string, data []byte) error {
	switch subject {
	case market.TopicRateUpdates:
		return m.handleRateUpdate(data)
	case audit.TopicModelAudits:
		return printModelAudit(data)
	default:
		log.Printf("[Monitor] unexpected subject: %s", subject)
		return nil
	}
}

func (m *monitor) handleRateUpdate(data []byte) error {
	event, err := natsx.UnmarshalJSON[market.RateUpdateEvent](data)
	if err != nil {
		return err
	}

	utilization := percentValue(event.Utilization, market.UtilizationPercent)
	borrowAPR := percentValue(event.BorrowRate, market.AnnualizedPercent)
	supplyAPR := percentValue(event.SupplyRate, market.AnnualizedPercent)

	log.Printf("[Monitor] %s | utilization %.2f%% | borrow %.4f%% APR | supply %.4f%% APR",
		event.Market, utilization, borrowAPR, supplyAPR)

	m.checkAlerts(event.Market, alert.MetricUtilization, utilization)
	m.checkAlerts(event.Market, alert.MetricBorrowAPR, borrowAPR)
	m.checkAlerts(event.Market, alert.MetricSupplyAPR, supplyAPR)
	return nil
}

// checkAlerts 对比上次刷新值，把穿越阈值的预警打出来
func (m *monitor) checkAlerts(mkt string, metric alert.Metric, current float64) {
	if m.alerts == nil {
		return
	}

	m.mu.Lock()
	metrics, ok := m.last[mkt]
	if !ok {
		metrics = make(map[alert.Metric]float64)
		m.last[mkt] = metrics
	}
	last, seen := metrics[metric]
	metrics[metric] = current
	m.mu.Unlock()

	if !seen {
		return // 第一条刷新事件没有基准值，不触发
	}

	triggered, err := m.alerts.GetTriggered(context.Background(), mkt, metric, current, last)
	if err != nil {
		log.Printf("[Monitor] check alerts: %v", err)
		return
	}
	for _, rule := range triggered {
		log.Printf("[Alert] %s %s crossed threshold | alert=%s type=%s current=%.4f%%",
			mkt, metric, rule.AlertID, rule.Type, current)
	}
}

func printModelAudit(data []byte) error {
	a, err := natsx.UnmarshalJSON[rates.ModelAudit](data)
	if err != nil {
		return err
	}
	log.Printf("[Monitor] model constructed | base %s/period | multiplier %s/period | %d periods/year",
		a.BaseRatePerPeriod, a.MultiplierPerPeriod, a.PeriodsPerYear)
	return nil
}

// percentValue 定点字符串 → 百分数，解析失败返回 0
func percentValue(fixed string, convert func(*big.Int) decimal.Decimal) float64 {
	v, ok := new(big.Int).SetString(fixed, 10)
	if !ok {
		return 0
	}
	f, _ := convert(v).Float64()
	return f
}
