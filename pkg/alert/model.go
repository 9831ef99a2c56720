package alert

import "context"

// AlertType 定义预警的生命周期类型
type AlertType string

const (
	AlertOnce   AlertType = "once"   // 触发一次后自动删除 (最常见)
	AlertDaily  AlertType = "daily"  // 每天触发一次 (如：每日利率播报)
	AlertAlways AlertType = "always" // 只要满足条件就一直触发 (慎用，容易骚扰用户)
)

// Metric 预警指标
type Metric string

const (
	MetricBorrowAPR   Metric = "borrow_apr"  // 年化借款利率 (%)
	MetricSupplyAPR   Metric = "supply_apr"  // 年化存款利率 (%)
	MetricUtilization Metric = "utilization" // 资金利用率 (%)
)

// RateAlert 定义具体的触发规则
// 对应 Redis 中的详情数据
type RateAlert struct {
	AlertID   string    `json:"alert_id"`
	UserID    int64     `json:"user_id"`
	Market    string    `json:"market"`    // 市场，如 "USDC"
	Metric    Metric    `json:"metric"`    // 监控指标
	Direction string    `json:"direction"` // "high" (>= threshold) 或 "low" (<= threshold)
	Threshold float64   `json:"threshold"` // 触发阈值 (百分数)
	Type      AlertType `json:"type"`      // 预警类型

	// 生效时间窗口 (可选，0-0 表示全天)
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`

	// 状态字段
	LastTriggeredAt int64 `json:"last_triggered_at"` // 上次触发时间戳 (秒)
	CreatedAt       int64 `json:"created_at"`
}

// SubscriptionManager 定义订阅管理器的行为
// 内存实现用于单实例/测试，Redis 实现用于多实例共享
type SubscriptionManager interface {
	// Subscribe 创建一个新的预警订阅
	Subscribe(ctx context.Context, rule RateAlert) error

	// Unsubscribe 取消订阅
	Unsubscribe(ctx context.Context, alertID string) error

	// GetTriggered 获取本次利率变动触发的所有预警
	// current/last: 指标的当前值与上一次刷新值 (百分数)
	// 只在指标穿越阈值方向上触发: 上行查 high 规则，下行查 low 规则
	GetTriggered(ctx context.Context, market string, metric Metric, current, last float64) ([]RateAlert, error)
}
