// 文件: pkg/market/model.go
// 借贷市场模块 - 数据结构
//
// 金额约定:
// - 池子数据 (cash/borrows/reserves) 为最小记账单位的非负大整数
// - 利率/比率为 1e18 定点数 (见 pkg/rates)
// - 入库和上报一律用十进制字符串，避免 JSON/DB 丢失大整数精度

package market

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"maxfi.com/pkg/rates"
)

// =============================================================================
// 消息主题
// =============================================================================

const (
	// TopicRateUpdates 利率刷新事件主题
	TopicRateUpdates = "market.rates.updated"
)

// =============================================================================
// Snapshot - 市场快照 (每次计算的输入，不落库不驻留)
// =============================================================================

// Snapshot 资金池瞬时状态
type Snapshot struct {
	Market        string   // 市场标识，如 "USDT"
	Cash          *big.Int // 池内可用流动性
	Borrows       *big.Int // 在外借款总额
	Reserves      *big.Int // 协议储备金
	ReserveFactor *big.Int // 协议抽成比例 (1e18 定点数, [0, Base])
}

// =============================================================================
// RateRecord - 利率记录 (落库)
// =============================================================================

// RateRecord 一次利率计算的完整留痕
//
// 输入输出全部入库: 出问题时可以拿任何一行重放核对，
// 模型是纯函数，重算结果必须和这行完全一致。
type RateRecord struct {
	ID     int64  `gorm:"primaryKey"` // 雪花 ID
	Market string `gorm:"column:market;type:varchar(32);index:idx_market_time"`

	// 计算输入
	Cash          string `gorm:"column:cash;type:varchar(80)"`
	Borrows       string `gorm:"column:borrows;type:varchar(80)"`
	Reserves      string `gorm:"column:reserves;type:varchar(80)"`
	ReserveFactor string `gorm:"column:reserve_factor;type:varchar(80)"`

	// 计算输出 (1e18 定点数)
	Utilization string `gorm:"column:utilization;type:varchar(80)"`
	BorrowRate  string `gorm:"column:borrow_rate;type:varchar(80)"`
	SupplyRate  string `gorm:"column:supply_rate;type:varchar(80)"`

	CreatedAt int64 `gorm:"column:created_at;index:idx_market_time"` // Unix 毫秒
}

// TableName GORM 表名
func (RateRecord) TableName() string {
	return "rate_records"
}

// =============================================================================
// RateUpdateEvent - 利率刷新事件 (上报)
// =============================================================================

// RateUpdateEvent 利率刷新事件
type RateUpdateEvent struct {
	EventID     int64  `json:"event_id"`
	Market      string `json:"market"`
	Utilization string `json:"utilization"`
	BorrowRate  string `json:"borrow_rate"`
	SupplyRate  string `json:"supply_rate"`
	CreatedAt   int64  `json:"created_at"`
}

// NewRateUpdateEvent 从利率记录构建事件
func NewRateUpdateEvent(record *RateRecord) *RateUpdateEvent {
	return &RateUpdateEvent{
		EventID:     record.ID,
		Market:      record.Market,
		Utilization: record.Utilization,
		BorrowRate:  record.BorrowRate,
		SupplyRate:  record.SupplyRate,
		CreatedAt:   time.Now().UnixMilli(),
	}
}

// =============================================================================
// 展示换算
// =============================================================================

// AnnualizedPercent 单周期 1e18 定点利率 → 年化百分数
//
// 仅用于日志和展示，核心计算链路里绝不允许出现 decimal/浮点。
// 例: 单周期 10000 → 10000 / 1e18 * 2102400 * 100 ≈ 0.0021%
func AnnualizedPercent(ratePerPeriod *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(ratePerPeriod, -18).
		Mul(decimal.NewFromInt(rates.PeriodsPerYear)).
		Mul(decimal.NewFromInt(100))
}

// UtilizationPercent 1e18 定点利用率 → 百分数 (展示用)
func UtilizationPercent(utilization *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(utilization, -18).Mul(decimal.NewFromInt(100))
}
