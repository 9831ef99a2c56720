// 文件: pkg/rates/model.go
// 借贷市场利率模型 - 核心数据结构与常量
//
// 设计目标:
// 1. 确定性: 相同输入必须产生比特级一致的输出，利率直接决定欠款和利息
// 2. 不可变: 模型构造后只读，可被多个 goroutine 无锁并发调用
// 3. 面试点: 为什么用 1e18 定点数而不是 float64?
//    → 浮点数不满足结合律，跨平台结果不一致，金融计算必须用定点数

package rates

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

// =============================================================================
// 精度常量
// =============================================================================

const (
	// Base 定点数精度因子 (1e18)
	// 所有利率/比率存储为整数，实际值 = 整数值 / 1e18
	// 例: 20% 利用率 = 200_000_000_000_000_000
	Base int64 = 1_000_000_000_000_000_000

	// PeriodsPerYear 每年计息周期数
	// 按 15 秒一个周期推算: 365 * 24 * 3600 / 15 = 2102400
	// 年化利率除以该常量得到单周期利率
	PeriodsPerYear int64 = 2102400
)

// 内部 uint256 形式的常量 (只读，禁止修改)
var (
	baseFP    = uint256.NewInt(uint64(Base))
	periodsFP = uint256.NewInt(uint64(PeriodsPerYear))
)

// BaseInt 返回精度因子的 big.Int 副本
func BaseInt() *big.Int {
	return big.NewInt(Base)
}

// =============================================================================
// Model - 利率模型 (核心结构)
// =============================================================================

// Model 线性利率模型
//
// 【核心公式】
// 借款利率 = 利用率 × 斜率 + 截距
//
// 斜率 (multiplierPerPeriod) 和截距 (baseRatePerPeriod) 在构造时
// 由年化参数除以 PeriodsPerYear 得到，之后不再变化。
//
// 构造完成后所有字段只读，天然并发安全，不需要任何锁。
type Model struct {
	// baseRatePerPeriod 单周期基础利率 (利用率为 0 时的借款利率)
	baseRatePerPeriod *uint256.Int

	// multiplierPerPeriod 单周期利率斜率 (利用率每上升 1 增加的借款利率)
	multiplierPerPeriod *uint256.Int
}

// BaseRatePerPeriod 返回单周期基础利率副本
func (m *Model) BaseRatePerPeriod() *big.Int {
	return m.baseRatePerPeriod.ToBig()
}

// MultiplierPerPeriod 返回单周期利率斜率副本
func (m *Model) MultiplierPerPeriod() *big.Int {
	return m.multiplierPerPeriod.ToBig()
}

// =============================================================================
// ModelAudit - 构造审计记录
// =============================================================================

// ModelAudit 模型构造审计事件
//
// 【设计】构造时必须对外发布推导出的单周期常量，供监控系统核对。
// 数值以十进制字符串序列化，避免 JSON 丢失大整数精度。
type ModelAudit struct {
	BaseRatePerYear     string `json:"base_rate_per_year"`
	MultiplierPerYear   string `json:"multiplier_per_year"`
	BaseRatePerPeriod   string `json:"base_rate_per_period"`
	MultiplierPerPeriod string `json:"multiplier_per_period"`
	PeriodsPerYear      int64  `json:"periods_per_year"`
	CreatedAt           int64  `json:"created_at"` // Unix 毫秒
}

// AuditSink 审计事件接收器
//
// 由调用方注入 (NATS / Kafka / 内存实现见 pkg/audit)，传 nil 表示不发布。
type AuditSink interface {
	PublishModelAudit(audit *ModelAudit) error
}

func newModelAudit(baseRatePerYear, multiplierPerYear *uint256.Int, m *Model) *ModelAudit {
	return &ModelAudit{
		BaseRatePerYear:     baseRatePerYear.Dec(),
		MultiplierPerYear:   multiplierPerYear.Dec(),
		BaseRatePerPeriod:   m.baseRatePerPeriod.Dec(),
		MultiplierPerPeriod: m.multiplierPerPeriod.Dec(),
		PeriodsPerYear:      PeriodsPerYear,
		CreatedAt:           time.Now().UnixMilli(),
	}
}
