// 文件: pkg/market/simulator.go
// 模拟资金池数据源
//
// 【职责】给 demo/联调环境提供逼真的市场快照: 没有真实清算引擎喂数据时,
// 用几何布朗运动 (GBM) 驱动借款量随机游走，让利率曲线动起来。
//
// 为什么用 GBM 而不是简单随机游走?
// 1. 乘法扰动保证借款量永远是正数
// 2. 波动率可控 (年化 sigma 参数)
package market

import (
	"context"
	"math"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// 确保实现了接口
var _ SnapshotProvider = (*SimulatedProvider)(nil)

// SimulatedProvider 随机游走的快照数据源
type SimulatedProvider struct {
	mu sync.Mutex

	// 独立随机源: 全局 rand 内部有 Mutex，且独立源可以固定种子复现
	r *rand.Rand

	totalCapital  int64           // 每个市场的可借出总资本 (最小单位)
	volatility    float64         // 借款量年化波动率，如 0.5 代表 50%
	reserveFactor *big.Int        // 所有市场统一的抽成比例 (1e18 定点)
	states        map[string]*simState
}

// simState 单个市场的游走状态
type simState struct {
	borrowRatio float64 // 借款占总资本比例 (0~1)
	lastUpdated time.Time
}

// NewSimulatedProvider 创建模拟数据源
// totalCapital: 每个市场的总资本; volatility: 年化波动率
func NewSimulatedProvider(totalCapital int64, volatility float64) *SimulatedProvider {
	return &SimulatedProvider{
		r:             rand.New(rand.NewSource(time.Now().UnixNano())),
		totalCapital:  totalCapital,
		volatility:    volatility,
		reserveFactor: decimal.NewFromFloat(0.1).Shift(18).BigInt(), // 默认抽成 10%
		states:        make(map[string]*simState),
	}
}

// Snapshot 返回市场当前快照，每次调用推进一步随机游走
func (p *SimulatedProvider) Snapshot(ctx context.Context, market string) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	state, ok := p.states[market]
	if !ok {
		// 首次访问: 从 30% 利用率起步
		state = &simState{borrowRatio: 0.3, lastUpdated: now}
		p.states[market] = state
	} else {
		// dt 单位是"年"，GBM 需要距离上次推进的时间步长
		dt := now.Sub(state.lastUpdated).Hours() / 24 / 365
		if dt <= 0 {
			dt = 1e-9 // 防止除 0 或负数
		}

		// S_new = S * exp((−0.5*σ²)*dt + σ*sqrt(dt)*Z), Z ~ N(0,1)
		sigma := p.volatility
		z := p.r.NormFloat64()
		state.borrowRatio *= math.Exp(-0.5*sigma*sigma*dt + sigma*math.Sqrt(dt)*z)
		state.lastUpdated = now

		// 夹在 (0, 0.99]: 借款不能超过总资本，留 1% 现金避免零流动性
		if state.borrowRatio > 0.99 {
			state.borrowRatio = 0.99
		}
		if state.borrowRatio < 1e-6 {
			state.borrowRatio = 1e-6
		}
	}

	borrows := int64(float64(p.totalCapital) * state.borrowRatio)
	cash := p.totalCapital - borrows

	return &Snapshot{
		Market:        market,
		Cash:          big.NewInt(cash),
		Borrows:       big.NewInt(borrows),
		Reserves:      big.NewInt(0),
		ReserveFactor: new(big.Int).Set(p.reserveFactor),
	}, nil
}

// SetReserveFactor 覆盖默认抽成比例 (1e18 定点，须 <= Base)
func (p *SimulatedProvider) SetReserveFactor(factor *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserveFactor = new(big.Int).Set(factor)
}
