// 文件: pkg/rates/rate_model.go
// 借贷市场利率计算 (核心算法)
//
// 【核心公式】
// 利用率   = borrows * Base / (cash + borrows - reserves)
// 借款利率 = 利用率 * multiplierPerPeriod / Base + baseRatePerPeriod
// 存款利率 = 利用率 * (借款利率 * (Base - reserveFactor) / Base) / Base
//
// 【为什么存款利率要乘两个折减因子?】
// 1. (1 - reserveFactor): 借款人付的利息有一部分进协议储备金，存款人拿不到
// 2. 利用率: 只有被借出去的那部分存款在产生利息，闲置资金收益为零
//
// 三个查询都是纯函数: 相同输入必须返回相同结果，没有任何隐藏状态。

package rates

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// =============================================================================
// 构造
// =============================================================================

// NewModel 用年化参数构造利率模型
//
// 参数 (定点数，精度 1e18，必须非负):
//   - baseRatePerYear:   年化基础利率 (截距)
//   - multiplierPerYear: 年化利率斜率
//   - sink:              审计接收器，构造时发布推导常量，可传 nil
//
// 单周期常量 = floor(年化值 / PeriodsPerYear)，构造后不可变更。
// 不做上界检查: 调用方配置过大时下游乘积会以 ErrOverflow 暴露。
func NewModel(baseRatePerYear, multiplierPerYear *big.Int, sink AuditSink) (*Model, error) {
	base, err := fromBig("baseRatePerYear", baseRatePerYear)
	if err != nil {
		return nil, err
	}
	multiplier, err := fromBig("multiplierPerYear", multiplierPerYear)
	if err != nil {
		return nil, err
	}

	// 年化 → 单周期，floor 除法 (除数是正的编译期常量，不可能失败)
	m := &Model{
		baseRatePerPeriod:   new(uint256.Int).Div(base, periodsFP),
		multiplierPerPeriod: new(uint256.Int).Div(multiplier, periodsFP),
	}

	if sink != nil {
		if err := sink.PublishModelAudit(newModelAudit(base, multiplier, m)); err != nil {
			return nil, fmt.Errorf("publish model audit: %w", err)
		}
	}

	return m, nil
}

// =============================================================================
// 利用率
// =============================================================================

// UtilizationRate 计算资金利用率 (定点数，精度 1e18)
//
// 公式: borrows * Base / (cash + borrows - reserves)
//
// 分母是"可借出总资本": 手头现金 + 在外债务 - 预留储备金。
// 储备金被划出可借资本之外，所以从分母里扣掉。
//
// 边界:
//   - borrows == 0            → 返回 0 (没有需求即零利用率，短路避免病态比率)
//   - reserves > cash+borrows → ErrUnderflow
//   - 分母 == 0 且 borrows>0  → ErrDivisionByZero
func (m *Model) UtilizationRate(cash, borrows, reserves *big.Int) (*big.Int, error) {
	u, err := m.utilization(cash, borrows, reserves)
	if err != nil {
		return nil, err
	}
	return u.ToBig(), nil
}

// utilization 内部 uint256 版本，供借款/存款利率复用同一条计算路径
func (m *Model) utilization(cash, borrows, reserves *big.Int) (*uint256.Int, error) {
	cashFP, err := fromBig("cash", cash)
	if err != nil {
		return nil, err
	}
	borrowsFP, err := fromBig("borrows", borrows)
	if err != nil {
		return nil, err
	}
	reservesFP, err := fromBig("reserves", reserves)
	if err != nil {
		return nil, err
	}

	// 无需求即零利用率
	if borrowsFP.IsZero() {
		return new(uint256.Int), nil
	}

	total, err := checkedAdd(cashFP, borrowsFP)
	if err != nil {
		return nil, err
	}
	loanable, err := checkedSub(total, reservesFP)
	if err != nil {
		return nil, fmt.Errorf("reserves exceed loanable capital: %w", err)
	}

	// 先乘 Base 再除，保留 18 位小数精度
	return mulDivFloor(borrowsFP, baseFP, loanable)
}

// =============================================================================
// 借款利率
// =============================================================================

// BorrowRatePerPeriod 计算单周期借款利率 (定点数，精度 1e18)
//
// 利用率的仿射函数: rate = 斜率 × 利用率 + 截距。
// 必须复用 UtilizationRate 的同一条计算路径，保证两个公开查询
// 在相同输入下看到完全一致的利用率。
func (m *Model) BorrowRatePerPeriod(cash, borrows, reserves *big.Int) (*big.Int, error) {
	rate, err := m.borrowRate(cash, borrows, reserves)
	if err != nil {
		return nil, err
	}
	return rate.ToBig(), nil
}

func (m *Model) borrowRate(cash, borrows, reserves *big.Int) (*uint256.Int, error) {
	u, err := m.utilization(cash, borrows, reserves)
	if err != nil {
		return nil, err
	}
	slope, err := mulDivFloor(u, m.multiplierPerPeriod, baseFP)
	if err != nil {
		return nil, err
	}
	return checkedAdd(slope, m.baseRatePerPeriod)
}

// =============================================================================
// 存款利率
// =============================================================================

// SupplyRatePerPeriod 计算单周期存款利率 (定点数，精度 1e18)
//
// 公式:
//   rateToPool = 借款利率 * (Base - reserveFactor) / Base
//   supplyRate = 利用率 * rateToPool / Base
//
// reserveFactor 是协议抽成比例，必须在 [0, Base] 内，越界直接拒绝
// (显式校验，不让它以笼统的溢出错误形式漏出来)。
//
// 利用率在这里重新计算而不是复用借款利率调用的中间值: 模型无状态，
// 纯函数对相同输入必然得到相同值，这是确定性要求而不是性能优化点。
func (m *Model) SupplyRatePerPeriod(cash, borrows, reserves, reserveFactor *big.Int) (*big.Int, error) {
	factorFP, err := fromBig("reserveFactor", reserveFactor)
	if err != nil {
		return nil, err
	}
	if factorFP.Gt(baseFP) {
		return nil, fmt.Errorf("reserveFactor %s exceeds base %d: %w", factorFP.Dec(), Base, ErrUnderflow)
	}

	// Base - reserveFactor，上面已校验不会下溢
	oneMinusFactor, err := checkedSub(baseFP, factorFP)
	if err != nil {
		return nil, err
	}

	borrowRate, err := m.borrowRate(cash, borrows, reserves)
	if err != nil {
		return nil, err
	}
	rateToPool, err := mulDivFloor(borrowRate, oneMinusFactor, baseFP)
	if err != nil {
		return nil, err
	}

	u, err := m.utilization(cash, borrows, reserves)
	if err != nil {
		return nil, err
	}
	rate, err := mulDivFloor(u, rateToPool, baseFP)
	if err != nil {
		return nil, err
	}
	return rate.ToBig(), nil
}
