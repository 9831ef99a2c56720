// 文件: pkg/rates/math.go
// 256 位定点数安全算术
//
// 【设计】
// - 底层使用 holiman/uint256: 以太坊生态标准的 256 位无符号整数库
// - 所有加/减/乘都走带溢出标志的 checked 版本，溢出即返回错误
// - 除法只做 floor (向零截断)，且除数为零时显式报错
//
// 【面试点】为什么选 256 位而不是 big.Int 任意精度?
// 1. 与链上记账环境位宽一致，边界行为可以对账
// 2. uint256 全程栈上分配，无 GC 压力，比 big.Int 快一个数量级
// 3. 溢出是显式信号而不是静默回绕，满足"大声失败"策略
//
// 【最大安全输入】
// 最大的中间乘积是 borrows × Base (1e18 ≈ 2^60)，因此 cash/borrows/reserves
// 不得超过约 2^196。实际资金池远小于该量级，超出即返回 ErrOverflow。

package rates

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// fromBig 将外部传入的 big.Int 转换为 uint256
//
// 负数 → ErrNegativeValue，超过 256 位 → ErrOverflow。
// name 用于错误信息定位是哪个入参出的问题。
func fromBig(name string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("%s is nil: %w", name, ErrNegativeValue)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%s = %s: %w", name, v, ErrNegativeValue)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%s = %s exceeds 256 bits: %w", name, v, ErrOverflow)
	}
	return u, nil
}

// checkedAdd 带溢出检查的加法
func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%s + %s: %w", a.Dec(), b.Dec(), ErrOverflow)
	}
	return sum, nil
}

// checkedSub 带下溢检查的减法 (无符号域里 a < b 即下溢)
func checkedSub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, fmt.Errorf("%s - %s: %w", a.Dec(), b.Dec(), ErrUnderflow)
	}
	return diff, nil
}

// mulDivFloor 计算 floor(a * b / den)
//
// 【关键】必须先乘后除: 先除会把 18 位小数精度直接截没。
// 乘积带溢出检查，除数为零显式报错。
func mulDivFloor(a, b, den *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%s * %s: %w", a.Dec(), b.Dec(), ErrOverflow)
	}
	if den.IsZero() {
		return nil, fmt.Errorf("%s / 0: %w", product.Dec(), ErrDivisionByZero)
	}
	return new(uint256.Int).Div(product, den), nil
}
