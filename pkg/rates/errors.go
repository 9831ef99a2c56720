// 文件: pkg/rates/errors.go
// 利率模型错误定义
//
// 【设计】所有算术异常必须"大声失败"，绝不静默回绕或返回默认值。
// 利率算错一位，下游记账就会错一位，宁可中断也不能出错。

package rates

import "errors"

var (
	// ErrNegativeValue 输入为负数 (所有金额/费率必须非负)
	ErrNegativeValue = errors.New("rates: negative value")

	// ErrDivisionByZero 除零: borrows > 0 但 cash + borrows - reserves == 0
	ErrDivisionByZero = errors.New("rates: division by zero")

	// ErrUnderflow 下溢: reserves > cash + borrows，或 reserveFactor > Base
	ErrUnderflow = errors.New("rates: arithmetic underflow")

	// ErrOverflow 上溢: 中间乘积超出 256 位宽度
	ErrOverflow = errors.New("rates: arithmetic overflow")
)
