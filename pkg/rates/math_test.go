// 文件: pkg/rates/math_test.go
// 256 位安全算术测试

package rates

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func maxUint256() *uint256.Int {
	max := new(uint256.Int)
	return max.Not(max) // 全 1 即 2^256 - 1
}

func TestFromBig(t *testing.T) {
	// 正常转换
	v, err := fromBig("cash", big.NewInt(12345))
	require.NoError(t, err)
	assert.True(t, v.Eq(u(12345)))

	// nil 拒绝
	_, err = fromBig("cash", nil)
	assert.ErrorIs(t, err, ErrNegativeValue)

	// 负数拒绝，错误信息带参数名
	_, err = fromBig("borrows", big.NewInt(-7))
	assert.ErrorIs(t, err, ErrNegativeValue)
	assert.Contains(t, err.Error(), "borrows")

	// 恰好 2^256 - 1 可以通过
	_, err = fromBig("cash", maxUint256().ToBig())
	assert.NoError(t, err)

	// 2^256 拒绝
	_, err = fromBig("cash", new(big.Int).Lsh(big.NewInt(1), 256))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCheckedAdd(t *testing.T) {
	sum, err := checkedAdd(u(1), u(2))
	require.NoError(t, err)
	assert.True(t, sum.Eq(u(3)))

	// 上界回绕必须报错
	_, err = checkedAdd(maxUint256(), u(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCheckedSub(t *testing.T) {
	diff, err := checkedSub(u(5), u(2))
	require.NoError(t, err)
	assert.True(t, diff.Eq(u(3)))

	// 同值相减为零
	diff, err = checkedSub(u(5), u(5))
	require.NoError(t, err)
	assert.True(t, diff.IsZero())

	// 无符号域下溢必须报错
	_, err = checkedSub(u(2), u(5))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestMulDivFloor(t *testing.T) {
	// floor(7 * 3 / 2) = 10
	q, err := mulDivFloor(u(7), u(3), u(2))
	require.NoError(t, err)
	assert.True(t, q.Eq(u(10)))

	// 先乘后除: floor(1 * 1e18 / 3) 保留 18 位精度
	q, err = mulDivFloor(u(1), baseFP, u(3))
	require.NoError(t, err)
	assert.Equal(t, "333333333333333333", q.Dec())

	// 除零
	_, err = mulDivFloor(u(1), u(1), u(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	// 乘积溢出
	_, err = mulDivFloor(maxUint256(), u(2), u(1))
	assert.ErrorIs(t, err, ErrOverflow)
}
