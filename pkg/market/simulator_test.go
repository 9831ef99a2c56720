package market

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedProvider_Snapshot(t *testing.T) {
	const total = int64(1_000_000)
	provider := NewSimulatedProvider(total, 0.5)
	ctx := context.Background()

	// 首次访问从 30% 利用率起步
	snap, err := provider.Snapshot(ctx, "USDC")
	require.NoError(t, err)
	assert.Equal(t, "USDC", snap.Market)
	assert.Equal(t, int64(300_000), snap.Borrows.Int64())
	assert.Equal(t, int64(700_000), snap.Cash.Int64())
	assert.True(t, snap.Reserves.Sign() == 0)

	// 默认抽成 10%
	assert.Equal(t, "100000000000000000", snap.ReserveFactor.String())
}

func TestSimulatedProvider_Invariants(t *testing.T) {
	const total = int64(1_000_000)
	provider := NewSimulatedProvider(total, 5.0) // 高波动率逼出边界情况
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		snap, err := provider.Snapshot(ctx, "DAI")
		require.NoError(t, err)

		// 借款 + 现金恒等于总资本，借款永远为正且不吃光流动性
		sum := new(big.Int).Add(snap.Cash, snap.Borrows)
		assert.Equal(t, total, sum.Int64())
		assert.True(t, snap.Borrows.Sign() >= 0)
		assert.True(t, snap.Cash.Sign() > 0, "simulator must keep some cash")
	}
}

func TestSimulatedProvider_IndependentMarkets(t *testing.T) {
	provider := NewSimulatedProvider(1_000_000, 0.5)
	ctx := context.Background()

	// 每个市场独立游走，互不影响起始状态
	a, err := provider.Snapshot(ctx, "USDC")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := provider.Snapshot(ctx, "USDC")
		require.NoError(t, err)
	}
	b, err := provider.Snapshot(ctx, "DAI")
	require.NoError(t, err)

	assert.Equal(t, a.Borrows.Int64(), b.Borrows.Int64(), "fresh market starts at the same ratio")
}

func TestSimulatedProvider_SetReserveFactor(t *testing.T) {
	provider := NewSimulatedProvider(1_000_000, 0.5)
	provider.SetReserveFactor(big.NewInt(0))

	snap, err := provider.Snapshot(context.Background(), "USDT")
	require.NoError(t, err)
	assert.True(t, snap.ReserveFactor.Sign() == 0)
}
