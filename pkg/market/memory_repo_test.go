package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateRepository(t *testing.T) {
	repo := NewMemoryRateRepository()
	ctx := context.Background()

	// 空仓储查询
	_, err := repo.Latest(ctx, "USDC")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	records := []*RateRecord{
		{ID: 1, Market: "USDC", BorrowRate: "100", CreatedAt: 1000},
		{ID: 2, Market: "USDC", BorrowRate: "200", CreatedAt: 2000},
		{ID: 3, Market: "DAI", BorrowRate: "300", CreatedAt: 1500},
	}
	for _, r := range records {
		require.NoError(t, repo.Save(ctx, r))
	}

	// Latest 返回最后写入的记录
	latest, err := repo.Latest(ctx, "USDC")
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.ID)

	// Latest 返回副本，修改不影响仓储
	latest.BorrowRate = "mutated"
	again, err := repo.Latest(ctx, "USDC")
	require.NoError(t, err)
	assert.Equal(t, "200", again.BorrowRate)

	// Range 闭区间 + 市场隔离
	got, err := repo.Range(ctx, "USDC", 1000, 1999)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got, err = repo.Range(ctx, "USDC", 0, 5000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].CreatedAt <= got[1].CreatedAt)
}
