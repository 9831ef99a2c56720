package alert

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupRedis 初始化 Redis 连接并清空测试数据
func setupRedis(t *testing.T) *RedisSubscriptionManager {
	// 假设本地 Redis 运行在 localhost:6379
	addr := "localhost:6379"
	manager := NewRedisSubscriptionManager(addr)

	// Ping 测试连接
	if err := manager.client.Ping(context.Background()).Err(); err != nil {
		if t != nil {
			t.Skipf("skipping test; redis not available: %v", err)
		} else {
			panic(fmt.Sprintf("redis not available: %v", err))
		}
	}

	// 清空测试用的 Key
	manager.client.FlushDB(context.Background())

	return manager
}

func TestRedisSubscriptionManager_Subscribe_Unsubscribe(t *testing.T) {
	manager := setupRedis(t)
	ctx := context.Background()

	rule := RateAlert{
		AlertID:   "1001",
		Market:    "USDC",
		Metric:    MetricBorrowAPR,
		Direction: "high",
		Threshold: 10,
		Type:      AlertOnce,
	}

	// 1. 测试 Subscribe
	err := manager.Subscribe(ctx, rule)
	require.NoError(t, err)

	// 验证 Detail Key
	detailKey := fmt.Sprintf("ratealert:detail:%s", rule.AlertID)
	exists, err := manager.client.Exists(ctx, detailKey).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), exists, "Detail key should exist after subscribe")

	// 验证 Index Key
	indexKey := indexKeyOf(rule.Market, rule.Metric, rule.Direction)
	score, err := manager.client.ZScore(ctx, indexKey, "1001:once").Result() // Member format: ID:Type
	require.NoError(t, err)
	require.Equal(t, rule.Threshold, score)

	// 2. 测试 Unsubscribe
	err = manager.Unsubscribe(ctx, rule.AlertID)
	require.NoError(t, err)

	// 验证 Detail Key 被删除
	exists, err = manager.client.Exists(ctx, detailKey).Result()
	require.NoError(t, err)
	require.Equal(t, int64(0), exists, "Detail key should be deleted after unsubscribe")

	// 验证 Index Key 被删除
	count, err := manager.client.ZCard(ctx, indexKey).Result()
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestRedisSubscriptionManager_GetTriggered_Direction(t *testing.T) {
	manager := setupRedis(t)
	ctx := context.Background()

	// High Alert: 借款利率升破 10%
	highRule := RateAlert{AlertID: "high_1", Market: "USDC", Metric: MetricBorrowAPR, Direction: "high", Threshold: 10, Type: AlertAlways}
	// Low Alert: 借款利率跌破 2%
	lowRule := RateAlert{AlertID: "low_1", Market: "USDC", Metric: MetricBorrowAPR, Direction: "low", Threshold: 2, Type: AlertAlways}

	err := manager.Subscribe(ctx, highRule)
	require.NoError(t, err)
	err = manager.Subscribe(ctx, lowRule)
	require.NoError(t, err)

	// 1. 利率上行 (8% -> 12%) -> 应该触发 High
	triggered, err := manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 12, 8)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	require.Equal(t, "high_1", triggered[0].AlertID)

	// 2. 利率下行 (3% -> 1.5%) -> 应该触发 Low
	triggered, err = manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 1.5, 3)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	require.Equal(t, "low_1", triggered[0].AlertID)

	// 3. 利率没变 -> 不触发
	triggered, err = manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 12, 12)
	require.NoError(t, err)
	require.Len(t, triggered, 0)
}

func TestRedisSubscriptionManager_AlertOnce(t *testing.T) {
	manager := setupRedis(t)
	ctx := context.Background()

	rule := RateAlert{
		AlertID:   "once_1",
		Market:    "DAI",
		Metric:    MetricUtilization,
		Direction: "high",
		Threshold: 90,
		Type:      AlertOnce,
	}
	manager.Subscribe(ctx, rule)

	// 第一次触发
	triggered, err := manager.GetTriggered(ctx, "DAI", MetricUtilization, 95, 80)
	require.NoError(t, err)
	require.Len(t, triggered, 1)

	// 第二次触发 -> 应该不触发 (因为已经从 Index 删除了)
	triggered, err = manager.GetTriggered(ctx, "DAI", MetricUtilization, 96, 95)
	require.NoError(t, err)
	require.Len(t, triggered, 0)

	// 验证 Detail Key 还在 (留给用户界面展示历史订阅)
	detailKey := fmt.Sprintf("ratealert:detail:%s", rule.AlertID)
	exists, err := manager.client.Exists(ctx, detailKey).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), exists, "Detail key should persist for AlertOnce")
}

func TestRedisSubscriptionManager_AlertAlways_Cooldown(t *testing.T) {
	manager := setupRedis(t)
	ctx := context.Background()

	rule := RateAlert{
		AlertID:   "always_1",
		Market:    "USDT",
		Metric:    MetricSupplyAPR,
		Direction: "high",
		Threshold: 5,
		Type:      AlertAlways,
	}
	manager.Subscribe(ctx, rule)

	// 第一次触发
	triggered, err := manager.GetTriggered(ctx, "USDT", MetricSupplyAPR, 6, 4)
	require.NoError(t, err)
	require.Len(t, triggered, 1, "Should trigger first time")

	// 立即第二次触发 (应该被冷却拦截)
	triggered, err = manager.GetTriggered(ctx, "USDT", MetricSupplyAPR, 7, 6)
	require.NoError(t, err)
	require.Len(t, triggered, 0, "Should be cooldown")
}
