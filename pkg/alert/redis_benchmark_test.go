package alert

import (
	"context"
	"fmt"
	"testing"
)

// BenchmarkSubscribe 测试订阅性能
func BenchmarkSubscribe(b *testing.B) {
	manager := setupRedis(nil) // 复用 setupRedis，但不需要 *testing.T
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rule := RateAlert{
			AlertID:   fmt.Sprintf("bench_%d", i),
			Market:    "USDC",
			Metric:    MetricBorrowAPR,
			Direction: "high",
			Threshold: 10,
			Type:      AlertOnce,
		}
		manager.Subscribe(ctx, rule)
	}
}

// BenchmarkGetTriggered 测试惊群效应下的获取性能
// 场景: 10,000 个用户都在 10% 借款利率上设置了预警
func BenchmarkGetTriggered(b *testing.B) {
	manager := setupRedis(nil)
	ctx := context.Background()

	// 预先准备好 10000 条规则对象 (内存中)
	var rules []RateAlert
	for i := 0; i < 10000; i++ {
		rules = append(rules, RateAlert{
			AlertID:   fmt.Sprintf("herd_%d", i),
			Market:    "USDC",
			Metric:    MetricBorrowAPR,
			Direction: "high",
			Threshold: 10,
			Type:      AlertOnce,
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// 1. 暂停计时：准备环境
		b.StopTimer()
		manager.client.FlushDB(ctx) // 清空

		// 循环调用 Subscribe 复用订阅逻辑
		for _, r := range rules {
			_ = manager.Subscribe(ctx, r)
		}

		// 2. 开始计时：只测这一行核心逻辑
		b.StartTimer()
		_, _ = manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 12, 8)
	}
}
