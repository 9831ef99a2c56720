package alert

import (
	"context"
	"testing"
)

func TestMemorySubscriptionManager_GetTriggered(t *testing.T) {
	manager := NewMemorySubscriptionManager()
	ctx := context.Background()

	// 1. 准备测试数据
	rules := []RateAlert{
		{
			AlertID:   "1",
			Market:    "USDC",
			Metric:    MetricBorrowAPR,
			Direction: "high",
			Threshold: 10,
			Type:      AlertOnce,
		},
		{
			AlertID:   "2",
			Market:    "USDC",
			Metric:    MetricBorrowAPR,
			Direction: "low",
			Threshold: 2,
			Type:      AlertAlways,
		},
		{
			AlertID:   "3",
			Market:    "DAI", // 不同的市场
			Metric:    MetricBorrowAPR,
			Direction: "high",
			Threshold: 5,
			Type:      AlertOnce,
		},
	}

	for _, r := range rules {
		manager.Subscribe(ctx, r)
	}

	// 2. 测试场景 A: USDC 借款利率 8% -> 12%
	// 预期: 触发 ID=1 (High 10)
	// 不触发 ID=2 (Low 规则，利率在上行)
	// 不触发 ID=3 (市场不匹配)
	triggered, err := manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 12, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(triggered) != 1 {
		t.Errorf("expected 1 triggered alert, got %d", len(triggered))
	}
	if triggered[0].AlertID != "1" {
		t.Errorf("expected alert 1, got %s", triggered[0].AlertID)
	}

	// 3. 测试场景 B: 再次上行 (AlertOnce 应该被删除)
	triggered, _ = manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 13, 12)
	if len(triggered) != 0 {
		t.Errorf("expected 0 alerts (AlertOnce should be deleted), got %d", len(triggered))
	}

	// 4. 测试场景 C: 利率下行穿过 2% -> 触发 ID=2
	triggered, _ = manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 1.5, 3)
	if len(triggered) != 1 {
		t.Fatalf("expected low alert to trigger, got %d", len(triggered))
	}
	if triggered[0].AlertID != "2" {
		t.Errorf("expected alert 2, got %s", triggered[0].AlertID)
	}

	// 5. 利率没变 -> 不触发
	triggered, _ = manager.GetTriggered(ctx, "USDC", MetricBorrowAPR, 1.5, 1.5)
	if len(triggered) != 0 {
		t.Errorf("expected no alerts on flat rate, got %d", len(triggered))
	}
}

func TestMemorySubscriptionManager_DailyAlert(t *testing.T) {
	manager := NewMemorySubscriptionManager()
	ctx := context.Background()

	rule := RateAlert{
		AlertID:   "daily_1",
		Market:    "USDC",
		Metric:    MetricUtilization,
		Direction: "high",
		Threshold: 90,
		Type:      AlertDaily,
	}
	manager.Subscribe(ctx, rule)

	// 第一次触发
	triggered, _ := manager.GetTriggered(ctx, "USDC", MetricUtilization, 95, 80)
	if len(triggered) != 1 {
		t.Fatal("first trigger failed")
	}

	// 第二次触发 (同一天) -> 应该不触发
	triggered, _ = manager.GetTriggered(ctx, "USDC", MetricUtilization, 96, 95)
	if len(triggered) != 0 {
		t.Fatal("should not trigger twice in same day")
	}
}
