package alert

import (
	"context"
	"errors"
	"sync"
	"time"
)

// 确保实现了接口
var _ SubscriptionManager = (*MemorySubscriptionManager)(nil)

// MemorySubscriptionManager 内存版预警管理器
// 单实例部署或测试时使用，多实例共享请换 Redis 版本
type MemorySubscriptionManager struct {
	mu    sync.RWMutex
	rules map[string]RateAlert // key: AlertID
}

func NewMemorySubscriptionManager() *MemorySubscriptionManager {
	return &MemorySubscriptionManager{
		rules: make(map[string]RateAlert),
	}
}

// Subscribe 订阅预警
func (m *MemorySubscriptionManager) Subscribe(ctx context.Context, rule RateAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rule.AlertID == "" {
		return errors.New("alert_id is required")
	}
	m.rules[rule.AlertID] = rule
	return nil
}

// Unsubscribe 取消订阅
func (m *MemorySubscriptionManager) Unsubscribe(ctx context.Context, alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rules, alertID)
	return nil
}

// GetTriggered 获取触发的预警 (核心逻辑)
// 遍历全量规则做业务过滤，Redis 实现中换成 ZSet 范围查询
func (m *MemorySubscriptionManager) GetTriggered(ctx context.Context, market string, metric Metric, current, last float64) ([]RateAlert, error) {
	m.mu.Lock() // 涉及更新 LastTriggeredAt，用写锁
	defer m.mu.Unlock()

	// 1. 根据指标走势判断方向
	// 上行只触发 high 规则，下行只触发 low 规则
	var direction string
	if current > last {
		direction = "high"
	} else if current < last {
		direction = "low"
	} else {
		return nil, nil
	}

	var triggered []RateAlert
	now := time.Now()
	currentHour := now.Hour()

	for id, rule := range m.rules {
		// 2. 基础过滤：市场 + 指标 + 方向必须匹配
		if rule.Market != market || rule.Metric != metric || rule.Direction != direction {
			continue
		}

		// 3. 阈值判断
		// High: 当前值 >= 阈值 时触发
		// Low:  当前值 <= 阈值 时触发
		crossed := false
		if direction == "high" && current >= rule.Threshold {
			crossed = true
		} else if direction == "low" && current <= rule.Threshold {
			crossed = true
		}
		if !crossed {
			continue
		}

		// 4. 时间窗口过滤
		// 设置了 StartHour/EndHour 的规则只在区间内生效
		if rule.StartHour != rule.EndHour {
			if currentHour < rule.StartHour || currentHour >= rule.EndHour {
				continue
			}
		}

		// 5. 频率控制 (Type)
		shouldTrigger := false
		switch rule.Type {
		case AlertOnce:
			shouldTrigger = true
			// Once 类型触发后直接删除
			delete(m.rules, id)

		case AlertDaily:
			// 检查上次触发是不是今天
			lastAt := time.Unix(rule.LastTriggeredAt, 0)
			if rule.LastTriggeredAt == 0 || !isSameDay(lastAt, now) {
				shouldTrigger = true
				rule.LastTriggeredAt = now.Unix()
				m.rules[id] = rule // 写回 map
			}

		case AlertAlways:
			shouldTrigger = true
			rule.LastTriggeredAt = now.Unix()
			m.rules[id] = rule
		}

		if shouldTrigger {
			triggered = append(triggered, rule)
		}
	}

	return triggered, nil
}

// isSameDay 判断两个时间是否是同一天
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
