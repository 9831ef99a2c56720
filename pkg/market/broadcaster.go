// 文件: pkg/market/broadcaster.go
// 利率事件进程内广播器
//
// 【设计】Fan-out 模式: RateService 每次刷新产出一条事件,
// 广播给 N 个进程内订阅者 (预警检查/网关推送/落盘旁路)。
// NATS 负责跨进程分发，Broadcaster 负责进程内分发，两者互不依赖。
//
// 关键特性:
// 1. 某个订阅者处理慢，不能拖累其他订阅者 (select default 丢弃)
// 2. 订阅/取消订阅并发安全
// 3. Broadcast 是热路径，用读锁允许多个源并发广播
package market

import (
	"sync"
)

// Broadcaster 利率事件广播器
type Broadcaster struct {
	// 读多写少: Subscribe 很少，Broadcast 每次刷新都走
	mu          sync.RWMutex
	subscribers []chan *RateUpdateEvent
}

// NewBroadcaster 创建广播器
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make([]chan *RateUpdateEvent, 0),
	}
}

// Subscribe 订阅利率事件
// 返回只读 Channel，订阅者从中接收数据
// Buffer 64: 利率刷新频率低 (分钟级)，足够缓冲慢消费者的短暂停顿
func (b *Broadcaster) Subscribe() <-chan *RateUpdateEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *RateUpdateEvent, 64)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Broadcast 广播事件到所有订阅者
// 某个订阅者的 Channel 满了就直接跳过，绝不等待,
// 保证不会影响其他健康的订阅者
func (b *Broadcaster) Broadcast(event *RateUpdateEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
			// 发送成功
		default:
			// Channel 满了，丢弃 (旧利率对慢消费者没有价值)
		}
	}
}

// Close 关闭广播器，关闭所有订阅者的 Channel
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		close(ch)
	}
	// 清空列表，避免重复关闭
	b.subscribers = nil
}
