package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	event := &RateUpdateEvent{EventID: 1, Market: "USDC"}
	b.Broadcast(event)

	// 两个订阅者都应收到同一条事件
	select {
	case got := <-sub1:
		assert.Equal(t, event, got)
	case <-time.After(time.Second):
		t.Fatal("sub1 did not receive event")
	}
	select {
	case got := <-sub2:
		assert.Equal(t, event, got)
	case <-time.After(time.Second):
		t.Fatal("sub2 did not receive event")
	}
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	slow := b.Subscribe() // 从不消费
	fast := b.Subscribe()

	// 灌满慢订阅者的缓冲再多播一条，Broadcast 不能卡住
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			b.Broadcast(&RateUpdateEvent{EventID: int64(i), Market: "USDC"})
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("broadcast blocked on slow subscriber")
	}

	// 快订阅者收到了缓冲上限内的事件，慢订阅者的多余事件被丢弃
	assert.Equal(t, 64, len(fast))
	assert.Equal(t, 64, len(slow))
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()

	b.Close()

	_, ok := <-sub
	require.False(t, ok, "channel should be closed")

	// 重复 Close 不应 panic
	b.Close()
}
