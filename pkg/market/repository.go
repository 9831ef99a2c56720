// 文件: pkg/market/repository.go
// 利率记录存储接口 + 市场快照来源接口
//
// 【设计模式】Repository Pattern
// - 服务层只依赖接口，不关心 MySQL / Redis / 内存实现
// - 缓存层以装饰器形式嵌套，调用方无感知

package market

import (
	"context"
	"errors"
)

var (
	// ErrRecordNotFound 指定市场还没有任何利率记录
	ErrRecordNotFound = errors.New("market: rate record not found")
)

// RateRepository 利率记录存储接口
type RateRepository interface {
	// Save 追加一条利率记录 (只增不改，历史即审计日志)
	Save(ctx context.Context, record *RateRecord) error

	// Latest 查询市场最新一条记录
	// 不存在返回 ErrRecordNotFound
	Latest(ctx context.Context, market string) (*RateRecord, error)

	// Range 查询时间区间内的记录 (from/to 为 Unix 毫秒，闭区间，时间升序)
	Range(ctx context.Context, market string, from, to int64) ([]*RateRecord, error)
}

// SnapshotProvider 市场快照来源
//
// 由外围记账系统实现，每次刷新时取一份新鲜的池子状态。
// 本模块从不缓存快照: 快照是瞬时值，缓存即过期。
type SnapshotProvider interface {
	Snapshot(ctx context.Context, market string) (*Snapshot, error)
}
