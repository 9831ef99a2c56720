// 文件: pkg/market/memory_repo.go
// 内存版利率仓储
//
// demo/联调环境不想起 MySQL 时用这个，单实例内有效，重启即丢。
package market

import (
	"context"
	"sort"
	"sync"
)

// 确保实现了接口
var _ RateRepository = (*MemoryRateRepository)(nil)

// MemoryRateRepository 内存利率记录仓储
type MemoryRateRepository struct {
	mu      sync.RWMutex
	records map[string][]*RateRecord // market -> 按写入顺序
}

// NewMemoryRateRepository 创建内存仓储
func NewMemoryRateRepository() *MemoryRateRepository {
	return &MemoryRateRepository{
		records: make(map[string][]*RateRecord),
	}
}

// Save 保存利率记录
func (r *MemoryRateRepository) Save(ctx context.Context, record *RateRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *record
	r.records[record.Market] = append(r.records[record.Market], &clone)
	return nil
}

// Latest 查询市场最新一条记录
func (r *MemoryRateRepository) Latest(ctx context.Context, market string) (*RateRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.records[market]
	if len(list) == 0 {
		return nil, ErrRecordNotFound
	}

	// 写入顺序即时间顺序，但 CreatedAt 相同毫秒时以最后写入为准
	latest := *list[len(list)-1]
	return &latest, nil
}

// Range 查询时间区间内的记录，按时间升序
func (r *MemoryRateRepository) Range(ctx context.Context, market string, from, to int64) ([]*RateRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*RateRecord
	for _, rec := range r.records[market] {
		if rec.CreatedAt >= from && rec.CreatedAt <= to {
			clone := *rec
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt < result[j].CreatedAt
	})
	return result, nil
}
