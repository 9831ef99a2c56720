// 文件: pkg/market/cache_repo.go
// 利率记录 Redis 缓存层
//
// 【设计模式】装饰器模式 (Decorator Pattern)
// - 包装底层 Repository，透明添加缓存能力
// - 调用方只看到 RateRepository 接口
//
// 【缓存策略】
// - Latest 是高频读 (行情页每次都查)，走缓存
// - Save 后直接回填最新值 (新记录必然是 Latest，无需失效再回源)
// - Range 是低频审计查询，不缓存，直接穿透到 DB

package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 确保实现了接口
var _ RateRepository = (*CachedRateRepository)(nil)

const (
	// 最新利率: market:rates:latest:{market}
	cacheKeyLatest = "market:rates:latest:%s"

	// 利率刷新周期是分钟级，缓存略长于一个周期即可
	cacheTTL = 5 * time.Minute
)

// CachedRateRepository Redis 缓存装饰器
type CachedRateRepository struct {
	repo  RateRepository // 被装饰的底层 Repository
	redis *redis.Client
}

// NewCachedRateRepository 创建带缓存的 Repository
//
// 用法:
//
//	mysqlRepo := NewMySQLRateRepository(db)
//	cachedRepo := NewCachedRateRepository(mysqlRepo, redisClient)
//	service := NewRateService(model, provider, cachedRepo, publisher, cfg)
func NewCachedRateRepository(repo RateRepository, rds *redis.Client) *CachedRateRepository {
	return &CachedRateRepository{
		repo:  repo,
		redis: rds,
	}
}

// Save 先写 DB，成功后回填最新值缓存
func (r *CachedRateRepository) Save(ctx context.Context, record *RateRecord) error {
	if err := r.repo.Save(ctx, record); err != nil {
		return err
	}
	r.fillLatest(ctx, record)
	return nil
}

// Latest 先查 Redis，miss 则查 DB 并回填
func (r *CachedRateRepository) Latest(ctx context.Context, market string) (*RateRecord, error) {
	key := fmt.Sprintf(cacheKeyLatest, market)

	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var record RateRecord
		if err := json.Unmarshal(data, &record); err == nil {
			return &record, nil
		}
		// 缓存数据损坏，删掉走 DB
		r.redis.Del(ctx, key)
	}

	record, err := r.repo.Latest(ctx, market)
	if err != nil {
		return nil, err
	}
	r.fillLatest(ctx, record)
	return record, nil
}

// Range 审计查询直接穿透，不走缓存
func (r *CachedRateRepository) Range(ctx context.Context, market string, from, to int64) ([]*RateRecord, error) {
	return r.repo.Range(ctx, market, from, to)
}

// fillLatest 回填最新值缓存 (失败只是降级为缓存 miss，不影响主流程)
func (r *CachedRateRepository) fillLatest(ctx context.Context, record *RateRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	r.redis.Set(ctx, fmt.Sprintf(cacheKeyLatest, record.Market), data, cacheTTL)
}
