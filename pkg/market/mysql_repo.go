// 文件: pkg/market/mysql_repo.go
// 利率记录 MySQL 存储实现
//
// 【设计】
// - 使用 GORM 作为 ORM
// - 所有操作带 context 支持超时控制
// - 记录只增不改: 利率历史就是审计日志，没有 Update/Delete

package market

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// 确保实现了接口
var _ RateRepository = (*MySQLRateRepository)(nil)

// MySQLRateRepository MySQL 实现
type MySQLRateRepository struct {
	db *gorm.DB
}

// NewMySQLRateRepository 创建 MySQL 存储
func NewMySQLRateRepository(db *gorm.DB) *MySQLRateRepository {
	return &MySQLRateRepository{db: db}
}

// Save 追加利率记录
func (r *MySQLRateRepository) Save(ctx context.Context, record *RateRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Latest 查询市场最新一条记录
func (r *MySQLRateRepository) Latest(ctx context.Context, market string) (*RateRecord, error) {
	var record RateRecord
	err := r.db.WithContext(ctx).
		Where("market = ?", market).
		Order("created_at DESC").
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Range 查询时间区间内的记录
func (r *MySQLRateRepository) Range(ctx context.Context, market string, from, to int64) ([]*RateRecord, error) {
	var records []*RateRecord
	err := r.db.WithContext(ctx).
		Where("market = ? AND created_at BETWEEN ? AND ?", market, from, to).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
