// 文件: pkg/market/service.go
// 利率刷新服务
//
// 【职责】
// 1. 定时从记账系统取市场快照，用 pkg/rates 模型算出三个利率
// 2. 计算留痕: 输入输出整行落库
// 3. 对外广播利率刷新事件
//
// 【边界】本服务只算利率、存利率、播利率，从不改动池子状态。
// 计息记账、参数治理都在外围系统，不在这里。

package market

import (
	"context"
	"errors"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"maxfi.com/pkg/rates"
)

// =============================================================================
// 配置
// =============================================================================

// ServiceConfig 利率服务配置
type ServiceConfig struct {
	Markets         []string      // 需要刷新的市场列表
	RefreshInterval time.Duration // 刷新周期
	RefreshTimeout  time.Duration // 单个市场单次刷新的超时
}

// DefaultServiceConfig 默认配置
func DefaultServiceConfig(markets ...string) ServiceConfig {
	return ServiceConfig{
		Markets:         markets,
		RefreshInterval: time.Minute,
		RefreshTimeout:  5 * time.Second,
	}
}

// =============================================================================
// RateService - 利率刷新服务
// =============================================================================

// RateService 利率刷新服务
type RateService struct {
	model       *rates.Model
	provider    SnapshotProvider
	repo        RateRepository
	publisher   RatePublisher // 可为 nil (不对外广播)
	broadcaster *Broadcaster  // 可为 nil (不做进程内分发)
	config      ServiceConfig

	// 控制
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRateService 创建利率刷新服务
func NewRateService(
	model *rates.Model,
	provider SnapshotProvider,
	repo RateRepository,
	publisher RatePublisher,
	config ServiceConfig,
) *RateService {
	return &RateService{
		model:     model,
		provider:  provider,
		repo:      repo,
		publisher: publisher,
		config:    config,
		stopChan:  make(chan struct{}),
	}
}

// AttachBroadcaster 挂一个进程内广播器
// 刷新成功后，事件除了走 NATS 还会分发给广播器的订阅者。
// 必须在 Start 之前调用。
func (s *RateService) AttachBroadcaster(b *Broadcaster) {
	s.broadcaster = b
}

// =============================================================================
// 生命周期
// =============================================================================

// Start 启动定时刷新
func (s *RateService) Start() error {
	if s.running {
		return errors.New("rate service already running")
	}
	s.running = true

	s.wg.Add(1)
	go s.refreshLoop()

	log.Println("[Rates] Service started")
	return nil
}

// Stop 停止服务
func (s *RateService) Stop() {
	if !s.running {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
	s.running = false
	log.Println("[Rates] Service stopped")
}

func (s *RateService) refreshLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	// 启动即刷一轮，不等第一个周期
	s.refreshAll()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.refreshAll()
		}
	}
}

func (s *RateService) refreshAll() {
	for _, market := range s.config.Markets {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.RefreshTimeout)
		record, err := s.Refresh(ctx, market)
		cancel()
		if err != nil {
			// 单个市场失败不中断其他市场；坏输入重试也是同样结果，等下个周期
			log.Printf("[Rates] Refresh %s failed: %v", market, err)
			continue
		}
		log.Printf("[Rates] %s utilization=%s%% borrow=%s%% supply=%s%% (annualized)",
			market,
			mustPercent(record.Utilization, UtilizationPercent),
			mustPercent(record.BorrowRate, AnnualizedPercent),
			mustPercent(record.SupplyRate, AnnualizedPercent),
		)
	}
}

// =============================================================================
// 核心流程
// =============================================================================

// Refresh 刷新单个市场的利率
//
// 流程: 取快照 → 算利用率/借款利率/存款利率 → 落库 → 广播。
// 任何一步失败整体失败，不会留下算了一半的记录。
func (s *RateService) Refresh(ctx context.Context, market string) (*RateRecord, error) {
	snapshot, err := s.provider.Snapshot(ctx, market)
	if err != nil {
		return nil, err
	}

	utilization, err := s.model.UtilizationRate(snapshot.Cash, snapshot.Borrows, snapshot.Reserves)
	if err != nil {
		return nil, err
	}
	borrowRate, err := s.model.BorrowRatePerPeriod(snapshot.Cash, snapshot.Borrows, snapshot.Reserves)
	if err != nil {
		return nil, err
	}
	supplyRate, err := s.model.SupplyRatePerPeriod(
		snapshot.Cash, snapshot.Borrows, snapshot.Reserves, snapshot.ReserveFactor)
	if err != nil {
		return nil, err
	}

	record := &RateRecord{
		ID:            GenerateRecordID(),
		Market:        market,
		Cash:          snapshot.Cash.String(),
		Borrows:       snapshot.Borrows.String(),
		Reserves:      snapshot.Reserves.String(),
		ReserveFactor: snapshot.ReserveFactor.String(),
		Utilization:   utilization.String(),
		BorrowRate:    borrowRate.String(),
		SupplyRate:    supplyRate.String(),
		CreatedAt:     time.Now().UnixMilli(),
	}

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}

	event := NewRateUpdateEvent(record)
	if s.publisher != nil {
		if err := s.publisher.PublishRateUpdate(event); err != nil {
			// 记录已落库，广播失败只记日志，订阅方可用 Latest 兜底
			log.Printf("[Rates] Publish %s update failed: %v", market, err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(event)
	}

	return record, nil
}

// Latest 查询市场最新利率记录
func (s *RateService) Latest(ctx context.Context, market string) (*RateRecord, error) {
	return s.repo.Latest(ctx, market)
}

// mustPercent 日志展示用: 定点数字符串 → 百分数字符串
func mustPercent(fixed string, convert func(*big.Int) decimal.Decimal) string {
	v, ok := new(big.Int).SetString(fixed, 10)
	if !ok {
		return "?"
	}
	return convert(v).StringFixed(4)
}
