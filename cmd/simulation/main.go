// 文件: cmd/simulation/main.go
// 利率曲线模拟器
//
// 把利用率从 0% 扫到 100%，打印借款/存款利率曲线,
// 用于校验参数配置 (基础利率/斜率/抽成) 的实际效果。
//
// 两种模式:
//   - 默认: 静态扫描，打一张利用率 0%~100% 的利率表
//   - --live: 起一个完整的利率刷新服务，用 GBM 随机游走的模拟资金池喂数据,
//     实时打印利率变化，Ctrl+C 退出
//
// 用法:
//
//	go run ./cmd/simulation --base-rate 2.0 --multiplier 10.512 --reserve-factor 10
//	go run ./cmd/simulation --nats-url nats://localhost:4222   # 同时发布审计记录
//	go run ./cmd/simulation --live --markets USDC,DAI --interval 2s
package main

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"maxfi.com/pkg/audit"
	"maxfi.com/pkg/market"
	"maxfi.com/pkg/rates"
)

// percentToFixed 年化百分数 → 1e18 定点数
// 例: 10.512 (%) → 0.10512e18
func percentToFixed(percent float64) *big.Int {
	return decimal.NewFromFloat(percent).
		Shift(18 - 2). // /100 再 ×1e18
		Truncate(0).
		BigInt()
}

func main() {
	var (
		baseRatePercent   float64
		multiplierPercent float64
		reserveFactorPct  float64
		totalCapital      int64
		steps             int
		natsURL           string
		live              bool
		markets           []string
		interval          time.Duration
		volatility        float64
	)

	pflag.Float64Var(&baseRatePercent, "base-rate", 2.0, "annual base rate in percent")
	pflag.Float64Var(&multiplierPercent, "multiplier", 10.512, "annual rate slope in percent")
	pflag.Float64Var(&reserveFactorPct, "reserve-factor", 10.0, "protocol reserve cut in percent")
	pflag.Int64Var(&totalCapital, "total-capital", 1_000_000_000_000, "total loanable capital in smallest units")
	pflag.IntVar(&steps, "steps", 20, "number of utilization steps between 0%% and 100%%")
	pflag.StringVar(&natsURL, "nats-url", "", "publish audit records and rate updates to this NATS server")
	pflag.BoolVar(&live, "live", false, "run a full refresh service against a simulated pool")
	pflag.StringSliceVar(&markets, "markets", []string{"USDC"}, "markets to simulate in live mode")
	pflag.DurationVar(&interval, "interval", 2*time.Second, "refresh interval in live mode")
	pflag.Float64Var(&volatility, "volatility", 3.0, "annualized borrow volatility in live mode")
	pflag.Parse()

	// 审计接收器可选: 不传 --nats-url 就只在本地打印
	var sink rates.AuditSink
	if natsURL != "" {
		natsSink, err := audit.NewNatsSink(natsURL)
		if err != nil {
			log.Fatalf("[Simulation] connect nats: %v", err)
		}
		defer natsSink.Close()
		sink = natsSink
	}

	model, err := rates.NewModel(
		percentToFixed(baseRatePercent),
		percentToFixed(multiplierPercent),
		sink,
	)
	if err != nil {
		log.Fatalf("[Simulation] build model: %v", err)
	}

	reserveFactor := percentToFixed(reserveFactorPct)

	if live {
		runLive(model, natsURL, markets, interval, totalCapital, volatility, reserveFactor)
		return
	}

	fmt.Printf("base rate       %.4f%% / year  (%s per period)\n",
		baseRatePercent, model.BaseRatePerPeriod())
	fmt.Printf("multiplier      %.4f%% / year  (%s per period)\n",
		multiplierPercent, model.MultiplierPerPeriod())
	fmt.Printf("reserve factor  %.2f%%\n", reserveFactorPct)
	fmt.Printf("periods / year  %d\n\n", rates.PeriodsPerYear)

	fmt.Println("utilization | borrow APR | supply APR")
	fmt.Println("------------+------------+-----------")

	// 固定可借出总资本，借款占比即利用率:
	// borrows = total * i/steps, cash = total - borrows, reserves = 0
	total := big.NewInt(totalCapital)
	zero := big.NewInt(0)
	for i := 0; i <= steps; i++ {
		borrows := new(big.Int).Mul(total, big.NewInt(int64(i)))
		borrows.Quo(borrows, big.NewInt(int64(steps)))
		cash := new(big.Int).Sub(total, borrows)

		utilization, err := model.UtilizationRate(cash, borrows, zero)
		if err != nil {
			log.Printf("[Simulation] utilization at step %d: %v", i, err)
			os.Exit(1)
		}
		borrowRate, err := model.BorrowRatePerPeriod(cash, borrows, zero)
		if err != nil {
			log.Printf("[Simulation] borrow rate at step %d: %v", i, err)
			os.Exit(1)
		}
		supplyRate, err := model.SupplyRatePerPeriod(cash, borrows, zero, reserveFactor)
		if err != nil {
			log.Printf("[Simulation] supply rate at step %d: %v", i, err)
			os.Exit(1)
		}

		fmt.Printf("%10s%% | %9s%% | %8s%%\n",
			market.UtilizationPercent(utilization).StringFixed(2),
			market.AnnualizedPercent(borrowRate).StringFixed(4),
			market.AnnualizedPercent(supplyRate).StringFixed(4),
		)
	}
}

// runLive 起一个完整的利率刷新服务
// 数据链路: 模拟资金池 → 利率模型 → 内存仓储 → NATS(可选) + 进程内广播
func runLive(model *rates.Model, natsURL string, markets []string,
	interval time.Duration, totalCapital int64, volatility float64, reserveFactor *big.Int) {

	provider := market.NewSimulatedProvider(totalCapital, volatility)
	provider.SetReserveFactor(reserveFactor)
	repo := market.NewMemoryRateRepository()

	var publisher market.RatePublisher
	if natsURL != "" {
		natsPublisher, err := market.NewNatsRatePublisher(natsURL)
		if err != nil {
			log.Fatalf("[Simulation] connect nats: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	config := market.DefaultServiceConfig(markets...)
	config.RefreshInterval = interval
	service := market.NewRateService(model, provider, repo, publisher, config)

	// 进程内广播: 一个订阅者统计收到的事件数
	broadcaster := market.NewBroadcaster()
	defer broadcaster.Close()
	service.AttachBroadcaster(broadcaster)

	events := broadcaster.Subscribe()
	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
			received++
		}
	}()

	if err := service.Start(); err != nil {
		log.Fatalf("[Simulation] start service: %v", err)
	}
	log.Printf("[Simulation] live mode: markets=%v interval=%s volatility=%.1f", markets, interval, volatility)

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	service.Stop()
	broadcaster.Close()
	<-done
	log.Printf("[Simulation] done, %d rate updates broadcast", received)
}
