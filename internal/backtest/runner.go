// Package backtest 在历史 K 线上重放实时决策管线。
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"microscalp/internal/engine"
	"microscalp/internal/indicator"
	"microscalp/internal/ledger"
	"microscalp/internal/logger"
	"microscalp/internal/market"
	"microscalp/internal/risk"
	"microscalp/internal/signal"
)

const (
	// 第一个 tick 之前至少要有这么多根已收盘 K 线，保证全部指标可定义。
	lookback = indicator.RequiredCandles
	// 每个 tick 喂给管线的最大窗口，和实时轮询的 history_limit 对齐。
	maxWindow = 100
)

// Config 记录本次回测的参数快照，便于重放。
type Config struct {
	Symbol              string      `json:"symbol" yaml:"symbol"`
	Interval            string      `json:"interval" yaml:"interval"`
	InitialBalance      float64     `json:"initial_balance" yaml:"initial_balance"`
	FeeRate             float64     `json:"fee_rate" yaml:"fee_rate"`
	ConfidenceThreshold float64     `json:"confidence_threshold" yaml:"confidence_threshold"`
	Limits              risk.Limits `json:"limits" yaml:"limits"`
}

// EquityPoint 是资金曲线上的一个采样点（每 tick 一个）。
type EquityPoint struct {
	TS      int64   `json:"ts" yaml:"ts"`
	Balance float64 `json:"balance" yaml:"balance"`
	Equity  float64 `json:"equity" yaml:"equity"`
}

// Result 汇总一次回测的全部输出。
type Result struct {
	ID         string                     `json:"id" yaml:"id"`
	Config     Config                     `json:"config" yaml:"config"`
	Stats      ledger.PerformanceSnapshot `json:"stats" yaml:"stats"`
	Trades     []ledger.Trade             `json:"trades" yaml:"-"`
	Equity     []EquityPoint              `json:"equity" yaml:"-"`
	Ticks      int                        `json:"ticks" yaml:"ticks"`
	StartedAt  time.Time                  `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time                  `json:"finished_at" yaml:"finished_at"`
}

// Runner 驱动回测：每根已收盘 K 线作为一个 tick，走与实时完全相同的
// Processor 管线。指标窗口永远截止到当前 tick，不会看到未来数据。
type Runner struct {
	cfg Config
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run 在给定历史序列上执行回测。candles 必须按时间升序且已收盘。
// 同一输入重放产出完全一致的结果。
func (r *Runner) Run(ctx context.Context, candles []market.Candle) (*Result, error) {
	if len(candles) < lookback+1 {
		return nil, fmt.Errorf("backtest needs at least %d candles, got %d", lookback+1, len(candles))
	}
	cfg := r.cfg
	if cfg.InitialBalance <= 0 {
		return nil, fmt.Errorf("backtest initial balance must be > 0")
	}

	gen := signal.NewGenerator(cfg.ConfidenceThreshold)
	book := ledger.New(cfg.InitialBalance, cfg.FeeRate, nil)
	proc := engine.NewProcessor(gen, risk.New(cfg.Limits), book)

	result := &Result{
		ID:        uuid.NewString(),
		Config:    cfg,
		StartedAt: time.Now().UTC(),
	}
	logger.Infof("backtest %s: %s %s, %d candles", result.ID, cfg.Symbol, cfg.Interval, len(candles))

	for i := lookback; i < len(candles); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		start := 0
		if i+1 > maxWindow {
			start = i + 1 - maxWindow
		}
		window := candles[start : i+1]
		now := window[len(window)-1].CloseAt()

		report, err := proc.ProcessTick(now, map[string][]market.Candle{cfg.Symbol: window})
		if err != nil {
			return nil, err
		}
		result.Ticks++
		result.Equity = append(result.Equity, EquityPoint{
			TS:      now.UnixMilli(),
			Balance: report.Account.Balance,
			Equity:  report.Account.Equity,
		})
	}

	// 收盘清算：回测结束时仍然在场的持仓按最后收盘价手动平掉。
	last := candles[len(candles)-1]
	endTime := last.CloseAt()
	for _, t := range book.OpenTrades() {
		if _, err := book.CloseManual(t.ID, last.Close, endTime); err != nil {
			return nil, err
		}
	}

	result.Stats = book.Performance(endTime)
	result.Trades = book.AllTrades()
	result.FinishedAt = time.Now().UTC()
	logger.Infof("backtest %s done: %d ticks, %d trades, return %.2f%%",
		result.ID, result.Ticks, result.Stats.TotalTrades, result.Stats.TotalReturnPct)
	return result, nil
}
