package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"microscalp/internal/backtest"
	"microscalp/internal/config"
	"microscalp/internal/gateway/binance"
	"microscalp/internal/logger"
)

// BacktestOptions 覆盖配置文件中的回测参数。
type BacktestOptions struct {
	Symbol  string
	Candles int
}

// RunBacktest 拉取历史 K 线、重放决策管线并落盘报告。
func RunBacktest(ctx context.Context, cfg *config.Config, opts BacktestOptions) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	symbol := strings.ToUpper(strings.TrimSpace(opts.Symbol))
	if symbol == "" {
		symbol = cfg.Trading.Symbols[0]
	}
	candles := opts.Candles
	if candles <= 0 {
		candles = cfg.Backtest.Candles
	}

	source, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Binance.RESTBaseURL,
		HTTPTimeout:  time.Duration(cfg.Binance.HTTPTimeoutSeconds) * time.Second,
		ProxyEnabled: cfg.Binance.Proxy.Enabled,
		ProxyURL:     cfg.Binance.Proxy.URL,
	})
	if err != nil {
		return err
	}
	defer source.Close()

	history, err := source.FetchKlines(ctx, symbol, cfg.Trading.Interval, candles)
	if err != nil {
		return fmt.Errorf("fetch history for %s failed: %w", symbol, err)
	}

	runner := backtest.NewRunner(backtest.Config{
		Symbol:              symbol,
		Interval:            cfg.Trading.Interval,
		InitialBalance:      cfg.Trading.InitialBalance,
		FeeRate:             cfg.Trading.FeeRate,
		ConfidenceThreshold: cfg.Trading.ConfidenceThreshold,
		Limits:              riskLimits(cfg),
	})
	result, err := runner.Run(ctx, history)
	if err != nil {
		return err
	}

	reportPath, err := backtest.WriteReport(result, cfg.Backtest.ReportDir)
	if err != nil {
		return err
	}
	logger.InfoBlock(fmt.Sprintf(
		"backtest summary\nsymbol=%s ticks=%d trades=%d\nreturn=%.2f%% win_rate=%.1f%% drawdown=%.2f%%\nreport=%s",
		symbol, result.Ticks, result.Stats.TotalTrades,
		result.Stats.TotalReturnPct, result.Stats.WinRate, result.Stats.MaxDrawdownPct,
		reportPath))
	return nil
}
