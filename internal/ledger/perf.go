package ledger

import (
	"math"
	"time"
)

// Sharpe 年化因子：加密市场全年连续交易，按 365 个交易日年化。
const sharpeAnnualizationDays = 365

// PerformanceSnapshot 是某时点的绩效汇总，按需从交易历史推导，
// 从不原地修改。
type PerformanceSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	Balance        float64   `json:"balance"`
	Equity         float64   `json:"equity"`
	WinRate        float64   `json:"win_rate"`
	TotalPnL       float64   `json:"total_pnl"`
	TotalReturnPct float64   `json:"total_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	ProfitFactor   float64   `json:"profit_factor"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	TotalFees      float64   `json:"total_fees"`
	OpenTrades     int       `json:"open_trades"`
	TotalTrades    int       `json:"total_trades"`
}

// Performance 依据当前交易历史与账户状态计算绩效快照。
func (l *Ledger) Performance(now time.Time) PerformanceSnapshot {
	snap := PerformanceSnapshot{
		Timestamp:  now,
		Balance:    l.acct.Balance,
		Equity:     l.Equity(),
		OpenTrades: len(l.open),
	}

	closed := l.closed
	snap.TotalTrades = len(closed)
	if l.initialBalance > 0 {
		snap.TotalReturnPct = (snap.Equity - l.initialBalance) / l.initialBalance * 100
	}
	if len(closed) == 0 {
		return snap
	}

	var wins int
	var grossProfit, grossLoss float64
	returns := make([]float64, 0, len(closed))
	for _, t := range closed {
		snap.TotalPnL += t.ProfitLoss
		snap.TotalFees += t.FeePaid
		returns = append(returns, t.ProfitLossPct)
		if t.ProfitLoss > 0 {
			wins++
			grossProfit += t.ProfitLoss
		} else {
			grossLoss += -t.ProfitLoss
		}
	}
	snap.WinRate = float64(wins) / float64(len(closed)) * 100

	switch {
	case grossLoss > 0:
		snap.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		snap.ProfitFactor = math.Inf(1)
	}

	snap.MaxDrawdownPct = maxDrawdownPct(l.initialBalance, closed) * 100
	snap.SharpeRatio = sharpe(returns)
	return snap
}

// maxDrawdownPct 沿逐笔平仓后的权益序列求最大峰谷回撤比例。
func maxDrawdownPct(initial float64, closed []*Trade) float64 {
	equity := initial
	peak := initial
	var maxDD float64
	for _, t := range closed {
		equity += t.ProfitLoss
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpe 用逐笔收益率的均值/总体标准差年化（sqrt(365)）。
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(sharpeAnnualizationDays)
}
