package notifier

import (
	"fmt"

	"microscalp/internal/ledger"
)

// FormatTradeOpened 渲染开仓通知文本。
func FormatTradeOpened(t ledger.Trade) string {
	return fmt.Sprintf("*Trade Opened* #%d\n%s %s @ %.4f x %v\nSL %.4f / TP %.4f",
		t.ID, t.Side, t.Symbol, t.EntryPrice, t.Quantity, t.StopLoss, t.TakeProfit)
}

// FormatTradeClosed 渲染平仓通知文本。
func FormatTradeClosed(t ledger.Trade) string {
	outcome := "LOSS"
	if t.ProfitLoss > 0 {
		outcome = "WIN"
	}
	return fmt.Sprintf("*Trade Closed* #%d [%s]\n%s %s %.4f -> %.4f\nP&L %.4f (%.2f%%) [%s]",
		t.ID, outcome, t.Side, t.Symbol, t.EntryPrice, t.ExitPrice,
		t.ProfitLoss, t.ProfitLossPct, t.ExitReason)
}

// FormatDailyLossBreach 渲染当日熔断告警。
func FormatDailyLossBreach(realized, limitPct float64) string {
	return fmt.Sprintf("*Daily loss limit hit*\nrealized today %.4f, limit %.2f%%\ntrading halted until daily reset",
		realized, limitPct)
}
