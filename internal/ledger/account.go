package ledger

// Account 是单次运行（实时纸面盘或一次回测）的账户状态快照。
// "_today" 计数器在交易日切换时清零，由 tick 时间驱动以保证回测可重放。
type Account struct {
	Balance           float64 `json:"balance"`
	Equity            float64 `json:"equity"`
	PeakBalance       float64 `json:"peak_balance"`
	OpenTrades        int     `json:"open_trades"`
	TradesOpenedToday int     `json:"trades_opened_today"`
	RealizedPnLToday  float64 `json:"realized_pnl_today"`
}
