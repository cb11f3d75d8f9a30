package ledger

import "time"

// Side 是持仓方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Sign 返回方向符号：多头 +1，空头 -1。
func (s Side) Sign() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// Status 是交易生命周期状态，OPEN -> CLOSED 单向流转。
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// ExitReason 是平仓原因。
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitReversal   ExitReason = "SIGNAL_REVERSAL"
	ExitManual     ExitReason = "MANUAL"
)

// Trade 表示一笔纸面交易。OPEN 时退出字段为零值，CLOSED 后不再变更。
type Trade struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	EntryTime  time.Time `json:"entry_time"`
	Status     Status    `json:"status"`

	ExitPrice     float64    `json:"exit_price,omitempty"`
	ExitTime      time.Time  `json:"exit_time,omitempty"`
	ExitReason    ExitReason `json:"exit_reason,omitempty"`
	ProfitLoss    float64    `json:"profit_loss,omitempty"`
	ProfitLossPct float64    `json:"profit_loss_pct,omitempty"`
	FeePaid       float64    `json:"fee_paid"`
}

// UnrealizedPnL 按给定价格估算未实现盈亏（不含费用）。
func (t *Trade) UnrealizedPnL(price float64) float64 {
	if t.Status != StatusOpen || price <= 0 {
		return 0
	}
	return (price - t.EntryPrice) * t.Quantity * t.Side.Sign()
}

// Notional 返回开仓名义价值。
func (t *Trade) Notional() float64 {
	return t.EntryPrice * t.Quantity
}

// OrderSpec 是风控批准后的开仓指令，由账本落地为 OPEN 交易。
type OrderSpec struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}
