package store

import "gorm.io/datatypes"

type tradeModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Symbol        string  `gorm:"column:symbol;index"`
	Side          string  `gorm:"column:side"`
	EntryPrice    float64 `gorm:"column:entry_price"`
	Quantity      float64 `gorm:"column:quantity"`
	StopLoss      float64 `gorm:"column:stop_loss"`
	TakeProfit    float64 `gorm:"column:take_profit"`
	EntryTime     int64   `gorm:"column:entry_time;index"`
	Status        string  `gorm:"column:status;index"`
	ExitPrice     float64 `gorm:"column:exit_price"`
	ExitTime      int64   `gorm:"column:exit_time"`
	ExitReason    string  `gorm:"column:exit_reason"`
	ProfitLoss    float64 `gorm:"column:profit_loss"`
	ProfitLossPct float64 `gorm:"column:profit_loss_pct"`
	FeePaid       float64 `gorm:"column:fee_paid"`
}

func (tradeModel) TableName() string { return "trades" }

type performanceModel struct {
	ID             int64   `gorm:"column:id;primaryKey"`
	Timestamp      int64   `gorm:"column:timestamp;index"`
	Balance        float64 `gorm:"column:balance"`
	Equity         float64 `gorm:"column:equity"`
	WinRate        float64 `gorm:"column:win_rate"`
	TotalPnL       float64 `gorm:"column:total_pnl"`
	TotalReturnPct float64 `gorm:"column:total_return_pct"`
	MaxDrawdownPct float64 `gorm:"column:max_drawdown_pct"`
	ProfitFactor   float64 `gorm:"column:profit_factor"`
	SharpeRatio    float64 `gorm:"column:sharpe_ratio"`
	TotalFees      float64 `gorm:"column:total_fees"`
	OpenTrades     int     `gorm:"column:open_trades"`
	TotalTrades    int     `gorm:"column:total_trades"`
}

func (performanceModel) TableName() string { return "performance" }

type signalModel struct {
	ID         int64          `gorm:"column:id;primaryKey"`
	Symbol     string         `gorm:"column:symbol;index"`
	Direction  string         `gorm:"column:direction"`
	Confidence float64        `gorm:"column:confidence"`
	Score      float64        `gorm:"column:score"`
	Reason     string         `gorm:"column:reason"`
	Factors    datatypes.JSON `gorm:"column:factors;type:TEXT"`
	Timestamp  int64          `gorm:"column:timestamp;index"`
}

func (signalModel) TableName() string { return "signals" }
