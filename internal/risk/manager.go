package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"microscalp/internal/indicator"
	"microscalp/internal/ledger"
	"microscalp/internal/signal"
)

// Limits 是一次运行内生效的静态风控参数。百分比字段按 3 == 3% 解释，
// 与原始配置口径一致。
type Limits struct {
	MaxDailyLossPct     float64
	MaxPositionPct      float64
	MaxTradesPerDay     int
	ATRMultiplierSL     float64
	RiskRewardRatio     float64
	ConfidenceThreshold float64
}

func (l Limits) withDefaults() Limits {
	if l.MaxDailyLossPct <= 0 {
		l.MaxDailyLossPct = 3
	}
	if l.MaxPositionPct <= 0 {
		l.MaxPositionPct = 5
	}
	if l.MaxTradesPerDay <= 0 {
		l.MaxTradesPerDay = 10
	}
	if l.ATRMultiplierSL <= 0 {
		l.ATRMultiplierSL = 2.0
	}
	if l.RiskRewardRatio <= 0 {
		l.RiskRewardRatio = 2.0
	}
	if l.ConfidenceThreshold <= 0 {
		l.ConfidenceThreshold = 0.6
	}
	return l
}

// Decision 是风控裁决结果。拒绝不是错误：Reason 进入本轮审计记录。
type Decision struct {
	Approved bool
	Reason   string
	Order    ledger.OrderSpec
}

func reject(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Manager 把信号与账户状态换算成有界开仓指令。
type Manager struct {
	limits Limits
}

func New(limits Limits) *Manager {
	return &Manager{limits: limits.withDefaults()}
}

// Limits 返回当前生效的风控参数。
func (m *Manager) Limits() Limits { return m.limits }

// SetLimits 热更新风控参数，只允许在两个 tick 之间调用。
func (m *Manager) SetLimits(limits Limits) {
	m.limits = limits.withDefaults()
}

// Evaluate 决定是否对该信号开仓。acct 为当前账户快照，hasOpen 表示
// 该 symbol 已有在手仓位，atr 为当前波动率（可能未定义）。
// 返回 error 仅在推导出的价格破坏不变量时发生（程序级错误）。
func (m *Manager) Evaluate(sig signal.Signal, acct ledger.Account, hasOpen bool, atr indicator.Value, entryPrice float64) (Decision, error) {
	lim := m.limits

	if sig.Direction == signal.DirectionHold {
		return reject("signal is HOLD"), nil
	}
	if sig.Confidence < lim.ConfidenceThreshold {
		return reject("confidence %.2f below threshold %.2f", sig.Confidence, lim.ConfidenceThreshold), nil
	}
	if hasOpen {
		return reject("open trade already exists for %s", sig.Symbol), nil
	}
	if acct.TradesOpenedToday >= lim.MaxTradesPerDay {
		return reject("max trades per day reached (%d)", lim.MaxTradesPerDay), nil
	}
	// 当日熔断：已实现亏损达到上限（含恰好等于）即停止开新仓。
	if acct.RealizedPnLToday <= -lim.MaxDailyLossPct/100*acct.Balance {
		return reject("daily loss limit reached (%.2f%%)", lim.MaxDailyLossPct), nil
	}
	if entryPrice <= 0 {
		return reject("no valid entry price"), nil
	}

	qty := m.positionSize(acct.Balance, entryPrice, atr, sig.Confidence)
	if qty <= 0 {
		return reject("position size rounds to zero"), nil
	}

	side := ledger.SideBuy
	if sig.Direction == signal.DirectionSell {
		side = ledger.SideSell
	}
	stop, target := m.bracket(entryPrice, side, atr)
	order := ledger.OrderSpec{
		Symbol:     sig.Symbol,
		Side:       side,
		EntryPrice: entryPrice,
		Quantity:   qty,
		StopLoss:   stop,
		TakeProfit: target,
	}
	if err := validateBracket(order); err != nil {
		return Decision{}, err
	}
	return Decision{Approved: true, Order: order}, nil
}

// positionSize 按置信度缩放基础仓位，再按波动率衰减，
// 上限恒为 MaxPositionPct * 余额。
func (m *Manager) positionSize(balance, entryPrice float64, atr indicator.Value, confidence float64) float64 {
	if balance <= 0 || entryPrice <= 0 {
		return 0
	}
	basePct := m.limits.MaxPositionPct * confidence

	volFactor := 1.0
	if atr.Defined && atr.Val > 0 {
		volPct := atr.Val / entryPrice * 100
		switch {
		case volPct > 5:
			volFactor = 0.5
		case volPct > 3:
			volFactor = 0.75
		}
	}

	pct := basePct * volFactor
	if pct > m.limits.MaxPositionPct {
		pct = m.limits.MaxPositionPct
	}
	value := balance * pct / 100
	qty := decimal.NewFromFloat(value).
		Div(decimal.NewFromFloat(entryPrice)).
		Round(6)
	f, _ := qty.Float64()
	return f
}

// bracket 推导止损/止盈：止损距离 = ATR * 倍数（ATR 未定义时退化为
// 入场价的 1%），止盈距离 = 盈亏比 * 止损距离。
func (m *Manager) bracket(entryPrice float64, side ledger.Side, atr indicator.Value) (stop, target float64) {
	dist := entryPrice * 0.01
	if atr.Defined && atr.Val > 0 {
		dist = atr.Val * m.limits.ATRMultiplierSL
	}
	reward := dist * m.limits.RiskRewardRatio
	if side == ledger.SideBuy {
		return entryPrice - dist, entryPrice + reward
	}
	return entryPrice + dist, entryPrice - reward
}

func validateBracket(o ledger.OrderSpec) error {
	switch o.Side {
	case ledger.SideBuy:
		if o.StopLoss >= o.EntryPrice || o.TakeProfit <= o.EntryPrice {
			return &ledger.InvariantError{Reason: fmt.Sprintf(
				"BUY bracket inverted: sl=%v entry=%v tp=%v", o.StopLoss, o.EntryPrice, o.TakeProfit)}
		}
	case ledger.SideSell:
		if o.StopLoss <= o.EntryPrice || o.TakeProfit >= o.EntryPrice {
			return &ledger.InvariantError{Reason: fmt.Sprintf(
				"SELL bracket inverted: sl=%v entry=%v tp=%v", o.StopLoss, o.EntryPrice, o.TakeProfit)}
		}
	}
	return nil
}
