package ledger

import (
	"sort"
	"time"

	"microscalp/internal/logger"
	"microscalp/internal/signal"
)

// Recorder 消费账本产生的交易/绩效事件（典型实现是 sqlite 存储）。
// 写失败只降级记日志，不影响核心状态机。
type Recorder interface {
	TradeOpened(t Trade) error
	TradeClosed(t Trade) error
	PerformanceRecorded(p PerformanceSnapshot) error
}

// Ledger 独占一次运行的账户状态与交易集合，是唯一的写入方。
// 实时盘与回测必须各自持有独立实例。
type Ledger struct {
	feeRate        float64
	initialBalance float64

	acct      Account
	open      []*Trade
	closed    []*Trade
	lastPrice map[string]float64
	nextID    int64
	day       string

	rec Recorder
}

func New(initialBalance, feeRate float64, rec Recorder) *Ledger {
	if initialBalance <= 0 {
		initialBalance = 10000
	}
	if feeRate < 0 {
		feeRate = 0
	}
	return &Ledger{
		feeRate:        feeRate,
		initialBalance: initialBalance,
		acct: Account{
			Balance:     initialBalance,
			Equity:      initialBalance,
			PeakBalance: initialBalance,
		},
		lastPrice: make(map[string]float64),
		rec:       rec,
	}
}

// ResetDayIfNeeded 在交易日（UTC）切换时清零 "_today" 计数器。
// 以 tick 时间而非挂钟时间为准，回测重放同一序列结果一致。
func (l *Ledger) ResetDayIfNeeded(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if l.day == "" {
		l.day = day
		return
	}
	if day != l.day {
		l.day = day
		l.acct.TradesOpenedToday = 0
		l.acct.RealizedPnLToday = 0
		logger.Infof("ledger: daily counters reset (%s)", day)
	}
}

// MarkPrice 更新某 symbol 最新成交价，用于权益估值。
func (l *Ledger) MarkPrice(symbol string, price float64) {
	if price > 0 {
		l.lastPrice[symbol] = price
	}
}

// Open 依据风控指令开仓。开仓不扣减余额（名义记账），但立刻计入
// 当日开仓计数；入场费在平仓时随盈亏一并结算。
func (l *Ledger) Open(spec OrderSpec, now time.Time) (*Trade, error) {
	if spec.Quantity <= 0 {
		return nil, invariantf(0, "quantity must be positive, got %v", spec.Quantity)
	}
	if spec.EntryPrice <= 0 {
		return nil, invariantf(0, "entry price must be positive, got %v", spec.EntryPrice)
	}
	switch spec.Side {
	case SideBuy:
		if !(spec.StopLoss < spec.EntryPrice && spec.EntryPrice < spec.TakeProfit) {
			return nil, invariantf(0, "BUY bracket inverted: sl=%v entry=%v tp=%v",
				spec.StopLoss, spec.EntryPrice, spec.TakeProfit)
		}
	case SideSell:
		if !(spec.TakeProfit < spec.EntryPrice && spec.EntryPrice < spec.StopLoss) {
			return nil, invariantf(0, "SELL bracket inverted: sl=%v entry=%v tp=%v",
				spec.StopLoss, spec.EntryPrice, spec.TakeProfit)
		}
	default:
		return nil, invariantf(0, "unknown side %q", spec.Side)
	}

	l.nextID++
	t := &Trade{
		ID:         l.nextID,
		Symbol:     spec.Symbol,
		Side:       spec.Side,
		EntryPrice: spec.EntryPrice,
		Quantity:   spec.Quantity,
		StopLoss:   spec.StopLoss,
		TakeProfit: spec.TakeProfit,
		EntryTime:  now,
		Status:     StatusOpen,
	}
	l.open = append(l.open, t)
	l.acct.OpenTrades = len(l.open)
	l.acct.TradesOpenedToday++
	l.MarkPrice(spec.Symbol, spec.EntryPrice)

	logger.Infof("ledger: OPENED %s trade #%d %s @ %.4f x %v (SL %.4f / TP %.4f)",
		t.Side, t.ID, t.Symbol, t.EntryPrice, t.Quantity, t.StopLoss, t.TakeProfit)
	if l.rec != nil {
		if err := l.rec.TradeOpened(*t); err != nil {
			logger.Warnf("ledger: record trade open failed: %v", err)
		}
	}
	return t, nil
}

// EvaluateExits 对某 symbol 的全部 OPEN 交易按最新收盘价做一次平仓检查。
// 判定顺序固定：止损 > 止盈 > 信号反转（先保本金）。反转平仓要求反向
// 信号置信度不低于开仓阈值。返回本轮被平掉的交易。
func (l *Ledger) EvaluateExits(symbol string, price float64, sig *signal.Signal, reversalThreshold float64, now time.Time) ([]*Trade, error) {
	if price <= 0 {
		return nil, nil
	}
	l.MarkPrice(symbol, price)

	var closed []*Trade
	for _, t := range l.openForSymbol(symbol) {
		reason, hit := exitReasonFor(t, price, sig, reversalThreshold)
		if !hit {
			continue
		}
		if err := l.close(t, price, reason, now); err != nil {
			return closed, err
		}
		closed = append(closed, t)
	}
	return closed, nil
}

func exitReasonFor(t *Trade, price float64, sig *signal.Signal, threshold float64) (ExitReason, bool) {
	switch t.Side {
	case SideBuy:
		if decimalLTE(price, t.StopLoss) {
			return ExitStopLoss, true
		}
		if decimalGTE(price, t.TakeProfit) {
			return ExitTakeProfit, true
		}
		if sig != nil && sig.Direction == signal.DirectionSell && sig.Confidence >= threshold {
			return ExitReversal, true
		}
	case SideSell:
		if decimalGTE(price, t.StopLoss) {
			return ExitStopLoss, true
		}
		if decimalLTE(price, t.TakeProfit) {
			return ExitTakeProfit, true
		}
		if sig != nil && sig.Direction == signal.DirectionBuy && sig.Confidence >= threshold {
			return ExitReversal, true
		}
	}
	return "", false
}

// CloseManual 手动平仓（运维指令），同样受生命周期不变量约束。
func (l *Ledger) CloseManual(tradeID int64, price float64, now time.Time) (*Trade, error) {
	for _, t := range l.open {
		if t.ID == tradeID {
			if err := l.close(t, price, ExitManual, now); err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return nil, invariantf(tradeID, "trade not found among open trades")
}

func (l *Ledger) close(t *Trade, exitPrice float64, reason ExitReason, now time.Time) error {
	if t.Status != StatusOpen {
		return invariantf(t.ID, "close on non-open trade (status=%s)", t.Status)
	}
	if !t.ExitTime.IsZero() || t.ExitReason != "" {
		return invariantf(t.ID, "open trade carries exit fields")
	}

	entryFee := t.Notional() * l.feeRate
	exitFee := exitPrice * t.Quantity * l.feeRate
	gross := (exitPrice - t.EntryPrice) * t.Quantity * t.Side.Sign()

	t.ExitPrice = exitPrice
	t.ExitTime = now
	t.ExitReason = reason
	t.FeePaid = entryFee + exitFee
	t.ProfitLoss = gross - t.FeePaid
	if n := t.Notional(); n > 0 {
		t.ProfitLossPct = t.ProfitLoss / n * 100
	}
	t.Status = StatusClosed

	l.removeOpen(t.ID)
	l.closed = append(l.closed, t)
	l.acct.OpenTrades = len(l.open)
	l.acct.Balance += t.ProfitLoss
	l.acct.RealizedPnLToday += t.ProfitLoss
	if l.acct.Balance > l.acct.PeakBalance {
		l.acct.PeakBalance = l.acct.Balance
	}

	logger.Infof("ledger: CLOSED trade #%d %s P&L %.4f (%.2f%%) [%s]",
		t.ID, t.Symbol, t.ProfitLoss, t.ProfitLossPct, reason)
	if l.rec != nil {
		if err := l.rec.TradeClosed(*t); err != nil {
			logger.Warnf("ledger: record trade close failed: %v", err)
		}
		// 每次平仓后追加一条绩效快照，绩效历史随交易推进。
		if err := l.rec.PerformanceRecorded(l.Performance(now)); err != nil {
			logger.Warnf("ledger: record performance failed: %v", err)
		}
	}
	return nil
}

func (l *Ledger) removeOpen(id int64) {
	for i, t := range l.open {
		if t.ID == id {
			l.open = append(l.open[:i], l.open[i+1:]...)
			return
		}
	}
}

func (l *Ledger) openForSymbol(symbol string) []*Trade {
	var out []*Trade
	for _, t := range l.open {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// HasOpen 报告某 symbol 是否已有在手仓位（风控禁止加仓）。
func (l *Ledger) HasOpen(symbol string) bool {
	return len(l.openForSymbol(symbol)) > 0
}

// Equity 返回余额加全部 OPEN 仓位的未实现盈亏。
func (l *Ledger) Equity() float64 {
	equity := l.acct.Balance
	for _, t := range l.open {
		price, ok := l.lastPrice[t.Symbol]
		if !ok {
			price = t.EntryPrice
		}
		equity += t.UnrealizedPnL(price)
	}
	return equity
}

// Account 返回账户状态快照（含实时权益）。
func (l *Ledger) Account() Account {
	acct := l.acct
	acct.Equity = l.Equity()
	return acct
}

// OpenTrades 返回 OPEN 交易副本，按 ID 升序。
func (l *Ledger) OpenTrades() []Trade {
	return copyTrades(l.open)
}

// ClosedTrades 返回 CLOSED 交易副本，按 ID 升序。
func (l *Ledger) ClosedTrades() []Trade {
	return copyTrades(l.closed)
}

// AllTrades 返回全部交易副本，按 ID 升序。
func (l *Ledger) AllTrades() []Trade {
	all := append(copyTrades(l.open), copyTrades(l.closed)...)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func copyTrades(src []*Trade) []Trade {
	out := make([]Trade, 0, len(src))
	for _, t := range src {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InitialBalance 返回本次运行的初始资金。
func (l *Ledger) InitialBalance() float64 { return l.initialBalance }
