package engine

import (
	"sort"
	"time"

	"microscalp/internal/indicator"
	"microscalp/internal/ledger"
	"microscalp/internal/market"
	"microscalp/internal/risk"
	"microscalp/internal/signal"
)

// SymbolReport 是单 symbol 一次 tick 的审计记录：信号、开平仓与
// 风控拒绝原因都在这里留痕。
type SymbolReport struct {
	Symbol    string         `json:"symbol"`
	Price     float64        `json:"price"`
	Signal    signal.Signal  `json:"signal"`
	Opened    *ledger.Trade  `json:"opened,omitempty"`
	Closed    []ledger.Trade `json:"closed,omitempty"`
	Rejection string         `json:"rejection,omitempty"`
	Err       string         `json:"err,omitempty"`
}

// TickReport 汇总一次 tick 的全部效果，顺序按 symbol 字典序，保证
// 同一输入重放结果完全一致。
type TickReport struct {
	Time        time.Time                  `json:"time"`
	Symbols     []SymbolReport             `json:"symbols"`
	Account     ledger.Account             `json:"account"`
	Performance ledger.PerformanceSnapshot `json:"performance"`
}

// Processor 是每 tick 的决策管线：指标 -> 信号 -> 风控 -> 账本。
// 单写者模型：同一实例绝不并发执行两个 tick。实时轮询与回测共用
// 这一条管线，二者结果才可直接对比。
type Processor struct {
	gen     *signal.Generator
	riskMgr *risk.Manager
	book    *ledger.Ledger

	prevSnap map[string]indicator.Snapshot
}

func NewProcessor(gen *signal.Generator, riskMgr *risk.Manager, book *ledger.Ledger) *Processor {
	return &Processor{
		gen:      gen,
		riskMgr:  riskMgr,
		book:     book,
		prevSnap: make(map[string]indicator.Snapshot),
	}
}

// Ledger 暴露账本只读访问（dashboard 使用）。
func (p *Processor) Ledger() *ledger.Ledger { return p.book }

// RiskManager 返回风控器（配置热更新入口）。
func (p *Processor) RiskManager() *risk.Manager { return p.riskMgr }

// Generator 返回信号生成器（配置热更新入口）。
func (p *Processor) Generator() *signal.Generator { return p.gen }

// ProcessTick 处理一次 tick。candlesBySymbol 缺失的 symbol 视作本轮
// 拉取失败，已在上游记入报告。返回 error 仅在账本不变量被破坏时发生，
// 调用方必须终止运行。
func (p *Processor) ProcessTick(now time.Time, candlesBySymbol map[string][]market.Candle) (TickReport, error) {
	report := TickReport{Time: now}
	p.book.ResetDayIfNeeded(now)

	symbols := make([]string, 0, len(candlesBySymbol))
	for s := range candlesBySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	threshold := p.gen.Threshold()
	for _, sym := range symbols {
		candles := candlesBySymbol[sym]
		sr := SymbolReport{Symbol: sym}
		if len(candles) == 0 {
			sr.Err = "no candles"
			report.Symbols = append(report.Symbols, sr)
			continue
		}
		price := candles[len(candles)-1].Close
		sr.Price = price

		snap := indicator.Compute(candles)
		var prev *indicator.Snapshot
		if ps, ok := p.prevSnap[sym]; ok {
			prev = &ps
		}
		sig := p.gen.Generate(snap, prev)
		p.prevSnap[sym] = snap
		sr.Signal = sig

		// 先平后开：本轮的新信号参与反转平仓判定。
		closed, err := p.book.EvaluateExits(sym, price, &sig, threshold, now)
		if err != nil {
			return report, err
		}
		for _, t := range closed {
			sr.Closed = append(sr.Closed, *t)
		}

		decision, err := p.riskMgr.Evaluate(sig, p.book.Account(), p.book.HasOpen(sym), snap.ATR14, price)
		if err != nil {
			return report, err
		}
		if decision.Approved {
			opened, err := p.book.Open(decision.Order, now)
			if err != nil {
				return report, err
			}
			sr.Opened = opened
		} else {
			sr.Rejection = decision.Reason
		}
		report.Symbols = append(report.Symbols, sr)
	}

	report.Account = p.book.Account()
	report.Performance = p.book.Performance(now)
	return report, nil
}
