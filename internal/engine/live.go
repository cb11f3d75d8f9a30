package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"microscalp/internal/logger"
	"microscalp/internal/market"
	"microscalp/internal/metrics"
	"microscalp/internal/notifier"
	"microscalp/internal/risk"
	"microscalp/internal/scheduler"
	"microscalp/internal/signal"
)

// SignalSink 持久化每轮生成的非 HOLD 信号。
type SignalSink interface {
	SaveSignal(sig signal.Signal) error
}

// LiveConfig 描述实时纸面盘的轮询参数。
type LiveConfig struct {
	Symbols      []string
	Interval     string
	HistoryLimit int
}

func (c LiveConfig) withDefaults() LiveConfig {
	if c.Interval == "" {
		c.Interval = "5m"
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 100
	}
	return c
}

// Live 是实时纸面盘引擎：按 K 线周期对齐轮询行情，把数据喂给
// Processor。tick 之间无重叠；单 symbol 拉取失败只影响该 symbol。
type Live struct {
	cfg     LiveConfig
	proc    *Processor
	source  market.Source
	notify  notifier.TextNotifier
	metrics *metrics.Metrics
	signals SignalSink

	mu          sync.Mutex // 串行化 tick 与配置热更新
	breachedDay string

	tickFn func(context.Context) error // 测试注入点，默认 RunTick
}

func NewLive(cfg LiveConfig, proc *Processor, source market.Source, notify notifier.TextNotifier, m *metrics.Metrics) *Live {
	if notify == nil {
		notify = notifier.Noop{}
	}
	return &Live{
		cfg:     cfg.withDefaults(),
		proc:    proc,
		source:  source,
		notify:  notify,
		metrics: m,
	}
}

// Processor 返回底层管线（dashboard 只读访问）。
func (e *Live) Processor() *Processor { return e.proc }

// SetSignalSink 指定信号落盘目标，nil 表示不持久化。
func (e *Live) SetSignalSink(sink SignalSink) { e.signals = sink }

// Run 阻塞运行：对齐到 K 线收盘后逐 tick 执行，ctx 取消时在两个
// tick 之间干净退出。tick 返回错误（账本不变量被破坏）时立刻停止
// 调度并把错误上抛，进程随之退出。
func (e *Live) Run(ctx context.Context) error {
	interval, ok := scheduler.ParseIntervalDuration(e.cfg.Interval)
	if !ok {
		interval = 5 * time.Minute
		logger.Warnf("live: invalid interval %q, fallback to 5m", e.cfg.Interval)
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.NewAligned(runCtx, interval, 2*time.Second)
	sched.RunImmediately = true

	tick := e.tickFn
	if tick == nil {
		tick = e.RunTick
	}

	var runErr error
	sched.Start(func() {
		if runErr != nil {
			return
		}
		if err := tick(runCtx); err != nil {
			runErr = err
			logger.Errorf("live: tick aborted: %v", err)
			cancel()
		}
	})
	return runErr
}

// RunTick 执行一次完整 tick：并发拉取各 symbol 行情（失败隔离），
// 然后单线程走决策管线。返回 error 仅在账本不变量被破坏时发生。
func (e *Live) RunTick(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	candles := e.fetchAll(ctx)

	report, err := e.proc.ProcessTick(time.Now().UTC(), candles)
	if err != nil {
		return err
	}
	e.observe(report)
	if e.metrics != nil {
		e.metrics.TicksTotal.Inc()
		e.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// fetchAll 并发拉取全部 symbol 的 K 线。某个 symbol 失败不阻塞其余
// symbol：跳过本轮，下一轮重试。
func (e *Live) fetchAll(ctx context.Context) map[string][]market.Candle {
	var mu sync.Mutex
	out := make(map[string][]market.Candle, len(e.cfg.Symbols))

	g, gctx := errgroup.WithContext(ctx)
	for _, sym := range e.cfg.Symbols {
		sym := sym
		g.Go(func() error {
			candles, err := e.source.FetchKlines(gctx, sym, e.cfg.Interval, e.cfg.HistoryLimit)
			if err != nil {
				ferr := &market.FetchError{Symbol: sym, Err: err}
				logger.Warnf("live: %v (skipping this tick)", ferr)
				if e.metrics != nil {
					e.metrics.FetchErrorsTotal.WithLabelValues(sym).Inc()
				}
				return nil
			}
			mu.Lock()
			out[sym] = candles
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return out
}

func (e *Live) observe(report TickReport) {
	for _, sr := range report.Symbols {
		if e.metrics != nil {
			e.metrics.SignalsTotal.WithLabelValues(string(sr.Signal.Direction)).Inc()
		}
		if e.signals != nil && sr.Signal.Direction != signal.DirectionHold {
			if err := e.signals.SaveSignal(sr.Signal); err != nil {
				logger.Warnf("live: save signal failed: %v", err)
			}
		}
		for _, t := range sr.Closed {
			if e.metrics != nil {
				e.metrics.TradesClosed.WithLabelValues(string(t.ExitReason)).Inc()
			}
			e.send(notifier.FormatTradeClosed(t))
		}
		if sr.Opened != nil {
			if e.metrics != nil {
				e.metrics.TradesOpened.Inc()
			}
			e.send(notifier.FormatTradeOpened(*sr.Opened))
		}
		if sr.Rejection != "" {
			if e.metrics != nil {
				e.metrics.RiskRejections.Inc()
			}
			logger.Debugf("live: %s rejected: %s", sr.Symbol, sr.Rejection)
		}
	}
	if e.metrics != nil {
		e.metrics.Balance.Set(report.Account.Balance)
		e.metrics.Equity.Set(report.Account.Equity)
	}
	e.alertDailyBreach(report)
}

// alertDailyBreach 当日熔断同步告警：每个交易日只推送一次。
func (e *Live) alertDailyBreach(report TickReport) {
	limits := e.proc.RiskManager().Limits()
	acct := report.Account
	if acct.RealizedPnLToday > -limits.MaxDailyLossPct/100*acct.Balance {
		return
	}
	day := report.Time.UTC().Format("2006-01-02")
	if e.breachedDay == day {
		return
	}
	e.breachedDay = day
	logger.Warnf("live: daily loss limit reached, no new trades until reset")
	e.send(notifier.FormatDailyLossBreach(acct.RealizedPnLToday, limits.MaxDailyLossPct))
}

func (e *Live) send(text string) {
	if err := e.notify.SendText(text); err != nil {
		logger.Warnf("live: notify failed: %v", err)
	}
}

// UpdateThreshold 同步更新信号阈值（配置热更新，串行于 tick）。
func (e *Live) UpdateThreshold(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.proc.Generator().SetThreshold(v)
}

// UpdateLimits 同步更新风控参数（配置热更新，串行于 tick）。
func (e *Live) UpdateLimits(limits risk.Limits) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.proc.RiskManager().SetLimits(limits)
}
