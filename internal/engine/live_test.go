package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microscalp/internal/ledger"
	"microscalp/internal/market"
	"microscalp/internal/signal"
)

type fakeSource struct {
	candles map[string][]market.Candle

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) FetchKlines(_ context.Context, symbol, _ string, _ int) ([]market.Candle, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	candles, ok := f.candles[symbol]
	if !ok {
		return nil, errors.New("upstream unavailable")
	}
	return candles, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) Stats() market.SourceStats { return market.SourceStats{Requests: f.Calls()} }

func (f *fakeSource) Close() error { return nil }

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendText(text string) error {
	f.messages = append(f.messages, text)
	return nil
}

type memorySink struct {
	signals []signal.Signal
}

func (m *memorySink) SaveSignal(sig signal.Signal) error {
	m.signals = append(m.signals, sig)
	return nil
}

func TestRunTickOpensTradeAndNotifies(t *testing.T) {
	candles := zigzagUptrend("BTCUSDT", 60)
	candles[len(candles)-1].Volume = 300

	src := &fakeSource{candles: map[string][]market.Candle{"BTCUSDT": candles}}
	notify := &fakeNotifier{}
	sink := &memorySink{}

	live := NewLive(LiveConfig{Symbols: []string{"BTCUSDT"}, Interval: "5m"}, newTestProcessor(), src, notify, nil)
	live.SetSignalSink(sink)

	require.NoError(t, live.RunTick(context.Background()))

	book := live.Processor().Ledger()
	assert.True(t, book.HasOpen("BTCUSDT"))
	require.NotEmpty(t, notify.messages)
	assert.Contains(t, notify.messages[0], "BTCUSDT")

	// 非 HOLD 信号应被持久化。
	require.Len(t, sink.signals, 1)
	assert.Equal(t, signal.DirectionBuy, sink.signals[0].Direction)
}

func TestRunTickIsolatesFetchFailures(t *testing.T) {
	good := zigzagUptrend("ETHUSDT", 60)
	good[len(good)-1].Volume = 300

	src := &fakeSource{candles: map[string][]market.Candle{"ETHUSDT": good}}
	live := NewLive(LiveConfig{
		Symbols:  []string{"BTCUSDT", "ETHUSDT"},
		Interval: "5m",
	}, newTestProcessor(), src, nil, nil)

	require.NoError(t, live.RunTick(context.Background()))

	// BTCUSDT 拉取失败只跳过本轮，ETHUSDT 正常决策。
	book := live.Processor().Ledger()
	assert.False(t, book.HasOpen("BTCUSDT"))
	assert.True(t, book.HasOpen("ETHUSDT"))
	assert.Equal(t, 2, src.Calls())
}

func TestRunHaltsOnInvariantViolation(t *testing.T) {
	live := NewLive(LiveConfig{Symbols: []string{"BTCUSDT"}, Interval: "5m"}, newTestProcessor(), &fakeSource{}, nil, nil)

	tickErr := &ledger.InvariantError{Reason: "close on non-open trade"}
	var ticks int
	live.tickFn = func(context.Context) error {
		ticks++
		return tickErr
	}

	done := make(chan error, 1)
	go func() { done <- live.Run(context.Background()) }()

	// 不依赖外部取消：tick 出错后 Run 必须自行停止调度并上抛。
	select {
	case err := <-done:
		var inv *ledger.InvariantError
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, tickErr, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not halt after tick error")
	}
	assert.Equal(t, 1, ticks)
}

func TestUpdateThresholdAndLimits(t *testing.T) {
	live := NewLive(LiveConfig{Symbols: []string{"BTCUSDT"}}, newTestProcessor(), &fakeSource{}, nil, nil)

	live.UpdateThreshold(0.8)
	assert.Equal(t, 0.8, live.Processor().Generator().Threshold())

	limits := live.Processor().RiskManager().Limits()
	limits.MaxTradesPerDay = 2
	live.UpdateLimits(limits)
	assert.Equal(t, 2, live.Processor().RiskManager().Limits().MaxTradesPerDay)
}

func TestLiveConfigDefaults(t *testing.T) {
	cfg := LiveConfig{}.withDefaults()
	assert.Equal(t, "5m", cfg.Interval)
	assert.Equal(t, 100, cfg.HistoryLimit)
}
