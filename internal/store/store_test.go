package store

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microscalp/internal/ledger"
	"microscalp/internal/signal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTrade() ledger.Trade {
	return ledger.Trade{
		ID:         1,
		Symbol:     "BTCUSDT",
		Side:       ledger.SideBuy,
		EntryPrice: 50000,
		Quantity:   0.01,
		StopLoss:   49000,
		TakeProfit: 52000,
		EntryTime:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Status:     ledger.StatusOpen,
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}

func TestTradeLifecycleRoundtrip(t *testing.T) {
	s := newTestStore(t)

	tr := sampleTrade()
	require.NoError(t, s.TradeOpened(tr))

	trades, err := s.ListTrades(10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.StatusOpen, trades[0].Status)
	assert.Equal(t, tr.EntryPrice, trades[0].EntryPrice)
	assert.True(t, trades[0].ExitTime.IsZero())

	// 平仓覆盖同一条记录，而不是新增。
	tr.Status = ledger.StatusClosed
	tr.ExitPrice = 52000
	tr.ExitTime = tr.EntryTime.Add(time.Hour)
	tr.ExitReason = ledger.ExitTakeProfit
	tr.ProfitLoss = 18.98
	tr.FeePaid = 1.02
	require.NoError(t, s.TradeClosed(tr))

	trades, err = s.ListTrades(10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.StatusClosed, trades[0].Status)
	assert.Equal(t, ledger.ExitTakeProfit, trades[0].ExitReason)
	assert.InDelta(t, 18.98, trades[0].ProfitLoss, 1e-9)
	assert.Equal(t, tr.ExitTime.UnixMilli(), trades[0].ExitTime.UnixMilli())
}

func TestListTradesOrderedByEntryTimeDesc(t *testing.T) {
	s := newTestStore(t)

	older := sampleTrade()
	newer := sampleTrade()
	newer.ID = 2
	newer.EntryTime = older.EntryTime.Add(time.Hour)
	require.NoError(t, s.TradeOpened(older))
	require.NoError(t, s.TradeOpened(newer))

	trades, err := s.ListTrades(10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, int64(2), trades[0].ID)
	assert.Equal(t, int64(1), trades[1].ID)
}

func TestSaveAndListSignals(t *testing.T) {
	s := newTestStore(t)

	sig := signal.Signal{
		Symbol:     "BTCUSDT",
		Direction:  signal.DirectionBuy,
		Confidence: 0.72,
		Score:      0.44,
		Reason:     "uptrend confirmed",
		Factors: []signal.Factor{
			{Name: "trend", Vote: 1, Weight: 2, Contribution: 2},
		},
		Time: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveSignal(sig))

	other := sig
	other.Symbol = "ETHUSDT"
	other.Direction = signal.DirectionSell
	require.NoError(t, s.SaveSignal(other))

	all, err := s.ListSignals("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	btc, err := s.ListSignals("btcusdt", 10)
	require.NoError(t, err)
	require.Len(t, btc, 1)
	assert.Equal(t, signal.DirectionBuy, btc[0].Direction)
	assert.InDelta(t, 0.72, btc[0].Confidence, 1e-9)
	require.Len(t, btc[0].Factors, 1)
	assert.Equal(t, "trend", btc[0].Factors[0].Name)
}

func TestPerformanceSanitizesNonFiniteValues(t *testing.T) {
	s := newTestStore(t)

	snap := ledger.PerformanceSnapshot{
		Timestamp:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Balance:      10020,
		Equity:       10020,
		WinRate:      100,
		ProfitFactor: math.Inf(1),
		SharpeRatio:  math.NaN(),
		TotalTrades:  1,
	}
	require.NoError(t, s.PerformanceRecorded(snap))

	list, err := s.ListPerformance(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].ProfitFactor)
	assert.Zero(t, list[0].SharpeRatio)
	assert.Equal(t, 100.0, list[0].WinRate)
	assert.Equal(t, snap.Timestamp.UnixMilli(), list[0].Timestamp.UnixMilli())
}
