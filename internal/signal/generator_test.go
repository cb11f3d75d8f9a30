package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"microscalp/internal/indicator"
)

func def(v float64) indicator.Value {
	return indicator.Value{Val: v, Defined: true}
}

func baseSnapshot() indicator.Snapshot {
	return indicator.Snapshot{
		Symbol: "BTCUSDT",
		Time:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Close:  50000,
	}
}

func TestGenerateInsufficientData(t *testing.T) {
	g := NewGenerator(0.6)
	sig := g.Generate(baseSnapshot(), nil)

	assert.Equal(t, DirectionHold, sig.Direction)
	assert.Equal(t, "insufficient data", sig.Reason)
	assert.Empty(t, sig.Factors)
	assert.Zero(t, sig.Confidence)
}

func TestGenerateTrendAlignment(t *testing.T) {
	g := NewGenerator(0.6)

	snap := baseSnapshot()
	snap.SMA10 = def(103)
	snap.SMA20 = def(102)
	snap.SMA50 = def(101)
	sig := g.Generate(snap, nil)
	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.InDelta(t, 1.0, sig.Score, 1e-9)
	assert.InDelta(t, 1.0, sig.Confidence, 1e-9)

	snap.SMA10 = def(101)
	snap.SMA20 = def(102)
	snap.SMA50 = def(103)
	sig = g.Generate(snap, nil)
	assert.Equal(t, DirectionSell, sig.Direction)
	assert.InDelta(t, -1.0, sig.Score, 1e-9)

	// 非严格排列不投票。
	snap.SMA10 = def(102)
	snap.SMA20 = def(103)
	snap.SMA50 = def(101)
	sig = g.Generate(snap, nil)
	assert.Equal(t, DirectionHold, sig.Direction)
	assert.Zero(t, sig.Score)
}

func TestGenerateRSIZones(t *testing.T) {
	g := NewGenerator(0.6)

	snap := baseSnapshot()
	snap.RSI14 = def(25)
	sig := g.Generate(snap, nil)
	assert.Equal(t, DirectionBuy, sig.Direction)

	snap.RSI14 = def(75)
	sig = g.Generate(snap, nil)
	assert.Equal(t, DirectionSell, sig.Direction)

	snap.RSI14 = def(50)
	sig = g.Generate(snap, nil)
	assert.Equal(t, DirectionHold, sig.Direction)
	assert.InDelta(t, 0.5, sig.Confidence, 1e-9)
}

func TestGenerateMACDCrossoverOnly(t *testing.T) {
	g := NewGenerator(0.6)

	cur := baseSnapshot()
	cur.MACD = def(1.0)
	cur.MACDSignal = def(0.5)

	// 没有上一快照就没有交叉可言。
	sig := g.Generate(cur, nil)
	assert.Equal(t, DirectionHold, sig.Direction)
	assert.Zero(t, sig.Score)

	// 上一 tick 在下方、本 tick 穿越到上方才算金叉。
	prev := baseSnapshot()
	prev.MACD = def(0.4)
	prev.MACDSignal = def(0.5)
	sig = g.Generate(cur, &prev)
	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.InDelta(t, 1.0, sig.Score, 1e-9)

	// 持续在上方不再重复投票。
	prev.MACD = def(0.9)
	prev.MACDSignal = def(0.5)
	sig = g.Generate(cur, &prev)
	assert.Zero(t, sig.Score)

	// 死叉方向相反。
	cur.MACD = def(0.3)
	cur.MACDSignal = def(0.5)
	prev.MACD = def(0.6)
	sig = g.Generate(cur, &prev)
	assert.Equal(t, DirectionSell, sig.Direction)
}

func TestGenerateBollingerZones(t *testing.T) {
	g := NewGenerator(0.6)

	snap := baseSnapshot()
	snap.BBPercentB = def(0.05)
	sig := g.Generate(snap, nil)
	assert.Equal(t, DirectionBuy, sig.Direction)

	snap.BBPercentB = def(0.95)
	sig = g.Generate(snap, nil)
	assert.Equal(t, DirectionSell, sig.Direction)

	snap.BBPercentB = def(0.5)
	sig = g.Generate(snap, nil)
	assert.Zero(t, sig.Score)
}

func TestGenerateStochasticZones(t *testing.T) {
	g := NewGenerator(0.6)

	snap := baseSnapshot()
	snap.StochK = def(15)
	sig := g.Generate(snap, nil)
	assert.Equal(t, DirectionBuy, sig.Direction)

	snap.StochK = def(85)
	sig = g.Generate(snap, nil)
	assert.Equal(t, DirectionSell, sig.Direction)
}

func TestGenerateVolumeFollowsTrendOnly(t *testing.T) {
	g := NewGenerator(0.6)

	// 有多头趋势时放量加分。
	snap := baseSnapshot()
	snap.SMA10 = def(103)
	snap.SMA20 = def(102)
	snap.SMA50 = def(101)
	snap.VolumeRatio = def(3.0)
	sig := g.Generate(snap, nil)
	vol := findFactor(t, sig.Factors, "volume")
	assert.Equal(t, 1.0, vol.Vote)

	// 没有趋势方向时放量不投票。
	snap.SMA10 = def(102)
	snap.SMA20 = def(103)
	snap.SMA50 = def(101)
	sig = g.Generate(snap, nil)
	vol = findFactor(t, sig.Factors, "volume")
	assert.Zero(t, vol.Vote)

	// 未放量时也不投票。
	snap.SMA10 = def(103)
	snap.SMA20 = def(102)
	snap.VolumeRatio = def(1.2)
	sig = g.Generate(snap, nil)
	vol = findFactor(t, sig.Factors, "volume")
	assert.Zero(t, vol.Vote)
}

func TestGenerateEMACross(t *testing.T) {
	g := NewGenerator(0.6)

	snap := baseSnapshot()
	snap.EMA12 = def(101)
	snap.EMA26 = def(100)
	sig := g.Generate(snap, nil)
	ema := findFactor(t, sig.Factors, "ema_cross")
	assert.Equal(t, 1.0, ema.Vote)
	assert.Equal(t, 1.0, ema.Contribution)

	snap.EMA12 = def(99)
	sig = g.Generate(snap, nil)
	ema = findFactor(t, sig.Factors, "ema_cross")
	assert.Equal(t, -1.0, ema.Vote)
}

func TestGenerateUndefinedFactorsExcludedFromWeights(t *testing.T) {
	g := NewGenerator(0.6)

	// 趋势 +1（权重 2）与中性 RSI（权重 2）：score = 2/4。
	snap := baseSnapshot()
	snap.SMA10 = def(103)
	snap.SMA20 = def(102)
	snap.SMA50 = def(101)
	snap.RSI14 = def(50)
	sig := g.Generate(snap, nil)

	assert.Len(t, sig.Factors, 2)
	assert.InDelta(t, 0.5, sig.Score, 1e-9)
	assert.InDelta(t, 0.75, sig.Confidence, 1e-9)
	assert.Equal(t, DirectionBuy, sig.Direction)
}

func TestGenerateMixedIndicatorsBelowThreshold(t *testing.T) {
	g := NewGenerator(0.6)

	// 趋势 +1（2）对 RSI -1（2）：score 0 -> HOLD。
	snap := baseSnapshot()
	snap.SMA10 = def(103)
	snap.SMA20 = def(102)
	snap.SMA50 = def(101)
	snap.RSI14 = def(80)
	sig := g.Generate(snap, nil)

	assert.Equal(t, DirectionHold, sig.Direction)
	assert.Equal(t, "no clear signal - mixed indicators", sig.Reason)
	assert.InDelta(t, 0.5, sig.Confidence, 1e-9)
}

func TestGenerateConfidenceBounds(t *testing.T) {
	g := NewGenerator(0.6)
	snap := baseSnapshot()
	snap.RSI14 = def(25)
	snap.StochK = def(85)
	snap.EMA12 = def(100)
	snap.EMA26 = def(100)

	sig := g.Generate(snap, nil)
	assert.GreaterOrEqual(t, sig.Confidence, 0.5)
	assert.LessOrEqual(t, sig.Confidence, 1.0)
	assert.InDelta(t, 0.5+0.5*abs(sig.Score), sig.Confidence, 1e-9)
}

func TestGenerateReasonNamesAlignedFactors(t *testing.T) {
	g := NewGenerator(0.6)
	snap := baseSnapshot()
	snap.SMA10 = def(103)
	snap.SMA20 = def(102)
	snap.SMA50 = def(101)

	sig := g.Generate(snap, nil)
	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.Contains(t, sig.Reason, "uptrend")
}

func TestSetThreshold(t *testing.T) {
	g := NewGenerator(0.6)
	g.SetThreshold(0.75)
	assert.Equal(t, 0.75, g.Threshold())

	g.SetThreshold(0)
	assert.Equal(t, 0.75, g.Threshold())

	// 非法初值回退到默认 0.6。
	assert.Equal(t, 0.6, NewGenerator(-1).Threshold())
}

func findFactor(t *testing.T, factors []Factor, name string) Factor {
	t.Helper()
	for _, f := range factors {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("factor %q not found", name)
	return Factor{}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
