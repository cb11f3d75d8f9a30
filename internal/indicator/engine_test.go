package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"microscalp/internal/market"
)

func makeCandles(closes []float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Symbol:    "BTCUSDT",
			OpenTime:  int64(i) * 300_000,
			CloseTime: int64(i+1)*300_000 - 1,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return out
}

func linearCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestComputeEmptyInput(t *testing.T) {
	snap := Compute(nil)
	assert.False(t, snap.SMA10.Defined)
	assert.False(t, snap.RSI14.Defined)
	assert.Zero(t, snap.Close)
}

func TestComputeShortHistoryLeavesValuesUndefined(t *testing.T) {
	snap := Compute(makeCandles(linearCloses(5)))

	assert.Equal(t, 5.0, snap.Close)
	assert.False(t, snap.SMA10.Defined)
	assert.False(t, snap.SMA20.Defined)
	assert.False(t, snap.SMA50.Defined)
	assert.False(t, snap.RSI14.Defined)
	assert.False(t, snap.MACD.Defined)
	assert.False(t, snap.BBPercentB.Defined)
	assert.False(t, snap.StochK.Defined)
	assert.False(t, snap.ATR14.Defined)
	assert.False(t, snap.VolumeRatio.Defined)
}

func TestComputeSMAValues(t *testing.T) {
	snap := Compute(makeCandles(linearCloses(50)))

	assert.True(t, snap.SMA10.Defined)
	assert.InDelta(t, 45.5, snap.SMA10.Val, 1e-9) // mean of 41..50
	assert.True(t, snap.SMA20.Defined)
	assert.InDelta(t, 40.5, snap.SMA20.Val, 1e-9)
	assert.True(t, snap.SMA50.Defined)
	assert.InDelta(t, 25.5, snap.SMA50.Val, 1e-9)
}

func TestComputeMonotoneUptrend(t *testing.T) {
	snap := Compute(makeCandles(linearCloses(RequiredCandles)))

	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.True(t, snap.SMA10.Val > snap.SMA20.Val)
	assert.True(t, snap.SMA20.Val > snap.SMA50.Val)
	assert.True(t, snap.EMA12.Val > snap.EMA26.Val)

	// 只涨不跌的序列 RSI 应为 100。
	assert.True(t, snap.RSI14.Defined)
	assert.InDelta(t, 100.0, snap.RSI14.Val, 1e-6)

	assert.True(t, snap.MACD.Defined)
	assert.True(t, snap.MACDSignal.Defined)
	assert.True(t, snap.StochK.Defined)
	assert.True(t, snap.ATR14.Defined)
	assert.True(t, snap.ATR14.Val > 0)
}

func TestComputeMACDRequiresFullLookback(t *testing.T) {
	short := Compute(makeCandles(linearCloses(33)))
	assert.False(t, short.MACD.Defined)

	enough := Compute(makeCandles(linearCloses(34)))
	assert.True(t, enough.MACD.Defined)
	assert.True(t, enough.MACDSignal.Defined)
	assert.True(t, enough.MACDHist.Defined)
}

func TestComputeRSIWithinBounds(t *testing.T) {
	closes := make([]float64, 40)
	price := 100.0
	for i := range closes {
		if i%2 == 0 {
			price += 1.5
		} else {
			price -= 1.0
		}
		closes[i] = price
	}
	snap := Compute(makeCandles(closes))
	assert.True(t, snap.RSI14.Defined)
	assert.GreaterOrEqual(t, snap.RSI14.Val, 0.0)
	assert.LessOrEqual(t, snap.RSI14.Val, 100.0)
}

func TestComputeVolumeRatio(t *testing.T) {
	candles := makeCandles(linearCloses(30))
	candles[len(candles)-1].Volume = 300

	snap := Compute(candles)
	assert.True(t, snap.VolumeRatio.Defined)
	// 前 19 根均量 100，最后一根 300。
	assert.InDelta(t, 3.0, snap.VolumeRatio.Val, 1e-9)
}

func TestComputeBollingerPercentB(t *testing.T) {
	closes := linearCloses(20)
	snap := Compute(makeCandles(closes))

	assert.True(t, snap.BBUpper.Defined)
	assert.True(t, snap.BBLower.Defined)
	assert.True(t, snap.BBPercentB.Defined)
	// 持续上行的序列，最新收盘应贴近上轨。
	assert.Greater(t, snap.BBPercentB.Val, 0.5)

	want := (closes[len(closes)-1] - snap.BBLower.Val) / (snap.BBUpper.Val - snap.BBLower.Val)
	assert.InDelta(t, want, snap.BBPercentB.Val, 1e-9)
}

func TestComputeFlatSeriesSkipsPercentB(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	candles := makeCandles(closes)
	for i := range candles {
		candles[i].High = 100
		candles[i].Low = 100
	}
	snap := Compute(candles)

	assert.True(t, snap.BBUpper.Defined)
	// 上下轨重合时 %B 无定义。
	assert.False(t, snap.BBPercentB.Defined)
}
