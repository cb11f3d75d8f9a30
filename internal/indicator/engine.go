package indicator

import (
	"time"

	"github.com/markcheno/go-talib"

	"microscalp/internal/market"
)

// 指标窗口参数。与信号层的因子规则一一对应，不做运行期配置。
const (
	smaFast  = 10
	smaMid   = 20
	smaSlow  = 50
	emaFast  = 12
	emaSlow  = 26
	rsiPer   = 14
	macdFast = 12
	macdSlow = 26
	macdSig  = 9
	bbPer    = 20
	bbDev    = 2.0
	stochK   = 14
	stochD   = 3
	atrPer   = 14
	volPer   = 20
)

// RequiredCandles 是计算全部指标所需的最小 K 线数（受 sma50 约束）。
const RequiredCandles = 50

// Value 表示一个指标值；回看窗口未满时 Defined=false，信号层必须把
// 未定义因子按零权重剔除，而不是按零值参与打分。
type Value struct {
	Val     float64
	Defined bool
}

func defined(v float64) Value { return Value{Val: v, Defined: true} }

// VolumeProfile 是窗口内按价格分桶的成交量分布摘要。
type VolumeProfile struct {
	PointOfControl Value
	ValueAreaHigh  Value
	ValueAreaLow   Value
}

// Snapshot 是某个 tick 的全量指标快照，每个 tick 由尾部窗口重算，
// 不独立持久化。
type Snapshot struct {
	Symbol string
	Time   time.Time
	Close  float64

	SMA10 Value
	SMA20 Value
	SMA50 Value
	EMA12 Value
	EMA26 Value

	RSI14 Value

	MACD       Value
	MACDSignal Value
	MACDHist   Value

	BBUpper    Value
	BBMid      Value
	BBLower    Value
	BBPercentB Value

	StochK Value
	StochD Value

	ATR14 Value

	VolumeRatio Value
	Profile     VolumeProfile
}

// Compute 基于最近窗口（最旧在前）计算最新一个点的指标快照。
// 历史不足的指标返回未定义，从不报错。
func Compute(candles []market.Candle) Snapshot {
	snap := Snapshot{}
	if len(candles) == 0 {
		return snap
	}
	last := candles[len(candles)-1]
	snap.Symbol = last.Symbol
	snap.Time = last.CloseAt()
	snap.Close = last.Close

	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)
	volumes := market.Volumes(candles)
	n := len(closes)

	if n >= smaFast {
		snap.SMA10 = defined(lastOf(talib.Sma(closes, smaFast)))
	}
	if n >= smaMid {
		snap.SMA20 = defined(lastOf(talib.Sma(closes, smaMid)))
	}
	if n >= smaSlow {
		snap.SMA50 = defined(lastOf(talib.Sma(closes, smaSlow)))
	}
	if n >= emaFast {
		snap.EMA12 = defined(lastOf(talib.Ema(closes, emaFast)))
	}
	if n >= emaSlow {
		snap.EMA26 = defined(lastOf(talib.Ema(closes, emaSlow)))
	}

	if n >= rsiPer+1 {
		rsi := lastOf(talib.Rsi(closes, rsiPer))
		// Wilder 平滑下理论上已在 [0,100]，夹一下防浮点越界。
		snap.RSI14 = defined(clamp(rsi, 0, 100))
	}

	// MACD(12,26,9) 的完整回看 = 慢线 26 + 信号线 9 - 1。
	if n >= macdSlow+macdSig-1 {
		macd, sig, hist := talib.Macd(closes, macdFast, macdSlow, macdSig)
		snap.MACD = defined(lastOf(macd))
		snap.MACDSignal = defined(lastOf(sig))
		snap.MACDHist = defined(lastOf(hist))
	}

	if n >= bbPer {
		upper, mid, lower := talib.BBands(closes, bbPer, bbDev, bbDev, talib.SMA)
		u, m, l := lastOf(upper), lastOf(mid), lastOf(lower)
		snap.BBUpper = defined(u)
		snap.BBMid = defined(m)
		snap.BBLower = defined(l)
		if u != l {
			snap.BBPercentB = defined((last.Close - l) / (u - l))
		}
	}

	if n >= stochK+stochD-1 {
		k, d := talib.StochF(highs, lows, closes, stochK, stochD, talib.SMA)
		snap.StochK = defined(lastOf(k))
		snap.StochD = defined(lastOf(d))
	}

	if n >= atrPer+1 {
		snap.ATR14 = defined(lastOf(talib.Atr(highs, lows, closes, atrPer)))
	}

	if n >= volPer {
		// 当前量相对此前 19 根均量的倍数。
		prev := volumes[n-volPer : n-1]
		var sum float64
		for _, v := range prev {
			sum += v
		}
		avg := sum / float64(len(prev))
		if avg > 0 {
			snap.VolumeRatio = defined(volumes[n-1] / avg)
		}
	}

	if n >= volPer {
		snap.Profile = computeVolumeProfile(closes, volumes)
	}

	return snap
}

func lastOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
