package signal

import (
	"fmt"
	"math"
	"strings"

	"microscalp/internal/indicator"
)

// 因子固定权重，全部因子可用时总权重为 11。
const (
	weightTrend    = 2.0
	weightRSI      = 2.0
	weightMACD     = 2.0
	weightBB       = 1.5
	weightVolume   = 1.5
	weightStoch    = 1.0
	weightEMACross = 1.0
)

const (
	rsiOversold      = 30.0
	rsiOverbought    = 70.0
	bbLowerZone      = 0.1
	bbUpperZone      = 0.9
	stochOversold    = 20.0
	stochOverbought  = 80.0
	volumeSpikeRatio = 2.0
)

// Generator 把指标快照融合为带置信度的方向信号。
// 置信度映射采用连续单调函数 0.5 + 0.5*|score|，得分归一化后
// 落在 [0.5,1.0]，与开仓阈值（默认 0.6）对应 |score|>=0.2。
type Generator struct {
	threshold float64
}

func NewGenerator(confidenceThreshold float64) *Generator {
	if confidenceThreshold <= 0 {
		confidenceThreshold = 0.6
	}
	return &Generator{threshold: confidenceThreshold}
}

// Threshold 返回当前开仓置信度阈值。
func (g *Generator) Threshold() float64 { return g.threshold }

// SetThreshold 用于配置热更新，只能在两个 tick 之间调用。
func (g *Generator) SetThreshold(v float64) {
	if v > 0 {
		g.threshold = v
	}
}

// Generate 依据当前快照（及上一 tick 快照，用于金叉/死叉判定）产出信号。
// 未定义的因子不参与打分：既不投票，也不计入归一化权重。
func (g *Generator) Generate(cur indicator.Snapshot, prev *indicator.Snapshot) Signal {
	sig := Signal{
		Symbol:    cur.Symbol,
		Direction: DirectionHold,
		Time:      cur.Time,
	}

	trendVote := 0.0
	var factors []Factor

	// 趋势：sma10 > sma20 > sma50 为多头排列，反之为空头排列。
	if cur.SMA10.Defined && cur.SMA20.Defined && cur.SMA50.Defined {
		detail := "sma alignment neutral"
		switch {
		case cur.SMA10.Val > cur.SMA20.Val && cur.SMA20.Val > cur.SMA50.Val:
			trendVote = 1
			detail = "uptrend confirmed"
		case cur.SMA10.Val < cur.SMA20.Val && cur.SMA20.Val < cur.SMA50.Val:
			trendVote = -1
			detail = "downtrend confirmed"
		}
		factors = append(factors, newFactor("trend", trendVote, weightTrend, detail))
	}

	if cur.RSI14.Defined {
		vote := 0.0
		detail := fmt.Sprintf("RSI neutral (%.1f)", cur.RSI14.Val)
		switch {
		case cur.RSI14.Val < rsiOversold:
			vote = 1
			detail = fmt.Sprintf("RSI oversold (%.1f)", cur.RSI14.Val)
		case cur.RSI14.Val > rsiOverbought:
			vote = -1
			detail = fmt.Sprintf("RSI overbought (%.1f)", cur.RSI14.Val)
		}
		factors = append(factors, newFactor("rsi", vote, weightRSI, detail))
	}

	// MACD 只认本 tick 发生的交叉，而不是持续在上/在下的状态。
	if cur.MACD.Defined && cur.MACDSignal.Defined {
		vote := 0.0
		detail := "no MACD cross"
		if prev != nil && prev.MACD.Defined && prev.MACDSignal.Defined {
			crossedUp := prev.MACD.Val <= prev.MACDSignal.Val && cur.MACD.Val > cur.MACDSignal.Val
			crossedDown := prev.MACD.Val >= prev.MACDSignal.Val && cur.MACD.Val < cur.MACDSignal.Val
			switch {
			case crossedUp:
				vote = 1
				detail = "MACD bullish crossover"
			case crossedDown:
				vote = -1
				detail = "MACD bearish crossover"
			}
		}
		factors = append(factors, newFactor("macd", vote, weightMACD, detail))
	}

	if cur.BBPercentB.Defined {
		vote := 0.0
		detail := fmt.Sprintf("%%B mid-band (%.2f)", cur.BBPercentB.Val)
		switch {
		case cur.BBPercentB.Val < bbLowerZone:
			vote = 1
			detail = "price near lower BB"
		case cur.BBPercentB.Val > bbUpperZone:
			vote = -1
			detail = "price near upper BB"
		}
		factors = append(factors, newFactor("bollinger", vote, weightBB, detail))
	}

	// 放量只在有趋势方向时才有意义：跟随趋势投票。
	if cur.VolumeRatio.Defined {
		vote := 0.0
		detail := fmt.Sprintf("volume ratio %.2f", cur.VolumeRatio.Val)
		if cur.VolumeRatio.Val > volumeSpikeRatio && trendVote != 0 {
			vote = trendVote
			detail = fmt.Sprintf("volume spike %.1fx with trend", cur.VolumeRatio.Val)
		}
		factors = append(factors, newFactor("volume", vote, weightVolume, detail))
	}

	if cur.StochK.Defined {
		vote := 0.0
		detail := fmt.Sprintf("stoch %%K %.1f", cur.StochK.Val)
		switch {
		case cur.StochK.Val < stochOversold:
			vote = 1
			detail = "stochastic oversold"
		case cur.StochK.Val > stochOverbought:
			vote = -1
			detail = "stochastic overbought"
		}
		factors = append(factors, newFactor("stochastic", vote, weightStoch, detail))
	}

	if cur.EMA12.Defined && cur.EMA26.Defined {
		vote := sign(cur.EMA12.Val - cur.EMA26.Val)
		detail := "ema12 below ema26"
		if vote > 0 {
			detail = "ema12 above ema26"
		} else if vote == 0 {
			detail = "ema12 equals ema26"
		}
		factors = append(factors, newFactor("ema_cross", vote, weightEMACross, detail))
	}

	sig.Factors = factors
	if len(factors) == 0 {
		sig.Reason = "insufficient data"
		return sig
	}

	var weighted, totalWeight float64
	for _, f := range factors {
		weighted += f.Contribution
		totalWeight += f.Weight
	}
	score := weighted / totalWeight
	sig.Score = score
	sig.Confidence = 0.5 + 0.5*math.Abs(score)

	switch {
	case score > 0 && sig.Confidence >= g.threshold:
		sig.Direction = DirectionBuy
		sig.Reason = topReasons(factors, +1)
	case score < 0 && sig.Confidence >= g.threshold:
		sig.Direction = DirectionSell
		sig.Reason = topReasons(factors, -1)
	default:
		sig.Reason = "no clear signal - mixed indicators"
	}
	return sig
}

func newFactor(name string, vote, weight float64, detail string) Factor {
	return Factor{
		Name:         name,
		Vote:         vote,
		Weight:       weight,
		Contribution: vote * weight,
		Detail:       detail,
	}
}

// topReasons 取贡献最大的同向因子说明，最多三条。
func topReasons(factors []Factor, dir float64) string {
	var parts []string
	for _, f := range factors {
		if f.Vote*dir > 0 {
			parts = append(parts, f.Detail)
		}
		if len(parts) == 3 {
			break
		}
	}
	if len(parts) == 0 {
		return "multiple aligned indicators"
	}
	return strings.Join(parts, " | ")
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
