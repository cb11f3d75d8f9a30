package signal

import "time"

// Direction 是信号方向。
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// Factor 记录单个因子的投票、权重与贡献（vote*weight），用于审计与日志。
type Factor struct {
	Name         string  `json:"name"`
	Vote         float64 `json:"vote"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Detail       string  `json:"detail,omitempty"`
}

// Signal 是单个 tick 的交易信号，生成后不可变，由风控消费一次。
type Signal struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Score      float64   `json:"score"`
	Factors    []Factor  `json:"factors"`
	Reason     string    `json:"reason"`
	Time       time.Time `json:"time"`
}
