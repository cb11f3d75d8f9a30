package market

import "context"

// SourceStats 记录数据源请求健康度，供 dashboard 展示。
type SourceStats struct {
	Requests  int    `json:"requests"`
	Errors    int    `json:"errors"`
	LastError string `json:"last_error,omitempty"`
}

// Source 抽象价格/K 线数据源（交易所网关实现）。
type Source interface {
	// FetchKlines 拉取指定 symbol 最近 limit 根已收盘 K 线，最旧在前。
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	Stats() SourceStats

	Close() error
}
