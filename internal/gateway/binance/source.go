package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"

	"microscalp/internal/market"
)

const maxHistoryLimit = 1000

// Source 基于 go-binance 现货 SDK 实现 market.Source。
// 纸面盘只读行情，不需要 API key。
type Source struct {
	cfg    Config
	client *binance.Client
	nowFn  func() time.Time

	statsMu sync.Mutex
	stats   market.SourceStats
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.ProxyURL != "" {
		proxyURL, err := url.Parse(final.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Source{
		cfg:    final,
		client: client,
		nowFn:  time.Now,
	}, nil
}

// FetchKlines 拉取指定 symbol 的最近 K 线，丢弃尚未收盘的最后一根，
// 保证指标只在已收盘数据上计算。
func (s *Source) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}

	s.recordRequest()
	kls, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit + 1). // 预留一根给未收盘 K 线
		Do(ctx)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			Symbol:    symbol,
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	out = s.dropUnclosed(out)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// dropUnclosed 去掉收盘时间在当前时刻之后的尾部 K 线。
func (s *Source) dropUnclosed(candles []market.Candle) []market.Candle {
	now := s.nowFn().UnixMilli()
	for len(candles) > 0 && candles[len(candles)-1].CloseTime > now {
		candles = candles[:len(candles)-1]
	}
	return candles
}

func (s *Source) Stats() market.SourceStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Source) Close() error { return nil }

func (s *Source) recordRequest() {
	s.statsMu.Lock()
	s.stats.Requests++
	s.statsMu.Unlock()
}

func (s *Source) recordError(err error) {
	s.statsMu.Lock()
	s.stats.Errors++
	s.stats.LastError = err.Error()
	s.statsMu.Unlock()
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
