package config

import "strings"

// Config 是纸面盘引擎的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Binance  BinanceConfig  `toml:"binance"`
	Trading  TradingConfig  `toml:"trading"`
	Risk     RiskConfig     `toml:"risk"`
	Store    StoreConfig    `toml:"store"`
	Notify   NotifyConfig   `toml:"notify"`
	Backtest BacktestConfig `toml:"backtest"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

type BinanceConfig struct {
	RESTBaseURL        string      `toml:"rest_base_url"`
	HTTPTimeoutSeconds int         `toml:"http_timeout_seconds"`
	Proxy              ProxyConfig `toml:"proxy"`
}

type ProxyConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
}

// TradingConfig 控制标的、周期与纸面账户参数。
type TradingConfig struct {
	Symbols             []string `toml:"symbols"`
	Interval            string   `toml:"interval"`
	HistoryLimit        int      `toml:"history_limit"`
	InitialBalance      float64  `toml:"initial_balance"`
	FeeRate             float64  `toml:"fee_rate"` // 单边费率，0.001 = 0.1%
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
}

// RiskConfig 控制风控阈值与止损/止盈参数。
type RiskConfig struct {
	MaxDailyLossPct float64 `toml:"max_daily_loss_pct"`
	MaxPositionPct  float64 `toml:"max_position_pct"`
	MaxTradesPerDay int     `toml:"max_trades_per_day"`
	ATRMultiplierSL float64 `toml:"atr_multiplier_sl"`
	RiskRewardRatio float64 `toml:"risk_reward_ratio"`
}

type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// BacktestConfig 控制回测数据量与报告输出位置。
type BacktestConfig struct {
	Candles   int    `toml:"candles"`
	ReportDir string `toml:"report_dir"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
