package config

import "strings"

// 默认值常量
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9980"
	defaultAppLogPath  = "data/logs/microscalp.log"

	defaultBinanceREST    = "https://api.binance.com"
	defaultBinanceTimeout = 15

	defaultTradingInterval     = "5m"
	defaultTradingHistory      = 100
	defaultTradingBalance      = 10000
	defaultTradingFeeRate      = 0.001
	defaultTradingConfidence   = 0.6
	defaultRiskMaxDailyLossPct = 3
	defaultRiskMaxPositionPct  = 5
	defaultRiskMaxTradesPerDay = 10
	defaultRiskATRMultiplier   = 2.0
	defaultRiskRewardRatio     = 2.0

	defaultStorePath         = "data/db/microscalp.db"
	defaultBacktestCandles   = 500
	defaultBacktestReportDir = "data/backtest"
)

var defaultTradingSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Binance.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (b *BinanceConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("binance.rest_base_url", &b.RESTBaseURL, defaultBinanceREST),
		fieldDefault{
			key:   "binance.http_timeout_seconds",
			need:  func() bool { return b.HTTPTimeoutSeconds <= 0 },
			apply: func() { b.HTTPTimeoutSeconds = defaultBinanceTimeout },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.symbols",
			need:  func() bool { return len(t.Symbols) == 0 },
			apply: func() { t.Symbols = append([]string(nil), defaultTradingSymbols...) },
		},
		stringFieldDefault("trading.interval", &t.Interval, defaultTradingInterval),
		fieldDefault{
			key:   "trading.history_limit",
			need:  func() bool { return t.HistoryLimit <= 0 },
			apply: func() { t.HistoryLimit = defaultTradingHistory },
		},
		fieldDefault{
			key:   "trading.initial_balance",
			need:  func() bool { return t.InitialBalance <= 0 },
			apply: func() { t.InitialBalance = defaultTradingBalance },
		},
		fieldDefault{
			key:   "trading.fee_rate",
			need:  func() bool { return t.FeeRate <= 0 },
			apply: func() { t.FeeRate = defaultTradingFeeRate },
		},
		fieldDefault{
			key:   "trading.confidence_threshold",
			need:  func() bool { return t.ConfidenceThreshold <= 0 },
			apply: func() { t.ConfidenceThreshold = defaultTradingConfidence },
		},
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "risk.max_daily_loss_pct",
			need:  func() bool { return r.MaxDailyLossPct <= 0 },
			apply: func() { r.MaxDailyLossPct = defaultRiskMaxDailyLossPct },
		},
		fieldDefault{
			key:   "risk.max_position_pct",
			need:  func() bool { return r.MaxPositionPct <= 0 },
			apply: func() { r.MaxPositionPct = defaultRiskMaxPositionPct },
		},
		fieldDefault{
			key:   "risk.max_trades_per_day",
			need:  func() bool { return r.MaxTradesPerDay <= 0 },
			apply: func() { r.MaxTradesPerDay = defaultRiskMaxTradesPerDay },
		},
		fieldDefault{
			key:   "risk.atr_multiplier_sl",
			need:  func() bool { return r.ATRMultiplierSL <= 0 },
			apply: func() { r.ATRMultiplierSL = defaultRiskATRMultiplier },
		},
		fieldDefault{
			key:   "risk.risk_reward_ratio",
			need:  func() bool { return r.RiskRewardRatio <= 0 },
			apply: func() { r.RiskRewardRatio = defaultRiskRewardRatio },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "backtest.candles",
			need:  func() bool { return b.Candles <= 0 },
			apply: func() { b.Candles = defaultBacktestCandles },
		},
		stringFieldDefault("backtest.report_dir", &b.ReportDir, defaultBacktestReportDir),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
