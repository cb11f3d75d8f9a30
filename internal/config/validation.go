package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Binance.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if err := c.Backtest.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if len(t.Symbols) == 0 {
		return fmt.Errorf("trading.symbols requires at least one symbol")
	}
	for _, sym := range t.Symbols {
		if strings.TrimSpace(sym) == "" {
			return fmt.Errorf("trading.symbols contains an empty symbol")
		}
	}
	if !IsValidInterval(t.Interval) {
		return fmt.Errorf("trading.interval is invalid: %s", t.Interval)
	}
	if t.HistoryLimit < 50 || t.HistoryLimit > 1000 {
		return fmt.Errorf("trading.history_limit must be in [50,1000]")
	}
	if t.InitialBalance <= 0 {
		return fmt.Errorf("trading.initial_balance must be > 0")
	}
	if t.FeeRate < 0 || t.FeeRate >= 0.1 {
		return fmt.Errorf("trading.fee_rate must be in [0, 0.1)")
	}
	if t.ConfidenceThreshold < 0.5 || t.ConfidenceThreshold > 1 {
		return fmt.Errorf("trading.confidence_threshold must be in [0.5, 1]")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.MaxDailyLossPct <= 0 || r.MaxDailyLossPct > 100 {
		return fmt.Errorf("risk.max_daily_loss_pct must be in (0, 100]")
	}
	if r.MaxPositionPct <= 0 || r.MaxPositionPct > 100 {
		return fmt.Errorf("risk.max_position_pct must be in (0, 100]")
	}
	if r.MaxTradesPerDay <= 0 {
		return fmt.Errorf("risk.max_trades_per_day must be > 0")
	}
	if r.ATRMultiplierSL <= 0 {
		return fmt.Errorf("risk.atr_multiplier_sl must be > 0")
	}
	if r.RiskRewardRatio <= 0 {
		return fmt.Errorf("risk.risk_reward_ratio must be > 0")
	}
	return nil
}

func (b *BinanceConfig) validate() error {
	if strings.TrimSpace(b.RESTBaseURL) == "" {
		return fmt.Errorf("binance.rest_base_url cannot be empty")
	}
	if b.Proxy.Enabled && strings.TrimSpace(b.Proxy.URL) == "" {
		return fmt.Errorf("binance proxy enabled but no url configured")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if b.Candles < 60 {
		return fmt.Errorf("backtest.candles must be >= 60")
	}
	return nil
}

// IsValidInterval 简易校验：以数字开头，以 m/h/d/w 结尾
func IsValidInterval(s string) bool {
	if len(s) < 2 {
		return false
	}
	suf := s[len(s)-1]
	if suf != 'm' && suf != 'h' && suf != 'd' && suf != 'w' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
