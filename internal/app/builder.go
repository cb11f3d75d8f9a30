package app

import (
	"time"

	"microscalp/internal/config"
	"microscalp/internal/engine"
	"microscalp/internal/gateway/binance"
	"microscalp/internal/ledger"
	"microscalp/internal/logger"
	"microscalp/internal/metrics"
	"microscalp/internal/notifier"
	"microscalp/internal/risk"
	"microscalp/internal/signal"
	"microscalp/internal/store"
	httpapi "microscalp/internal/transport/http"
)

// build 装配全部运行时组件。显式构造，依赖方向一目了然。
func build(cfg *config.Config) (*App, error) {
	source, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Binance.RESTBaseURL,
		HTTPTimeout:  time.Duration(cfg.Binance.HTTPTimeoutSeconds) * time.Second,
		ProxyEnabled: cfg.Binance.Proxy.Enabled,
		ProxyURL:     cfg.Binance.Proxy.URL,
	})
	if err != nil {
		return nil, err
	}

	var st *store.Store
	var recorder ledger.Recorder
	if cfg.Store.Enabled {
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		recorder = st
		logger.Infof("store: sqlite at %s", cfg.Store.Path)
	}

	book := ledger.New(cfg.Trading.InitialBalance, cfg.Trading.FeeRate, recorder)
	gen := signal.NewGenerator(cfg.Trading.ConfidenceThreshold)
	riskMgr := risk.New(riskLimits(cfg))
	proc := engine.NewProcessor(gen, riskMgr, book)

	var notify notifier.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		logger.Infof("notify: telegram enabled")
	}

	m := metrics.New()
	live := engine.NewLive(engine.LiveConfig{
		Symbols:      cfg.Trading.Symbols,
		Interval:     cfg.Trading.Interval,
		HistoryLimit: cfg.Trading.HistoryLimit,
	}, proc, source, notify, m)
	if st != nil {
		live.SetSignalSink(st)
	}

	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Engine:  live,
		Source:  source,
		Store:   st,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:    cfg,
		live:   live,
		server: server,
		source: source,
		store:  st,
	}, nil
}

func riskLimits(cfg *config.Config) risk.Limits {
	return risk.Limits{
		MaxDailyLossPct:     cfg.Risk.MaxDailyLossPct,
		MaxPositionPct:      cfg.Risk.MaxPositionPct,
		MaxTradesPerDay:     cfg.Risk.MaxTradesPerDay,
		ATRMultiplierSL:     cfg.Risk.ATRMultiplierSL,
		RiskRewardRatio:     cfg.Risk.RiskRewardRatio,
		ConfidenceThreshold: cfg.Trading.ConfidenceThreshold,
	}
}
