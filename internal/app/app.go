// Package app 负责应用级编排：加载配置、初始化依赖、启动引擎与 HTTP 服务。
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"microscalp/internal/config"
	"microscalp/internal/engine"
	"microscalp/internal/logger"
	"microscalp/internal/market"
	"microscalp/internal/store"
	httpapi "microscalp/internal/transport/http"
)

// App 持有已装配的运行时组件。
type App struct {
	cfg     *config.Config
	live    *engine.Live
	server  *httpapi.Server
	source  market.Source
	store   *store.Store
	watcher *config.Watcher
}

// New 根据配置构建应用对象（不启动）。
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// Run 启动实时引擎与 HTTP 服务，任一出错即整体退出。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.InfoBlock(fmt.Sprintf(
		"microscalp live\nsymbols=%v interval=%s\nbalance=%.2f http=%s",
		a.cfg.Trading.Symbols, a.cfg.Trading.Interval,
		a.cfg.Trading.InitialBalance, a.cfg.App.HTTPAddr))

	group, ctx := errgroup.WithContext(ctx)

	if a.server != nil {
		group.Go(func() error {
			if err := a.server.Start(ctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		defer a.Close()
		return a.live.Run(ctx)
	})

	return group.Wait()
}

// Close 释放外部资源，幂等。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.source != nil {
		_ = a.source.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// WatchConfig 启用配置热更新：信号阈值、风控参数与日志级别随文件变更
// 实时生效，其余字段需要重启。
func (a *App) WatchConfig(path string) error {
	w, err := config.NewWatcher(path)
	if err != nil {
		return err
	}
	w.Subscribe(func(cfg *config.Config) {
		logger.SetLevel(cfg.App.LogLevel)
		a.live.UpdateThreshold(cfg.Trading.ConfidenceThreshold)
		a.live.UpdateLimits(riskLimits(cfg))
		logger.Infof("config applied: threshold=%.2f max_daily_loss=%.1f%%",
			cfg.Trading.ConfidenceThreshold, cfg.Risk.MaxDailyLossPct)
	})
	a.watcher = w
	return nil
}

// Live exposes the underlying engine (for testing/replay harnesses).
func (a *App) Live() *engine.Live {
	if a == nil {
		return nil
	}
	return a.live
}
