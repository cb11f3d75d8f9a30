package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"microscalp/internal/app"
	"microscalp/internal/config"
	"microscalp/internal/logger"
)

func main() {
	defaultCfg := os.Getenv("MICROSCALP_CONFIG")
	if defaultCfg == "" {
		defaultCfg = "configs/config.yaml"
	}
	var (
		cfgPath     = flag.String("config", defaultCfg, "配置文件路径")
		backtestRun = flag.Bool("backtest", false, "回测模式：重放历史 K 线后退出")
		symbol      = flag.String("symbol", "", "回测 symbol，默认取配置中的第一个")
		candles     = flag.Int("candles", 0, "回测 K 线根数，默认取配置")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，symbols=%v）", cfg.App.Env, cfg.Trading.Symbols)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *backtestRun {
		if err := app.RunBacktest(ctx, cfg, app.BacktestOptions{
			Symbol:  *symbol,
			Candles: *candles,
		}); err != nil {
			log.Fatalf("回测失败: %v", err)
		}
		return
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	if err := a.WatchConfig(*cfgPath); err != nil {
		logger.Warnf("配置热更新不可用: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
