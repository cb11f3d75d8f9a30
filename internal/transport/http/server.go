// Package httpapi 提供只读 dashboard 接口与 Prometheus 指标端点。
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"microscalp/internal/engine"
	"microscalp/internal/logger"
	"microscalp/internal/market"
	"microscalp/internal/metrics"
	"microscalp/internal/store"
)

// Server 提供最小化的 /api HTTP 服务（状态查询 + 指标导出）。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 HTTP 服务依赖。Store 可为 nil（未启用持久化时
// /api/signals 返回空列表）。
type ServerConfig struct {
	Addr    string
	Engine  *engine.Live
	Source  market.Source
	Store   *store.Store
	Metrics *metrics.Metrics
}

// NewServer 构建 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("http server requires engine")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/status", statusHandler(cfg.Engine, cfg.Source))
	api.GET("/trades", tradesHandler(cfg.Engine, cfg.Store))
	api.GET("/signals", signalsHandler(cfg.Store))

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

func statusHandler(eng *engine.Live, source market.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		book := eng.Processor().Ledger()
		now := time.Now().UTC()
		resp := gin.H{
			"account":     book.Account(),
			"performance": book.Performance(now),
			"open_trades": book.OpenTrades(),
			"time":        now,
		}
		if source != nil {
			resp["source"] = source.Stats()
		}
		c.JSON(http.StatusOK, resp)
	}
}

func tradesHandler(eng *engine.Live, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 100)
		// 优先读库（含历史进程的交易）；未启用持久化时退回内存账本。
		if st != nil {
			trades, err := st.ListTrades(limit)
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"trades": trades})
				return
			}
			logger.Warnf("http: list trades from store failed: %v", err)
		}
		trades := eng.Processor().Ledger().AllTrades()
		if len(trades) > limit {
			trades = trades[len(trades)-limit:]
		}
		c.JSON(http.StatusOK, gin.H{"trades": trades})
	}
}

func signalsHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusOK, gin.H{"signals": []any{}})
			return
		}
		limit := queryInt(c, "limit", 100)
		signals, err := st.ListSignals(c.Query("symbol"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"signals": signals})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// requestLogger 记录接口调用，便于追踪刷新与人工操作。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// Handler 返回底层路由（测试用）。
func (s *Server) Handler() http.Handler {
	if s == nil {
		return nil
	}
	return s.router
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
