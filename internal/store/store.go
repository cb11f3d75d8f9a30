// Package store 负责把交易、信号与绩效快照落盘到 SQLite。
package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"microscalp/internal/ledger"
	"microscalp/internal/signal"
)

// Store implements ledger.Recorder backed by Gorm + SQLite.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&tradeModel{}, &performanceModel{}, &signalModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ ledger.Recorder = (*Store)(nil)

// TradeOpened 插入 OPEN 状态的交易记录。
func (s *Store) TradeOpened(t ledger.Trade) error {
	if s == nil || s.db == nil {
		return nil
	}
	m := newTradeModel(t)
	return s.db.Create(&m).Error
}

// TradeClosed 用平仓结果覆盖同 ID 的记录。
func (s *Store) TradeClosed(t ledger.Trade) error {
	if s == nil || s.db == nil {
		return nil
	}
	m := newTradeModel(t)
	return s.db.Save(&m).Error
}

// PerformanceRecorded 追加一条绩效快照。
func (s *Store) PerformanceRecorded(p ledger.PerformanceSnapshot) error {
	if s == nil || s.db == nil {
		return nil
	}
	m := performanceModel{
		Timestamp:      p.Timestamp.UnixMilli(),
		Balance:        p.Balance,
		Equity:         p.Equity,
		WinRate:        p.WinRate,
		TotalPnL:       p.TotalPnL,
		TotalReturnPct: p.TotalReturnPct,
		MaxDrawdownPct: p.MaxDrawdownPct,
		ProfitFactor:   sanitizeFloat(p.ProfitFactor),
		SharpeRatio:    sanitizeFloat(p.SharpeRatio),
		TotalFees:      p.TotalFees,
		OpenTrades:     p.OpenTrades,
		TotalTrades:    p.TotalTrades,
	}
	return s.db.Create(&m).Error
}

// SaveSignal 追加一条信号记录（factors 序列化为 JSON）。
func (s *Store) SaveSignal(sig signal.Signal) error {
	if s == nil || s.db == nil {
		return nil
	}
	factors, _ := json.Marshal(sig.Factors)
	m := signalModel{
		Symbol:     sig.Symbol,
		Direction:  string(sig.Direction),
		Confidence: sig.Confidence,
		Score:      sig.Score,
		Reason:     sig.Reason,
		Factors:    datatypes.JSON(factors),
		Timestamp:  sig.Time.UnixMilli(),
	}
	return s.db.Create(&m).Error
}

// ListTrades 按开仓时间倒序返回交易记录。
func (s *Store) ListTrades(limit int) ([]ledger.Trade, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []tradeModel
	if err := s.db.Order("entry_time DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ledger.Trade, 0, len(models))
	for _, m := range models {
		out = append(out, tradeModelToTrade(m))
	}
	return out, nil
}

// ListSignals 按时间倒序返回信号记录。
func (s *Store) ListSignals(symbol string, limit int) ([]signal.Signal, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.Model(&signalModel{})
	if sym := strings.ToUpper(strings.TrimSpace(symbol)); sym != "" {
		query = query.Where("symbol = ?", sym)
	}
	var models []signalModel
	if err := query.Order("timestamp DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]signal.Signal, 0, len(models))
	for _, m := range models {
		sig := signal.Signal{
			Symbol:     m.Symbol,
			Direction:  signal.Direction(m.Direction),
			Confidence: m.Confidence,
			Score:      m.Score,
			Reason:     m.Reason,
			Time:       time.UnixMilli(m.Timestamp),
		}
		if len(m.Factors) > 0 {
			_ = json.Unmarshal(m.Factors, &sig.Factors)
		}
		out = append(out, sig)
	}
	return out, nil
}

// ListPerformance 按时间倒序返回绩效快照。
func (s *Store) ListPerformance(limit int) ([]ledger.PerformanceSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var models []performanceModel
	if err := s.db.Order("timestamp DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ledger.PerformanceSnapshot, 0, len(models))
	for _, m := range models {
		out = append(out, ledger.PerformanceSnapshot{
			Timestamp:      time.UnixMilli(m.Timestamp),
			Balance:        m.Balance,
			Equity:         m.Equity,
			WinRate:        m.WinRate,
			TotalPnL:       m.TotalPnL,
			TotalReturnPct: m.TotalReturnPct,
			MaxDrawdownPct: m.MaxDrawdownPct,
			ProfitFactor:   m.ProfitFactor,
			SharpeRatio:    m.SharpeRatio,
			TotalFees:      m.TotalFees,
			OpenTrades:     m.OpenTrades,
			TotalTrades:    m.TotalTrades,
		})
	}
	return out, nil
}

func newTradeModel(t ledger.Trade) tradeModel {
	m := tradeModel{
		ID:            t.ID,
		Symbol:        t.Symbol,
		Side:          string(t.Side),
		EntryPrice:    t.EntryPrice,
		Quantity:      t.Quantity,
		StopLoss:      t.StopLoss,
		TakeProfit:    t.TakeProfit,
		EntryTime:     t.EntryTime.UnixMilli(),
		Status:        string(t.Status),
		ExitReason:    string(t.ExitReason),
		ProfitLoss:    t.ProfitLoss,
		ProfitLossPct: t.ProfitLossPct,
		FeePaid:       t.FeePaid,
		ExitPrice:     t.ExitPrice,
	}
	if !t.ExitTime.IsZero() {
		m.ExitTime = t.ExitTime.UnixMilli()
	}
	return m
}

func tradeModelToTrade(m tradeModel) ledger.Trade {
	t := ledger.Trade{
		ID:            m.ID,
		Symbol:        m.Symbol,
		Side:          ledger.Side(m.Side),
		EntryPrice:    m.EntryPrice,
		Quantity:      m.Quantity,
		StopLoss:      m.StopLoss,
		TakeProfit:    m.TakeProfit,
		EntryTime:     time.UnixMilli(m.EntryTime),
		Status:        ledger.Status(m.Status),
		ExitPrice:     m.ExitPrice,
		ExitReason:    ledger.ExitReason(m.ExitReason),
		ProfitLoss:    m.ProfitLoss,
		ProfitLossPct: m.ProfitLossPct,
		FeePaid:       m.FeePaid,
	}
	if m.ExitTime > 0 {
		t.ExitTime = time.UnixMilli(m.ExitTime)
	}
	return t
}

// sanitizeFloat SQLite 不接受 Inf/NaN，统一落为 0。
func sanitizeFloat(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
