// Package metrics exposes Prometheus instrumentation for the trading engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the paper-trading engine.
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal       prometheus.Counter
	TickDuration     prometheus.Histogram
	FetchErrorsTotal *prometheus.CounterVec
	SignalsTotal     *prometheus.CounterVec
	TradesOpened     prometheus.Counter
	TradesClosed     *prometheus.CounterVec
	RiskRejections   prometheus.Counter

	Balance prometheus.Gauge
	Equity  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "microscalp_ticks_total",
			Help: "Number of evaluation ticks executed.",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "microscalp_tick_duration_seconds",
			Help:    "Wall time of a full tick (fetch + pipeline).",
			Buckets: prometheus.DefBuckets,
		}),
		FetchErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "microscalp_fetch_errors_total",
			Help: "Kline fetch failures per symbol.",
		}, []string{"symbol"}),
		SignalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "microscalp_signals_total",
			Help: "Generated signals by direction.",
		}, []string{"direction"}),
		TradesOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "microscalp_trades_opened_total",
			Help: "Paper trades opened.",
		}),
		TradesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "microscalp_trades_closed_total",
			Help: "Paper trades closed by exit reason.",
		}, []string{"reason"}),
		RiskRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "microscalp_risk_rejections_total",
			Help: "Orders rejected by the risk manager.",
		}),
		Balance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "microscalp_balance",
			Help: "Current paper account balance.",
		}),
		Equity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "microscalp_equity",
			Help: "Current paper account equity (balance + unrealized).",
		}),
	}
}

// Handler returns the /metrics HTTP handler bound to this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
