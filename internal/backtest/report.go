package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"gopkg.in/yaml.v3"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorEquity        = "#3b82f6"
	colorBalance       = "#34d399"

	chartWidthPx  = 1400
	chartHeightPx = 560
)

// summaryFile 是 summary.yaml 的序列化结构。
type summaryFile struct {
	ID         string    `yaml:"id"`
	Config     Config    `yaml:"config"`
	Ticks      int       `yaml:"ticks"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`

	FinalBalance   float64 `yaml:"final_balance"`
	TotalPnL       float64 `yaml:"total_pnl"`
	TotalReturnPct float64 `yaml:"total_return_pct"`
	WinRate        float64 `yaml:"win_rate"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct"`
	ProfitFactor   float64 `yaml:"profit_factor"`
	SharpeRatio    float64 `yaml:"sharpe_ratio"`
	TotalFees      float64 `yaml:"total_fees"`
	TotalTrades    int     `yaml:"total_trades"`
}

// WriteReport 把回测结果落盘到 dir：资金曲线 HTML 与 summary.yaml。
// 返回 HTML 报告路径。
func WriteReport(result *Result, dir string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil backtest result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	htmlPath := filepath.Join(dir, fmt.Sprintf("equity_%s.html", result.ID))
	f, err := os.Create(htmlPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := buildEquityChart(result).Render(f); err != nil {
		return "", err
	}

	summary := summaryFile{
		ID:             result.ID,
		Config:         result.Config,
		Ticks:          result.Ticks,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		FinalBalance:   result.Stats.Balance,
		TotalPnL:       result.Stats.TotalPnL,
		TotalReturnPct: result.Stats.TotalReturnPct,
		WinRate:        result.Stats.WinRate,
		MaxDrawdownPct: result.Stats.MaxDrawdownPct,
		ProfitFactor:   result.Stats.ProfitFactor,
		SharpeRatio:    result.Stats.SharpeRatio,
		TotalFees:      result.Stats.TotalFees,
		TotalTrades:    result.Stats.TotalTrades,
	}
	raw, err := yaml.Marshal(&summary)
	if err != nil {
		return "", err
	}
	summaryPath := filepath.Join(dir, fmt.Sprintf("summary_%s.yaml", result.ID))
	if err := os.WriteFile(summaryPath, raw, 0o644); err != nil {
		return "", err
	}
	return htmlPath, nil
}

func buildEquityChart(result *Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s %s equity", result.Config.Symbol, result.Config.Interval),
			Subtitle:      fmt.Sprintf("return %.2f%% | drawdown %.2f%% | trades %d", result.Stats.TotalReturnPct, result.Stats.MaxDrawdownPct, result.Stats.TotalTrades),
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	xAxis := make([]string, len(result.Equity))
	equity := make([]opts.LineData, len(result.Equity))
	balance := make([]opts.LineData, len(result.Equity))
	for i, p := range result.Equity {
		xAxis[i] = time.UnixMilli(p.TS).UTC().Format("01-02 15:04")
		equity[i] = opts.LineData{Value: p.Equity}
		balance[i] = opts.LineData{Value: p.Balance}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Equity", equity, charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}))
	line.AddSeries("Balance", balance, charts.WithLineStyleOpts(opts.LineStyle{Color: colorBalance, Width: 2}))
	return line
}
