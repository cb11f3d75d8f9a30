package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microscalp/internal/engine"
	"microscalp/internal/ledger"
	"microscalp/internal/risk"
	"microscalp/internal/signal"
)

func newTestServer(t *testing.T) (*Server, *engine.Live) {
	t.Helper()
	proc := engine.NewProcessor(
		signal.NewGenerator(0.6),
		risk.New(risk.Limits{}),
		ledger.New(10000, 0.001, nil),
	)
	live := engine.NewLive(engine.LiveConfig{Symbols: []string{"BTCUSDT"}, Interval: "5m"}, proc, nil, nil, nil)
	srv, err := NewServer(ServerConfig{Engine: live})
	require.NoError(t, err)
	return srv, live
}

func doGet(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doGet(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestStatusReportsAccount(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doGet(t, srv, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Account ledger.Account `json:"account"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10000.0, resp.Account.Balance)
	assert.Equal(t, 10000.0, resp.Account.Equity)
}

func TestTradesFallsBackToLedger(t *testing.T) {
	srv, live := newTestServer(t)

	_, err := live.Processor().Ledger().Open(ledger.OrderSpec{
		Symbol:     "BTCUSDT",
		Side:       ledger.SideBuy,
		EntryPrice: 50000,
		Quantity:   0.01,
		StopLoss:   49000,
		TakeProfit: 52000,
	}, time.Now().UTC())
	require.NoError(t, err)

	rec := doGet(t, srv, "/api/trades")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Trades []ledger.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, ledger.StatusOpen, resp.Trades[0].Status)
}

func TestSignalsWithoutStoreReturnsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doGet(t, srv, "/api/signals")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Signals []signal.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Signals)
}

func TestDefaultAddr(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, ":9980", srv.Addr())
}
