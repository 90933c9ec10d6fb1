package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoPulse/internal/app"
	"CryptoPulse/internal/chart"
	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/metrics"
	"CryptoPulse/internal/model"
	"CryptoPulse/internal/notifier"
	"CryptoPulse/internal/recorder"
	"CryptoPulse/internal/wallet"
)

type fakeService struct {
	coins     []model.Coin
	selected  string
	pointer   *chart.Rect
	pointerXY [2]float64
	resized   [3]float64
	orders    []app.OrderRequest
	orderErr  error
	state     model.WalletState
	history   []recorder.PredictionSnapshot
	histLimit int
}

func newFakeService() *fakeService {
	return &fakeService{
		coins: []model.Coin{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 40000, PriceChangePct24h: -1},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 2000, PriceChangePct24h: 2},
		},
		state: model.WalletState{
			Balance:  decimal.NewFromInt(1000),
			Holdings: map[string]decimal.Decimal{"bitcoin": decimal.RequireFromString("0.5")},
		},
	}
}

func (f *fakeService) Markets(_ context.Context, filter collector.Filter, query string) ([]model.Coin, error) {
	return collector.SearchCoins(collector.FilterCoins(f.coins, filter), query), nil
}

func (f *fakeService) SelectCoin(_ context.Context, coinID string) error {
	if _, ok := collector.FindCoin(f.coins, coinID); !ok {
		return fmt.Errorf("%w: %s", app.ErrUnknownCoin, coinID)
	}
	f.selected = coinID
	return nil
}

func (f *fakeService) Panel(context.Context) (notifier.Panel, error) {
	if f.selected == "" {
		return notifier.Panel{}, app.ErrNoSelection
	}
	coin, _ := collector.FindCoin(f.coins, f.selected)
	return notifier.BuildPanel(coin, model.Indicators{}, model.Prediction{}, false), nil
}

func (f *fakeService) ChartPNG(context.Context) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (f *fakeService) PointerMove(_ context.Context, x, y float64, bounds chart.Rect) error {
	f.pointer = &bounds
	f.pointerXY = [2]float64{x, y}
	return nil
}

func (f *fakeService) PointerLeave(context.Context) error {
	f.pointer = nil
	return nil
}

func (f *fakeService) Resize(_ context.Context, w, h int, ratio float64) error {
	if w <= 0 || h <= 0 || ratio <= 0 {
		return app.ErrInvalidViewport
	}
	f.resized = [3]float64{float64(w), float64(h), ratio}
	return nil
}

func (f *fakeService) PlaceOrder(_ context.Context, req app.OrderRequest) (model.Order, error) {
	if f.orderErr != nil {
		return model.Order{}, f.orderErr
	}
	f.orders = append(f.orders, req)
	return model.Order{ID: "o-1", CoinID: req.CoinID, Side: req.Side, Quantity: req.Amount}, nil
}

func (f *fakeService) Wallet() model.WalletState { return f.state }

func (f *fakeService) Prices(context.Context) (map[string]float64, error) {
	prices := map[string]float64{}
	for _, c := range f.coins {
		prices[c.ID] = c.CurrentPrice
	}
	return prices, nil
}

func (f *fakeService) History(coinID string, limit int) ([]recorder.PredictionSnapshot, error) {
	f.histLimit = limit
	var out []recorder.PredictionSnapshot
	for _, s := range f.history {
		if s.CoinID == coinID {
			out = append(out, s)
		}
	}
	return out, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMarkets(t *testing.T) {
	h := NewServer(":0", newFakeService(), nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/markets?filter=gainers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var coins []model.Coin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &coins))
	require.Len(t, coins, 1)
	assert.Equal(t, "ethereum", coins[0].ID)

	rec = do(t, h, http.MethodGet, "/api/markets?q=nothing", "")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSelectAndPrediction(t *testing.T) {
	svc := newFakeService()
	h := NewServer(":0", svc, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/prediction", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/select/dogecoin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "dogecoin")

	rec = do(t, h, http.MethodPost, "/api/select/bitcoin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var panel notifier.Panel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &panel))
	assert.Equal(t, "BTC/USDT", panel.Pair)
	assert.Equal(t, "$40,000.00", panel.Current)
	assert.False(t, panel.Ready)
}

func TestChart(t *testing.T) {
	rec := do(t, NewServer(":0", newFakeService(), nil).Handler(), http.MethodGet, "/chart.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())
}

func TestPointer(t *testing.T) {
	svc := newFakeService()
	h := NewServer(":0", svc, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/pointer", `{"client_x":120,"client_y":80,"left":20,"top":10,"width":800,"height":400}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, svc.pointer)
	assert.Equal(t, chart.Rect{Left: 20, Top: 10, Width: 800, Height: 400}, *svc.pointer)
	assert.Equal(t, [2]float64{120, 80}, svc.pointerXY)

	rec = do(t, h, http.MethodDelete, "/api/pointer", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, svc.pointer)

	rec = do(t, h, http.MethodPost, "/api/pointer", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResize(t *testing.T) {
	svc := newFakeService()
	h := NewServer(":0", svc, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/resize", `{"width":640,"height":320}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, [3]float64{640, 320, 1}, svc.resized)

	rec = do(t, h, http.MethodPost, "/api/resize", `{"width":0,"height":320,"pixel_ratio":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrders(t *testing.T) {
	svc := newFakeService()
	h := NewServer(":0", svc, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/orders", `{"coin_id":"bitcoin","side":"buy","amount":"250.5"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.orders, 1)
	assert.Equal(t, model.SideBuy, svc.orders[0].Side)
	assert.True(t, svc.orders[0].Amount.Equal(decimal.RequireFromString("250.5")))

	tests := []struct {
		err    error
		status int
	}{
		{wallet.ErrInsufficientBalance, http.StatusConflict},
		{wallet.ErrInsufficientHoldings, http.StatusConflict},
		{wallet.ErrInvalidAmount, http.StatusBadRequest},
		{app.ErrInvalidSide, http.StatusBadRequest},
		{fmt.Errorf("%w: x", app.ErrUnknownCoin), http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		svc.orderErr = tt.err
		rec := do(t, h, http.MethodPost, "/api/orders", `{"coin_id":"bitcoin","side":"sell","amount":1}`)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestWallet(t *testing.T) {
	rec := do(t, NewServer(":0", newFakeService(), nil).Handler(), http.MethodGet, "/api/wallet", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Balance  decimal.Decimal            `json:"balance"`
		Holdings map[string]decimal.Decimal `json:"holdings"`
		Equity   decimal.Decimal            `json:"equity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, body.Equity.Equal(decimal.NewFromInt(21000)), body.Equity.String())
}

func TestHistory(t *testing.T) {
	svc := newFakeService()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.history = []recorder.PredictionSnapshot{
		{CoinID: "bitcoin", Price: 40000, Prediction: model.Prediction{Signal: model.SignalBuy, Confidence: 72}, RecordedAt: at},
	}
	h := NewServer(":0", svc, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/history/bitcoin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryLimit, svc.histLimit)

	var entries []historyEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, model.SignalBuy, entries[0].Prediction.Signal)
	assert.True(t, entries[0].RecordedAt.Equal(at))

	rec = do(t, h, http.MethodGet, "/api/history/bitcoin?limit=10000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxHistoryLimit, svc.histLimit)

	rec = do(t, h, http.MethodGet, "/api/history/ethereum", "")
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/history/bitcoin?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New(nil)
	m.DrawsTotal.Inc()
	h := NewServer(":0", newFakeService(), m.Handler()).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cryptopulse_chart_draws_total 1")
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewServer(":0", newFakeService(), nil).Handler()

	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/orders"},
		{http.MethodPut, "/api/pointer"},
		{http.MethodDelete, "/api/wallet"},
		{http.MethodGet, "/api/select/bitcoin"},
		{http.MethodPost, "/chart.png"},
	}
	for _, tt := range tests {
		rec := do(t, h, tt.method, tt.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tt.method+" "+tt.path)
	}

	rec := do(t, h, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
