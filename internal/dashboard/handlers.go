package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"CryptoPulse/internal/app"
	"CryptoPulse/internal/chart"
	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/model"
	"CryptoPulse/internal/wallet"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type pointerRequest struct {
	ClientX float64 `json:"client_x"`
	ClientY float64 `json:"client_y"`
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

type resizeRequest struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixel_ratio"`
}

type walletResponse struct {
	model.WalletState
	Equity decimal.Decimal `json:"equity"`
}

type historyEntry struct {
	CoinID     string           `json:"coin_id"`
	Price      float64          `json:"price"`
	Indicators model.Indicators `json:"indicators"`
	Prediction model.Prediction `json:"prediction"`
	RecordedAt time.Time        `json:"recorded_at"`
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	coins, err := s.svc.Markets(r.Context(), collector.ParseFilter(q.Get("filter")), q.Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	if coins == nil {
		coins = []model.Coin{}
	}
	writeJSON(w, http.StatusOK, coins)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SelectCoin(r.Context(), mux.Vars(r)["coinID"]); err != nil {
		writeError(w, err)
		return
	}
	s.handlePrediction(w, r)
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	panel, err := s.svc.Panel(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	img, err := s.svc.ChartPNG(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

func (s *Server) handlePointerMove(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bounds := chart.Rect{Left: req.Left, Top: req.Top, Width: req.Width, Height: req.Height}
	if err := s.svc.PointerMove(r.Context(), req.ClientX, req.ClientY, bounds); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePointerLeave(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.PointerLeave(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PixelRatio == 0 {
		req.PixelRatio = 1
	}
	if err := s.svc.Resize(r.Context(), req.Width, req.Height, req.PixelRatio); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req app.OrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := s.svc.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	state := s.svc.Wallet()
	prices, err := s.svc.Prices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	equity := state.Balance
	for id, qty := range state.Holdings {
		if price, ok := prices[id]; ok {
			equity = equity.Add(qty.Mul(decimal.NewFromFloat(price)))
		}
	}
	writeJSON(w, http.StatusOK, walletResponse{WalletState: state, Equity: equity})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	snaps, err := s.svc.History(mux.Vars(r)["coinID"], limit)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]historyEntry, 0, len(snaps))
	for _, snap := range snaps {
		entries = append(entries, historyEntry{
			CoinID:     snap.CoinID,
			Price:      snap.Price,
			Indicators: snap.Indicators,
			Prediction: snap.Prediction,
			RecordedAt: snap.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

type errorBody struct {
	Error string `json:"error"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrUnknownCoin), errors.Is(err, app.ErrNoSelection):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidViewport), errors.Is(err, app.ErrInvalidSide),
		errors.Is(err, wallet.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrInsufficientBalance), errors.Is(err, wallet.ErrInsufficientHoldings):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
