// Package dashboard serves the market list, prediction panel, chart raster
// and simulated wallet over HTTP.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"CryptoPulse/internal/app"
	"CryptoPulse/internal/chart"
	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/model"
	"CryptoPulse/internal/notifier"
	"CryptoPulse/internal/recorder"
)

// Service is the application surface the dashboard drives. *app.App
// implements it.
type Service interface {
	Markets(ctx context.Context, filter collector.Filter, query string) ([]model.Coin, error)
	SelectCoin(ctx context.Context, coinID string) error
	Panel(ctx context.Context) (notifier.Panel, error)
	ChartPNG(ctx context.Context) ([]byte, error)
	PointerMove(ctx context.Context, clientX, clientY float64, bounds chart.Rect) error
	PointerLeave(ctx context.Context) error
	Resize(ctx context.Context, width, height int, pixelRatio float64) error
	PlaceOrder(ctx context.Context, req app.OrderRequest) (model.Order, error)
	Wallet() model.WalletState
	Prices(ctx context.Context) (map[string]float64, error)
	History(coinID string, limit int) ([]recorder.PredictionSnapshot, error)
}

// Server is the dashboard HTTP server.
type Server struct {
	svc     Service
	metrics http.Handler
	router  *mux.Router
	srv     *http.Server
}

// NewServer builds the router. metricsHandler may be nil.
func NewServer(addr string, svc Service, metricsHandler http.Handler) *Server {
	s := &Server{svc: svc, metrics: metricsHandler, router: mux.NewRouter()}
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(logRequests)

	// Root router, not a subrouter, so a method mismatch answers 405.
	r.HandleFunc("/api/markets", s.handleMarkets).Methods(http.MethodGet)
	r.HandleFunc("/api/select/{coinID}", s.handleSelect).Methods(http.MethodPost)
	r.HandleFunc("/api/prediction", s.handlePrediction).Methods(http.MethodGet)
	r.HandleFunc("/api/pointer", s.handlePointerMove).Methods(http.MethodPost)
	r.HandleFunc("/api/pointer", s.handlePointerLeave).Methods(http.MethodDelete)
	r.HandleFunc("/api/resize", s.handleResize).Methods(http.MethodPost)
	r.HandleFunc("/api/orders", s.handleOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/wallet", s.handleWallet).Methods(http.MethodGet)
	r.HandleFunc("/api/history/{coinID}", s.handleHistory).Methods(http.MethodGet)

	r.HandleFunc("/chart.png", s.handleChart).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.srv.Addr).Msg("dashboard listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
