package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"CryptoPulse/internal/app"
	"CryptoPulse/internal/chart"
	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/config"
	"CryptoPulse/internal/dashboard"
	"CryptoPulse/internal/logger"
	"CryptoPulse/internal/metrics"
	"CryptoPulse/internal/notifier"
	"CryptoPulse/internal/recorder"
	"CryptoPulse/internal/scheduler"
	"CryptoPulse/internal/wallet"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("CryptoPulse starting")

	m := metrics.New(nil)

	// Init fetcher
	mock := collector.NewMockFetcher(uint64(time.Now().UnixNano()))
	var fetcher collector.Fetcher = mock
	if !cfg.DataSource.UseMock {
		gecko := collector.NewCoinGeckoFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
		gecko.MaxRetries = cfg.DataSource.MaxRetries
		gecko.RetryBase = cfg.DataSource.RetryBase
		fetcher = gecko
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source selected")
	col := collector.NewCollector(fetcher, mock, cfg.DataSource.CacheTTL, m)

	// Init wallet
	wm, err := wallet.NewManager(cfg.Wallet.StateFile, decimal.NewFromFloat(cfg.Wallet.InitialBalance))
	if err != nil {
		log.Fatal().Err(err).Msg("init wallet")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.Warn().Err(err).Msg("init telegram notifier failed, alerts disabled")
			tn = nil
		}
	}

	deps := app.Deps{
		Markets:  col,
		Wallet:   wm,
		Recorder: rec,
		Metrics:  m,
		Chart: chart.Options{
			Width:      cfg.Chart.Width,
			Height:     cfg.Chart.Height,
			PixelRatio: cfg.Chart.PixelRatio,
			Padding:    cfg.Chart.Padding,
			Palette:    cfg.Chart.Palette,
		},
		HistoryCapacity: cfg.Engine.HistoryCapacity,
		CandleDays:      cfg.DataSource.CandleDays,
		DefaultCoin:     cfg.DataSource.DefaultCoin,
	}
	if tn != nil {
		deps.Notifier = tn
	}
	a := app.New(deps)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appDone := make(chan struct{})
	go func() {
		defer close(appDone)
		if err := a.Run(ctx); err != nil {
			log.Error().Err(err).Msg("app loop")
		}
	}()

	if tn != nil {
		tn.ListenForCommands(ctx, a.HandleCommand)
		log.Info().Msg("telegram command listener started")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, a)
	if err := sched.RegisterAll(cfg.Schedule.MarketPollCron, cfg.Schedule.PredictionTickCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	go sched.RunNow()
	sched.Start()

	srv := dashboard.NewServer(cfg.HTTP.Addr, a, m.Handler())
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("dashboard server")
			cancel()
		}
	}()

	log.Info().Msg("CryptoPulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown")
	}
	sched.Stop()
	cancel()
	<-appDone
	log.Info().Msg("CryptoPulse stopped")
}
