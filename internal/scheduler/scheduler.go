package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Jobs is the work the scheduler drives.
type Jobs interface {
	RefreshMarkets(ctx context.Context) error
	RefreshCandles(ctx context.Context) error
}

// Scheduler manages the market poll and prediction tick cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Jobs    Jobs
	Ctx     context.Context
	Timeout time.Duration
}

// NewScheduler creates a Scheduler. A tick that is still running when the next
// one fires is skipped.
func NewScheduler(ctx context.Context, jobs Jobs) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Jobs:    jobs,
		Ctx:     ctx,
		Timeout: 30 * time.Second,
	}
}

// RegisterAll registers the market poll and prediction tick tasks.
func (s *Scheduler) RegisterAll(marketPollCron, predictionTickCron string) error {
	if _, err := s.Cron.AddFunc(marketPollCron, s.marketPoll); err != nil {
		return fmt.Errorf("register market poll: %w", err)
	}
	if _, err := s.Cron.AddFunc(predictionTickCron, s.predictionTick); err != nil {
		return fmt.Errorf("register prediction tick: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow runs both tasks once, for priming on start.
func (s *Scheduler) RunNow() {
	s.marketPoll()
	s.predictionTick()
}

func (s *Scheduler) marketPoll() {
	s.run("market_poll", s.Jobs.RefreshMarkets)
}

func (s *Scheduler) predictionTick() {
	s.run("prediction_tick", s.Jobs.RefreshCandles)
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(s.Ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		return
	}
	log.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("scheduled job done")
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
