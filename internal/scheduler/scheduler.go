package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

const warmTimeout = 30 * time.Second

// Sweeper drops expired cache entries.
type Sweeper interface {
	PurgeExpired() int
}

// Warmer pre-fetches live weather for a set of cities.
type Warmer interface {
	Warm(ctx context.Context, cities []string) (ok int, failed int)
}

// Config controls which jobs run and how often.
type Config struct {
	SweepInterval time.Duration
	WarmInterval  time.Duration
	// WarmCities is empty when warming is disabled.
	WarmCities []string
}

// Scheduler runs periodic cache maintenance.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	warmer    Warmer
	cfg       Config
	log       zerolog.Logger
}

// New creates a new Scheduler.
func New(cfg Config, sweeper Sweeper, warmer Warmer, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		warmer:    warmer,
		cfg:       cfg,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.sweeper != nil {
		_, err := s.scheduler.Every(intervalOrDefault(s.cfg.SweepInterval, 5*time.Minute)).Do(s.Sweep)
		if err != nil {
			return err
		}
	}

	if s.warmer != nil && len(s.cfg.WarmCities) > 0 {
		_, err := s.scheduler.Every(intervalOrDefault(s.cfg.WarmInterval, 15*time.Minute)).Do(s.WarmNow)
		if err != nil {
			return err
		}
	} else {
		s.log.Debug().Msg("no cities to warm; warm job not scheduled")
	}

	s.scheduler.StartAsync()
	s.log.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("scheduler started")
	return nil
}

// Sweep purges expired cache entries once.
func (s *Scheduler) Sweep() {
	n := s.sweeper.PurgeExpired()
	if n > 0 {
		s.log.Debug().Int("purged", n).Msg("expired cache entries purged")
	}
}

// WarmNow fetches every configured city once, bounded by a timeout.
func (s *Scheduler) WarmNow() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	s.log.Info().Strs("cities", s.cfg.WarmCities).Msg("running cache warm job")
	ok, failed := s.warmer.Warm(ctx, s.cfg.WarmCities)
	s.log.Info().Int("ok", ok).Int("failed", failed).Msg("completed cache warm job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func intervalOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
