package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mamorett/comfyprompt-dataset/internal/config"
	"github.com/mamorett/comfyprompt-dataset/internal/dataset"
	"github.com/mamorett/comfyprompt-dataset/internal/observability"
)

type Scheduler struct {
	cron  *cron.Cron
	cfg   *config.AppConfig
	state *dataset.State
	log   zerolog.Logger
}

func NewScheduler(cfg *config.AppConfig, state *dataset.State, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		cfg:   cfg,
		state: state,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Scan.AutoRescan {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Scan.Schedule, s.runRescan); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.cfg.Scan.Schedule).Msg("auto rescan enabled")
	return nil
}

// Stop waits for a running rescan to finish, up to a bound.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) runRescan() {
	observability.ScansTotal.WithLabelValues("schedule").Inc()

	report, err := s.state.Rescan(nil)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled rescan failed")
		return
	}
	if report.Added > 0 || report.Failed > 0 {
		s.log.Info().
			Int("added", report.Added).
			Int("failed", report.Failed).
			Msg("scheduled rescan finished")
	}
}
