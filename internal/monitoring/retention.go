package monitoring

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/haneul-academy/portal-be/internal/services"
)

// Retention trims chat and activity-log history on a cron schedule, keeping
// the newest rows up to the configured cap.
type Retention struct {
	contentSvc  services.ContentServiceProvider
	activitySvc services.ActivityServiceProvider
	schedule    cron.Schedule
	keep        int
	nextRun     time.Time
	ticker      *time.Ticker
	done        chan bool
}

// NewRetention creates the retention job. The cron expression uses the
// standard five-field format.
func NewRetention(contentSvc services.ContentServiceProvider, activitySvc services.ActivityServiceProvider, cronExpr string, keep int) (*Retention, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Retention{
		contentSvc:  contentSvc,
		activitySvc: activitySvc,
		schedule:    schedule,
		keep:        keep,
		nextRun:     schedule.Next(time.Now()),
		done:        make(chan bool),
	}, nil
}

// Run starts the job's ticking loop.
func (r *Retention) Run() {
	log.Info().Time("next_run", r.nextRun).Int("keep", r.keep).Msg("Starting retention job")
	r.ticker = time.NewTicker(1 * time.Minute)
	defer r.ticker.Stop()

	for {
		select {
		case <-r.done:
			log.Info().Msg("Stopping retention job")
			return
		case <-r.ticker.C:
			now := time.Now()
			if now.After(r.nextRun) {
				r.prune()
				r.nextRun = r.schedule.Next(now)
			}
		}
	}
}

// Stop halts the job.
func (r *Retention) Stop() {
	r.done <- true
}

func (r *Retention) prune() {
	if err := r.contentSvc.PruneChat(r.keep); err != nil {
		log.Error().Err(err).Msg("Failed to prune chat history")
	}
	if err := r.activitySvc.Prune(r.keep); err != nil {
		log.Error().Err(err).Msg("Failed to prune activity logs")
	}
}
