package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	defaultExpirySchedule = "@every 5m"
	sweepTimeout          = 2 * time.Minute
	stopTimeout           = 5 * time.Second
)

// Sweeper marks overdue active claims as expired.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// ExpiryJob runs the claim expiry sweep on a cron schedule.
type ExpiryJob struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
}

// NewExpiryJob creates a job running sweeper on spec, or every five minutes
// when spec is empty.
func NewExpiryJob(sweeper Sweeper, spec string) *ExpiryJob {
	if spec == "" {
		spec = defaultExpirySchedule
	}
	return &ExpiryJob{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		sweeper: sweeper,
		spec:    spec,
	}
}

// Start registers the sweep and starts the cron loop in the background.
func (j *ExpiryJob) Start() error {
	if j == nil || j.sweeper == nil {
		return nil
	}
	if _, err := j.cron.AddFunc(j.spec, j.run); err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", j.spec, err)
	}
	j.cron.Start()
	log.Info().Str("spec", j.spec).Msg("Expiry sweep scheduled")
	return nil
}

// Stop halts scheduling and waits briefly for a running sweep.
func (j *ExpiryJob) Stop() {
	if j == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopTimeout):
		log.Warn().Msg("Expiry sweep still running at shutdown")
	}
}

func (j *ExpiryJob) run() {
	defer recoverJobPanic("claims.expire_overdue")

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Expiry sweep failed")
		return
	}
	log.Info().Int64("expired", n).Dur("took", time.Since(start)).Msg("Expiry sweep finished")
}

func recoverJobPanic(name string) {
	if r := recover(); r != nil {
		log.Error().Str("job", name).Interface("panic", r).Msg("Scheduler job panic recovered")
	}
}
