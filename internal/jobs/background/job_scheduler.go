package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
	"go.uber.org/zap"
)

const (
	LeaseExpiryJob       = "lease-expiry-sweep"
	defaultSweepInterval = 6 * time.Hour
	sweepTimeout         = time.Minute
)

// JobScheduler runs the periodic lease maintenance jobs.
type JobScheduler struct {
	scheduler gocron.Scheduler
	leases    repositories.LeaseRepository
	logger    *zap.Logger
	now       func() time.Time
	interval  time.Duration
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

type Option func(*JobScheduler)

// WithClock replaces time.Now for the sweep cutoff.
func WithClock(now func() time.Time) Option {
	return func(js *JobScheduler) { js.now = now }
}

func NewJobScheduler(leases repositories.LeaseRepository, interval time.Duration, logger *zap.Logger, opts ...Option) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	js := &JobScheduler{
		scheduler: scheduler,
		leases:    leases,
		logger:    logger,
		now:       time.Now,
		interval:  interval,
		jobs:      make(map[string]gocron.Job),
	}
	for _, opt := range opts {
		opt(js)
	}

	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.jobs)))
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(js.interval),
		gocron.NewTask(js.runExpirySweep),
		gocron.WithName(LeaseExpiryJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithEventListeners(gocron.AfterJobRunsWithError(func(_ uuid.UUID, name string, err error) {
			js.logger.Error("background job failed", zap.String("job", name), zap.Error(err))
		})),
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", LeaseExpiryJob, err)
	}

	js.mu.Lock()
	js.jobs[LeaseExpiryJob] = job
	js.mu.Unlock()
	return nil
}

func (js *JobScheduler) runExpirySweep(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	_, err := js.SweepExpiredLeases(ctx)
	return err
}

// SweepExpiredLeases marks sent, signed and active leases whose end date has passed as expired.
func (js *JobScheduler) SweepExpiredLeases(ctx context.Context) (int64, error) {
	today := models.DateOf(js.now())
	n, err := js.leases.ExpireEnded(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("expire leases ended before %s: %w", today, err)
	}
	if n > 0 {
		js.logger.Info("leases expired", zap.Int64("count", n), zap.String("as_of", today.String()))
	}
	return n, nil
}

// GetJobStatus reports the registered jobs and their next run.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make(map[string]interface{}, len(js.jobs))
	for name, job := range js.jobs {
		entry := map[string]interface{}{}
		if next, err := job.NextRun(); err == nil {
			entry["next_run"] = next
		}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			entry["last_run"] = last
		}
		jobs[name] = entry
	}
	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}
