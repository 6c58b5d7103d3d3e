// Package scheduler wires up the cron job that periodically fans out match
// notifications for newly posted jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"agrotalent/matching-service/internal/logger"
	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
	"agrotalent/matching-service/internal/store"
)

const releaseTimeout = 5 * time.Second

// Notifier runs the fan-out for one job. *match.Finder satisfies it.
type Notifier interface {
	NotifyTopMatches(ctx context.Context, jobID string) (*match.FanOutReport, error)
}

// Report summarises one sweep.
type Report struct {
	Scanned  int
	Notified int
	Skipped  int
	Failed   int
}

// Scheduler wraps robfig/cron and manages the sweep loop.
type Scheduler struct {
	cron     *cron.Cron
	cronLog  cron.Logger
	wg       sync.WaitGroup // startup sweep
	repo     store.Repository
	notifier Notifier
	claims   Claims
	logger   *zap.Logger
	spec     string // cron spec, e.g. "@every 15m"
	lookback time.Duration
	now      func() time.Time
}

// New creates a Scheduler that sweeps every interval for jobs posted within
// lookback.
func New(repo store.Repository, notifier Notifier, claims Claims, logger *zap.Logger, interval, lookback time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger))
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLog)),
		cronLog:  cronLog,
		repo:     repo,
		notifier: notifier,
		claims:   claims,
		logger:   logger,
		spec:     fmt.Sprintf("@every %s", interval),
		lookback: lookback,
		now:      time.Now,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so freshly posted jobs are not held until the first tick.
// The startup sweep and the ticks share one SkipIfStillRunning guard.
func (s *Scheduler) Start(ctx context.Context) error {
	job := cron.NewChain(cron.SkipIfStillRunning(s.cronLog)).Then(cron.FuncJob(func() {
		s.Sweep(ctx)
	}))
	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("cron.AddJob: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.Run()
	}()

	s.cron.Start()
	s.logger.Info("cron started", zap.String("spec", s.spec))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish,
// including the one started by Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("cron stopped")
}

// Sweep loads recent active jobs and fans out each one that has not been
// claimed yet. Errors are logged per job and never stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) Report {
	var report Report

	since := s.now().Add(-s.lookback)
	jobs, err := s.repo.RecentActiveJobs(ctx, since)
	if err != nil {
		s.logger.Error("load recent jobs failed", zap.Error(err))
		return report
	}
	if len(jobs) == 0 {
		s.logger.Debug("no recent jobs, nothing to notify")
		return report
	}

	s.logger.Info("sweep started", zap.Int("jobs", len(jobs)), zap.Time("since", since))
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		report.Scanned++
		s.sweepJob(ctx, job, &report)
	}

	s.logger.Info("sweep complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("notified", report.Notified),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report
}

func (s *Scheduler) sweepJob(ctx context.Context, job model.Job, report *Report) {
	claimed, err := s.claims.Claim(ctx, job.ID, 2*s.lookback)
	if err != nil {
		s.logger.Warn("claim failed", zap.String(logger.FieldJobID, job.ID), zap.Error(err))
		report.Failed++
		return
	}
	if !claimed {
		report.Skipped++
		return
	}

	res, err := s.notifier.NotifyTopMatches(ctx, job.ID)
	if err != nil {
		s.logger.Warn("notify top matches failed", zap.String(logger.FieldJobID, job.ID), zap.Error(err))
		report.Failed++
		if !dispatched(res) {
			s.release(ctx, job.ID)
		}
		return
	}
	if ferr := res.Err(); ferr != nil {
		s.logger.Warn("some match notifications failed", zap.String(logger.FieldJobID, job.ID), zap.Error(ferr))
	}
	report.Notified++
}

// dispatched reports whether the fan-out reached any recipient, successfully
// or not. A claim is only kept once something may have been sent.
func dispatched(res *match.FanOutReport) bool {
	return res != nil && res.Delivered+len(res.Failed) > 0
}

// release drops the claim so the next sweep retries the job. It runs on a
// context detached from ctx, which may already be cancelled at shutdown.
func (s *Scheduler) release(ctx context.Context, jobID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.claims.Release(ctx, jobID); err != nil {
		s.logger.Warn("release claim failed", zap.String(logger.FieldJobID, jobID), zap.Error(err))
	}
}
