package scheduler_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
	"agrotalent/matching-service/internal/scheduler"
	"agrotalent/matching-service/internal/store"
)

type fakeNotifier struct {
	mu       sync.Mutex
	calls    []string
	notifyFn func(jobID string) (*match.FanOutReport, error)
}

func (f *fakeNotifier) NotifyTopMatches(_ context.Context, jobID string) (*match.FanOutReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, jobID)
	f.mu.Unlock()
	if f.notifyFn != nil {
		return f.notifyFn(jobID)
	}
	return &match.FanOutReport{JobID: jobID, Selected: 1, Delivered: 1}, nil
}

func (f *fakeNotifier) jobIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

type failingClaims struct{}

func (failingClaims) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (failingClaims) Release(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func recentJobs() *store.Memory {
	now := time.Now()
	repo := store.NewMemory()
	repo.AddJob(model.Job{ID: "fresh-1", Status: model.JobStatusActive, CreatedAt: now.Add(-time.Hour)})
	repo.AddJob(model.Job{ID: "fresh-2", Status: model.JobStatusActive, CreatedAt: now.Add(-2 * time.Hour)})
	repo.AddJob(model.Job{ID: "filled", Status: model.JobStatusFilled, CreatedAt: now.Add(-time.Hour)})
	repo.AddJob(model.Job{ID: "stale", Status: model.JobStatusActive, CreatedAt: now.Add(-48 * time.Hour)})
	return repo
}

func newScheduler(repo store.Repository, n scheduler.Notifier, c scheduler.Claims) *scheduler.Scheduler {
	return scheduler.New(repo, n, c, zap.NewNop(), time.Hour, 24*time.Hour)
}

func TestSweep_NotifiesRecentActiveJobs(t *testing.T) {
	n := &fakeNotifier{}
	s := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims())

	report := s.Sweep(context.Background())

	assert.Equal(t, scheduler.Report{Scanned: 2, Notified: 2}, report)
	assert.Equal(t, []string{"fresh-1", "fresh-2"}, n.jobIDs())
}

func TestSweep_ClaimedJobsAreSkipped(t *testing.T) {
	n := &fakeNotifier{}
	claims := scheduler.NewMemoryClaims()
	s := newScheduler(recentJobs(), n, claims)

	first := s.Sweep(context.Background())
	second := s.Sweep(context.Background())

	assert.Equal(t, 2, first.Notified)
	assert.Equal(t, scheduler.Report{Scanned: 2, Skipped: 2}, second)
	assert.Len(t, n.jobIDs(), 2, "each job is fanned out once")
}

func TestSweep_ClaimsAreShared(t *testing.T) {
	n := &fakeNotifier{}
	claims := scheduler.NewMemoryClaims()
	repo := recentJobs()

	a := newScheduler(repo, n, claims).Sweep(context.Background())
	b := newScheduler(repo, n, claims).Sweep(context.Background())

	assert.Equal(t, 2, a.Notified)
	assert.Equal(t, 2, b.Skipped)
}

func TestSweep_FailuresDoNotStopTheSweep(t *testing.T) {
	n := &fakeNotifier{notifyFn: func(jobID string) (*match.FanOutReport, error) {
		if jobID == "fresh-1" {
			return nil, errors.New("load job: connection reset")
		}
		return &match.FanOutReport{JobID: jobID}, nil
	}}
	s := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims())

	report := s.Sweep(context.Background())

	assert.Equal(t, scheduler.Report{Scanned: 2, Notified: 1, Failed: 1}, report)
}

func TestSweep_HardFailureReleasesClaim(t *testing.T) {
	down := true
	n := &fakeNotifier{notifyFn: func(jobID string) (*match.FanOutReport, error) {
		if jobID == "fresh-1" && down {
			return nil, errors.New("load job: connection reset")
		}
		return &match.FanOutReport{JobID: jobID, Selected: 1, Delivered: 1}, nil
	}}
	s := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims())

	first := s.Sweep(context.Background())
	assert.Equal(t, scheduler.Report{Scanned: 2, Notified: 1, Failed: 1}, first)

	down = false
	second := s.Sweep(context.Background())
	assert.Equal(t, scheduler.Report{Scanned: 2, Notified: 1, Skipped: 1}, second, "fresh-1 is retried")
	assert.Equal(t, []string{"fresh-1", "fresh-1", "fresh-2"}, n.jobIDs())
}

func TestSweep_InterruptedFanOutKeepsClaim(t *testing.T) {
	n := &fakeNotifier{notifyFn: func(jobID string) (*match.FanOutReport, error) {
		return &match.FanOutReport{JobID: jobID, Selected: 3, Delivered: 1}, context.Canceled
	}}
	s := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims())

	first := s.Sweep(context.Background())
	second := s.Sweep(context.Background())

	assert.Equal(t, 2, first.Failed)
	assert.Equal(t, 2, second.Skipped, "recipients already notified are not notified twice")
}

func TestSweep_PartialDeliveryStillCountsAsNotified(t *testing.T) {
	n := &fakeNotifier{notifyFn: func(jobID string) (*match.FanOutReport, error) {
		return &match.FanOutReport{
			JobID:     jobID,
			Selected:  2,
			Delivered: 1,
			Failed:    []match.DispatchFailure{{ApplicantID: "a1", Error: "unknown recipient"}},
		}, nil
	}}
	s := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims())

	report := s.Sweep(context.Background())
	assert.Equal(t, 2, report.Notified)
	assert.Zero(t, report.Failed)
}

func TestSweep_ClaimFailure(t *testing.T) {
	n := &fakeNotifier{}
	s := newScheduler(recentJobs(), n, failingClaims{})

	report := s.Sweep(context.Background())

	assert.Equal(t, scheduler.Report{Scanned: 2, Failed: 2}, report)
	assert.Empty(t, n.jobIDs(), "unclaimed jobs are never notified")
}

func TestSweep_RepositoryFailure(t *testing.T) {
	repo := recentJobs()
	repo.Err = errors.New("db down")
	n := &fakeNotifier{}

	report := newScheduler(repo, n, scheduler.NewMemoryClaims()).Sweep(context.Background())

	assert.Equal(t, scheduler.Report{}, report)
	assert.Empty(t, n.jobIDs())
}

func TestSweep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := &fakeNotifier{}

	report := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims()).Sweep(ctx)

	assert.Zero(t, report.Scanned)
	assert.Empty(t, n.jobIDs())
}

func TestScheduler_StartSweepsImmediately(t *testing.T) {
	n := &fakeNotifier{}
	s := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return len(n.jobIDs()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_StopWaitsForStartupSweep(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	var finished sync.WaitGroup
	finished.Add(2)
	n := &fakeNotifier{notifyFn: func(jobID string) (*match.FanOutReport, error) {
		defer finished.Done()
		entered <- struct{}{}
		<-release
		return &match.FanOutReport{JobID: jobID}, nil
	}}
	s := newScheduler(recentJobs(), n, scheduler.NewMemoryClaims())
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("startup sweep did not reach the notifier")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the startup sweep was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the sweep finished")
	}
	finished.Wait()
}
