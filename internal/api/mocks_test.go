package api_test

import (
	"context"

	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
	"agrotalent/matching-service/internal/notify"
)

type mockMatcher struct {
	explainFn      func(ctx context.Context, jobID, applicantID string) (match.Score, error)
	forJobFn       func(ctx context.Context, jobID string) ([]model.MatchResult, error)
	forApplicantFn func(ctx context.Context, applicantID string) ([]model.MatchResult, error)
	allRegionsFn   func(ctx context.Context, applicantID string) ([]model.MatchResult, error)
	notifyFn       func(ctx context.Context, jobID string) (*match.FanOutReport, error)
}

func (m *mockMatcher) Explain(ctx context.Context, jobID, applicantID string) (match.Score, error) {
	if m.explainFn != nil {
		return m.explainFn(ctx, jobID, applicantID)
	}
	return match.Score{}, nil
}

func (m *mockMatcher) MatchesForJob(ctx context.Context, jobID string) ([]model.MatchResult, error) {
	if m.forJobFn != nil {
		return m.forJobFn(ctx, jobID)
	}
	return []model.MatchResult{}, nil
}

func (m *mockMatcher) MatchesForApplicant(ctx context.Context, applicantID string) ([]model.MatchResult, error) {
	if m.forApplicantFn != nil {
		return m.forApplicantFn(ctx, applicantID)
	}
	return []model.MatchResult{}, nil
}

func (m *mockMatcher) MatchesForApplicantAllRegions(ctx context.Context, applicantID string) ([]model.MatchResult, error) {
	if m.allRegionsFn != nil {
		return m.allRegionsFn(ctx, applicantID)
	}
	return []model.MatchResult{}, nil
}

func (m *mockMatcher) NotifyTopMatches(ctx context.Context, jobID string) (*match.FanOutReport, error) {
	if m.notifyFn != nil {
		return m.notifyFn(ctx, jobID)
	}
	return &match.FanOutReport{JobID: jobID}, nil
}

type mockNotifications struct {
	listFn     func(ctx context.Context, userID string, opts notify.ListOptions) ([]model.Notification, error)
	markReadFn func(ctx context.Context, userID string, ids []string) (int64, error)
}

func (m *mockNotifications) List(ctx context.Context, userID string, opts notify.ListOptions) ([]model.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, opts)
	}
	return []model.Notification{}, nil
}

func (m *mockNotifications) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, userID, ids)
	}
	return 0, nil
}
