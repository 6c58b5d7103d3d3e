package match

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"agrotalent/matching-service/internal/logger"
	"agrotalent/matching-service/internal/model"
)

// MatchFoundTitle is the title of every match notification.
const MatchFoundTitle = "New Job Match Found"

// Message is one notification handed to a Dispatcher.
type Message struct {
	Type    string
	Title   string
	Message string
	Link    string
}

// Dispatcher delivers a message to one user. Implementations live in the
// notify package.
type Dispatcher interface {
	Send(ctx context.Context, userID string, msg Message) error
}

// DispatchFailure records one recipient the fan-out could not reach.
type DispatchFailure struct {
	ApplicantID string `json:"applicant_id"`
	Error       string `json:"error"`
	err         error
}

// FanOutReport summarises one NotifyTopMatches call.
type FanOutReport struct {
	JobID     string            `json:"job_id"`
	Selected  int               `json:"selected"`
	Delivered int               `json:"delivered"`
	Failed    []DispatchFailure `json:"failed"`
}

// Err joins the per-recipient failures, or returns nil if every dispatch
// succeeded.
func (r *FanOutReport) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		cause := f.err
		if cause == nil {
			// decoded from JSON, only the message survives
			cause = errors.New(f.Error)
		}
		errs = append(errs, fmt.Errorf("notify %s: %w", f.ApplicantID, cause))
	}
	return errors.Join(errs...)
}

// MatchFoundMessage builds the notification sent for job.
func MatchFoundMessage(job *model.Job) Message {
	return Message{
		Type:    model.NotificationTypeMatchFound,
		Title:   MatchFoundTitle,
		Message: fmt.Sprintf("A new %s position in %s matches your profile: %s", job.JobType, job.Location, job.Title),
		Link:    "/jobs/" + job.ID,
	}
}

// NotifyTopMatches sends a match notification to the best applicants for
// jobID: those scoring at least Policy.NotifyMinScore, at most
// Policy.NotifyLimit of them, best first. A failed dispatch is logged and
// recorded in the report; the remaining recipients are still attempted.
// The returned error is reserved for failures that stop the whole fan-out.
func (f *Finder) NotifyTopMatches(ctx context.Context, jobID string) (*FanOutReport, error) {
	if f.dispatcher == nil {
		return nil, errors.New("notify top matches: no dispatcher configured")
	}

	report := &FanOutReport{JobID: jobID, Failed: []DispatchFailure{}}

	job, err := f.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return report, nil
	}

	matches, err := f.MatchesForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	top := make([]model.MatchResult, 0, f.policy.NotifyLimit)
	for _, m := range matches {
		if len(top) == f.policy.NotifyLimit {
			break
		}
		if m.MatchScore >= f.policy.NotifyMinScore {
			top = append(top, m)
		}
	}
	report.Selected = len(top)

	msg := MatchFoundMessage(job)
	for _, m := range top {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := f.dispatcher.Send(ctx, m.ApplicantID, msg); err != nil {
			f.logger.Warn("match notification failed",
				zap.String(logger.FieldJobID, job.ID),
				zap.String(logger.FieldApplicantID, m.ApplicantID),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, DispatchFailure{
				ApplicantID: m.ApplicantID,
				Error:       err.Error(),
				err:         err,
			})
			continue
		}
		report.Delivered++
	}

	f.logger.Info("match notifications sent",
		zap.String(logger.FieldJobID, job.ID),
		zap.Int("selected", report.Selected),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}
