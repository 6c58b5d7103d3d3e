package match

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"agrotalent/matching-service/internal/logger"
	"agrotalent/matching-service/internal/model"
	"agrotalent/matching-service/internal/store"
)

// Policy holds the thresholds applied on top of raw scores.
type Policy struct {
	// ApplicantMinScore is the lowest score shown to an applicant browsing jobs.
	ApplicantMinScore int
	// NotifyMinScore is the lowest score that triggers a match notification.
	NotifyMinScore int
	// NotifyLimit caps the number of notifications per job.
	NotifyLimit int
}

// DefaultPolicy returns the marketplace defaults.
func DefaultPolicy() Policy {
	return Policy{ApplicantMinScore: 30, NotifyMinScore: 50, NotifyLimit: 10}
}

// candidateRoles are the profile roles that can be matched to a job.
var candidateRoles = []string{model.RoleGraduate, model.RoleStudent, model.RoleWorker}

// Options configures a Finder.
type Options struct {
	Repo       store.Repository
	Dispatcher Dispatcher
	Logger     *zap.Logger
	Policy     *Policy
}

// Finder runs the ranked searches and the notification fan-out. It keeps no
// state between calls.
type Finder struct {
	repo       store.Repository
	dispatcher Dispatcher
	logger     *zap.Logger
	policy     Policy
}

// NewFinder returns a Finder. A nil Policy means DefaultPolicy.
func NewFinder(opts Options) *Finder {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	return &Finder{
		repo:       opts.Repo,
		dispatcher: opts.Dispatcher,
		logger:     logger,
		policy:     policy,
	}
}

// Policy returns the thresholds in effect.
func (f *Finder) Policy() Policy { return f.policy }

// Score returns the match score for one job/applicant pair. A missing job or
// applicant scores 0.
func (f *Finder) Score(ctx context.Context, jobID, applicantID string) (int, error) {
	s, err := f.Explain(ctx, jobID, applicantID)
	if err != nil {
		return 0, err
	}
	return s.Value, nil
}

// Explain is Score with the reasons behind it. A missing side yields a zero
// Score with no reasons.
func (f *Finder) Explain(ctx context.Context, jobID, applicantID string) (Score, error) {
	job, err := f.job(ctx, jobID)
	if err != nil || job == nil {
		return Score{}, err
	}
	s, _, err := f.scoreAgainstApplicant(ctx, job, applicantID)
	return s, err
}

// MatchesForJob ranks every eligible applicant with a non-zero score for
// jobID, best first. An unknown job yields an empty list.
func (f *Finder) MatchesForJob(ctx context.Context, jobID string) ([]model.MatchResult, error) {
	job, err := f.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return []model.MatchResult{}, nil
	}

	preds := store.Predicates{
		store.Eq("is_verified", true),
		store.In("role", candidateRoles...),
	}
	if job.Location != "" {
		preds = append(preds, store.Eq("preferred_region", job.Location))
	}
	if req := job.InstitutionRequirement(); req != model.InstitutionAny {
		preds = append(preds, store.Eq("institution_type", req))
	}
	if req := value(job.RequiredSpecialization); req != "" {
		preds = append(preds, store.Eq("specialization", req))
	}

	candidates, err := f.repo.QueryProfiles(ctx, preds)
	if err != nil {
		return nil, fmt.Errorf("query candidate profiles: %w", err)
	}
	f.logger.Debug("scoring applicants for job",
		zap.String(logger.FieldJobID, job.ID),
		zap.Int("candidates", len(candidates)),
	)

	matches := make([]model.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		s, applicant, err := f.scoreAgainstApplicant(ctx, job, c.ID)
		if err != nil {
			return nil, err
		}
		if applicant != nil && s.Value > 0 {
			matches = append(matches, model.MatchResult{
				ApplicantID: applicant.ID,
				JobID:       job.ID,
				MatchScore:  s.Value,
				Applicant:   applicant,
			})
		}
	}

	rank(matches)
	return matches, nil
}

// MatchesForApplicant ranks active jobs for applicantID whose score reaches
// Policy.ApplicantMinScore, best first. An unknown applicant yields an empty list.
func (f *Finder) MatchesForApplicant(ctx context.Context, applicantID string) ([]model.MatchResult, error) {
	return f.matchesForApplicant(ctx, applicantID, false)
}

// MatchesForApplicantAllRegions is MatchesForApplicant without repository
// narrowing: every active job is scored, the threshold still applies.
func (f *Finder) MatchesForApplicantAllRegions(ctx context.Context, applicantID string) ([]model.MatchResult, error) {
	return f.matchesForApplicant(ctx, applicantID, true)
}

func (f *Finder) matchesForApplicant(ctx context.Context, applicantID string, allRegions bool) ([]model.MatchResult, error) {
	applicant, err := f.profile(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	if applicant == nil {
		return []model.MatchResult{}, nil
	}

	preds := store.Predicates{store.Eq("status", model.JobStatusActive)}
	if !allRegions {
		if region := value(applicant.PreferredRegion); region != "" {
			preds = append(preds, store.Eq("location", region))
		}
		if inst := value(applicant.InstitutionType); inst != "" {
			preds = append(preds, store.AnyOf("required_institution_type", &inst, model.Ptr(model.InstitutionAny)))
		}
		// jobs without a specialization requirement stay in
		if spec := value(applicant.Specialization); spec != "" {
			preds = append(preds, store.AnyOf("required_specialization", &spec, nil))
		}
	}

	jobs, err := f.repo.QueryJobs(ctx, preds)
	if err != nil {
		return nil, fmt.Errorf("query candidate jobs: %w", err)
	}
	f.logger.Debug("scoring jobs for applicant",
		zap.String(logger.FieldApplicantID, applicant.ID),
		zap.Int("candidates", len(jobs)),
		zap.Bool("all_regions", allRegions),
	)

	matches := make([]model.MatchResult, 0, len(jobs))
	for _, j := range jobs {
		s, job, err := f.scoreAgainstJob(ctx, j.ID, applicant)
		if err != nil {
			return nil, err
		}
		// a job deleted since the query no longer resolves and is dropped
		if job != nil && s.Value >= f.policy.ApplicantMinScore {
			matches = append(matches, model.MatchResult{
				ApplicantID: applicant.ID,
				JobID:       job.ID,
				MatchScore:  s.Value,
				Job:         job,
			})
		}
	}

	rank(matches)
	return matches, nil
}

// scoreAgainstApplicant fetches the applicant fresh and scores it against job.
// The profile is nil when it no longer exists.
func (f *Finder) scoreAgainstApplicant(ctx context.Context, job *model.Job, applicantID string) (Score, *model.Profile, error) {
	applicant, err := f.profile(ctx, applicantID)
	if err != nil || applicant == nil {
		return Score{}, nil, err
	}
	return ScorePair(job, applicant), applicant, nil
}

// scoreAgainstJob fetches the job fresh and scores applicant against it.
// The job is nil when it no longer exists.
func (f *Finder) scoreAgainstJob(ctx context.Context, jobID string, applicant *model.Profile) (Score, *model.Job, error) {
	job, err := f.job(ctx, jobID)
	if err != nil || job == nil {
		return Score{}, nil, err
	}
	return ScorePair(job, applicant), job, nil
}

// job returns (nil, nil) when the job does not exist.
func (f *Finder) job(ctx context.Context, id string) (*model.Job, error) {
	j, err := f.repo.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

// profile returns (nil, nil) when the profile does not exist.
func (f *Finder) profile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := f.repo.GetProfile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// rank orders matches best first. Equal scores keep repository order.
func rank(matches []model.MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
}
