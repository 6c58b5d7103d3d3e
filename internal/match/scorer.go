// Package match implements job/applicant compatibility scoring and the
// ranked searches built on top of it.
//
// Scoring is additive and capped:
//
//	same region                          +50
//	verified applicant                   +20
//	qualification contains requirement   +15
//	institution type matches requirement +10
//	specialization equals requirement    +15
//	farm_hand    ← training_college      +10
//	farm_manager ← university            +10
//	intern/nss   ← student (NSS eligible) +20
//
// The total is clamped to MaxScore.
package match

import (
	"strings"

	"agrotalent/matching-service/internal/model"
)

// Score weights.
const (
	WeightLocation       = 50
	WeightVerified       = 20
	WeightQualification  = 15
	WeightInstitution    = 10
	WeightSpecialization = 15
	WeightJobTypeFit     = 10
	WeightNSSEligible    = 20

	MaxScore = 100
)

// Reason texts, in evaluation order.
const (
	ReasonLocationMatch    = "Location match (same region)"
	ReasonLocationMismatch = "Location mismatch - different region"
	ReasonVerified         = "Verified applicant"
	ReasonQualification    = "Qualification match"
	ReasonInstitution      = "Institution type match"
	ReasonSpecialization   = "Specialization match"
	ReasonFarmHand         = "Suitable for farm hand position"
	ReasonFarmManager      = "Suitable for management position"
	ReasonNSSEligible      = "NSS/Internship eligible"
)

// Score is the outcome of scoring one job against one applicant.
type Score struct {
	Value   int
	Reasons []string
}

// ScorePair computes the compatibility of applicant for job. It does no I/O
// and never fails; both records must be non-nil.
func ScorePair(job *model.Job, applicant *model.Profile) Score {
	total := 0
	reasons := make([]string, 0, 8)
	add := func(points int, reason string) {
		total += points
		reasons = append(reasons, reason)
	}

	if applicant.PreferredRegion != nil && job.Location == *applicant.PreferredRegion {
		add(WeightLocation, ReasonLocationMatch)
	} else {
		reasons = append(reasons, ReasonLocationMismatch)
	}

	if applicant.IsVerified {
		add(WeightVerified, ReasonVerified)
	}

	if req := value(job.RequiredQualification); req != "" {
		if strings.Contains(strings.ToLower(value(applicant.Qualification)), strings.ToLower(req)) {
			add(WeightQualification, ReasonQualification)
		}
	}

	if req := job.InstitutionRequirement(); req != model.InstitutionAny {
		if value(applicant.InstitutionType) == req {
			add(WeightInstitution, ReasonInstitution)
		}
	}

	if req, have := value(job.RequiredSpecialization), value(applicant.Specialization); req != "" && have != "" {
		if strings.ToLower(req) == strings.ToLower(have) {
			add(WeightSpecialization, ReasonSpecialization)
		}
	}

	hasQualification := value(applicant.Qualification) != ""
	institution := value(applicant.InstitutionType)

	switch job.JobType {
	case model.JobTypeFarmHand:
		if hasQualification && institution == model.InstitutionTrainingCollege {
			add(WeightJobTypeFit, ReasonFarmHand)
		}
	case model.JobTypeFarmManager:
		if hasQualification && institution == model.InstitutionUniversity {
			add(WeightJobTypeFit, ReasonFarmManager)
		}
	case model.JobTypeIntern, model.JobTypeNSS:
		// a NULL nss_status counts as eligible
		if applicant.Role == model.RoleStudent && value(applicant.NSSStatus) != model.NSSNotApplicable {
			add(WeightNSSEligible, ReasonNSSEligible)
		}
	}

	return Score{Value: min(total, MaxScore), Reasons: reasons}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
