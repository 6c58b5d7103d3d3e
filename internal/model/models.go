// Package model defines the records shared by the matching service.
//
// Jobs and profiles are owned by the marketplace database; this service only
// reads them. Nullable columns are pointers so that "not set" and "empty"
// stay distinguishable.
package model

import "time"

// Institution types stored in profiles.institution_type and
// jobs.required_institution_type.
const (
	InstitutionUniversity      = "university"
	InstitutionTrainingCollege = "training_college"
	InstitutionAny             = "any"
)

// Job types with dedicated scoring rules. Other values are allowed.
const (
	JobTypeFarmHand      = "farm_hand"
	JobTypeFarmManager   = "farm_manager"
	JobTypeIntern        = "intern"
	JobTypeNSS           = "nss"
	JobTypeDataCollector = "data_collector"
)

// Job statuses.
const (
	JobStatusActive   = "active"
	JobStatusFilled   = "filled"
	JobStatusInactive = "inactive"
)

// Profile roles.
const (
	RoleGraduate = "graduate"
	RoleStudent  = "student"
	RoleWorker   = "worker"
	RoleSkilled  = "skilled"
	RoleFarm     = "farm"
	RoleAdmin    = "admin"
)

// NSSNotApplicable is the nss_status value that excludes a student from
// NSS/internship eligibility.
const NSSNotApplicable = "not_applicable"

// Job mirrors the jobs table columns the matcher reads.
type Job struct {
	ID                      string    `json:"id"`
	FarmID                  string    `json:"farm_id,omitempty"`
	Title                   string    `json:"title"`
	Location                string    `json:"location"`
	JobType                 string    `json:"job_type"`
	RequiredQualification   *string   `json:"required_qualification"`
	RequiredInstitutionType *string   `json:"required_institution_type"`
	RequiredSpecialization  *string   `json:"required_specialization"`
	Status                  string    `json:"status"`
	CreatedAt               time.Time `json:"created_at"`
}

// InstitutionRequirement returns the required institution type, treating a
// NULL column as "any".
func (j *Job) InstitutionRequirement() string {
	if j.RequiredInstitutionType == nil || *j.RequiredInstitutionType == "" {
		return InstitutionAny
	}
	return *j.RequiredInstitutionType
}

// Profile mirrors the profiles table columns the matcher reads.
type Profile struct {
	ID              string    `json:"id"`
	FullName        string    `json:"full_name,omitempty"`
	Role            string    `json:"role"`
	PreferredRegion *string   `json:"preferred_region"`
	IsVerified      bool      `json:"is_verified"`
	Qualification   *string   `json:"qualification"`
	InstitutionType *string   `json:"institution_type"`
	Specialization  *string   `json:"specialization"`
	NSSStatus       *string   `json:"nss_status"`
	CreatedAt       time.Time `json:"created_at"`
}

// MatchResult is one ranked job/applicant pairing. Reasons are only filled
// when the caller asked for an explanation. Ranked lists carry the other
// side of the pairing: Applicant on a job's list, Job on an applicant's.
type MatchResult struct {
	ApplicantID string   `json:"applicant_id"`
	JobID       string   `json:"job_id"`
	MatchScore  int      `json:"match_score"`
	Reasons     []string `json:"reasons,omitempty"`
	Job         *Job     `json:"job,omitempty"`
	Applicant   *Profile `json:"applicant,omitempty"`
}

// NotificationTypeMatchFound is the notifications.type used for match fan-out.
const NotificationTypeMatchFound = "match_found"

// Notification mirrors a row of the notifications table.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      *string   `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Ptr returns a pointer to s. Handy for nullable columns in fixtures.
func Ptr(s string) *string { return &s }
