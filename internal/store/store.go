// Package store provides read access to jobs and applicant profiles.
//
// Candidate narrowing is expressed as a Predicates list so the same filter
// can be evaluated by SQL (Postgres, SQLite) or in memory.
package store

import (
	"context"
	"errors"
	"time"

	"agrotalent/matching-service/internal/model"
)

// ErrNotFound is returned when a job or profile does not exist.
var ErrNotFound = errors.New("not found")

// Repository is the read side of the marketplace database used by matching.
type Repository interface {
	GetJob(ctx context.Context, id string) (*model.Job, error)
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	QueryJobs(ctx context.Context, preds Predicates) ([]model.Job, error)
	QueryProfiles(ctx context.Context, preds Predicates) ([]model.Profile, error)
	// RecentActiveJobs lists active jobs created at or after since, oldest first.
	RecentActiveJobs(ctx context.Context, since time.Time) ([]model.Job, error)
}

// Kind selects how a Predicate compares its field.
type Kind int

const (
	// KindEq requires field = Values[0].
	KindEq Kind = iota
	// KindIn requires field to equal one of Values.
	KindIn
	// KindAnyOf is an OR of equalities; a nil entry in Values matches NULL.
	KindAnyOf
)

func (k Kind) String() string {
	switch k {
	case KindEq:
		return "eq"
	case KindIn:
		return "in"
	case KindAnyOf:
		return "any_of"
	}
	return "unknown"
}

// Predicate constrains one column.
type Predicate struct {
	Field  string
	Kind   Kind
	Values []any
}

// Predicates are ANDed together.
type Predicates []Predicate

// Eq builds field = v.
func Eq(field string, v any) Predicate {
	return Predicate{Field: field, Kind: KindEq, Values: []any{v}}
}

// In builds field IN (vs...).
func In(field string, vs ...string) Predicate {
	values := make([]any, 0, len(vs))
	for _, v := range vs {
		values = append(values, v)
	}
	return Predicate{Field: field, Kind: KindIn, Values: values}
}

// AnyOf builds (field = a OR field = b ...). A nil alternative means IS NULL.
func AnyOf(field string, alts ...*string) Predicate {
	values := make([]any, 0, len(alts))
	for _, a := range alts {
		if a == nil {
			values = append(values, nil)
			continue
		}
		values = append(values, *a)
	}
	return Predicate{Field: field, Kind: KindAnyOf, Values: values}
}

// Job and profile columns that predicates may reference.
var (
	jobFields = map[string]bool{
		"id": true, "farm_id": true, "location": true, "job_type": true, "status": true,
		"required_qualification": true, "required_institution_type": true, "required_specialization": true,
	}
	profileFields = map[string]bool{
		"id": true, "role": true, "preferred_region": true, "is_verified": true,
		"qualification": true, "institution_type": true, "specialization": true, "nss_status": true,
	}
)
