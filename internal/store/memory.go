package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agrotalent/matching-service/internal/model"
)

// Memory is an in-process Repository. Query results keep insertion order.
type Memory struct {
	mu       sync.RWMutex
	jobs     []model.Job
	profiles []model.Profile

	// Err, when set, is returned by every read. Used to simulate an outage.
	Err error
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{}
}

// AddJob appends (or replaces, by id) a job.
func (m *Memory) AddJob(j model.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID == j.ID {
			m.jobs[i] = j
			return
		}
	}
	m.jobs = append(m.jobs, j)
}

// AddProfile appends (or replaces, by id) a profile.
func (m *Memory) AddProfile(p model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.profiles {
		if m.profiles[i].ID == p.ID {
			m.profiles[i] = p
			return
		}
	}
	m.profiles = append(m.profiles, p)
}

func (m *Memory) GetJob(_ context.Context, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			j := m.jobs[i]
			return &j, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.profiles {
		if m.profiles[i].ID == id {
			p := m.profiles[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) QueryJobs(_ context.Context, preds Predicates) ([]model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Job, 0)
	for i := range m.jobs {
		ok, err := matchAll(preds, jobFields, func(f string) any { return jobField(&m.jobs[i], f) })
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m.jobs[i])
		}
	}
	return out, nil
}

func (m *Memory) QueryProfiles(_ context.Context, preds Predicates) ([]model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Profile, 0)
	for i := range m.profiles {
		ok, err := matchAll(preds, profileFields, func(f string) any { return profileField(&m.profiles[i], f) })
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m.profiles[i])
		}
	}
	return out, nil
}

func (m *Memory) RecentActiveJobs(_ context.Context, since time.Time) ([]model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Job, 0)
	for _, j := range m.jobs {
		if j.Status == model.JobStatusActive && !j.CreatedAt.Before(since) {
			out = append(out, j)
		}
	}
	return out, nil
}

// matchAll evaluates preds against one record; get returns the column value
// with NULL as nil.
func matchAll(preds Predicates, allowed map[string]bool, get func(string) any) (bool, error) {
	for _, p := range preds {
		if !allowed[p.Field] {
			return false, fmt.Errorf("unknown filter field %q", p.Field)
		}
		v := get(p.Field)
		switch p.Kind {
		case KindEq:
			if len(p.Values) != 1 || v == nil || v != p.Values[0] {
				return false, nil
			}
		case KindIn, KindAnyOf:
			hit := false
			for _, want := range p.Values {
				if want == v {
					hit = true
					break
				}
			}
			if !hit {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported predicate kind %s", p.Kind)
		}
	}
	return true, nil
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func jobField(j *model.Job, field string) any {
	switch field {
	case "id":
		return j.ID
	case "farm_id":
		return j.FarmID
	case "location":
		return j.Location
	case "job_type":
		return j.JobType
	case "status":
		return j.Status
	case "required_qualification":
		return deref(j.RequiredQualification)
	case "required_institution_type":
		return deref(j.RequiredInstitutionType)
	case "required_specialization":
		return deref(j.RequiredSpecialization)
	}
	return nil
}

func profileField(p *model.Profile, field string) any {
	switch field {
	case "id":
		return p.ID
	case "role":
		return p.Role
	case "preferred_region":
		return deref(p.PreferredRegion)
	case "is_verified":
		return p.IsVerified
	case "qualification":
		return deref(p.Qualification)
	case "institution_type":
		return deref(p.InstitutionType)
	case "specialization":
		return deref(p.Specialization)
	case "nss_status":
		return deref(p.NSSStatus)
	}
	return nil
}
