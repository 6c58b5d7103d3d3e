package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotalent/matching-service/internal/db"
	"agrotalent/matching-service/internal/model"
	"agrotalent/matching-service/internal/store"
)

func newSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	conn, err := db.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "matching.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return store.NewSQLite(conn)
}

func TestSQLite_RoundTrip(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

	job := model.Job{
		ID:                      "job-1",
		FarmID:                  "farm-1",
		Title:                   "Poultry hand",
		Location:                "Ashanti",
		JobType:                 model.JobTypeFarmHand,
		RequiredQualification:   ptr("Certificate"),
		RequiredInstitutionType: ptr(model.InstitutionTrainingCollege),
		Status:                  model.JobStatusActive,
		CreatedAt:               created,
	}
	require.NoError(t, s.InsertJob(ctx, job))

	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, job, *got)
	assert.Nil(t, got.RequiredSpecialization)

	profile := model.Profile{
		ID:              "p-1",
		FullName:        "Ama Mensah",
		Role:            model.RoleStudent,
		PreferredRegion: ptr("Ashanti"),
		IsVerified:      true,
		NSSStatus:       ptr("pending"),
		CreatedAt:       created,
	}
	require.NoError(t, s.InsertProfile(ctx, profile))

	gotProfile, err := s.GetProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, profile, *gotProfile)
}

func TestSQLite_NotFound(t *testing.T) {
	s := newSQLite(t)

	_, err := s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLite_QueryMatchesMemory(t *testing.T) {
	s := newSQLite(t)
	mem := store.NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	jobs := []model.Job{
		{ID: "a", Location: "Volta", Status: model.JobStatusActive, RequiredInstitutionType: ptr(model.InstitutionAny)},
		{ID: "b", Location: "Volta", Status: model.JobStatusActive, RequiredInstitutionType: ptr(model.InstitutionUniversity), RequiredSpecialization: ptr("Agronomy")},
		{ID: "c", Location: "Volta", Status: model.JobStatusActive},
		{ID: "d", Location: "Ashanti", Status: model.JobStatusActive, RequiredInstitutionType: ptr(model.InstitutionAny)},
		{ID: "e", Location: "Volta", Status: model.JobStatusFilled, RequiredInstitutionType: ptr(model.InstitutionAny)},
		{ID: "f", Location: "Volta", Status: model.JobStatusActive, RequiredInstitutionType: ptr(model.InstitutionUniversity), RequiredSpecialization: ptr("Fisheries")},
	}
	for i, j := range jobs {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.InsertJob(ctx, j))
		mem.AddJob(j)
	}

	inst, spec := model.InstitutionUniversity, "Agronomy"
	preds := store.Predicates{
		store.Eq("status", model.JobStatusActive),
		store.Eq("location", "Volta"),
		store.AnyOf("required_institution_type", &inst, ptr(model.InstitutionAny)),
		store.AnyOf("required_specialization", &spec, nil),
	}

	fromSQL, err := s.QueryJobs(ctx, preds)
	require.NoError(t, err)
	fromMemory, err := mem.QueryJobs(ctx, preds)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, jobIDs(fromSQL))
	assert.Equal(t, jobIDs(fromMemory), jobIDs(fromSQL))
}

func TestSQLite_QueryProfiles(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	profiles := []model.Profile{
		{ID: "grad", Role: model.RoleGraduate, IsVerified: true, PreferredRegion: ptr("Volta")},
		{ID: "farm", Role: model.RoleFarm, IsVerified: true, PreferredRegion: ptr("Volta")},
		{ID: "unverified", Role: model.RoleStudent, PreferredRegion: ptr("Volta")},
		{ID: "worker", Role: model.RoleWorker, IsVerified: true, PreferredRegion: ptr("Volta")},
	}
	for i, p := range profiles {
		p.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.InsertProfile(ctx, p))
	}

	got, err := s.QueryProfiles(ctx, store.Predicates{
		store.Eq("is_verified", true),
		store.In("role", model.RoleGraduate, model.RoleStudent, model.RoleWorker),
		store.Eq("preferred_region", "Volta"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"grad", "worker"}, profileIDs(got))
}

func TestSQLite_RecentActiveJobs(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertJob(ctx, model.Job{ID: "old", Status: model.JobStatusActive, CreatedAt: now.Add(-72 * time.Hour)}))
	require.NoError(t, s.InsertJob(ctx, model.Job{ID: "recent", Status: model.JobStatusActive, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, s.InsertJob(ctx, model.Job{ID: "inactive", Status: model.JobStatusInactive, CreatedAt: now.Add(-time.Hour)}))

	got, err := s.RecentActiveJobs(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"recent"}, jobIDs(got))
}
