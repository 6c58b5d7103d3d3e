package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agrotalent/matching-service/internal/db"
	"agrotalent/matching-service/internal/model"
)

const (
	sqliteJobColumns = `id, farm_id, title, location, job_type, required_qualification,
		required_institution_type, required_specialization, status, created_at`
	sqliteProfileColumns = `id, full_name, role, preferred_region, is_verified, qualification,
		institution_type, specialization, nss_status, created_at`
)

// SQLite is a single-file Repository for local and single-node deployments.
// Unlike Postgres it owns its tables, so it also exposes inserts for seeding.
type SQLite struct {
	db *sql.DB
}

var _ Repository = (*SQLite)(nil)

// NewSQLite wraps a database opened with db.NewSQLite.
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{db: conn}
}

// InsertJob stores j, replacing any job with the same id.
func (s *SQLite) InsertJob(ctx context.Context, j model.Job) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs (`+sqliteJobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.FarmID, j.Title, j.Location, j.JobType,
		j.RequiredQualification, j.RequiredInstitutionType, j.RequiredSpecialization,
		j.Status, db.FormatSQLiteTime(j.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insertJob: %w", err)
	}
	return nil
}

// InsertProfile stores p, replacing any profile with the same id.
func (s *SQLite) InsertProfile(ctx context.Context, p model.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO profiles (`+sqliteProfileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FullName, p.Role, p.PreferredRegion, p.IsVerified,
		p.Qualification, p.InstitutionType, p.Specialization, p.NSSStatus,
		db.FormatSQLiteTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insertProfile: %w", err)
	}
	return nil
}

func (s *SQLite) GetJob(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteJobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanSQLiteJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}
	return j, nil
}

func (s *SQLite) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteProfileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanSQLiteProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getProfile: %w", err)
	}
	return p, nil
}

func (s *SQLite) QueryJobs(ctx context.Context, preds Predicates) ([]model.Job, error) {
	where, args, err := buildWhere(preds, jobFields, question, 0)
	if err != nil {
		return nil, err
	}
	return s.jobs(ctx, `SELECT `+sqliteJobColumns+` FROM jobs WHERE `+where+` ORDER BY created_at, id`, args...)
}

func (s *SQLite) QueryProfiles(ctx context.Context, preds Predicates) ([]model.Profile, error) {
	where, args, err := buildWhere(preds, profileFields, question, 0)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteProfileColumns+` FROM profiles WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("queryProfiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]model.Profile, 0)
	for rows.Next() {
		p, err := scanSQLiteProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("queryProfiles scan: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *SQLite) RecentActiveJobs(ctx context.Context, since time.Time) ([]model.Job, error) {
	return s.jobs(ctx,
		`SELECT `+sqliteJobColumns+` FROM jobs
		 WHERE status = 'active' AND created_at >= ?
		 ORDER BY created_at, id`, db.FormatSQLiteTime(since))
}

func (s *SQLite) jobs(ctx context.Context, query string, args ...any) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryJobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, fmt.Errorf("queryJobs scan: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func scanSQLiteJob(r rowScanner) (*model.Job, error) {
	var (
		j       model.Job
		farmID  sql.NullString
		created string
	)
	if err := r.Scan(
		&j.ID, &farmID, &j.Title, &j.Location, &j.JobType,
		&j.RequiredQualification, &j.RequiredInstitutionType, &j.RequiredSpecialization,
		&j.Status, &created,
	); err != nil {
		return nil, err
	}
	j.FarmID = farmID.String
	t, err := db.ParseSQLiteTime(created)
	if err != nil {
		return nil, err
	}
	j.CreatedAt = t
	return &j, nil
}

func scanSQLiteProfile(r rowScanner) (*model.Profile, error) {
	var (
		p        model.Profile
		fullName sql.NullString
		created  string
	)
	if err := r.Scan(
		&p.ID, &fullName, &p.Role, &p.PreferredRegion, &p.IsVerified,
		&p.Qualification, &p.InstitutionType, &p.Specialization, &p.NSSStatus, &created,
	); err != nil {
		return nil, err
	}
	p.FullName = fullName.String
	t, err := db.ParseSQLiteTime(created)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = t
	return &p, nil
}
