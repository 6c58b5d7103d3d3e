package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"agrotalent/matching-service/internal/model"
)

const (
	pgJobColumns = `id::text, COALESCE(farm_id::text, ''), title, location, job_type::text,
		required_qualification, required_institution_type::text, required_specialization,
		status::text, created_at`
	pgProfileColumns = `id::text, COALESCE(full_name, ''), role::text, preferred_region, is_verified,
		qualification, institution_type::text, specialization, nss_status::text, created_at`
)

// Postgres reads jobs and profiles from the marketplace database.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Postgres)(nil)

// NewPostgres returns a Repository backed by pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) GetJob(ctx context.Context, id string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		return nil, pgNotFound(err, "getJob")
	}
	return j, nil
}

func (s *Postgres) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgProfileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, pgNotFound(err, "getProfile")
	}
	return p, nil
}

func (s *Postgres) QueryJobs(ctx context.Context, preds Predicates) ([]model.Job, error) {
	where, args, err := buildWhere(preds, jobFields, dollar, 0)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgJobColumns+` FROM jobs WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("queryJobs: %w", err)
	}
	return collectJobs(rows)
}

func (s *Postgres) QueryProfiles(ctx context.Context, preds Predicates) ([]model.Profile, error) {
	where, args, err := buildWhere(preds, profileFields, dollar, 0)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgProfileColumns+` FROM profiles WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("queryProfiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]model.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("queryProfiles scan: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *Postgres) RecentActiveJobs(ctx context.Context, since time.Time) ([]model.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgJobColumns+` FROM jobs
		 WHERE status = 'active' AND created_at >= $1
		 ORDER BY created_at, id`, since)
	if err != nil {
		return nil, fmt.Errorf("recentActiveJobs: %w", err)
	}
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]model.Job, error) {
	defer rows.Close()
	jobs := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// rowScanner is satisfied by pgx.Row, pgx.Rows and *sql.Row(s).
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*model.Job, error) {
	var j model.Job
	if err := r.Scan(
		&j.ID, &j.FarmID, &j.Title, &j.Location, &j.JobType,
		&j.RequiredQualification, &j.RequiredInstitutionType, &j.RequiredSpecialization,
		&j.Status, &j.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

func scanProfile(r rowScanner) (*model.Profile, error) {
	var p model.Profile
	if err := r.Scan(
		&p.ID, &p.FullName, &p.Role, &p.PreferredRegion, &p.IsVerified,
		&p.Qualification, &p.InstitutionType, &p.Specialization, &p.NSSStatus, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// pgNotFound maps a missing row, or an id that is not a valid uuid, to
// ErrNotFound. Anything else is a store failure.
func pgNotFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
