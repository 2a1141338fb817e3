package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS job_postings (
	doc_name TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	job_title TEXT NOT NULL,
	commitment TEXT,
	department TEXT,
	team TEXT,
	level TEXT,
	location TEXT,
	all_locations TEXT,
	country TEXT,
	workplace_type TEXT,
	tags TEXT,
	description TEXT,
	bullet_sections TEXT,
	closing_text TEXT,
	full_text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_postings_department ON job_postings(department);
CREATE INDEX IF NOT EXISTS idx_job_postings_updated_at ON job_postings(updated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// UpsertJobs writes one scrape result in a single transaction. Doc names are
// stable between refreshes, so conflicting rows are overwritten in place.
func (r *JobRepository) UpsertJobs(ctx context.Context, jobs []domain.JobPosting) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO job_postings (
	doc_name, job_id, job_title, commitment, department, team, level, location,
	all_locations, country, workplace_type, tags, description, bullet_sections,
	closing_text, full_text, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (doc_name) DO UPDATE SET
	job_id = EXCLUDED.job_id,
	job_title = EXCLUDED.job_title,
	commitment = EXCLUDED.commitment,
	department = EXCLUDED.department,
	team = EXCLUDED.team,
	level = EXCLUDED.level,
	location = EXCLUDED.location,
	all_locations = EXCLUDED.all_locations,
	country = EXCLUDED.country,
	workplace_type = EXCLUDED.workplace_type,
	tags = EXCLUDED.tags,
	description = EXCLUDED.description,
	bullet_sections = EXCLUDED.bullet_sections,
	closing_text = EXCLUDED.closing_text,
	full_text = EXCLUDED.full_text,
	updated_at = EXCLUDED.updated_at
`
	now := time.Now().UTC()
	for _, job := range jobs {
		createdAt := job.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := tx.ExecContext(ctx, query,
			job.DocName, job.JobID, job.JobTitle, job.Commitment, job.Department,
			job.Team, job.Level, job.Location, job.AllLocations, job.Country,
			job.WorkplaceType, job.Tags, job.Description, job.BulletSections,
			job.ClosingText, job.FullText, createdAt, now,
		)
		if err != nil {
			return fmt.Errorf("upsert job %s: %w", job.DocName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

const jobColumns = `doc_name, job_id, job_title, commitment, department, team, level, location,
all_locations, country, workplace_type, tags, description, bullet_sections,
closing_text, full_text, created_at, updated_at`

func (r *JobRepository) GetByDocName(ctx context.Context, docName string) (*domain.JobPosting, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+jobColumns+`
FROM job_postings
WHERE doc_name = $1
`, docName)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("doc %s", docName))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) FullText(ctx context.Context, docName string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT full_text FROM job_postings WHERE doc_name = $1
`, docName)

	var text string
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.WrapError(domain.ErrJobNotFound, "full text", fmt.Errorf("doc %s", docName))
		}
		return "", fmt.Errorf("scan full text: %w", err)
	}
	return text, nil
}

// ListDocNames returns the document enumeration the planner validates
// against, ordered by the numeric suffix baked into doc_name creation order.
func (r *JobRepository) ListDocNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT doc_name FROM job_postings ORDER BY created_at, doc_name
`)
	if err != nil {
		return nil, fmt.Errorf("query doc names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan doc name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doc names: %w", err)
	}
	return names, nil
}

func (r *JobRepository) ListJobs(ctx context.Context) ([]domain.JobPosting, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+jobColumns+`
FROM job_postings
ORDER BY created_at, doc_name
`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.JobPosting, error) {
	var job domain.JobPosting
	err := row.Scan(
		&job.DocName, &job.JobID, &job.JobTitle, &job.Commitment, &job.Department,
		&job.Team, &job.Level, &job.Location, &job.AllLocations, &job.Country,
		&job.WorkplaceType, &job.Tags, &job.Description, &job.BulletSections,
		&job.ClosingText, &job.FullText, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
