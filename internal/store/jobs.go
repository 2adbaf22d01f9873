package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
)

// JobRepository persists the immutable Job entity.
type JobRepository interface {
	Create(ctx context.Context, job model.Job) error
	GetByID(ctx context.Context, id model.JobId) (model.Job, error)
	ListByRunAndSite(ctx context.Context, runID, siteID string) ([]model.Job, error)
}

type jobRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewJobRepository(db *sql.DB, logger *slog.Logger) JobRepository {
	return &jobRepo{db: db, log: logger}
}

func (r *jobRepo) Create(ctx context.Context, job model.Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, site_id, title, company, location, country, url, salary, description, requirements, posted_date, scraped_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		string(job.ID), job.SiteID, job.Title, job.Company, job.Location, job.Country, job.URL,
		job.Salary, job.Description, job.Requirements, job.PostedDate, job.ScrapedAt.UnixMilli(), job.RunID,
	)
	if err != nil {
		r.log.Error("store.jobs.create_failed", "job_id", job.ID, "error", err)
		return common.WrapError(err, "insert job")
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id model.JobId) (model.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, site_id, title, company, location, country, url, salary, description, requirements, posted_date, scraped_at, run_id
		FROM jobs WHERE id = ?`, string(id))
	return scanJob(row)
}

func (r *jobRepo) ListByRunAndSite(ctx context.Context, runID, siteID string) ([]model.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, site_id, title, company, location, country, url, salary, description, requirements, posted_date, scraped_at, run_id
		FROM jobs WHERE run_id = ? AND site_id = ?`, runID, siteID)
	if err != nil {
		return nil, common.WrapError(err, "list jobs by run/site")
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.Job, error) {
	var (
		id, siteID, title, company, location string
		country, url, salary, description    sql.NullString
		requirements, postedDate              sql.NullString
		scrapedAtMs                           int64
		runID                                 string
	)
	if err := row.Scan(&id, &siteID, &title, &company, &location, &country, &url, &salary,
		&description, &requirements, &postedDate, &scrapedAtMs, &runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, common.ErrNotFound
		}
		return model.Job{}, err
	}
	return model.Job{
		ID:           model.JobId(id),
		SiteID:       siteID,
		Title:        title,
		Company:      company,
		Location:     location,
		Country:      country.String,
		URL:          url.String,
		Salary:       salary.String,
		Description:  description.String,
		Requirements: requirements.String,
		PostedDate:   postedDate.String,
		ScrapedAt:    time.UnixMilli(scrapedAtMs),
		RunID:        runID,
	}, nil
}
