package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
)

// PipelineRunRepository persists the model.PipelineRun summary. It is
// written at the end of every run; the Checkpoint Log (internal/checkpoint)
// is the authoritative source of truth for in-flight
// resume decisions.
type PipelineRunRepository interface {
	Upsert(ctx context.Context, run model.PipelineRun) error
	GetByID(ctx context.Context, runID string) (model.PipelineRun, error)
}

type runRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewPipelineRunRepository(db *sql.DB, logger *slog.Logger) PipelineRunRepository {
	return &runRepo{db: db, log: logger}
}

func (r *runRepo) Upsert(ctx context.Context, run model.PipelineRun) error {
	sitesFailedJSON, err := json.Marshal(run.SitesFailed)
	if err != nil {
		return common.WrapError(err, "marshal sites_failed")
	}
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return common.WrapError(err, "marshal errors")
	}
	providersJSON, err := json.Marshal(run.LLMProvidersUsed)
	if err != nil {
		return common.WrapError(err, "marshal llm_providers_used")
	}
	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UnixMilli()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			run_id, started_at, completed_at, status, sites_attempted, sites_succeeded, sites_failed_json,
			jobs_scraped, jobs_new, jobs_filtered_out, jobs_scored, jobs_above_threshold,
			resumes_generated, notifications_sent, errors_json, llm_providers_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			completed_at = excluded.completed_at,
			status = excluded.status,
			sites_attempted = excluded.sites_attempted,
			sites_succeeded = excluded.sites_succeeded,
			sites_failed_json = excluded.sites_failed_json,
			jobs_scraped = excluded.jobs_scraped,
			jobs_new = excluded.jobs_new,
			jobs_filtered_out = excluded.jobs_filtered_out,
			jobs_scored = excluded.jobs_scored,
			jobs_above_threshold = excluded.jobs_above_threshold,
			resumes_generated = excluded.resumes_generated,
			notifications_sent = excluded.notifications_sent,
			errors_json = excluded.errors_json,
			llm_providers_json = excluded.llm_providers_json`,
		run.RunID, run.StartedAt.UnixMilli(), completedAt, run.Status, run.SitesAttempted, run.SitesSucceeded, string(sitesFailedJSON),
		run.JobsScraped, run.JobsNew, run.JobsFilteredOut, run.JobsScored, run.JobsAboveThreshold,
		run.ResumesGenerated, run.NotificationsSent, string(errorsJSON), string(providersJSON),
	)
	if err != nil {
		r.log.Error("store.runs.upsert_failed", "run_id", run.RunID, "error", err)
		return common.WrapError(err, "upsert pipeline run")
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, runID string) (model.PipelineRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, completed_at, status, sites_attempted, sites_succeeded, sites_failed_json,
		       jobs_scraped, jobs_new, jobs_filtered_out, jobs_scored, jobs_above_threshold,
		       resumes_generated, notifications_sent, errors_json, llm_providers_json
		FROM pipeline_runs WHERE run_id = ?`, runID)

	var (
		id, status                                                                   string
		startedAtMs                                                                  int64
		completedAtMs                                                                sql.NullInt64
		sitesAttempted, sitesSucceeded                                               int
		sitesFailedJSON                                                              sql.NullString
		jobsScraped, jobsNew, jobsFilteredOut, jobsScored, jobsAboveThreshold         int
		resumesGenerated, notificationsSent                                          int
		errorsJSON, providersJSON                                                    sql.NullString
	)
	if err := row.Scan(&id, &startedAtMs, &completedAtMs, &status, &sitesAttempted, &sitesSucceeded, &sitesFailedJSON,
		&jobsScraped, &jobsNew, &jobsFilteredOut, &jobsScored, &jobsAboveThreshold,
		&resumesGenerated, &notificationsSent, &errorsJSON, &providersJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PipelineRun{}, common.ErrNotFound
		}
		return model.PipelineRun{}, err
	}

	run := model.PipelineRun{
		RunID:              id,
		StartedAt:          time.UnixMilli(startedAtMs),
		Status:             status,
		SitesAttempted:     sitesAttempted,
		SitesSucceeded:     sitesSucceeded,
		JobsScraped:        jobsScraped,
		JobsNew:            jobsNew,
		JobsFilteredOut:    jobsFilteredOut,
		JobsScored:         jobsScored,
		JobsAboveThreshold: jobsAboveThreshold,
		ResumesGenerated:   resumesGenerated,
		NotificationsSent:  notificationsSent,
	}
	if completedAtMs.Valid {
		t := time.UnixMilli(completedAtMs.Int64)
		run.CompletedAt = &t
	}
	if sitesFailedJSON.Valid {
		_ = json.Unmarshal([]byte(sitesFailedJSON.String), &run.SitesFailed)
	}
	if errorsJSON.Valid {
		_ = json.Unmarshal([]byte(errorsJSON.String), &run.Errors)
	}
	if providersJSON.Valid {
		_ = json.Unmarshal([]byte(providersJSON.String), &run.LLMProvidersUsed)
	}
	return run, nil
}
