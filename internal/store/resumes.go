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

// ResumeRepository enforces "at most one TailoredResume per job".
type ResumeRepository interface {
	Create(ctx context.Context, r model.TailoredResume) error
	GetByJobID(ctx context.Context, jobID model.JobId) (model.TailoredResume, error)
	Exists(ctx context.Context, jobID model.JobId) (bool, error)
}

type resumeRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewResumeRepository(db *sql.DB, logger *slog.Logger) ResumeRepository {
	return &resumeRepo{db: db, log: logger}
}

func (r *resumeRepo) Create(ctx context.Context, tr model.TailoredResume) error {
	issues, err := json.Marshal(tr.VerificationIssues)
	if err != nil {
		return common.WrapError(err, "marshal verification issues")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO resumes (job_id, html_path, pdf_path, verified, verification_issues, generated_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING`,
		string(tr.JobID), tr.HTMLPath, tr.PDFPath, boolToInt(tr.Verified), string(issues), tr.GeneratedAt.UnixMilli(), tr.RunID,
	)
	if err != nil {
		r.log.Error("store.resumes.create_failed", "job_id", tr.JobID, "error", err)
		return common.WrapError(err, "insert resume")
	}
	return nil
}

func (r *resumeRepo) GetByJobID(ctx context.Context, jobID model.JobId) (model.TailoredResume, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT job_id, html_path, pdf_path, verified, verification_issues, generated_at, run_id
		FROM resumes WHERE job_id = ?`, string(jobID))
	var (
		id, htmlPath, runID string
		pdfPath             sql.NullString
		verifiedInt         int
		issuesJSON          sql.NullString
		generatedAtMs       int64
	)
	if err := row.Scan(&id, &htmlPath, &pdfPath, &verifiedInt, &issuesJSON, &generatedAtMs, &runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TailoredResume{}, common.ErrNotFound
		}
		return model.TailoredResume{}, err
	}
	var issues []string
	if issuesJSON.Valid && issuesJSON.String != "" {
		_ = json.Unmarshal([]byte(issuesJSON.String), &issues)
	}
	return model.TailoredResume{
		JobID:              model.JobId(id),
		HTMLPath:           htmlPath,
		PDFPath:            pdfPath.String,
		Verified:           verifiedInt != 0,
		VerificationIssues: issues,
		GeneratedAt:        time.UnixMilli(generatedAtMs),
		RunID:              runID,
	}, nil
}

func (r *resumeRepo) Exists(ctx context.Context, jobID model.JobId) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM resumes WHERE job_id = ?`, string(jobID)).Scan(&n); err != nil {
		return false, common.WrapError(err, "check resume existence")
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
