package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
	"github.com/google/uuid"
)

// ApplicationRepository persists Application rows, created in
// ApplicationStatusMatched by the Notifier and transitioned by Feedback.
type ApplicationRepository interface {
	Create(ctx context.Context, app model.Application) (model.Application, error)
	UpdateStatus(ctx context.Context, jobID model.JobId, status constants.ApplicationStatus, at time.Time) error
	ListByCompany(ctx context.Context, company string) ([]model.Application, error)
	ListAll(ctx context.Context) ([]model.Application, error)
}

type applicationRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewApplicationRepository(db *sql.DB, logger *slog.Logger) ApplicationRepository {
	return &applicationRepo{db: db, log: logger}
}

func (r *applicationRepo) Create(ctx context.Context, app model.Application) (model.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = string(constants.ApplicationStatusMatched)
	}
	var appliedDate any
	if app.AppliedDate != nil {
		appliedDate = app.AppliedDate.UnixMilli()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (id, job_id, company, role, country, applied_date, resume_version, status, status_updated, notes, source_site)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, string(app.JobID), app.Company, app.Role, app.Country, appliedDate,
		app.ResumeVersion, app.Status, app.StatusUpdated.UnixMilli(), app.Notes, app.SourceSite,
	)
	if err != nil {
		r.log.Error("store.applications.create_failed", "job_id", app.JobID, "error", err)
		return model.Application{}, common.WrapError(err, "insert application")
	}
	return app, nil
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, jobID model.JobId, status constants.ApplicationStatus, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, status_updated = ? WHERE job_id = ?`,
		string(status), at.UnixMilli(), string(jobID),
	)
	if err != nil {
		return common.WrapError(err, "update application status")
	}
	return nil
}

func (r *applicationRepo) ListByCompany(ctx context.Context, company string) ([]model.Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, company, role, country, applied_date, resume_version, status, status_updated, notes, source_site
		FROM applications WHERE company = ?`, company)
	if err != nil {
		return nil, common.WrapError(err, "list applications by company")
	}
	defer rows.Close()
	return scanApplications(rows)
}

func (r *applicationRepo) ListAll(ctx context.Context) ([]model.Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, company, role, country, applied_date, resume_version, status, status_updated, notes, source_site
		FROM applications ORDER BY status_updated DESC`)
	if err != nil {
		return nil, common.WrapError(err, "list applications")
	}
	defer rows.Close()
	return scanApplications(rows)
}

func scanApplications(rows *sql.Rows) ([]model.Application, error) {
	var out []model.Application
	for rows.Next() {
		var (
			id, jobID, company, role                   string
			country, resumeVersion, status, notes, site sql.NullString
			appliedDate                                 sql.NullInt64
			statusUpdatedMs                             int64
		)
		if err := rows.Scan(&id, &jobID, &company, &role, &country, &appliedDate, &resumeVersion, &status, &statusUpdatedMs, &notes, &site); err != nil {
			return nil, err
		}
		app := model.Application{
			ID:            id,
			JobID:         model.JobId(jobID),
			Company:       company,
			Role:          role,
			Country:       country.String,
			ResumeVersion: resumeVersion.String,
			Status:        status.String,
			StatusUpdated: time.UnixMilli(statusUpdatedMs),
			Notes:         notes.String,
			SourceSite:    site.String,
		}
		if appliedDate.Valid {
			t := time.UnixMilli(appliedDate.Int64)
			app.AppliedDate = &t
		}
		out = append(out, app)
	}
	return out, rows.Err()
}
