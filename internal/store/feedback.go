package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
)

// FeedbackRepository is append-only.
type FeedbackRepository interface {
	Create(ctx context.Context, f model.Feedback) error
	GetCursor(ctx context.Context) (int64, error)
	SetCursor(ctx context.Context, updateID int64) error
}

type feedbackRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewFeedbackRepository(db *sql.DB, logger *slog.Logger) FeedbackRepository {
	return &feedbackRepo{db: db, log: logger}
}

func (r *feedbackRepo) Create(ctx context.Context, f model.Feedback) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (job_id, score, action, reason, timestamp) VALUES (?, ?, ?, ?, ?)`,
		string(f.JobID), f.Score, f.Action, f.Reason, f.Timestamp.UnixMilli(),
	)
	if err != nil {
		r.log.Error("store.feedback.create_failed", "job_id", f.JobID, "error", err)
		return common.WrapError(err, "insert feedback")
	}
	return nil
}

// GetCursor/SetCursor back the Notifier's feedback-poll update cursor. The
// cursor is a single shared row (id = 1); concurrent runs polling feedback
// simultaneously would race on it, but the pipeline is single-instance by
// design so that is not handled here.
func (r *feedbackRepo) GetCursor(ctx context.Context) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT last_update_id FROM feedback_cursor WHERE id = 1`).Scan(&id); err != nil {
		return 0, common.WrapError(err, "read feedback cursor")
	}
	return id, nil
}

func (r *feedbackRepo) SetCursor(ctx context.Context, updateID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE feedback_cursor SET last_update_id = ? WHERE id = 1`, updateID)
	if err != nil {
		return common.WrapError(err, "advance feedback cursor")
	}
	return nil
}
