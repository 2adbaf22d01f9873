package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
)

// NotificationRepository enforces "at most one notification record per job"
// and records send outcome for the Notifier's failure policy.
type NotificationRepository interface {
	Create(ctx context.Context, jobID model.JobId, band string, telegramSent, digestQueued bool, at time.Time) error
	Exists(ctx context.Context, jobID model.JobId) (bool, error)
}

type notificationRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewNotificationRepository(db *sql.DB, logger *slog.Logger) NotificationRepository {
	return &notificationRepo{db: db, log: logger}
}

func (r *notificationRepo) Create(ctx context.Context, jobID model.JobId, band string, telegramSent, digestQueued bool, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (job_id, band, telegram_sent, digest_queued, sent_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING`,
		string(jobID), band, boolToInt(telegramSent), boolToInt(digestQueued), at.UnixMilli(),
	)
	if err != nil {
		r.log.Error("store.notifications.create_failed", "job_id", jobID, "error", err)
		return common.WrapError(err, "insert notification")
	}
	return nil
}

func (r *notificationRepo) Exists(ctx context.Context, jobID model.JobId) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM notifications WHERE job_id = ?`, string(jobID)).Scan(&n); err != nil {
		return false, common.WrapError(err, "check notification existence")
	}
	return n > 0, nil
}
