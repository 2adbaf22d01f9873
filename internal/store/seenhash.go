package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
)

// SeenHashRepository backs the Dedup Filter: a hash is inserted exactly
// once on first encounter; later encounters are no-ops.
type SeenHashRepository interface {
	// InsertIfAbsent returns true if this is the first time hash has been
	// seen (i.e. it was inserted), false if it already existed.
	InsertIfAbsent(ctx context.Context, hash model.JobId, at time.Time) (inserted bool, err error)
}

type seenHashRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSeenHashRepository(db *sql.DB, logger *slog.Logger) SeenHashRepository {
	return &seenHashRepo{db: db, log: logger}
}

func (r *seenHashRepo) InsertIfAbsent(ctx context.Context, hash model.JobId, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seen_jobs (hash, first_seen_at) VALUES (?, ?) ON CONFLICT(hash) DO NOTHING`,
		string(hash), at.UnixMilli(),
	)
	if err != nil {
		r.log.Error("store.seenhash.insert_failed", "hash", hash, "error", err)
		return false, common.WrapError(err, "insert seen hash")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.WrapError(err, "rows affected")
	}
	return n > 0, nil
}
