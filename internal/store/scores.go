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

// ScoreRepository enforces "at most one ScoredJob per job".
type ScoreRepository interface {
	Create(ctx context.Context, s model.ScoredJob) error
	GetByJobID(ctx context.Context, jobID model.JobId) (model.ScoredJob, error)
	Exists(ctx context.Context, jobID model.JobId) (bool, error)
}

type scoreRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewScoreRepository(db *sql.DB, logger *slog.Logger) ScoreRepository {
	return &scoreRepo{db: db, log: logger}
}

func (r *scoreRepo) Create(ctx context.Context, s model.ScoredJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scores (job_id, score, reasoning, provider, scored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING`,
		string(s.JobID), s.Score, s.Reasoning, s.Provider, s.ScoredAt.UnixMilli(),
	)
	if err != nil {
		r.log.Error("store.scores.create_failed", "job_id", s.JobID, "error", err)
		return common.WrapError(err, "insert score")
	}
	return nil
}

func (r *scoreRepo) GetByJobID(ctx context.Context, jobID model.JobId) (model.ScoredJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT job_id, score, reasoning, provider, scored_at FROM scores WHERE job_id = ?`, string(jobID))
	var (
		id, reasoning, provider string
		score                   int
		scoredAtMs              int64
	)
	if err := row.Scan(&id, &score, &reasoning, &provider, &scoredAtMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ScoredJob{}, common.ErrNotFound
		}
		return model.ScoredJob{}, err
	}
	return model.ScoredJob{
		JobID:     model.JobId(id),
		Score:     score,
		Reasoning: reasoning,
		Provider:  provider,
		ScoredAt:  time.UnixMilli(scoredAtMs),
	}, nil
}

func (r *scoreRepo) Exists(ctx context.Context, jobID model.JobId) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scores WHERE job_id = ?`, string(jobID)).Scan(&n); err != nil {
		return false, common.WrapError(err, "check score existence")
	}
	return n > 0, nil
}
