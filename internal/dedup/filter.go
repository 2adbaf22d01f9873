// Package dedup eliminates jobs already seen in a prior run, via the
// persistent seen_jobs hash table. It runs after the scrape stage joins all
// sites' results and keeps no state of its own between calls.
package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/internal/model"
	"github.com/cmendes/jobhunter/internal/store"
)

// Filter inserts each job's id into the seen-hash table and keeps only the
// ones that were not already present, in the same order they were given.
func Filter(ctx context.Context, jobs []model.Job, seen store.SeenHashRepository, logger *slog.Logger) ([]model.Job, error) {
	kept := make([]model.Job, 0, len(jobs))
	now := time.Now()
	for _, job := range jobs {
		inserted, err := seen.InsertIfAbsent(ctx, job.ID, now)
		if err != nil {
			return nil, err
		}
		if !inserted {
			logger.Debug("dropping already-seen job", "job_id", job.ID)
			continue
		}
		kept = append(kept, job)
	}
	return kept, nil
}
