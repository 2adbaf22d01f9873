// Package orchestrator runs the eight-stage pipeline: poll-feedback, scrape,
// dedup, keyword-filter, score, tailor, notify, finalize. Each stage
// consults the Checkpoint Log to skip work already done in a prior crashed
// attempt, and per-site/per-job failures are quarantined rather than
// aborting the run.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/checkpoint"
	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/keyword"
	"github.com/cmendes/jobhunter/internal/llm"
	"github.com/cmendes/jobhunter/internal/masterresume"
	"github.com/cmendes/jobhunter/internal/model"
	"github.com/cmendes/jobhunter/internal/notifier"
	"github.com/cmendes/jobhunter/internal/resumetailor"
	"github.com/cmendes/jobhunter/internal/store"
)

// Deps bundles every collaborator a Run needs. Built once by cmd/jobhunter
// and passed in, so the orchestrator itself never touches config files or
// opens the database.
type Deps struct {
	Settings   *common.Settings
	Resume     *masterresume.Resume
	Sites      []model.SiteConfig
	LLMClient  llm.Client
	Renderer   resumetailor.Renderer
	Telegram   notifier.Telegram
	Feedback   notifier.FeedbackPoller
	Digest     *notifier.MailDigest

	Jobs          store.JobRepository
	SeenHashes    store.SeenHashRepository
	Scores        store.ScoreRepository
	Resumes       store.ResumeRepository
	Applications  store.ApplicationRepository
	FeedbackStore store.FeedbackRepository
	Notifications store.NotificationRepository
	Runs          store.PipelineRunRepository

	Checkpoint *checkpoint.Log
	Logger     *slog.Logger
}

// Run executes every stage the checkpoint hasn't already marked complete,
// returning the final PipelineRun summary. It never returns a FatalError
// itself — fatal conditions are caught, recorded, and reflected in the
// returned run's Status.
func Run(ctx context.Context, d Deps) model.PipelineRun {
	run := model.PipelineRun{
		RunID:     d.Checkpoint.RunID,
		StartedAt: d.Checkpoint.StartedAt,
		Status:    string(constants.RunStatusRunning),
	}

	stages := []struct {
		name constants.StageName
		fn   func(context.Context, Deps, *model.PipelineRun) error
	}{
		{constants.StagePollFeedback, runPollFeedback},
		{constants.StageScrape, runScrape},
		{constants.StageDedup, runDedup},
		{constants.StageKeywordFilter, runKeywordFilter},
		{constants.StageScore, runScore},
		{constants.StageTailor, runTailor},
		{constants.StageNotify, runNotify},
		{constants.StageFinalize, runFinalize},
	}

	for _, stage := range stages {
		if d.Checkpoint.StageComplete(stage.name) {
			d.Logger.Info("orchestrator.stage_skipped_resumed", "stage", stage.name)
			continue
		}
		d.Logger.Info("orchestrator.stage_starting", "stage", stage.name)
		if err := stage.fn(ctx, d, &run); err != nil {
			if common.IsFatal(err) {
				d.Logger.Error("orchestrator.fatal_error", "stage", stage.name, "error", err)
				run.Errors = append(run.Errors, err.Error())
				finishRun(ctx, d, &run, constants.RunStatusCrashed)
				return run
			}
			d.Logger.Error("orchestrator.stage_error", "stage", stage.name, "error", err)
			run.Errors = append(run.Errors, err.Error())
			continue
		}
		if err := d.Checkpoint.MarkStageComplete(stage.name); err != nil {
			d.Logger.Error("orchestrator.checkpoint_save_failed", "stage", stage.name, "error", err)
		}
	}

	finishRun(ctx, d, &run, constants.RunStatusCompleted)
	return run
}

func finishRun(ctx context.Context, d Deps, run *model.PipelineRun, status constants.RunStatus) {
	now := time.Now()
	run.Status = string(status)
	run.CompletedAt = &now
	if d.LLMClient != nil {
		if used := d.LLMClient.LastProviderUsed(); used != "" {
			run.LLMProvidersUsed = appendUnique(run.LLMProvidersUsed, used)
		}
	}
	if err := d.Checkpoint.Finish(status); err != nil {
		d.Logger.Error("orchestrator.checkpoint_finish_failed", "error", err)
	}
	if err := d.Runs.Upsert(ctx, *run); err != nil {
		d.Logger.Error("orchestrator.run_upsert_failed", "error", err)
	}
	if d.Telegram != nil && (status == constants.RunStatusCrashed || len(run.SitesFailed) > 0 || len(run.Errors) > 0) {
		if err := d.Telegram.SendHealthAlert(ctx, *run); err != nil {
			d.Logger.Error("orchestrator.health_alert_failed", "error", err)
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// discardKeywordReject applies the keyword filter to one job, returning
// whether it should continue on to scoring.
func discardKeywordReject(job model.Job, cfg model.KeywordConfig, logger *slog.Logger) bool {
	decision := keyword.Apply(job, cfg)
	if !decision.Accepted {
		logger.Debug("orchestrator.keyword_rejected", "job_id", job.ID, "reason", decision.Reason)
	}
	return decision.Accepted
}
