package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmendes/jobhunter/internal/dedup"
	"github.com/cmendes/jobhunter/internal/model"
	"github.com/cmendes/jobhunter/internal/notifier"
	"github.com/cmendes/jobhunter/internal/resumetailor"
	"github.com/cmendes/jobhunter/internal/scorer"
	"github.com/cmendes/jobhunter/internal/scraper"
)

// runPollFeedback advances the Telegram feedback cursor and records any new
// Feedback rows. A missing Telegram configuration is a no-op, not an error.
func runPollFeedback(ctx context.Context, d Deps, run *model.PipelineRun) error {
	if d.Feedback == nil {
		return nil
	}
	cursor, err := d.FeedbackStore.GetCursor(ctx)
	if err != nil {
		return err
	}
	items, newCursor, err := d.Feedback.PollFeedback(ctx, cursor)
	if err != nil {
		return err
	}
	for _, f := range items {
		if err := d.FeedbackStore.Create(ctx, f); err != nil {
			d.Logger.Error("orchestrator.feedback_record_failed", "job_id", f.JobID, "error", err)
		}
	}
	if newCursor != cursor {
		if err := d.FeedbackStore.SetCursor(ctx, newCursor); err != nil {
			return err
		}
	}
	return nil
}

// runScrape fans the configured sites out across the Site Scraper Engine,
// persists every discovered job, and quarantines failing sites into the
// run's SitesFailed list rather than aborting.
func runScrape(ctx context.Context, d Deps, run *model.PipelineRun) error {
	alreadyScraped := make(map[string]bool, len(d.Checkpoint.ScrapedSites))
	for _, s := range d.Checkpoint.ScrapedSites {
		alreadyScraped[s] = true
	}

	opts := scraper.Options{
		WorkerCount:        d.Settings.WorkerCount,
		HTTPTimeoutSeconds: 30,
		DataDir:            d.Settings.DataDir,
		BrowserRenderURL:   d.Settings.BrowserRenderURL,
		RunID:              run.RunID,
		AlreadyScraped:     alreadyScraped,
	}

	results := scraper.Run(ctx, d.Sites, opts, d.Logger)
	run.SitesAttempted += len(results)

	for _, result := range results {
		if result.Failure != nil {
			run.SitesFailed = append(run.SitesFailed, *result.Failure)
		} else {
			run.SitesSucceeded++
		}
		for _, job := range result.Jobs {
			if err := d.Jobs.Create(ctx, job); err != nil {
				d.Logger.Error("orchestrator.job_persist_failed", "job_id", job.ID, "error", err)
				continue
			}
			run.JobsScraped++
		}
		if err := d.Checkpoint.MarkSiteScraped(result.SiteID); err != nil {
			d.Logger.Error("orchestrator.checkpoint_save_failed", "site_id", result.SiteID, "error", err)
		}
	}
	return nil
}

// runDedup eliminates jobs already seen in a prior run via the persistent
// seen-hash table. Kept jobs are not re-persisted; the scraped jobs table
// already has them from runScrape.
func runDedup(ctx context.Context, d Deps, run *model.PipelineRun) error {
	jobs, err := collectRunJobs(ctx, d, run.RunID)
	if err != nil {
		return err
	}
	kept, err := dedup.Filter(ctx, jobs, d.SeenHashes, d.Logger)
	if err != nil {
		return err
	}
	run.JobsNew = len(kept)
	return nil
}

// effectiveKeywords resolves the global ∪ per-site KeywordConfig for one job.
func effectiveKeywords(d Deps, siteCfg map[string]model.SiteConfig, job model.Job) model.KeywordConfig {
	global := model.KeywordConfig{
		MustHaveAny:      d.Settings.GlobalKeywords.MustHaveAny,
		MustNotHave:      d.Settings.GlobalKeywords.MustNotHave,
		TitleMustHaveAny: d.Settings.GlobalKeywords.TitleMustHaveAny,
	}
	site, ok := siteCfg[job.SiteID]
	if !ok {
		return global
	}
	return global.Effective(site.KeywordOverride)
}

func siteConfigByID(sites []model.SiteConfig) map[string]model.SiteConfig {
	m := make(map[string]model.SiteConfig, len(sites))
	for _, s := range sites {
		m[s.SiteID] = s
	}
	return m
}

// runKeywordFilter applies the three keyword rules against the effective
// KeywordConfig for each surviving job. The filter is stateless: acceptance
// is recomputed from the store on every call, so this stage is naturally
// resumable without its own checkpoint bookkeeping.
func runKeywordFilter(ctx context.Context, d Deps, run *model.PipelineRun) error {
	jobs, err := collectRunJobs(ctx, d, run.RunID)
	if err != nil {
		return err
	}
	siteCfg := siteConfigByID(d.Sites)

	accepted := 0
	for _, job := range jobs {
		if discardKeywordReject(job, effectiveKeywords(d, siteCfg, job), d.Logger) {
			accepted++
		}
	}
	run.JobsFilteredOut = len(jobs) - accepted
	return nil
}

// runScore scores every job that passed the keyword filter and hasn't
// already been scored in this run (checkpoint-driven resume).
func runScore(ctx context.Context, d Deps, run *model.PipelineRun) error {
	jobs, err := collectRunJobs(ctx, d, run.RunID)
	if err != nil {
		return err
	}
	siteCfg := siteConfigByID(d.Sites)

	for _, job := range jobs {
		if d.Checkpoint.JobScored(string(job.ID)) {
			continue
		}
		if !discardKeywordReject(job, effectiveKeywords(d, siteCfg, job), d.Logger) {
			continue
		}

		exists, err := d.Scores.Exists(ctx, job.ID)
		if err != nil {
			return err
		}
		if exists {
			_ = d.Checkpoint.MarkJobScored(string(job.ID))
			continue
		}

		scored, err := scorer.Score(ctx, job, d.Resume, d.Settings.Weights, d.Settings.DescriptionCharCap, d.LLMClient, d.Logger)
		if err != nil {
			return err
		}
		if scored == nil {
			continue // model client exhausted for this job; not fatal to the run
		}
		if err := d.Scores.Create(ctx, *scored); err != nil {
			d.Logger.Error("orchestrator.score_persist_failed", "job_id", job.ID, "error", err)
			continue
		}
		run.JobsScored++
		if scored.Score >= d.Settings.Thresholds.ScoreThreshold {
			run.JobsAboveThreshold++
		}
		if err := d.Checkpoint.MarkJobScored(string(job.ID)); err != nil {
			d.Logger.Error("orchestrator.checkpoint_save_failed", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

// runTailor generates a tailored résumé for every job scored above the
// score threshold that hasn't already been tailored in this run.
func runTailor(ctx context.Context, d Deps, run *model.PipelineRun) error {
	jobs, err := collectRunJobs(ctx, d, run.RunID)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if d.Checkpoint.JobTailored(string(job.ID)) {
			continue
		}
		scored, err := d.Scores.GetByJobID(ctx, job.ID)
		if err != nil {
			continue // not scored (filtered out or scoring failed); skip tailoring
		}
		if scored.Score < d.Settings.Thresholds.ScoreThreshold {
			continue
		}

		exists, err := d.Resumes.Exists(ctx, job.ID)
		if err != nil {
			return err
		}
		if exists {
			_ = d.Checkpoint.MarkJobTailored(string(job.ID))
			continue
		}

		tailored, err := resumetailor.Tailor(ctx, job, d.Resume, d.LLMClient, d.Renderer, d.Settings.OutputDir, run.RunID, d.Logger)
		if err != nil {
			d.Logger.Error("orchestrator.tailor_error", "job_id", job.ID, "error", err)
			continue
		}
		if !tailored.Verified {
			run.Errors = append(run.Errors, fmt.Sprintf("stage=verify: job %s: resume verification failed after retries: %s", job.ID, strings.Join(tailored.VerificationIssues, "; ")))
			if err := d.Checkpoint.MarkJobTailored(string(job.ID)); err != nil {
				d.Logger.Error("orchestrator.checkpoint_save_failed", "job_id", job.ID, "error", err)
			}
			continue
		}
		if err := d.Resumes.Create(ctx, tailored); err != nil {
			d.Logger.Error("orchestrator.resume_persist_failed", "job_id", job.ID, "error", err)
			continue
		}
		run.ResumesGenerated++
		if err := d.Checkpoint.MarkJobTailored(string(job.ID)); err != nil {
			d.Logger.Error("orchestrator.checkpoint_save_failed", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

func buildNotifier(d Deps) *notifier.Notifier {
	return &notifier.Notifier{
		Thresholds:    d.Settings.Thresholds,
		Applications:  d.Applications,
		Notifications: d.Notifications,
		Telegram:      d.Telegram,
		Digest:        d.Digest,
		Logger:        d.Logger,
	}
}

// runNotify routes every scored job above the log threshold to its
// notification band and dispatches it, skipping jobs already notified in
// this run.
func runNotify(ctx context.Context, d Deps, run *model.PipelineRun) error {
	jobs, err := collectRunJobs(ctx, d, run.RunID)
	if err != nil {
		return err
	}
	n := buildNotifier(d)
	for _, job := range jobs {
		if d.Checkpoint.JobNotified(string(job.ID)) {
			continue
		}
		scored, err := d.Scores.GetByJobID(ctx, job.ID)
		if err != nil {
			continue
		}
		if scored.Score < d.Settings.Thresholds.LogThreshold {
			continue
		}

		var tailoredPtr *model.TailoredResume
		if tailored, err := d.Resumes.GetByJobID(ctx, job.ID); err == nil {
			tailoredPtr = &tailored
		}

		if err := n.Notify(ctx, job, scored, tailoredPtr); err != nil {
			d.Logger.Error("orchestrator.notify_failed", "job_id", job.ID, "error", err)
			continue
		}
		run.NotificationsSent++
		if err := d.Checkpoint.MarkJobNotified(string(job.ID)); err != nil {
			d.Logger.Error("orchestrator.checkpoint_save_failed", "job_id", job.ID, "error", err)
		}
	}

	if d.Digest != nil {
		if err := d.Digest.Send(); err != nil {
			d.Logger.Error("orchestrator.digest_send_failed", "error", err)
		}
	}
	return nil
}

// runFinalize has no work of its own: the summary fields are already
// accumulated onto run by the preceding stages. It exists as a named stage
// so the checkpoint log records a run completed all the way through.
func runFinalize(ctx context.Context, d Deps, run *model.PipelineRun) error {
	return nil
}

// collectRunJobs gathers every job scraped across all sites in this run.
func collectRunJobs(ctx context.Context, d Deps, runID string) ([]model.Job, error) {
	var all []model.Job
	for _, site := range d.Sites {
		jobs, err := d.Jobs.ListByRunAndSite(ctx, runID, site.SiteID)
		if err != nil {
			return nil, err
		}
		all = append(all, jobs...)
	}
	return all, nil
}
