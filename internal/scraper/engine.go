// Package scraper implements the Site Scraper Engine: a bounded worker pool
// that runs each enabled site's Strategy across its configured pages,
// archiving every raw response body it gets back, retrying transient page
// failures with backoff, and quarantining a site into a SiteFailure rather
// than aborting the run.
package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmendes/jobhunter/internal/model"
)

var retryBackoff = []time.Duration{1 * time.Second, 3 * time.Second, 10 * time.Second}

// Options configures one engine Run.
type Options struct {
	WorkerCount        int
	HTTPTimeoutSeconds int
	DataDir            string
	BrowserRenderURL   string
	RunID              string
	// AlreadyScraped is the set of site IDs the checkpoint log already marked
	// scraped; the engine skips them entirely on resume.
	AlreadyScraped map[string]bool
}

// Result is what Run returns for one site.
type Result struct {
	SiteID  string
	Jobs    []model.Job
	Failure *model.SiteFailure
}

// Run fans sites out across a bounded worker pool and returns one Result per
// site actually attempted (sites already marked scraped in AlreadyScraped are
// omitted entirely, not returned as empty Results).
func Run(ctx context.Context, sites []model.SiteConfig, opts Options, logger *slog.Logger) []Result {
	workers := opts.WorkerCount
	if workers <= 0 || workers > len(sites) {
		workers = len(sites)
	}
	if workers <= 0 {
		return nil
	}

	jobsCh := make(chan model.SiteConfig)
	resultsCh := make(chan Result, len(sites))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for site := range jobsCh {
				resultsCh <- scrapeSite(ctx, site, opts, logger)
			}
		}()
	}

	go func() {
		defer close(jobsCh)
		for _, site := range sites {
			if opts.AlreadyScraped[site.SiteID] {
				logger.Info("skipping already-scraped site", "site_id", site.SiteID)
				continue
			}
			select {
			case jobsCh <- site:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var results []Result
	for r := range resultsCh {
		results = append(results, r)
	}
	return results
}

func scrapeSite(ctx context.Context, site model.SiteConfig, opts Options, logger *slog.Logger) Result {
	strat, err := NewStrategy(site, opts.HTTPTimeoutSeconds, opts.BrowserRenderURL)
	if err != nil {
		return Result{SiteID: site.SiteID, Failure: &model.SiteFailure{Site: site.SiteID, Error: err.Error(), Stage: "scrape"}}
	}

	var jobs []model.Job
	now := time.Now()
	for page := 1; page <= site.MaxPages; page++ {
		result, err := fetchPageWithRetry(ctx, strat, page, logger, site.SiteID)
		if result.RawBody != "" {
			if archErr := archivePage(opts.DataDir, site.SiteID, page, result.RawBody); archErr != nil {
				logger.Warn("archive page failed", "site_id", site.SiteID, "page", page, "error", archErr)
			}
		}
		if err != nil {
			logger.Error("quarantining site after retries exhausted", "site_id", site.SiteID, "page", page, "error", err)
			return Result{
				SiteID: site.SiteID,
				Jobs:   jobs,
				Failure: &model.SiteFailure{Site: site.SiteID, Error: err.Error(), Stage: "scrape"},
			}
		}
		if len(result.Rows) == 0 {
			break // stop pagination early on an empty page
		}

		for _, row := range result.Rows {
			job, ok := normalizeRow(row, site, opts.RunID, now)
			if !ok {
				continue
			}
			if site.DetailPage.Enabled && job.URL != "" {
				description, requirements, derr := strat.FetchDetail(ctx, job.URL)
				if derr != nil {
					logger.Warn("detail fetch failed, keeping listing fields", "site_id", site.SiteID, "url", job.URL, "error", derr)
				} else {
					if description != "" {
						job.Description = description
					}
					if requirements != "" {
						job.Requirements = requirements
					}
				}
			}
			jobs = append(jobs, job)
		}
	}

	return Result{SiteID: site.SiteID, Jobs: jobs}
}

// fetchPageWithRetry retries a transient page failure per the backoff
// schedule (1s, 3s, 10s) before giving up.
func fetchPageWithRetry(ctx context.Context, strat Strategy, page int, logger *slog.Logger, siteID string) (PageResult, error) {
	var result PageResult
	var err error
	for attempt := 0; ; attempt++ {
		result, err = strat.FetchPage(ctx, page)
		if err == nil {
			return result, nil
		}
		if attempt >= len(retryBackoff) {
			return result, err
		}
		logger.Warn("page fetch failed, retrying", "site_id", siteID, "page", page, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(retryBackoff[attempt]):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
}
