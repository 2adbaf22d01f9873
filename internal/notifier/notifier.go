// Package notifier routes a scored, tailored job to a notification band and
// dispatches it: instant Telegram message with inline feedback buttons,
// digest mail entry, log-only, or discard, depending on configured score
// thresholds. It also cross-checks prior applications at the same company
// so a match can be flagged "you've applied here before".
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
	"github.com/cmendes/jobhunter/internal/store"
)

// Band is the notification routing outcome for one scored job.
type Band string

const (
	BandInstant Band = "instant"
	BandDigest  Band = "digest"
	BandLog     Band = "log"
	BandDiscard Band = "discard"
)

// Classify maps a score onto a Band given the configured thresholds.
func Classify(score int, thresholds common.Thresholds) Band {
	switch {
	case score >= thresholds.InstantThreshold:
		return BandInstant
	case score >= thresholds.DigestThreshold:
		return BandDigest
	case score >= thresholds.LogThreshold:
		return BandLog
	default:
		return BandDiscard
	}
}

// Telegram is the subset of the Telegram façade the Notifier needs.
type Telegram interface {
	SendMatch(ctx context.Context, job model.Job, scored model.ScoredJob, tailored *model.TailoredResume, priorApplications []model.Application) error
	SendHealthAlert(ctx context.Context, run model.PipelineRun) error
}

// FeedbackPoller is implemented by the Telegram façade for the poll-feedback
// stage: fetch updates since a cursor, return decoded feedback actions and
// the new cursor.
type FeedbackPoller interface {
	PollFeedback(ctx context.Context, afterUpdateID int64) ([]model.Feedback, int64, error)
}

// DigestQueue accumulates digest-band matches for a single mail send at the
// end of a run.
type DigestQueue interface {
	Enqueue(job model.Job, scored model.ScoredJob, priorApplication bool)
}

// Notifier ties together classification, the prior-applications check,
// Telegram dispatch, and digest queueing.
type Notifier struct {
	Thresholds   common.Thresholds
	Applications store.ApplicationRepository
	Notifications store.NotificationRepository
	Telegram     Telegram
	Digest       DigestQueue
	Logger       *slog.Logger
}

// Notify routes one job. It is a no-op (not an error) if a notification was
// already recorded for this job id, enforcing the at-most-one invariant
// even across a resumed run.
func (n *Notifier) Notify(ctx context.Context, job model.Job, scored model.ScoredJob, tailored *model.TailoredResume) error {
	exists, err := n.Notifications.Exists(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("check notification existence: %w", err)
	}
	if exists {
		return nil
	}

	band := Classify(scored.Score, n.Thresholds)

	priorApplications, err := n.priorApplications(ctx, job.Company)
	if err != nil {
		n.Logger.Warn("notifier.prior_application_check_failed", "job_id", job.ID, "error", err)
	}

	var telegramSent, digestQueued bool
	switch band {
	case BandInstant:
		if n.Telegram != nil {
			if err := n.Telegram.SendMatch(ctx, job, scored, tailored, priorApplications); err != nil {
				n.Logger.Error("notifier.telegram_send_failed", "job_id", job.ID, "error", err)
			} else {
				telegramSent = true
			}
		}
	case BandDigest:
		if n.Digest != nil {
			n.Digest.Enqueue(job, scored, len(priorApplications) > 0)
			digestQueued = true
		}
	case BandLog:
		n.Logger.Info("notifier.log_band_match", "job_id", job.ID, "score", scored.Score, "title", job.Title, "company", job.Company)
	case BandDiscard:
		n.Logger.Debug("notifier.discarded", "job_id", job.ID, "score", scored.Score)
	}

	// Still recorded even when send failed: the row tracks what was
	// attempted, not just what succeeded.
	if err := n.Notifications.Create(ctx, job.ID, string(band), telegramSent, digestQueued, time.Now()); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	if band == BandInstant || band == BandDigest {
		app := model.Application{
			JobID:         job.ID,
			Company:       job.Company,
			Role:          job.Title,
			Country:       job.Country,
			Status:        string(constants.ApplicationStatusMatched),
			StatusUpdated: time.Now(),
			SourceSite:    job.SiteID,
		}
		if tailored != nil && tailored.PDFPath != "" {
			app.ResumeVersion = tailored.PDFPath
		}
		if _, err := n.Applications.Create(ctx, app); err != nil {
			n.Logger.Error("notifier.application_create_failed", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

func (n *Notifier) priorApplications(ctx context.Context, company string) ([]model.Application, error) {
	apps, err := n.Applications.ListByCompany(ctx, company)
	if err != nil {
		return nil, err
	}
	return apps, nil
}
