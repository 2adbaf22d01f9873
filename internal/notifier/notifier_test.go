package notifier

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testThresholds() common.Thresholds {
	return common.Thresholds{InstantThreshold: 85, DigestThreshold: 65, LogThreshold: 40}
}

func TestClassifyBoundaries(t *testing.T) {
	th := testThresholds()
	cases := []struct {
		score int
		want  Band
	}{
		{95, BandInstant},
		{85, BandInstant},
		{84, BandDigest},
		{65, BandDigest},
		{64, BandLog},
		{40, BandLog},
		{39, BandDiscard},
		{0, BandDiscard},
	}
	for _, c := range cases {
		if got := Classify(c.score, th); got != c.want {
			t.Errorf("Classify(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}

type fakeApplications struct {
	byCompany map[string][]model.Application
	created   []model.Application
}

func newFakeApplications() *fakeApplications {
	return &fakeApplications{byCompany: make(map[string][]model.Application)}
}

func (f *fakeApplications) Create(ctx context.Context, app model.Application) (model.Application, error) {
	f.created = append(f.created, app)
	f.byCompany[app.Company] = append(f.byCompany[app.Company], app)
	return app, nil
}

func (f *fakeApplications) UpdateStatus(ctx context.Context, jobID model.JobId, status constants.ApplicationStatus, at time.Time) error {
	return nil
}

func (f *fakeApplications) ListByCompany(ctx context.Context, company string) ([]model.Application, error) {
	return f.byCompany[company], nil
}

func (f *fakeApplications) ListAll(ctx context.Context) ([]model.Application, error) {
	return f.created, nil
}

type fakeNotifications struct {
	seen map[model.JobId]string
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{seen: make(map[model.JobId]string)}
}

func (f *fakeNotifications) Create(ctx context.Context, jobID model.JobId, band string, telegramSent, digestQueued bool, at time.Time) error {
	if _, exists := f.seen[jobID]; exists {
		return nil
	}
	f.seen[jobID] = band
	return nil
}

func (f *fakeNotifications) Exists(ctx context.Context, jobID model.JobId) (bool, error) {
	_, ok := f.seen[jobID]
	return ok, nil
}

type fakeTelegram struct {
	sent               int
	lastPriorApplications []model.Application
}

func (f *fakeTelegram) SendMatch(ctx context.Context, job model.Job, scored model.ScoredJob, tailored *model.TailoredResume, priorApplications []model.Application) error {
	f.sent++
	f.lastPriorApplications = priorApplications
	return nil
}

func (f *fakeTelegram) SendHealthAlert(ctx context.Context, run model.PipelineRun) error { return nil }

type fakeDigest struct {
	entries int
}

func (f *fakeDigest) Enqueue(job model.Job, scored model.ScoredJob, priorApplication bool) {
	f.entries++
}

func TestNotifyInstantBandSendsTelegramAndCreatesApplication(t *testing.T) {
	apps := newFakeApplications()
	notifications := newFakeNotifications()
	telegram := &fakeTelegram{}
	n := &Notifier{Thresholds: testThresholds(), Applications: apps, Notifications: notifications, Telegram: telegram, Logger: discardLogger()}

	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote"), Company: "Acme", Title: "Engineer"}
	scored := model.ScoredJob{JobID: job.ID, Score: 90}

	if err := n.Notify(context.Background(), job, scored, nil); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if telegram.sent != 1 {
		t.Errorf("expected 1 telegram send, got %d", telegram.sent)
	}
	if len(apps.created) != 1 {
		t.Errorf("expected 1 application created, got %d", len(apps.created))
	}
}

func TestNotifyDigestBandEnqueuesAndCreatesApplication(t *testing.T) {
	apps := newFakeApplications()
	notifications := newFakeNotifications()
	digest := &fakeDigest{}
	n := &Notifier{Thresholds: testThresholds(), Applications: apps, Notifications: notifications, Digest: digest, Logger: discardLogger()}

	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote"), Company: "Acme"}
	scored := model.ScoredJob{JobID: job.ID, Score: 70}

	if err := n.Notify(context.Background(), job, scored, nil); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if digest.entries != 1 {
		t.Errorf("expected 1 digest entry, got %d", digest.entries)
	}
	if len(apps.created) != 1 {
		t.Error("expected an application row for a digest-band match")
	}
}

func TestNotifyDiscardBandCreatesNoApplication(t *testing.T) {
	apps := newFakeApplications()
	notifications := newFakeNotifications()
	n := &Notifier{Thresholds: testThresholds(), Applications: apps, Notifications: notifications, Logger: discardLogger()}

	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote"), Company: "Acme"}
	scored := model.ScoredJob{JobID: job.ID, Score: 10}

	if err := n.Notify(context.Background(), job, scored, nil); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(apps.created) != 0 {
		t.Error("expected no application row for a discarded match")
	}
}

func TestNotifyIsNoOpIfAlreadyNotified(t *testing.T) {
	apps := newFakeApplications()
	notifications := newFakeNotifications()
	telegram := &fakeTelegram{}
	n := &Notifier{Thresholds: testThresholds(), Applications: apps, Notifications: notifications, Telegram: telegram, Logger: discardLogger()}

	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote"), Company: "Acme"}
	scored := model.ScoredJob{JobID: job.ID, Score: 90}

	if err := n.Notify(context.Background(), job, scored, nil); err != nil {
		t.Fatalf("first Notify: %v", err)
	}
	if err := n.Notify(context.Background(), job, scored, nil); err != nil {
		t.Fatalf("second Notify: %v", err)
	}
	if telegram.sent != 1 {
		t.Errorf("expected exactly one telegram send across both calls, got %d", telegram.sent)
	}
	if len(apps.created) != 1 {
		t.Errorf("expected exactly one application created across both calls, got %d", len(apps.created))
	}
}

func TestNotifyFlagsPriorApplication(t *testing.T) {
	apps := newFakeApplications()
	apps.byCompany["Acme"] = []model.Application{{Company: "Acme", Status: string(constants.ApplicationStatusApplied)}}
	notifications := newFakeNotifications()
	telegram := &fakeTelegram{}
	n := &Notifier{Thresholds: testThresholds(), Applications: apps, Notifications: notifications, Telegram: telegram, Logger: discardLogger()}

	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote"), Company: "Acme"}
	scored := model.ScoredJob{JobID: job.ID, Score: 90}

	if err := n.Notify(context.Background(), job, scored, nil); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if telegram.sent != 1 {
		t.Errorf("expected telegram send to still occur when a prior application exists, got %d", telegram.sent)
	}
	if len(telegram.lastPriorApplications) != 1 {
		t.Errorf("expected SendMatch to receive the prior application, got %+v", telegram.lastPriorApplications)
	}
}
