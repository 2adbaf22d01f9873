package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/checkpoint"
	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/llm"
	"github.com/cmendes/jobhunter/internal/model"
	"github.com/cmendes/jobhunter/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseDeps(t *testing.T, cp *checkpoint.Log) Deps {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return Deps{
		Settings: &common.Settings{
			Thresholds: common.Thresholds{ScoreThreshold: 60, InstantThreshold: 85, DigestThreshold: 65, LogThreshold: 40},
			WorkerCount: 1, DataDir: t.TempDir(), OutputDir: t.TempDir(),
		},
		Sites:         nil,
		LLMClient:     &noopClient{},
		Jobs:          store.NewJobRepository(db, discardLogger()),
		SeenHashes:    store.NewSeenHashRepository(db, discardLogger()),
		Scores:        store.NewScoreRepository(db, discardLogger()),
		Resumes:       store.NewResumeRepository(db, discardLogger()),
		Applications:  store.NewApplicationRepository(db, discardLogger()),
		FeedbackStore: store.NewFeedbackRepository(db, discardLogger()),
		Notifications: store.NewNotificationRepository(db, discardLogger()),
		Runs:          store.NewPipelineRunRepository(db, discardLogger()),
		Checkpoint:    cp,
		Logger:        discardLogger(),
	}
}

type noopClient struct{}

func (noopClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{}, errors.New("not used in this test")
}
func (noopClient) LastProviderUsed() string { return "" }

func TestRunCompletesWithNoSitesConfigured(t *testing.T) {
	cp := checkpoint.New(filepath.Join(t.TempDir(), "checkpoint.json"), "run-1")
	d := baseDeps(t, cp)

	run := Run(context.Background(), d)
	if run.Status != string(constants.RunStatusCompleted) {
		t.Fatalf("Status = %q, want completed", run.Status)
	}
	if run.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
}

func TestRunSkipsStagesAlreadyMarkedComplete(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "checkpoint.json")
	cp := checkpoint.New(cpPath, "run-1")
	for _, s := range []constants.StageName{
		constants.StagePollFeedback, constants.StageScrape, constants.StageDedup,
		constants.StageKeywordFilter, constants.StageScore, constants.StageTailor,
		constants.StageNotify, constants.StageFinalize,
	} {
		if err := cp.MarkStageComplete(s); err != nil {
			t.Fatalf("MarkStageComplete(%s): %v", s, err)
		}
	}
	d := baseDeps(t, cp)

	run := Run(context.Background(), d)
	if run.Status != string(constants.RunStatusCompleted) {
		t.Fatalf("Status = %q, want completed", run.Status)
	}
}

type fatalJobs struct{}

func (fatalJobs) Create(ctx context.Context, job model.Job) error { return nil }
func (fatalJobs) GetByID(ctx context.Context, id model.JobId) (model.Job, error) {
	return model.Job{}, common.ErrNotFound
}
func (fatalJobs) ListByRunAndSite(ctx context.Context, runID, siteID string) ([]model.Job, error) {
	return nil, common.Fatal(errors.New("database unreachable"))
}

func TestRunStopsAndMarksCrashedOnFatalError(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "checkpoint.json")
	cp := checkpoint.New(cpPath, "run-1")
	d := baseDeps(t, cp)
	d.Sites = []model.SiteConfig{{SiteID: "acme", Enabled: true}}
	d.Jobs = fatalJobs{}

	run := Run(context.Background(), d)
	if run.Status != string(constants.RunStatusCrashed) {
		t.Fatalf("Status = %q, want crashed", run.Status)
	}
	if len(run.Errors) == 0 {
		t.Error("expected the fatal error to be recorded in run.Errors")
	}
	if cp.StageComplete(constants.StageNotify) {
		t.Error("expected later stages never to run after a fatal abort")
	}
}
