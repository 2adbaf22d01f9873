// Command jobhunter runs the job-search pipeline end to end: poll feedback,
// scrape configured sites, dedup, keyword-filter, score against a master
// résumé, tailor and verify résumés for top matches, and notify over
// Telegram/mail. Pass -export-xlsx to instead export the tracked
// applications table and exit.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/checkpoint"
	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/export"
	"github.com/cmendes/jobhunter/internal/llm"
	"github.com/cmendes/jobhunter/internal/masterresume"
	"github.com/cmendes/jobhunter/internal/notifier"
	"github.com/cmendes/jobhunter/internal/orchestrator"
	"github.com/cmendes/jobhunter/internal/resumetailor"
	"github.com/cmendes/jobhunter/internal/siteconfig"
	"github.com/cmendes/jobhunter/internal/store"
)

func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		settingsPath = flag.String("settings", "settings.json", "path to settings.json")
		resumePath   = flag.String("resume", "master_resume.json", "path to master_resume.json")
		sitesDir     = flag.String("sites", "site_configs", "directory of site config JSON files")
		dbPath       = flag.String("db", "jobhunter.db", "path to the sqlite database file")
		exportXLSX   = flag.String("export-xlsx", "", "export tracked applications to this XLSX path and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx := context.Background()

	settings, err := common.LoadSettings(*settingsPath)
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	secrets := common.LoadSecrets()

	db, err := store.Open(ctx, *dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *exportXLSX != "" {
		if err := runExport(ctx, db, *exportXLSX, logger); err != nil {
			logger.Error("export failed", "error", err)
			printError("Error: export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported applications to %s\n", *exportXLSX)
		return
	}

	resume, err := masterresume.Load(*resumePath)
	if err != nil {
		logger.Error("failed to load master resume", "error", err)
		os.Exit(1)
	}

	sites, err := siteconfig.LoadDir(*sitesDir)
	if err != nil {
		logger.Error("failed to load site configs", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded site configs", "count", len(sites))

	llmClient := buildLLMClient(settings, secrets)

	var renderer resumetailor.Renderer
	if settings.RendererURL != "" {
		renderer = resumetailor.NewHTTPRenderer(settings.RendererURL, 60*time.Second, logger)
	}

	var telegramClient notifier.Telegram
	var feedbackPoller notifier.FeedbackPoller
	if secrets.TelegramBotToken != "" {
		t := notifier.NewTelegramClient(secrets.TelegramBotToken, secrets.TelegramChatID, 20*time.Second, logger)
		telegramClient = t
		if poller, ok := t.(notifier.FeedbackPoller); ok {
			feedbackPoller = poller
		}
	}

	digest := notifier.NewMailDigest(settings.MailSMTPHost, settings.MailSMTPPort, settings.MailFrom, settings.MailTo, secrets.MailPassword)

	deps := orchestrator.Deps{
		Settings:      settings,
		Resume:        resume,
		Sites:         sites,
		LLMClient:     llmClient,
		Renderer:      renderer,
		Telegram:      telegramClient,
		Feedback:      feedbackPoller,
		Digest:        digest,
		Jobs:          store.NewJobRepository(db, logger),
		SeenHashes:    store.NewSeenHashRepository(db, logger),
		Scores:        store.NewScoreRepository(db, logger),
		Resumes:       store.NewResumeRepository(db, logger),
		Applications:  store.NewApplicationRepository(db, logger),
		FeedbackStore: store.NewFeedbackRepository(db, logger),
		Notifications: store.NewNotificationRepository(db, logger),
		Runs:          store.NewPipelineRunRepository(db, logger),
		Logger:        logger,
	}

	checkpointPath := filepath.Join(settings.DataDir, "checkpoint.json")
	cp, resumed, err := loadOrCreateCheckpoint(checkpointPath)
	if err != nil {
		logger.Error("failed to load checkpoint", "error", err)
		os.Exit(1)
	}
	deps.Checkpoint = cp
	if resumed {
		logger.Info("resuming prior run", "run_id", cp.RunID, "status", cp.Status)
	} else {
		logger.Info("starting new run", "run_id", cp.RunID)
	}

	run := orchestrator.Run(ctx, deps)
	logger.Info("pipeline run complete",
		"run_id", run.RunID,
		"status", run.Status,
		"sites_succeeded", run.SitesSucceeded,
		"sites_attempted", run.SitesAttempted,
		"jobs_scraped", run.JobsScraped,
		"jobs_new", run.JobsNew,
		"jobs_scored", run.JobsScored,
		"resumes_generated", run.ResumesGenerated,
		"notifications_sent", run.NotificationsSent,
	)

	if run.Status == string(constants.RunStatusCrashed) {
		os.Exit(1)
	}
}

func runExport(ctx context.Context, db *sql.DB, outPath string, logger *slog.Logger) error {
	service := export.NewService(store.NewApplicationRepository(db, logger), logger)
	bytes, err := service.ExportApplicationsXLSX(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, bytes, 0o644)
}

// loadOrCreateCheckpoint resumes a crashed run's checkpoint if one exists and
// is still running, otherwise starts a fresh one.
func loadOrCreateCheckpoint(path string) (*checkpoint.Log, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, err
	}
	existing, found, err := checkpoint.Load(path)
	if err != nil {
		return nil, false, err
	}
	if found && existing.Status == constants.RunStatusRunning {
		return existing, true, nil
	}
	return checkpoint.New(path, uuid.NewString()), false, nil
}

func buildLLMClient(settings *common.Settings, secrets common.Secrets) llm.Client {
	primary := llm.Provider{
		Name:    settings.PrimaryProvider.Name,
		BaseURL: settings.PrimaryProvider.BaseURL,
		Model:   settings.PrimaryProvider.Model,
		APIKey:  settings.PrimaryProvider.APIKey,
	}
	if secrets.PrimaryBaseURLEnv != "" {
		primary.BaseURL = secrets.PrimaryBaseURLEnv
	}
	providers := []llm.Provider{primary}

	if settings.FallbackProvider.BaseURL != "" {
		fallback := llm.Provider{
			Name:    settings.FallbackProvider.Name,
			BaseURL: settings.FallbackProvider.BaseURL,
			Model:   settings.FallbackProvider.Model,
			APIKey:  settings.FallbackProvider.APIKey,
		}
		if secrets.FallbackAPIKey != "" {
			fallback.APIKey = secrets.FallbackAPIKey
		}
		providers = append(providers, fallback)
	}

	return llm.NewClient(providers, settings.ModelTimeout, settings.MaxJSONRetries, slog.Default())
}
