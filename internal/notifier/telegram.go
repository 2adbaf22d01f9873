package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmendes/jobhunter/internal/httpx"
	"github.com/cmendes/jobhunter/internal/model"
)

// telegramClient is the Telegram façade: instant match messages with
// inline feedback buttons, health alerts, and feedback polling, all over
// the plain Bot API HTTP surface.
const telegramAPIBase = "https://api.telegram.org"

type telegramClient struct {
	botToken string
	chatID   string
	client   *http.Client
	logger   *slog.Logger
	apiBase  string
}

func NewTelegramClient(botToken, chatID string, timeout time.Duration, logger *slog.Logger) Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &telegramClient{botToken: botToken, chatID: chatID, client: &http.Client{Timeout: timeout}, logger: logger, apiBase: telegramAPIBase}
}

func (t *telegramClient) apiURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.botToken, method)
}

// inlineKeyboard mirrors the three feedback actions: applied, skipped,
// not_relevant. The callback_data carries the job id so PollFeedback can
// resolve it back to a Feedback row.
func inlineKeyboard(jobID model.JobId) map[string]any {
	mk := func(label, action string) map[string]any {
		return map[string]any{"text": label, "callback_data": fmt.Sprintf("%s:%s", action, jobID)}
	}
	return map[string]any{
		"inline_keyboard": [][]map[string]any{
			{mk("Applied", "applied"), mk("Skipped", "skipped"), mk("Not relevant", "not_relevant")},
		},
	}
}

func (t *telegramClient) SendMatch(ctx context.Context, job model.Job, scored model.ScoredJob, tailored *model.TailoredResume, priorApplications []model.Application) error {
	if t.botToken == "" || t.chatID == "" {
		return nil
	}
	text := formatMatchMessage(job, scored, priorApplications)
	body := map[string]any{
		"chat_id":      t.chatID,
		"text":         text,
		"parse_mode":   "Markdown",
		"reply_markup": inlineKeyboard(job.ID),
	}
	if _, _, err := httpx.SendJSON(ctx, t.client, t.apiURL("sendMessage"), body, nil, t.logger); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}

	if tailored != nil && tailored.PDFPath != "" {
		if err := t.sendDocument(ctx, tailored.PDFPath); err != nil {
			t.logger.Warn("notifier.telegram_send_document_failed", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

func (t *telegramClient) sendDocument(ctx context.Context, path string) error {
	// Document upload is multipart; the pipeline's other outbound calls are
	// all JSON, so this is the one deliberate exception to internal/httpx.
	return fmt.Errorf("document upload to %q not implemented over this transport", path)
}

func (t *telegramClient) SendHealthAlert(ctx context.Context, run model.PipelineRun) error {
	if t.botToken == "" || t.chatID == "" {
		return nil
	}
	text := formatHealthAlert(run)
	body := map[string]any{"chat_id": t.chatID, "text": text, "parse_mode": "Markdown"}
	if _, _, err := httpx.SendJSON(ctx, t.client, t.apiURL("sendMessage"), body, nil, t.logger); err != nil {
		return fmt.Errorf("telegram health alert: %w", err)
	}
	return nil
}

type telegramUpdate struct {
	UpdateID      int `json:"update_id"`
	CallbackQuery *struct {
		Data string `json:"data"`
	} `json:"callback_query"`
}

type telegramUpdatesResponse struct {
	Result []telegramUpdate `json:"result"`
}

// PollFeedback fetches updates after the given cursor and returns the
// decoded callback actions plus the new cursor.
func (t *telegramClient) PollFeedback(ctx context.Context, afterUpdateID int64) ([]model.Feedback, int64, error) {
	if t.botToken == "" {
		return nil, afterUpdateID, nil
	}
	url := fmt.Sprintf("%s?offset=%d", t.apiURL("getUpdates"), afterUpdateID+1)
	raw, _, err := httpx.SendJSONGet(ctx, t.client, url, nil, t.logger)
	if err != nil {
		return nil, afterUpdateID, fmt.Errorf("telegram getUpdates: %w", err)
	}
	var parsed telegramUpdatesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, afterUpdateID, fmt.Errorf("decode getUpdates response: %w", err)
	}

	cursor := afterUpdateID
	var feedback []model.Feedback
	for _, u := range parsed.Result {
		if int64(u.UpdateID) > cursor {
			cursor = int64(u.UpdateID)
		}
		if u.CallbackQuery == nil {
			continue
		}
		parts := strings.SplitN(u.CallbackQuery.Data, ":", 2)
		if len(parts) != 2 {
			continue
		}
		feedback = append(feedback, model.Feedback{
			JobID:     model.JobId(parts[1]),
			Action:    parts[0],
			Timestamp: time.Now(),
		})
	}
	return feedback, cursor, nil
}

func formatMatchMessage(job model.Job, scored model.ScoredJob, priorApplications []model.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Match Score: %d/100*\n\n", scored.Score)
	fmt.Fprintf(&b, "*%s* — %s\n", job.Title, job.Company)
	fmt.Fprintf(&b, "%s\n", job.Location)
	if job.Salary != "" {
		fmt.Fprintf(&b, "%s\n", job.Salary)
	}
	if scored.Reasoning != "" {
		b.WriteString("\n_" + scored.Reasoning + "_\n")
	}
	if len(priorApplications) > 0 {
		b.WriteString("\n⚠️ *Prior applications at this company:*\n")
		for _, app := range priorApplications {
			fmt.Fprintf(&b, "  • %s (%s)\n", app.Role, app.Status)
		}
	}
	if job.URL != "" {
		fmt.Fprintf(&b, "\n[View Listing](%s)\n", job.URL)
	}
	return b.String()
}

func formatHealthAlert(run model.PipelineRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Pipeline run %s: %s*\n", run.RunID, run.Status)
	fmt.Fprintf(&b, "Sites: %d/%d succeeded\n", run.SitesSucceeded, run.SitesAttempted)
	fmt.Fprintf(&b, "Jobs scraped: %d, new: %d, scored: %d\n", run.JobsScraped, run.JobsNew, run.JobsScored)
	if len(run.SitesFailed) > 0 {
		b.WriteString("Failed sites:\n")
		for _, f := range run.SitesFailed {
			fmt.Fprintf(&b, "- %s (%s): %s\n", f.Site, f.Stage, f.Error)
		}
	}
	if len(run.Errors) > 0 {
		b.WriteString("Errors:\n")
		for _, e := range run.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}
