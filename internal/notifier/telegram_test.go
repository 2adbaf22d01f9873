package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmendes/jobhunter/internal/model"
)

func newTestTelegramClient(t *testing.T, srv *httptest.Server) *telegramClient {
	t.Helper()
	return &telegramClient{
		botToken: "tok", chatID: "chat-1", client: srv.Client(), logger: discardLogger(), apiBase: srv.URL,
	}
}

func TestSendMatchPostsMessageWithInlineKeyboard(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("path = %s, want sendMessage", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tc := newTestTelegramClient(t, srv)
	job := model.Job{ID: "job-1", Title: "Engineer", Company: "Acme", Location: "Remote", Country: "US"}
	scored := model.ScoredJob{Score: 90, Reasoning: "strong fit"}

	if err := tc.SendMatch(context.Background(), job, scored, nil, nil); err != nil {
		t.Fatalf("SendMatch: %v", err)
	}
	if gotBody["chat_id"] != "chat-1" {
		t.Errorf("chat_id = %v, want chat-1", gotBody["chat_id"])
	}
	if !strings.Contains(gotBody["text"].(string), "Engineer") {
		t.Errorf("text = %v, want it to mention the job title", gotBody["text"])
	}
	if gotBody["reply_markup"] == nil {
		t.Error("expected an inline keyboard in reply_markup")
	}
}

func TestSendMatchNoopWithoutCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tc := &telegramClient{client: srv.Client(), logger: discardLogger(), apiBase: srv.URL}
	if err := tc.SendMatch(context.Background(), model.Job{}, model.ScoredJob{}, nil, nil); err != nil {
		t.Fatalf("SendMatch: %v", err)
	}
	if called {
		t.Error("expected no HTTP call when bot token/chat id are unset")
	}
}

func TestSendDocumentNotImplemented(t *testing.T) {
	tc := &telegramClient{apiBase: telegramAPIBase}
	if err := tc.sendDocument(context.Background(), "resume.pdf"); err == nil {
		t.Fatal("expected sendDocument to report it is unimplemented over this transport")
	}
}

func TestSendHealthAlertPostsSummary(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tc := newTestTelegramClient(t, srv)
	run := model.PipelineRun{RunID: "run-1", Status: "crashed", SitesAttempted: 3, SitesSucceeded: 1}
	if err := tc.SendHealthAlert(context.Background(), run); err != nil {
		t.Fatalf("SendHealthAlert: %v", err)
	}
	if !strings.Contains(gotBody["text"].(string), "run-1") {
		t.Errorf("text = %v, want it to mention the run id", gotBody["text"])
	}
}

func TestPollFeedbackDecodesCallbackData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "offset=6") {
			t.Errorf("query = %s, want offset=6", r.URL.RawQuery)
		}
		resp := telegramUpdatesResponse{Result: []telegramUpdate{
			{UpdateID: 6, CallbackQuery: &struct {
				Data string `json:"data"`
			}{Data: "applied:job-1"}},
			{UpdateID: 7, CallbackQuery: nil},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	tc := newTestTelegramClient(t, srv)
	feedback, cursor, err := tc.PollFeedback(context.Background(), 5)
	if err != nil {
		t.Fatalf("PollFeedback: %v", err)
	}
	if cursor != 7 {
		t.Errorf("cursor = %d, want 7", cursor)
	}
	if len(feedback) != 1 || feedback[0].Action != "applied" || feedback[0].JobID != "job-1" {
		t.Errorf("feedback = %+v, want one applied entry for job-1", feedback)
	}
}

func TestPollFeedbackNoopWithoutBotToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tc := &telegramClient{client: srv.Client(), logger: discardLogger(), apiBase: srv.URL}
	feedback, cursor, err := tc.PollFeedback(context.Background(), 5)
	if err != nil || feedback != nil || cursor != 5 {
		t.Fatalf("expected a no-op, got (%v, %d, %v)", feedback, cursor, err)
	}
	if called {
		t.Error("expected no HTTP call when bot token is unset")
	}
}

func TestFormatMatchMessageIncludesPriorApplicationsList(t *testing.T) {
	job := model.Job{Title: "Engineer", Company: "Acme", Location: "Remote", Country: "US", Salary: "$150k", URL: "https://example.com/job"}
	scored := model.ScoredJob{Score: 92, Reasoning: "great fit"}
	priorApplications := []model.Application{{Role: "Backend Engineer", Status: "rejected"}}
	msg := formatMatchMessage(job, scored, priorApplications)
	for _, want := range []string{
		"Match Score: 92/100", "Engineer", "Acme", "$150k",
		"Prior applications at this company", "Backend Engineer (rejected)",
		"[View Listing](https://example.com/job)", "great fit",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestFormatMatchMessageOmitsPriorApplicationsBlockWhenNone(t *testing.T) {
	job := model.Job{Title: "Engineer", Company: "Acme"}
	scored := model.ScoredJob{Score: 80, Reasoning: "fit"}
	msg := formatMatchMessage(job, scored, nil)
	if strings.Contains(msg, "Prior applications") {
		t.Errorf("message %q should not mention prior applications when there are none", msg)
	}
}

func TestFormatHealthAlertListsFailedSitesAndErrors(t *testing.T) {
	run := model.PipelineRun{
		RunID: "run-9", Status: "crashed", SitesAttempted: 2, SitesSucceeded: 1,
		SitesFailed: []model.SiteFailure{{Site: "acme", Stage: "scrape", Error: "timeout"}},
		Errors:      []string{"database unreachable"},
	}
	msg := formatHealthAlert(run)
	for _, want := range []string{"run-9", "acme", "timeout", "database unreachable"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
