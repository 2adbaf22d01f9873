package resumetailor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmendes/jobhunter/internal/llm"
	"github.com/cmendes/jobhunter/internal/masterresume"
	"github.com/cmendes/jobhunter/internal/model"
)

// scriptedClient replays a fixed sequence of responses in call order,
// distinguishing tailor calls (JSONMode=false) from verify calls (JSONMode=true)
// only by the order the loop invokes them in.
type scriptedClient struct {
	responses []llm.Response
	errs      []error
	calls     int
}

func (s *scriptedClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return llm.Response{}, s.errs[i]
	}
	return s.responses[i], nil
}

func (s *scriptedClient) LastProviderUsed() string { return "primary" }

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) RenderPDF(ctx context.Context, html, outputPath string) error {
	f.calls++
	return f.err
}

func testResume(t *testing.T) *masterresume.Resume {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master_resume.json")
	if err := os.WriteFile(path, []byte(`{"personal": {"full_name": "Jordan Rivera"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r, err := masterresume.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTailorPassesOnFirstAttempt(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{
		{Content: "<html>tailored</html>", Provider: "primary"},
		{Content: `{"pass": true, "issues": []}`, Provider: "primary"},
	}}
	renderer := &fakeRenderer{}
	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote"), Title: "Engineer", Company: "Acme"}

	result, err := Tailor(context.Background(), job, testResume(t), client, renderer, t.TempDir(), "run-1", discardLogger())
	if err != nil {
		t.Fatalf("Tailor: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected Verified=true")
	}
	if result.HTMLPath == "" {
		t.Error("expected HTMLPath to be set")
	}
	if renderer.calls != 1 {
		t.Errorf("expected renderer to be called once, got %d", renderer.calls)
	}
	if result.PDFPath == "" {
		t.Error("expected PDFPath to be set after a successful render")
	}
}

func TestTailorRetriesAfterVerificationFailure(t *testing.T) {
	client := &scriptedClient{responses: []llm.Response{
		{Content: "<html>v1</html>"},
		{Content: `{"pass": false, "issues": ["missing required skill"]}`},
		{Content: "<html>v2</html>"},
		{Content: `{"pass": true, "issues": []}`},
	}}
	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote")}

	result, err := Tailor(context.Background(), job, testResume(t), client, nil, t.TempDir(), "run-1", discardLogger())
	if err != nil {
		t.Fatalf("Tailor: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected Verified=true after the second attempt")
	}
	if client.calls != 4 {
		t.Errorf("expected exactly 2 tailor/verify round trips (4 calls), got %d", client.calls)
	}
}

func TestTailorGivesUpAfterMaxAttempts(t *testing.T) {
	responses := make([]llm.Response, 0, maxAttempts*2)
	for i := 0; i < maxAttempts; i++ {
		responses = append(responses,
			llm.Response{Content: "<html>draft</html>"},
			llm.Response{Content: `{"pass": false, "issues": ["still not relevant"]}`},
		)
	}
	client := &scriptedClient{responses: responses}
	renderer := &fakeRenderer{}
	job := model.Job{ID: model.NewJobId("Engineer", "Acme", "Remote")}

	result, err := Tailor(context.Background(), job, testResume(t), client, renderer, t.TempDir(), "run-1", discardLogger())
	if err != nil {
		t.Fatalf("Tailor: %v", err)
	}
	if result.Verified {
		t.Fatal("expected Verified=false after exhausting all attempts")
	}
	if len(result.VerificationIssues) == 0 {
		t.Error("expected VerificationIssues to carry the last verifier issues")
	}
	if renderer.calls != 0 {
		t.Error("expected renderer not to be called when never verified")
	}
	if result.HTMLPath != "" || result.PDFPath != "" {
		t.Error("expected no output paths when never verified")
	}
}

func TestSanitizeStripsNonAlnum(t *testing.T) {
	got := sanitize("Acme, Corp. (Remote!)")
	if got != "acme_corp_remote" {
		t.Errorf("sanitize() = %q", got)
	}
}

func TestResumePathFormat(t *testing.T) {
	job := model.Job{ID: model.NewJobId("Backend Engineer", "Acme Corp", "Remote"), Title: "Backend Engineer", Company: "Acme Corp"}
	path := resumePath("/out", job, "pdf")
	want := filepath.Join("/out", "resumes")
	if filepath.Dir(path) != want {
		t.Errorf("expected directory %q, got %q", want, filepath.Dir(path))
	}
	if filepath.Ext(path) != ".pdf" {
		t.Errorf("expected .pdf extension, got %q", path)
	}
}
