// Package resumetailor implements the tailor/verify retry loop: up to three
// attempts to produce a résumé tailored to one job, each checked by a
// Verifier pass before being accepted and rendered to PDF.
package resumetailor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmendes/jobhunter/internal/llm"
	"github.com/cmendes/jobhunter/internal/masterresume"
	"github.com/cmendes/jobhunter/internal/model"
)

const maxAttempts = 3

type verifyResponse struct {
	Pass   bool     `json:"pass"`
	Issues []string `json:"issues"`
}

// Renderer turns tailored résumé HTML into a PDF file on disk, returning its
// path.
type Renderer interface {
	RenderPDF(ctx context.Context, html, outputPath string) error
}

// Tailor runs the tailor/verify loop for one job. On repeated failure it
// returns a TailoredResume with Verified=false and the last verifier issues,
// rather than an error: the run continues and the job can still be notified
// without an attachment.
func Tailor(ctx context.Context, job model.Job, resume *masterresume.Resume, client llm.Client, renderer Renderer, outputDir, runID string, logger *slog.Logger) (model.TailoredResume, error) {
	result := model.TailoredResume{JobID: job.ID, RunID: runID, GeneratedAt: time.Now()}

	var html string
	var issues []string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var err error
		html, err = tailorOnce(ctx, job, resume, client, issues, logger)
		if err != nil {
			logger.Error("resumetailor.tailor_failed", "job_id", job.ID, "attempt", attempt, "error", err)
			continue
		}

		pass, verifyIssues, verr := verifyOnce(ctx, job, resume, html, client, logger)
		if verr != nil {
			logger.Error("resumetailor.verify_failed", "job_id", job.ID, "attempt", attempt, "error", verr)
			continue
		}
		if pass {
			result.Verified = true
			break
		}
		issues = verifyIssues
		logger.Warn("resumetailor.verification_failed", "job_id", job.ID, "attempt", attempt, "issues", verifyIssues)
	}

	if !result.Verified {
		result.VerificationIssues = issues
		return result, nil
	}

	htmlPath := resumePath(outputDir, job, "html")
	pdfPath := resumePath(outputDir, job, "pdf")
	if renderer != nil {
		if err := renderer.RenderPDF(ctx, html, pdfPath); err != nil {
			logger.Error("resumetailor.render_failed", "job_id", job.ID, "error", err)
		} else {
			result.PDFPath = pdfPath
		}
	}
	result.HTMLPath = htmlPath
	return result, nil
}

func tailorOnce(ctx context.Context, job model.Job, resume *masterresume.Resume, client llm.Client, priorIssues []string, logger *slog.Logger) (string, error) {
	prompt := tailorUserPrompt(job, resume, priorIssues)
	resp, err := client.Complete(ctx, llm.Request{
		SystemPrompt: tailorSystemPrompt(),
		UserPrompt:   prompt,
		JSONMode:     false,
	})
	if err != nil {
		return "", fmt.Errorf("model client: %w", err)
	}
	return stripFences(resp.Content), nil
}

func verifyOnce(ctx context.Context, job model.Job, resume *masterresume.Resume, tailoredHTML string, client llm.Client, logger *slog.Logger) (bool, []string, error) {
	resp, err := client.Complete(ctx, llm.Request{
		SystemPrompt: verifySystemPrompt(),
		UserPrompt:   verifyUserPrompt(job, resume, tailoredHTML),
		JSONMode:     true,
	})
	if err != nil {
		return false, nil, fmt.Errorf("model client: %w", err)
	}
	if err := llm.ValidateJSONAgainstSchema(llm.VerifyResponseSchema(), []byte(resp.Content)); err != nil {
		return false, nil, fmt.Errorf("invalid verifier response: %w", err)
	}
	var parsed verifyResponse
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return false, nil, fmt.Errorf("decode verifier response: %w", err)
	}
	return parsed.Pass, parsed.Issues, nil
}

func tailorSystemPrompt() string {
	return "You are a résumé tailoring assistant. Given a candidate's master résumé and a job listing, " +
		"produce a tailored résumé as a single self-contained HTML document. Reuse only facts present in the master résumé; " +
		"never invent experience. Reply with ONLY the HTML document, no prose, no code fences."
}

func tailorUserPrompt(job model.Job, resume *masterresume.Resume, priorIssues []string) string {
	var b strings.Builder
	b.WriteString("# Master résumé\n")
	b.WriteString(resume.FormattedText())
	fmt.Fprintf(&b, "\n\n# Target job\nTitle: %s\nCompany: %s\n\nDescription:\n%s\n\nRequirements:\n%s\n", job.Title, job.Company, job.Description, job.Requirements)
	if len(priorIssues) > 0 {
		b.WriteString("\n\n# Fix the following issues found in your previous attempt\n")
		for _, issue := range priorIssues {
			b.WriteString("- " + issue + "\n")
		}
	}
	return b.String()
}

func verifySystemPrompt() string {
	return "You verify that a tailored résumé contains no fabricated experience beyond the master résumé and is relevant to the target job. " +
		"Respond with ONLY a JSON object {\"pass\": bool, \"issues\": string[]}."
}

func verifyUserPrompt(job model.Job, resume *masterresume.Resume, tailoredHTML string) string {
	return fmt.Sprintf("# Master résumé\n%s\n\n# Target job\nTitle: %s\nCompany: %s\n\n# Tailored résumé to verify\n%s",
		resume.FormattedText(), job.Title, job.Company, tailoredHTML)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```html")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func resumePath(outputDir string, job model.Job, ext string) string {
	id := string(job.ID)
	if len(id) > 10 {
		id = id[:10]
	}
	name := fmt.Sprintf("%s_%s_%s.%s", sanitize(job.Company), sanitize(job.Title), id, ext)
	return filepath.Join(outputDir, "resumes", name)
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return b.String()
}
