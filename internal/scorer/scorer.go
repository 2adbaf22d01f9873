// Package scorer builds the Model Client scoring request for one job:
// master résumé + weight breakdown + truncated description, and turns the
// validated response into a model.ScoredJob.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/llm"
	"github.com/cmendes/jobhunter/internal/masterresume"
	"github.com/cmendes/jobhunter/internal/model"
)

type scoreResponse struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
	Concerns  string `json:"concerns"`
}

// Score calls the Model Client for one job. A total Model Client failure
// (every provider exhausted) is logged and returns (nil, nil): the job is
// dropped from scoring for this run rather than aborting it.
func Score(ctx context.Context, job model.Job, resume *masterresume.Resume, weights common.ScoringWeights, descriptionCharCap int, client llm.Client, logger *slog.Logger) (*model.ScoredJob, error) {
	req := llm.Request{
		SystemPrompt: scoringSystemPrompt(),
		UserPrompt:   scoringUserPrompt(job, resume, weights, descriptionCharCap),
		JSONMode:     true,
	}

	resp, err := client.Complete(ctx, req)
	if err != nil {
		logger.Error("scorer.all_providers_failed", "job_id", job.ID, "error", err)
		return nil, nil
	}

	if err := llm.ValidateJSONAgainstSchema(llm.ScoreResponseSchema(), []byte(resp.Content)); err != nil {
		logger.Error("scorer.invalid_response_schema", "job_id", job.ID, "provider", resp.Provider, "error", err)
		return nil, nil
	}

	var parsed scoreResponse
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		logger.Error("scorer.decode_failed", "job_id", job.ID, "error", err)
		return nil, nil
	}

	clamped, wasClamped := model.ClampScore(parsed.Score)
	if wasClamped {
		logger.Warn("scorer.score_out_of_range", "job_id", job.ID, "raw_score", parsed.Score)
	}

	reasoning := parsed.Reasoning
	if strings.TrimSpace(parsed.Concerns) != "" {
		reasoning = reasoning + "\n\nConcerns: " + parsed.Concerns
	}

	return &model.ScoredJob{
		JobID:     job.ID,
		Score:     clamped,
		Reasoning: reasoning,
		Provider:  resp.Provider,
		ScoredAt:  time.Now(),
	}, nil
}

func scoringSystemPrompt() string {
	return "You are an assistant that scores how well a job listing matches a candidate's résumé. " +
		"Respond with ONLY a JSON object of the form {\"score\": <0-100 integer>, \"reasoning\": \"...\", \"concerns\": \"...\"}. " +
		"No prose, no code fences."
}

func scoringUserPrompt(job model.Job, resume *masterresume.Resume, weights common.ScoringWeights, descriptionCharCap int) string {
	var b strings.Builder
	b.WriteString("# Candidate résumé\n")
	b.WriteString(resume.FormattedText())
	b.WriteString("\n\n# Scoring weights\n")
	b.WriteString(formatWeights(weights))
	b.WriteString("\n\n# Job listing\n")
	fmt.Fprintf(&b, "Title: %s\nCompany: %s\nLocation: %s\nCountry: %s\nSalary: %s\n\n", job.Title, job.Company, job.Location, job.Country, job.Salary)
	b.WriteString("Description:\n")
	b.WriteString(truncate(job.Description, descriptionCharCap))
	b.WriteString("\n\nRequirements:\n")
	b.WriteString(truncate(job.Requirements, descriptionCharCap))
	return b.String()
}

func formatWeights(weights common.ScoringWeights) string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %.2f\n", k, weights[k])
	}
	return b.String()
}

func truncate(s string, cap int) string {
	if cap <= 0 || len(s) <= cap {
		return s
	}
	return s[:cap] + "... [truncated]"
}
