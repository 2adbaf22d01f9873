// Package keyword applies the three ordered keyword rules to a scraped job:
// must_have_any, must_not_have, title_must_have_any, evaluated
// case-insensitively against the effective (global ∪ per-site) KeywordConfig.
package keyword

import (
	"fmt"
	"strings"

	"github.com/cmendes/jobhunter/internal/model"
)

// Decision is the outcome of applying the keyword rules to one job.
type Decision struct {
	Accepted bool
	Reason   string // empty when Accepted
}

// Apply runs the three rules in order, short-circuiting on the first
// rejection.
func Apply(job model.Job, cfg model.KeywordConfig) Decision {
	text := strings.ToLower(job.Title + " " + job.Description + " " + job.Requirements)
	title := strings.ToLower(job.Title)

	if len(cfg.MustHaveAny) > 0 && !containsAny(text, cfg.MustHaveAny) {
		return Decision{Accepted: false, Reason: "no_required_keyword"}
	}
	if kw, ok := containsOne(text, cfg.MustNotHave); ok {
		return Decision{Accepted: false, Reason: fmt.Sprintf("has_excluded_keyword:%s", kw)}
	}
	if len(cfg.TitleMustHaveAny) > 0 && !containsAny(title, cfg.TitleMustHaveAny) {
		return Decision{Accepted: false, Reason: "title_missing_role_keyword"}
	}
	return Decision{Accepted: true}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func containsOne(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
