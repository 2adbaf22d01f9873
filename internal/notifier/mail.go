package notifier

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/cmendes/jobhunter/internal/model"
)

// digestEntry is one match queued for the end-of-run digest mail.
type digestEntry struct {
	job              model.Job
	scored           model.ScoredJob
	priorApplication bool
}

// MailDigest accumulates digest-band matches and sends a single email at
// the end of a run over stdlib net/smtp — no mail library appears anywhere
// in the example pack, so this is the one ambient concern built directly on
// the standard library (see DESIGN.md).
type MailDigest struct {
	entries []digestEntry

	smtpHost string
	smtpPort int
	from     string
	to       string
	password string
}

func NewMailDigest(smtpHost string, smtpPort int, from, to, password string) *MailDigest {
	return &MailDigest{smtpHost: smtpHost, smtpPort: smtpPort, from: from, to: to, password: password}
}

func (m *MailDigest) Enqueue(job model.Job, scored model.ScoredJob, priorApplication bool) {
	m.entries = append(m.entries, digestEntry{job: job, scored: scored, priorApplication: priorApplication})
}

// Send emails the accumulated digest, if anything was queued.
func (m *MailDigest) Send() error {
	if len(m.entries) == 0 {
		return nil
	}
	if m.smtpHost == "" || m.to == "" {
		return nil
	}

	subject := fmt.Sprintf("Job digest: %d new matches", len(m.entries))
	var body strings.Builder
	for _, e := range m.entries {
		fmt.Fprintf(&body, "%s at %s (%s, %s) — score %d\n", e.job.Title, e.job.Company, e.job.Location, e.job.Country, e.scored.Score)
		if e.priorApplication {
			body.WriteString("  (you've applied to this company before)\n")
		}
		if e.job.URL != "" {
			fmt.Fprintf(&body, "  %s\n", e.job.URL)
		}
		body.WriteString("\n")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, m.to, subject, body.String())

	addr := fmt.Sprintf("%s:%d", m.smtpHost, m.smtpPort)
	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.from, m.password, m.smtpHost)
	}
	return smtp.SendMail(addr, auth, m.from, []string{m.to}, []byte(msg))
}
