package scraper

import (
	"strings"
	"time"

	"github.com/cmendes/jobhunter/internal/model"
)

// normalizeRow converts a RawRow extracted by a Strategy into a model.Job.
// title/company/location are required; any row missing one is dropped
// silently (not an error) rather than surfacing a row with blank identity
// fields.
func normalizeRow(row RawRow, site model.SiteConfig, runID string, scrapedAt time.Time) (model.Job, bool) {
	title := strings.TrimSpace(row["title"])
	company := strings.TrimSpace(row["company"])
	location := strings.TrimSpace(row["location"])
	if title == "" || company == "" || location == "" {
		return model.Job{}, false
	}

	job := model.Job{
		ID:           model.NewJobId(title, company, location),
		SiteID:       site.SiteID,
		Title:        title,
		Company:      company,
		Location:     location,
		Country:      site.Country,
		URL:          strings.TrimSpace(row["url"]),
		Salary:       strings.TrimSpace(row["salary"]),
		Description:  strings.TrimSpace(row["description"]),
		Requirements: strings.TrimSpace(row["requirements"]),
		PostedDate:   strings.TrimSpace(row["posted_date"]),
		ScrapedAt:    scrapedAt,
		RunID:        runID,
	}
	return job, true
}
