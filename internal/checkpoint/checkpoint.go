// Package checkpoint implements the Checkpoint Log: a single JSON document
// recording stage completion plus per-item progress, rewritten atomically on
// every mutation so a crash never leaves a corrupt or partial file behind.
package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/common"
)

// Log is the durable resume state for one pipeline invocation.
type Log struct {
	RunID           string              `json:"run_id"`
	Status          constants.RunStatus `json:"status"`
	StartedAt       time.Time           `json:"started_at"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`
	CompletedStages []string            `json:"completed_stages"`
	ScrapedSites    []string            `json:"scraped_sites"`
	ScoredJobs      []string            `json:"scored_jobs"`
	TailoredJobs    []string            `json:"tailored_jobs"`
	NotifiedJobs    []string            `json:"notified_jobs"`

	mu   sync.Mutex `json:"-"`
	path string     `json:"-"`
}

// New starts a fresh checkpoint for a new run.
func New(path, runID string) *Log {
	now := time.Now()
	return &Log{
		RunID:     runID,
		Status:    constants.RunStatusRunning,
		StartedAt: now,
		UpdatedAt: now,
		path:      path,
	}
}

// Load reads the checkpoint file at path. A missing file is not an error; it
// signals "no prior run", and the orchestrator should start fresh.
func Load(path string) (*Log, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, common.NewAppError("CHECKPOINT_ERROR", "read checkpoint file", err)
	}
	var l Log
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, false, common.NewAppError("CHECKPOINT_ERROR", "parse checkpoint file", err)
	}
	l.path = path
	return &l, true, nil
}

// Save atomically rewrites the checkpoint file: write to a temp file in the
// same directory, then rename over the original. os.Rename is atomic within
// one filesystem, so a crash mid-write never corrupts the prior checkpoint.
func (l *Log) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.UpdatedAt = time.Now()
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return common.NewAppError("CHECKPOINT_ERROR", "marshal checkpoint", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return common.NewAppError("CHECKPOINT_ERROR", "create temp checkpoint file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return common.NewAppError("CHECKPOINT_ERROR", "write temp checkpoint file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return common.NewAppError("CHECKPOINT_ERROR", "close temp checkpoint file", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return common.NewAppError("CHECKPOINT_ERROR", "rename checkpoint file", err)
	}
	return nil
}

// MarkStageComplete records a stage as done and persists the checkpoint.
func (l *Log) MarkStageComplete(stage constants.StageName) error {
	l.mu.Lock()
	if !contains(l.CompletedStages, string(stage)) {
		l.CompletedStages = append(l.CompletedStages, string(stage))
	}
	l.mu.Unlock()
	return l.Save()
}

// StageComplete reports whether stage was already marked complete.
func (l *Log) StageComplete(stage constants.StageName) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return contains(l.CompletedStages, string(stage))
}

// MarkSiteScraped records a site as fully scraped for this run.
func (l *Log) MarkSiteScraped(siteID string) error {
	l.mu.Lock()
	if !contains(l.ScrapedSites, siteID) {
		l.ScrapedSites = append(l.ScrapedSites, siteID)
	}
	l.mu.Unlock()
	return l.Save()
}

// SiteScraped reports whether siteID was already scraped in this run.
func (l *Log) SiteScraped(siteID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return contains(l.ScrapedSites, siteID)
}

// MarkJobScored records jobID as scored.
func (l *Log) MarkJobScored(jobID string) error {
	l.mu.Lock()
	if !contains(l.ScoredJobs, jobID) {
		l.ScoredJobs = append(l.ScoredJobs, jobID)
	}
	l.mu.Unlock()
	return l.Save()
}

// JobScored reports whether jobID was already scored in this run.
func (l *Log) JobScored(jobID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return contains(l.ScoredJobs, jobID)
}

// MarkJobTailored records jobID as tailored.
func (l *Log) MarkJobTailored(jobID string) error {
	l.mu.Lock()
	if !contains(l.TailoredJobs, jobID) {
		l.TailoredJobs = append(l.TailoredJobs, jobID)
	}
	l.mu.Unlock()
	return l.Save()
}

// JobTailored reports whether jobID was already tailored in this run.
func (l *Log) JobTailored(jobID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return contains(l.TailoredJobs, jobID)
}

// MarkJobNotified records jobID as notified.
func (l *Log) MarkJobNotified(jobID string) error {
	l.mu.Lock()
	if !contains(l.NotifiedJobs, jobID) {
		l.NotifiedJobs = append(l.NotifiedJobs, jobID)
	}
	l.mu.Unlock()
	return l.Save()
}

// JobNotified reports whether jobID was already notified in this run.
func (l *Log) JobNotified(jobID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return contains(l.NotifiedJobs, jobID)
}

// Finish marks the checkpoint completed or crashed and persists it.
func (l *Log) Finish(status constants.RunStatus) error {
	l.mu.Lock()
	now := time.Now()
	l.Status = status
	l.CompletedAt = &now
	l.mu.Unlock()
	return l.Save()
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
