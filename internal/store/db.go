// Package store is the Persistent Store: a single-file embedded relational
// database (modernc.org/sqlite over database/sql) under a single-writer,
// WAL-tolerant-reader contract.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  site_id TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  country TEXT,
  url TEXT,
  salary TEXT,
  description TEXT,
  requirements TEXT,
  posted_date TEXT,
  scraped_at INTEGER NOT NULL,
  run_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS seen_jobs (
  hash TEXT PRIMARY KEY,
  first_seen_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
  job_id TEXT PRIMARY KEY REFERENCES jobs(id),
  score INTEGER NOT NULL,
  reasoning TEXT NOT NULL,
  provider TEXT NOT NULL,
  scored_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS resumes (
  job_id TEXT PRIMARY KEY REFERENCES jobs(id),
  html_path TEXT NOT NULL,
  pdf_path TEXT,
  verified INTEGER NOT NULL,
  verification_issues TEXT,
  generated_at INTEGER NOT NULL,
  run_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  job_id TEXT NOT NULL REFERENCES jobs(id),
  company TEXT NOT NULL,
  role TEXT NOT NULL,
  country TEXT,
  applied_date INTEGER,
  resume_version TEXT,
  status TEXT NOT NULL,
  status_updated INTEGER NOT NULL,
  notes TEXT,
  source_site TEXT
);

CREATE TABLE IF NOT EXISTS feedback (
  job_id TEXT NOT NULL REFERENCES jobs(id),
  score INTEGER NOT NULL,
  action TEXT NOT NULL,
  reason TEXT,
  timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
  run_id TEXT PRIMARY KEY,
  started_at INTEGER NOT NULL,
  completed_at INTEGER,
  status TEXT NOT NULL,
  sites_attempted INTEGER NOT NULL DEFAULT 0,
  sites_succeeded INTEGER NOT NULL DEFAULT 0,
  sites_failed_json TEXT,
  jobs_scraped INTEGER NOT NULL DEFAULT 0,
  jobs_new INTEGER NOT NULL DEFAULT 0,
  jobs_filtered_out INTEGER NOT NULL DEFAULT 0,
  jobs_scored INTEGER NOT NULL DEFAULT 0,
  jobs_above_threshold INTEGER NOT NULL DEFAULT 0,
  resumes_generated INTEGER NOT NULL DEFAULT 0,
  notifications_sent INTEGER NOT NULL DEFAULT 0,
  errors_json TEXT,
  llm_providers_json TEXT
);

CREATE TABLE IF NOT EXISTS notifications (
  job_id TEXT PRIMARY KEY REFERENCES jobs(id),
  band TEXT NOT NULL,
  telegram_sent INTEGER NOT NULL DEFAULT 0,
  digest_queued INTEGER NOT NULL DEFAULT 0,
  sent_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback_cursor (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  last_update_id INTEGER NOT NULL DEFAULT 0
);
`

// Open creates (if needed) and opens the store at path, applies the schema,
// and enables WAL mode so external inspection tools can read concurrently
// with the single writer.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer contract

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO feedback_cursor (id, last_update_id) VALUES (1, 0);`); err != nil {
		return nil, fmt.Errorf("seed feedback cursor: %w", err)
	}
	return db, nil
}
