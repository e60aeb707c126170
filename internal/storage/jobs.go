package storage

import (
	"fmt"
	"time"
)

// JobStatus values for the generation job log.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Job is one backend call recorded for the history panel.
type Job struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	ItemID     string     `json:"itemId"`
	Prompt     string     `json:"prompt"`
	Model      string     `json:"model"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"durationMs"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// StartJob records a job as running.
func (db *DB) StartJob(j Job) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	_, err := db.conn.Exec(
		`INSERT INTO generation_jobs (id, kind, item_id, prompt, model, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Kind, j.ItemID, j.Prompt, j.Model, JobRunning, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	return nil
}

// FinishJob marks a job done. An empty errMsg means success.
func (db *DB) FinishJob(id, errMsg string, d time.Duration) error {
	status := JobSucceeded
	if errMsg != "" {
		status = JobFailed
	}
	_, err := db.conn.Exec(
		`UPDATE generation_jobs SET status = ?, error = ?, duration_ms = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, d.Milliseconds(), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

// ListJobs returns the most recent jobs first.
func (db *DB) ListJobs(limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(
		`SELECT id, kind, item_id, prompt, model, status, error, duration_ms, created_at, finished_at
		 FROM generation_jobs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Kind, &j.ItemID, &j.Prompt, &j.Model, &j.Status, &j.Error,
			&j.DurationMs, &j.CreatedAt, &j.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
