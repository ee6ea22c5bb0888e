package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLJobRepository handles database operations for scraping jobs
type SQLJobRepository struct {
	db *DB
}

var _ JobRepository = (*SQLJobRepository)(nil)

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *SQLJobRepository {
	return &SQLJobRepository{db: db}
}

// SaveJob inserts or replaces a scraping job record
func (r *SQLJobRepository) SaveJob(job ScrapingJob) error {
	urlsJSON, err := json.Marshal(job.URLs)
	if err != nil {
		return fmt.Errorf("failed to marshal urls: %w", err)
	}
	keywordsJSON, err := json.Marshal(job.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	contentTypesJSON, err := json.Marshal(job.ContentTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal content types: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO scraping_jobs (
			job_id, urls, strategy, keywords, content_types, max_depth,
			delay_seconds, timeout_seconds, status,
			total_items, completed_items, failed_items, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.JobID, string(urlsJSON), job.Strategy, string(keywordsJSON),
		string(contentTypesJSON), job.MaxDepth, job.DelaySeconds, job.TimeoutSeconds,
		string(job.Status), job.TotalItems, job.CompletedItems, job.FailedItems,
		job.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

// GetJob returns a job by ID, or nil if it does not exist
func (r *SQLJobRepository) GetJob(jobID string) (*ScrapingJob, error) {
	row := r.db.QueryRow(`
		SELECT job_id, urls, strategy, COALESCE(keywords, '[]'),
		       COALESCE(content_types, '[]'), max_depth, delay_seconds,
		       timeout_seconds, status, total_items, completed_items,
		       failed_items, created_at
		FROM scraping_jobs
		WHERE job_id = ?
	`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// ListJobs returns the most recent jobs, newest first
func (r *SQLJobRepository) ListJobs(limit int) ([]ScrapingJob, error) {
	rows, err := r.db.Query(`
		SELECT job_id, urls, strategy, COALESCE(keywords, '[]'),
		       COALESCE(content_types, '[]'), max_depth, delay_seconds,
		       timeout_seconds, status, total_items, completed_items,
		       failed_items, created_at
		FROM scraping_jobs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ScrapingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// UpdateJobStatus sets the status of a job
func (r *SQLJobRepository) UpdateJobStatus(jobID string, status JobStatus) error {
	_, err := r.db.Exec(`
		UPDATE scraping_jobs SET status = ? WHERE job_id = ?
	`, string(status), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// UpdateJobCounters persists the progress counters and status of a job
func (r *SQLJobRepository) UpdateJobCounters(jobID string, completed, failed int, status JobStatus) error {
	_, err := r.db.Exec(`
		UPDATE scraping_jobs
		SET completed_items = ?, failed_items = ?, status = ?
		WHERE job_id = ?
	`, completed, failed, string(status), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job counters: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*ScrapingJob, error) {
	var job ScrapingJob
	var urlsJSON, keywordsJSON, contentTypesJSON, status string

	err := row.Scan(
		&job.JobID, &urlsJSON, &job.Strategy, &keywordsJSON, &contentTypesJSON,
		&job.MaxDepth, &job.DelaySeconds, &job.TimeoutSeconds, &status,
		&job.TotalItems, &job.CompletedItems, &job.FailedItems, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = JobStatus(status)

	if err := json.Unmarshal([]byte(urlsJSON), &job.URLs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal urls: %w", err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &job.Keywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(contentTypesJSON), &job.ContentTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content types: %w", err)
	}

	return &job, nil
}
