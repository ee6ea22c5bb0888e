package tasks

import (
	"docgrader/app/database"
	"docgrader/app/jobs"
	"docgrader/app/rating"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. The scheduler owns the worker pool, enqueues periodic
// source scrapes and batch ratings, and retries failed tasks.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// JobStarter launches scraping jobs. Implemented by *jobs.Manager.
type JobStarter interface {
	StartJob(req jobs.Request) (*database.ScrapingJob, error)
}

// BatchRater rates every unrated item. Implemented by *rating.Engine.
type BatchRater interface {
	RateAll() (*rating.BatchResult, error)
}
