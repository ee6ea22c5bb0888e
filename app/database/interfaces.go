package database

import "time"

type JobRepository interface {
	SaveJob(job ScrapingJob) error
	GetJob(jobID string) (*ScrapingJob, error)
	ListJobs(limit int) ([]ScrapingJob, error)
	UpdateJobStatus(jobID string, status JobStatus) error
	UpdateJobCounters(jobID string, completed, failed int, status JobStatus) error
}

type ItemRepository interface {
	SaveItem(item ScrapedItem) error
	GetItem(id string) (*ScrapedItem, error)
	ListItems(jobID string, limit, offset int) ([]ScrapedItem, error)
	GetUnratedItems(limit int) ([]ScrapedItem, error)
	GetLowQualityItems(threshold float64, limit int) ([]ScrapedItem, error)
	UpdateItemRating(itemID string, score float64) error
	CheckDuplicate(contentHash string) (bool, *string, error)

	GetItemCount() (int, error)
	GetStatusCounts() (map[string]int, error)
	GetLanguageCounts() (map[string]int, error)
	GetAverageRating() (float64, error)
}

type RatingRepository interface {
	SaveRating(result RatingResult) error
	GetHistory(itemID string) ([]RatingResult, error)

	GetSummaryStats() (*RatingStats, error)
	GetLevelDistribution() (map[string]int, error)
	GetCriteriaAverages() (map[string]float64, error)
	CountRatedSince(since time.Time) (int, error)
}
