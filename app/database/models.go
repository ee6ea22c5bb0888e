package database

import (
	"time"
)

type JobStatus string

const (
	JobStatusPending         JobStatus = "pending"
	JobStatusRunning         JobStatus = "running"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusFailed          JobStatus = "failed"
	JobStatusPartiallyFailed JobStatus = "partially_failed"
)

// Terminal reports whether no further status transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusPartiallyFailed
}

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusFailed    ItemStatus = "failed"
)

// ScrapedItem is one persisted unit of scraped content, independently ratable.
// A RatingScore of exactly 0.0 means the item has not been rated yet.
type ScrapedItem struct {
	ID               string
	JobID            string
	URL              string
	SourceURL        string
	Title            string
	Content          string
	Metadata         map[string]string
	Domain           string
	Language         string
	StrategyUsed     string
	ContentHash      string
	WordCount        int
	RatingScore      float64
	ProcessingStatus ItemStatus
	ErrorMessage     string
	CreatedAt        time.Time
}

// ScrapingJob is one batch scraping run over a fixed URL list.
type ScrapingJob struct {
	JobID          string
	URLs           []string
	Strategy       string
	Keywords       []string
	ContentTypes   []string
	MaxDepth       int
	DelaySeconds   float64
	TimeoutSeconds int
	Status         JobStatus
	TotalItems     int
	CompletedItems int
	FailedItems    int
	CreatedAt      time.Time
}

// RatingResult is one append-only rating history entry for an item.
type RatingResult struct {
	ID             int64
	ItemID         string
	OverallScore   float64
	CriteriaScores map[string]float64
	RatingLevel    string
	Confidence     float64
	Evaluator      string
	Notes          string
	CreatedAt      time.Time
}

// RatingStats holds the aggregate columns of the rating summary query.
type RatingStats struct {
	TotalRated        int
	AverageScore      float64
	MinScore          float64
	MaxScore          float64
	AverageConfidence float64
}
