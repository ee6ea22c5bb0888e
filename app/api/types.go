package api

import (
	"time"

	"docgrader/app/config"
	"docgrader/app/database"
	"docgrader/app/jobs"
	"docgrader/app/rating"
	"docgrader/app/stats"
	"docgrader/app/tasks"
)

// JobManagerInterface is the job surface the handlers need.
// Implemented by *jobs.Manager.
type JobManagerInterface interface {
	StartJob(req jobs.Request) (*database.ScrapingJob, error)
	GetJob(jobID string) (*database.ScrapingJob, error)
	ListJobs(limit int) ([]database.ScrapingJob, error)
	ListItems(jobID string, limit, offset int) ([]database.ScrapedItem, error)
}

// RatingEngineInterface is the rating surface the handlers need.
// Implemented by *rating.Engine.
type RatingEngineInterface interface {
	RateItem(itemID, evaluator, notes string) (*database.RatingResult, error)
	ReEvaluate(itemID, evaluator, notes string) (*database.RatingResult, error)
	RateAll() (*rating.BatchResult, error)
	History(itemID string) ([]database.RatingResult, error)
}

// ReporterInterface is the statistics surface the handlers need.
// Implemented by *stats.Reporter.
type ReporterInterface interface {
	RatingSummary() (*stats.RatingSummary, error)
	LowQuality(threshold float64, limit int) (*stats.LowQualityReport, error)
	ScrapingStatistics() (*stats.ScrapingStatistics, error)
}

var _ JobManagerInterface = (*jobs.Manager)(nil)
var _ RatingEngineInterface = (*rating.Engine)(nil)
var _ ReporterInterface = (*stats.Reporter)(nil)

type Handler struct {
	manager          JobManagerInterface
	engine           RatingEngineInterface
	reporter         ReporterInterface
	scheduler        tasks.TaskSchedulerInterface
	sources          []config.Source
	defaultThreshold float64
}

type ScrapeRequest struct {
	URLs           []string `json:"urls" binding:"required"`
	Strategy       string   `json:"strategy"`
	Keywords       []string `json:"keywords"`
	ContentTypes   []string `json:"content_types"`
	MaxDepth       int      `json:"max_depth"`
	DelaySeconds   float64  `json:"delay_seconds"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

type RateRequest struct {
	Evaluator string `json:"evaluator"`
	Notes     string `json:"notes"`
}

type JobResponse struct {
	JobID          string    `json:"job_id"`
	URLs           []string  `json:"urls"`
	Strategy       string    `json:"strategy"`
	Status         string    `json:"status"`
	TotalItems     int       `json:"total_items"`
	CompletedItems int       `json:"completed_items"`
	FailedItems    int       `json:"failed_items"`
	CreatedAt      time.Time `json:"created_at"`
}

type ItemResponse struct {
	ID               string            `json:"id"`
	JobID            string            `json:"job_id"`
	URL              string            `json:"url"`
	Title            string            `json:"title"`
	Content          string            `json:"content"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Domain           string            `json:"domain"`
	Language         string            `json:"language"`
	StrategyUsed     string            `json:"strategy_used"`
	WordCount        int               `json:"word_count"`
	RatingScore      float64           `json:"rating_score"`
	ProcessingStatus string            `json:"processing_status"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

type RatingResponse struct {
	ItemID         string             `json:"item_id"`
	OverallScore   float64            `json:"overall_score"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	RatingLevel    string             `json:"rating_level"`
	Confidence     float64            `json:"confidence"`
	Evaluator      string             `json:"evaluator,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

func jobResponse(job *database.ScrapingJob) JobResponse {
	return JobResponse{
		JobID:          job.JobID,
		URLs:           job.URLs,
		Strategy:       job.Strategy,
		Status:         string(job.Status),
		TotalItems:     job.TotalItems,
		CompletedItems: job.CompletedItems,
		FailedItems:    job.FailedItems,
		CreatedAt:      job.CreatedAt,
	}
}

func itemResponse(item *database.ScrapedItem) ItemResponse {
	return ItemResponse{
		ID:               item.ID,
		JobID:            item.JobID,
		URL:              item.URL,
		Title:            item.Title,
		Content:          item.Content,
		Metadata:         item.Metadata,
		Domain:           item.Domain,
		Language:         item.Language,
		StrategyUsed:     item.StrategyUsed,
		WordCount:        item.WordCount,
		RatingScore:      item.RatingScore,
		ProcessingStatus: string(item.ProcessingStatus),
		ErrorMessage:     item.ErrorMessage,
		CreatedAt:        item.CreatedAt,
	}
}

func ratingResponse(result *database.RatingResult) RatingResponse {
	return RatingResponse{
		ItemID:         result.ItemID,
		OverallScore:   result.OverallScore,
		CriteriaScores: result.CriteriaScores,
		RatingLevel:    result.RatingLevel,
		Confidence:     result.Confidence,
		Evaluator:      result.Evaluator,
		Notes:          result.Notes,
		CreatedAt:      result.CreatedAt,
	}
}
