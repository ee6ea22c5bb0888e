package stats

import (
	"fmt"
	"time"

	"docgrader/app/database"
)

// RatingSummary aggregates the stored rating results.
type RatingSummary struct {
	TotalRated        int                `json:"total_rated"`
	AverageScore      float64            `json:"average_score"`
	MinScore          float64            `json:"min_score"`
	MaxScore          float64            `json:"max_score"`
	AverageConfidence float64            `json:"average_confidence"`
	LevelDistribution map[string]int     `json:"level_distribution"`
	CriteriaAverages  map[string]float64 `json:"criteria_averages"`
	RatedLast24h      int                `json:"rated_last_24h"`
}

// LowQualityReport lists the rated items below a score threshold.
type LowQualityReport struct {
	Threshold float64                `json:"threshold"`
	Count     int                    `json:"count"`
	Items     []database.ScrapedItem `json:"items"`
}

// ScrapingStatistics summarizes the scraped corpus.
type ScrapingStatistics struct {
	TotalItems     int            `json:"total_items"`
	StatusCounts   map[string]int `json:"status_counts"`
	LanguageCounts map[string]int `json:"language_counts"`
	AverageRating  float64        `json:"average_rating"`
}

// Reporter produces read-only aggregate views over items and ratings.
type Reporter struct {
	items   database.ItemRepository
	ratings database.RatingRepository
}

func NewReporter(items database.ItemRepository, ratings database.RatingRepository) *Reporter {
	return &Reporter{items: items, ratings: ratings}
}

// RatingSummary assembles the full rating overview. An empty ratings table
// yields a zero-valued summary, not an error.
func (r *Reporter) RatingSummary() (*RatingSummary, error) {
	base, err := r.ratings.GetSummaryStats()
	if err != nil {
		return nil, fmt.Errorf("loading summary stats: %w", err)
	}

	summary := &RatingSummary{}
	if base != nil {
		summary.TotalRated = base.TotalRated
		summary.AverageScore = base.AverageScore
		summary.MinScore = base.MinScore
		summary.MaxScore = base.MaxScore
		summary.AverageConfidence = base.AverageConfidence
	}

	if summary.LevelDistribution, err = r.ratings.GetLevelDistribution(); err != nil {
		return nil, fmt.Errorf("loading level distribution: %w", err)
	}
	if summary.CriteriaAverages, err = r.ratings.GetCriteriaAverages(); err != nil {
		return nil, fmt.Errorf("loading criteria averages: %w", err)
	}
	if summary.RatedLast24h, err = r.ratings.CountRatedSince(time.Now().UTC().Add(-24 * time.Hour)); err != nil {
		return nil, fmt.Errorf("counting recent ratings: %w", err)
	}

	return summary, nil
}

// LowQuality returns rated items whose score fell below the threshold.
func (r *Reporter) LowQuality(threshold float64, limit int) (*LowQualityReport, error) {
	if limit <= 0 {
		limit = 50
	}

	items, err := r.items.GetLowQualityItems(threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("loading low-quality items: %w", err)
	}

	return &LowQualityReport{
		Threshold: threshold,
		Count:     len(items),
		Items:     items,
	}, nil
}

// ScrapingStatistics summarizes the scraped item corpus.
func (r *Reporter) ScrapingStatistics() (*ScrapingStatistics, error) {
	total, err := r.items.GetItemCount()
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	statusCounts, err := r.items.GetStatusCounts()
	if err != nil {
		return nil, fmt.Errorf("loading status counts: %w", err)
	}

	languageCounts, err := r.items.GetLanguageCounts()
	if err != nil {
		return nil, fmt.Errorf("loading language counts: %w", err)
	}

	averageRating, err := r.items.GetAverageRating()
	if err != nil {
		return nil, fmt.Errorf("loading average rating: %w", err)
	}

	return &ScrapingStatistics{
		TotalItems:     total,
		StatusCounts:   statusCounts,
		LanguageCounts: languageCounts,
		AverageRating:  averageRating,
	}, nil
}
