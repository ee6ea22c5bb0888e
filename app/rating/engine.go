package rating

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"docgrader/app/config"
	"docgrader/app/database"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrEmptyContent = errors.New("item has no content to rate")
)

const (
	// Rated items keep a strictly positive score so that 0.0 stays the
	// unrated sentinel in scraped_items.rating_score.
	minStoredScore = 0.001

	// How many unrated items a single batch pass picks up
	batchLimit = 1000
)

// Level buckets for overall scores
const (
	LevelExcellent = "excellent"
	LevelGood      = "good"
	LevelAverage   = "average"
	LevelPoor      = "poor"
)

// Engine evaluates scraped items against the configured weighted criteria
// and persists the results.
type Engine struct {
	rating  config.Rating
	items   database.ItemRepository
	ratings database.RatingRepository
}

// BatchResult summarizes a rate-all pass.
type BatchResult struct {
	TotalItems  int `json:"total_items"`
	RatedCount  int `json:"rated_count"`
	FailedCount int `json:"failed_count"`
}

func NewEngine(rating config.Rating, items database.ItemRepository, ratings database.RatingRepository) (*Engine, error) {
	if err := config.ValidateRating(&rating); err != nil {
		return nil, fmt.Errorf("rating engine: %w", err)
	}

	return &Engine{
		rating:  rating,
		items:   items,
		ratings: ratings,
	}, nil
}

// RateItem evaluates a single item and stores the result.
func (e *Engine) RateItem(itemID, evaluator, notes string) (*database.RatingResult, error) {
	item, err := e.items.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", itemID, err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	return e.rate(item, evaluator, notes)
}

// ReEvaluate re-runs the evaluation for an already rated item. The previous
// results stay in the history; the item's current score is replaced.
func (e *Engine) ReEvaluate(itemID, evaluator, notes string) (*database.RatingResult, error) {
	if evaluator == "" {
		evaluator = "manual"
	}
	return e.RateItem(itemID, evaluator, notes)
}

// RateAll evaluates every unrated item with completed content. Per-item
// failures are counted and logged, they do not abort the batch.
func (e *Engine) RateAll() (*BatchResult, error) {
	unrated, err := e.items.GetUnratedItems(batchLimit)
	if err != nil {
		return nil, fmt.Errorf("loading unrated items: %w", err)
	}

	result := &BatchResult{TotalItems: len(unrated)}
	for i := range unrated {
		item := &unrated[i]
		if _, err := e.rate(item, "auto", ""); err != nil {
			slog.Warn("Rating failed", "item_id", item.ID, "error", err)
			result.FailedCount++
			continue
		}
		result.RatedCount++
	}

	slog.Info("Batch rating finished",
		"total", result.TotalItems, "rated", result.RatedCount, "failed", result.FailedCount)
	return result, nil
}

// History returns all stored evaluations for an item, newest first.
func (e *Engine) History(itemID string) ([]database.RatingResult, error) {
	item, err := e.items.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", itemID, err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	return e.ratings.GetHistory(itemID)
}

// Evaluate computes the criteria scores, the weighted overall score and the
// confidence for an item without persisting anything.
func (e *Engine) Evaluate(item *database.ScrapedItem) (*database.RatingResult, error) {
	if strings.TrimSpace(item.Content) == "" {
		return nil, ErrEmptyContent
	}

	now := time.Now().UTC()
	criteria := map[string]float64{
		CriterionSourceCredibility:   evaluateSourceCredibility(item, e.rating.TrustedDomains),
		CriterionContentCompleteness: evaluateContentCompleteness(item),
		CriterionOCRAccuracy:         evaluateOCRAccuracy(item),
		CriterionDataFreshness:       evaluateDataFreshness(item, now),
		CriterionContentRelevance:    evaluateContentRelevance(item),
		CriterionTechnicalQuality:    evaluateTechnicalQuality(item),
	}

	for name, score := range criteria {
		criteria[name] = round3(score)
	}

	w := e.rating.Weights
	overall := criteria[CriterionSourceCredibility]*w.SourceCredibility +
		criteria[CriterionContentCompleteness]*w.ContentCompleteness +
		criteria[CriterionOCRAccuracy]*w.OCRAccuracy +
		criteria[CriterionDataFreshness]*w.DataFreshness +
		criteria[CriterionContentRelevance]*w.ContentRelevance +
		criteria[CriterionTechnicalQuality]*w.TechnicalQuality
	overall = round3(clamp01(overall))

	_, hasOCRConfidence := item.Metadata["ocr_confidence"]

	return &database.RatingResult{
		ItemID:         item.ID,
		OverallScore:   overall,
		CriteriaScores: criteria,
		RatingLevel:    e.level(overall),
		Confidence:     round3(confidence(criteria, hasOCRConfidence)),
		CreatedAt:      now,
	}, nil
}

func (e *Engine) rate(item *database.ScrapedItem, evaluator, notes string) (*database.RatingResult, error) {
	result, err := e.Evaluate(item)
	if err != nil {
		return nil, err
	}
	result.Evaluator = evaluator
	result.Notes = notes

	if err := e.ratings.SaveRating(*result); err != nil {
		return nil, fmt.Errorf("saving rating for item %s: %w", item.ID, err)
	}

	stored := math.Max(result.OverallScore, minStoredScore)
	if err := e.items.UpdateItemRating(item.ID, stored); err != nil {
		return nil, fmt.Errorf("updating item %s score: %w", item.ID, err)
	}

	slog.Debug("Item rated",
		"item_id", item.ID, "score", result.OverallScore, "level", result.RatingLevel)
	return result, nil
}

// level buckets an overall score against the configured thresholds. Poor is
// the floor for everything below the average threshold.
func (e *Engine) level(score float64) string {
	t := e.rating.Thresholds
	switch {
	case score >= t.Excellent:
		return LevelExcellent
	case score >= t.Good:
		return LevelGood
	case score >= t.Average:
		return LevelAverage
	default:
		return LevelPoor
	}
}

// confidence expresses how much the criteria agree with each other: tight
// scores yield high confidence, widely spread scores fall back to the floor.
// Upstream OCR confidence metadata raises the floor.
func confidence(criteria map[string]float64, hasOCRConfidence bool) float64 {
	floor := 0.5
	if hasOCRConfidence {
		floor = 0.6
	}
	if len(criteria) == 0 {
		return floor
	}

	var sum float64
	for _, score := range criteria {
		sum += score
	}
	mean := sum / float64(len(criteria))

	var variance float64
	for _, score := range criteria {
		variance += (score - mean) * (score - mean)
	}
	stddev := math.Sqrt(variance / float64(len(criteria)))

	return math.Min(math.Max(floor, 1.0-stddev), 1.0)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
