package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLRatingRepository handles database operations for rating results
type SQLRatingRepository struct {
	db *DB
}

var _ RatingRepository = (*SQLRatingRepository)(nil)

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *DB) *SQLRatingRepository {
	return &SQLRatingRepository{db: db}
}

// SaveRating appends a rating result to the item's history
func (r *SQLRatingRepository) SaveRating(result RatingResult) error {
	criteriaJSON, err := json.Marshal(result.CriteriaScores)
	if err != nil {
		return fmt.Errorf("failed to marshal criteria scores: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO rating_results (
			item_id, overall_score, criteria_scores, rating_level,
			confidence, evaluator, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ItemID, result.OverallScore, string(criteriaJSON),
		result.RatingLevel, result.Confidence, result.Evaluator, result.Notes,
		result.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}

	return nil
}

// GetHistory returns all rating results for an item, newest first
func (r *SQLRatingRepository) GetHistory(itemID string) ([]RatingResult, error) {
	rows, err := r.db.Query(`
		SELECT id, item_id, overall_score, criteria_scores, rating_level,
		       confidence, evaluator, notes, created_at
		FROM rating_results
		WHERE item_id = ?
		ORDER BY created_at DESC, id DESC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating history: %w", err)
	}
	defer rows.Close()

	var results []RatingResult
	for rows.Next() {
		var result RatingResult
		var criteriaJSON string

		err := rows.Scan(
			&result.ID, &result.ItemID, &result.OverallScore, &criteriaJSON,
			&result.RatingLevel, &result.Confidence, &result.Evaluator,
			&result.Notes, &result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}

		if err := json.Unmarshal([]byte(criteriaJSON), &result.CriteriaScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal criteria scores: %w", err)
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating rows: %w", err)
	}

	return results, nil
}

// GetSummaryStats returns overall rating aggregates
func (r *SQLRatingRepository) GetSummaryStats() (*RatingStats, error) {
	var stats RatingStats
	var avg, min, max, conf sql.NullFloat64

	err := r.db.QueryRow(`
		SELECT COUNT(*), AVG(overall_score), MIN(overall_score),
		       MAX(overall_score), AVG(confidence)
		FROM rating_results
	`).Scan(&stats.TotalRated, &avg, &min, &max, &conf)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary stats: %w", err)
	}

	stats.AverageScore = avg.Float64
	stats.MinScore = min.Float64
	stats.MaxScore = max.Float64
	stats.AverageConfidence = conf.Float64

	return &stats, nil
}

// GetLevelDistribution returns rating counts grouped by level
func (r *SQLRatingRepository) GetLevelDistribution() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT rating_level, COUNT(*) FROM rating_results GROUP BY rating_level
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get level distribution: %w", err)
	}
	defer rows.Close()

	distribution := make(map[string]int)
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan level row: %w", err)
		}
		distribution[level] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating level rows: %w", err)
	}

	return distribution, nil
}

// GetCriteriaAverages returns per-criterion mean scores across all ratings.
// Criteria scores are stored as JSON, so the averaging happens in Go.
func (r *SQLRatingRepository) GetCriteriaAverages() (map[string]float64, error) {
	rows, err := r.db.Query(`SELECT criteria_scores FROM rating_results`)
	if err != nil {
		return nil, fmt.Errorf("failed to get criteria scores: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for rows.Next() {
		var criteriaJSON string
		if err := rows.Scan(&criteriaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan criteria row: %w", err)
		}

		var scores map[string]float64
		if err := json.Unmarshal([]byte(criteriaJSON), &scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal criteria scores: %w", err)
		}

		for name, score := range scores {
			sums[name] += score
			counts[name]++
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating criteria rows: %w", err)
	}

	averages := make(map[string]float64, len(sums))
	for name, sum := range sums {
		averages[name] = sum / float64(counts[name])
	}

	return averages, nil
}

// CountRatedSince returns the number of ratings recorded after the given time
func (r *SQLRatingRepository) CountRatedSince(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM rating_results WHERE created_at > ?
	`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent ratings: %w", err)
	}
	return count, nil
}
