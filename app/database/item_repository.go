package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLItemRepository handles database operations for scraped items
type SQLItemRepository struct {
	db *DB
}

var _ ItemRepository = (*SQLItemRepository)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *SQLItemRepository {
	return &SQLItemRepository{db: db}
}

// SaveItem inserts or replaces a scraped item
func (r *SQLItemRepository) SaveItem(item ScrapedItem) error {
	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO scraped_items (
			id, job_id, url, source_url, title, content, metadata,
			domain, language, strategy_used, content_hash, word_count,
			rating_score, processing_status, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.JobID, item.URL, item.SourceURL, item.Title, item.Content,
		string(metadataJSON), item.Domain, item.Language, item.StrategyUsed,
		item.ContentHash, item.WordCount, item.RatingScore,
		string(item.ProcessingStatus), item.ErrorMessage, item.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	return nil
}

const itemColumns = `id, job_id, url, source_url, title, content, metadata,
		domain, language, strategy_used, content_hash, word_count,
		rating_score, processing_status, error_message, created_at`

// GetItem returns an item by ID, or nil if it does not exist
func (r *SQLItemRepository) GetItem(id string) (*ScrapedItem, error) {
	row := r.db.QueryRow(`
		SELECT `+itemColumns+`
		FROM scraped_items
		WHERE id = ?
	`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// ListItems returns items ordered by creation time descending, with
// mandatory pagination and an optional job filter.
func (r *SQLItemRepository) ListItems(jobID string, limit, offset int) ([]ScrapedItem, error) {
	query := `SELECT ` + itemColumns + ` FROM scraped_items`
	args := []interface{}{}

	if jobID != "" {
		query += ` WHERE job_id = ?`
		args = append(args, jobID)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return r.queryItems(query, args...)
}

// GetUnratedItems returns completed items whose rating score is still the
// 0.0 "unrated" sentinel.
func (r *SQLItemRepository) GetUnratedItems(limit int) ([]ScrapedItem, error) {
	return r.queryItems(`
		SELECT `+itemColumns+`
		FROM scraped_items
		WHERE rating_score = 0.0 AND processing_status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`, string(ItemStatusCompleted), limit)
}

// GetLowQualityItems returns rated items below the threshold, worst first
func (r *SQLItemRepository) GetLowQualityItems(threshold float64, limit int) ([]ScrapedItem, error) {
	return r.queryItems(`
		SELECT `+itemColumns+`
		FROM scraped_items
		WHERE rating_score > 0 AND rating_score < ?
		ORDER BY rating_score ASC
		LIMIT ?
	`, threshold, limit)
}

// UpdateItemRating sets the rating score of an item
func (r *SQLItemRepository) UpdateItemRating(itemID string, score float64) error {
	_, err := r.db.Exec(`
		UPDATE scraped_items SET rating_score = ? WHERE id = ?
	`, score, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item rating: %w", err)
	}
	return nil
}

// CheckDuplicate checks if an item with the given content hash already exists
func (r *SQLItemRepository) CheckDuplicate(contentHash string) (bool, *string, error) {
	var duplicateID sql.NullString

	err := r.db.QueryRow(`
		SELECT id FROM scraped_items WHERE content_hash = ? LIMIT 1
	`, contentHash).Scan(&duplicateID)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to check duplicate: %w", err)
	}

	id := duplicateID.String
	return true, &id, nil
}

// GetItemCount returns the total number of scraped items
func (r *SQLItemRepository) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM scraped_items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// GetStatusCounts returns item counts grouped by processing status
func (r *SQLItemRepository) GetStatusCounts() (map[string]int, error) {
	return r.groupedCounts("processing_status")
}

// GetLanguageCounts returns item counts grouped by detected language
func (r *SQLItemRepository) GetLanguageCounts() (map[string]int, error) {
	return r.groupedCounts("language")
}

// GetAverageRating returns the mean rating score over rated items
func (r *SQLItemRepository) GetAverageRating() (float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT AVG(rating_score) FROM scraped_items WHERE rating_score > 0
	`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to get average rating: %w", err)
	}
	return avg.Float64, nil
}

func (r *SQLItemRepository) groupedCounts(column string) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT ` + column + `, COUNT(*) FROM scraped_items GROUP BY ` + column)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count row: %w", column, err)
		}
		counts[key] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s count rows: %w", column, err)
	}

	return counts, nil
}

func (r *SQLItemRepository) queryItems(query string, args ...interface{}) ([]ScrapedItem, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []ScrapedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func scanItem(row rowScanner) (*ScrapedItem, error) {
	var item ScrapedItem
	var metadataJSON, status string

	err := row.Scan(
		&item.ID, &item.JobID, &item.URL, &item.SourceURL, &item.Title,
		&item.Content, &metadataJSON, &item.Domain, &item.Language,
		&item.StrategyUsed, &item.ContentHash, &item.WordCount,
		&item.RatingScore, &status, &item.ErrorMessage, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ProcessingStatus = ItemStatus(status)

	if err := json.Unmarshal([]byte(metadataJSON), &item.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &item, nil
}
