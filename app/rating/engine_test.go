package rating

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docgrader/app/config"
	"docgrader/app/database"
)

type mockItemRepository struct {
	items        map[string]database.ScrapedItem
	unrated      []database.ScrapedItem
	ratedScores  map[string]float64
	getItemError error
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{
		items:       make(map[string]database.ScrapedItem),
		ratedScores: make(map[string]float64),
	}
}

func (m *mockItemRepository) SaveItem(item database.ScrapedItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepository) GetItem(id string) (*database.ScrapedItem, error) {
	if m.getItemError != nil {
		return nil, m.getItemError
	}
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *mockItemRepository) ListItems(jobID string, limit, offset int) ([]database.ScrapedItem, error) {
	return nil, nil
}

func (m *mockItemRepository) GetUnratedItems(limit int) ([]database.ScrapedItem, error) {
	return m.unrated, nil
}

func (m *mockItemRepository) GetLowQualityItems(threshold float64, limit int) ([]database.ScrapedItem, error) {
	return nil, nil
}

func (m *mockItemRepository) UpdateItemRating(itemID string, score float64) error {
	m.ratedScores[itemID] = score
	return nil
}

func (m *mockItemRepository) CheckDuplicate(contentHash string) (bool, *string, error) {
	return false, nil, nil
}

func (m *mockItemRepository) GetItemCount() (int, error)                 { return len(m.items), nil }
func (m *mockItemRepository) GetStatusCounts() (map[string]int, error)   { return nil, nil }
func (m *mockItemRepository) GetLanguageCounts() (map[string]int, error) { return nil, nil }
func (m *mockItemRepository) GetAverageRating() (float64, error)         { return 0, nil }

type mockRatingRepository struct {
	saved []database.RatingResult
}

func (m *mockRatingRepository) SaveRating(result database.RatingResult) error {
	m.saved = append(m.saved, result)
	return nil
}

func (m *mockRatingRepository) GetHistory(itemID string) ([]database.RatingResult, error) {
	var history []database.RatingResult
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].ItemID == itemID {
			history = append(history, m.saved[i])
		}
	}
	return history, nil
}

func (m *mockRatingRepository) GetSummaryStats() (*database.RatingStats, error)    { return nil, nil }
func (m *mockRatingRepository) GetLevelDistribution() (map[string]int, error)      { return nil, nil }
func (m *mockRatingRepository) GetCriteriaAverages() (map[string]float64, error)   { return nil, nil }
func (m *mockRatingRepository) CountRatedSince(since time.Time) (int, error)       { return 0, nil }

func newTestEngine(t *testing.T, items database.ItemRepository, ratings database.RatingRepository) *Engine {
	t.Helper()
	engine, err := NewEngine(*config.DefaultRating(), items, ratings)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return engine
}

func legalTestItem(id string) database.ScrapedItem {
	content := strings.Repeat("ماده قانون دادگاه قرارداد به موجب این سند رسمی مطابق رویه قضایی. ", 40) +
		"\n\nفصل دوم\n\nتبصره یک: طبق ماده پنج قانون مدنی."
	return database.ScrapedItem{
		ID:               id,
		JobID:            "job-1",
		URL:              "https://court.gov.ir/cases/1234",
		Title:            "رای دادگاه در پرونده قرارداد",
		Content:          content,
		Metadata:         map[string]string{"description": "سند رسمی قوه قضاییه", "author": "دادگاه", "site_name": "court"},
		Domain:           "court.gov.ir",
		Language:         "persian",
		WordCount:        len(strings.Fields(content)),
		ProcessingStatus: database.ItemStatusCompleted,
		CreatedAt:        time.Now().UTC(),
	}
}

func TestNewEngineRejectsInvalidWeights(t *testing.T) {
	rating := *config.DefaultRating()
	rating.Weights.SourceCredibility = 0.9

	_, err := NewEngine(rating, newMockItemRepository(), &mockRatingRepository{})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRateItemNotFound(t *testing.T) {
	engine := newTestEngine(t, newMockItemRepository(), &mockRatingRepository{})

	_, err := engine.RateItem("missing", "manual", "")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRateItemEmptyContent(t *testing.T) {
	items := newMockItemRepository()
	item := legalTestItem("item-1")
	item.Content = "   \n "
	items.items[item.ID] = item

	engine := newTestEngine(t, items, &mockRatingRepository{})

	_, err := engine.RateItem("item-1", "manual", "")
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestRateItemPersistsResult(t *testing.T) {
	items := newMockItemRepository()
	ratings := &mockRatingRepository{}
	items.items["item-1"] = legalTestItem("item-1")

	engine := newTestEngine(t, items, ratings)

	result, err := engine.RateItem("item-1", "manual", "spot check")
	if err != nil {
		t.Fatalf("RateItem() error: %v", err)
	}

	if result.OverallScore <= 0 || result.OverallScore > 1 {
		t.Errorf("overall score out of range: %f", result.OverallScore)
	}
	if len(result.CriteriaScores) != 6 {
		t.Errorf("expected 6 criteria scores, got %d", len(result.CriteriaScores))
	}
	if result.CriteriaScores[CriterionSourceCredibility] < 0.9 {
		t.Errorf("official domain should score at least 0.9 credibility, got %f",
			result.CriteriaScores[CriterionSourceCredibility])
	}
	if result.Evaluator != "manual" || result.Notes != "spot check" {
		t.Errorf("evaluator/notes not carried over: %q %q", result.Evaluator, result.Notes)
	}
	if result.Confidence < 0.5 || result.Confidence > 1 {
		t.Errorf("confidence out of range: %f", result.Confidence)
	}

	if len(ratings.saved) != 1 {
		t.Fatalf("expected one saved rating, got %d", len(ratings.saved))
	}
	stored, ok := items.ratedScores["item-1"]
	if !ok {
		t.Fatal("item score was not updated")
	}
	if stored <= 0 {
		t.Errorf("stored score must be strictly positive, got %f", stored)
	}
}

func TestRateAllCountsFailures(t *testing.T) {
	items := newMockItemRepository()
	ratings := &mockRatingRepository{}

	good := legalTestItem("item-1")
	empty := legalTestItem("item-2")
	empty.Content = ""
	items.unrated = []database.ScrapedItem{good, empty}

	engine := newTestEngine(t, items, ratings)

	result, err := engine.RateAll()
	if err != nil {
		t.Fatalf("RateAll() error: %v", err)
	}

	if result.TotalItems != 2 || result.RatedCount != 1 || result.FailedCount != 1 {
		t.Errorf("unexpected batch result: %+v", result)
	}
	if len(ratings.saved) != 1 {
		t.Errorf("expected one saved rating, got %d", len(ratings.saved))
	}
}

func TestRateAllIdempotentAgainstDatabase(t *testing.T) {
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "docgrader.db"))
	if err != nil {
		t.Fatalf("NewConnection() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error: %v", err)
	}

	items := database.NewItemRepository(db)
	ratings := database.NewRatingRepository(db)

	if err := items.SaveItem(legalTestItem("item-1")); err != nil {
		t.Fatalf("SaveItem() error: %v", err)
	}

	engine := newTestEngine(t, items, ratings)

	first, err := engine.RateAll()
	if err != nil {
		t.Fatalf("first RateAll() error: %v", err)
	}
	if first.TotalItems != 1 || first.RatedCount != 1 || first.FailedCount != 0 {
		t.Fatalf("first pass: %+v, want 1 rated", first)
	}

	second, err := engine.RateAll()
	if err != nil {
		t.Fatalf("second RateAll() error: %v", err)
	}
	if second.TotalItems != 0 || second.RatedCount != 0 || second.FailedCount != 0 {
		t.Errorf("second pass rated again: %+v, want all zero", second)
	}

	unrated, err := items.GetUnratedItems(10)
	if err != nil {
		t.Fatalf("GetUnratedItems() error: %v", err)
	}
	if len(unrated) != 0 {
		t.Errorf("expected no unrated items after batch pass, got %d", len(unrated))
	}
}

func TestReEvaluateAppendsHistory(t *testing.T) {
	items := newMockItemRepository()
	ratings := &mockRatingRepository{}
	items.items["item-1"] = legalTestItem("item-1")

	engine := newTestEngine(t, items, ratings)

	if _, err := engine.RateItem("item-1", "auto", ""); err != nil {
		t.Fatalf("RateItem() error: %v", err)
	}
	if _, err := engine.ReEvaluate("item-1", "", "second pass"); err != nil {
		t.Fatalf("ReEvaluate() error: %v", err)
	}

	history, err := engine.History("item-1")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Evaluator != "manual" {
		t.Errorf("re-evaluation without evaluator should default to manual, got %q", history[0].Evaluator)
	}
}

func TestHistoryItemNotFound(t *testing.T) {
	engine := newTestEngine(t, newMockItemRepository(), &mockRatingRepository{})

	_, err := engine.History("missing")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestLevelBuckets(t *testing.T) {
	engine := newTestEngine(t, newMockItemRepository(), &mockRatingRepository{})

	tests := []struct {
		score float64
		want  string
	}{
		{0.95, LevelExcellent},
		{0.8, LevelExcellent},
		{0.65, LevelGood},
		{0.6, LevelGood},
		{0.45, LevelAverage},
		{0.4, LevelAverage},
		{0.39, LevelPoor},
		{0.1, LevelPoor},
		{0.0, LevelPoor},
	}

	for _, tt := range tests {
		if got := engine.level(tt.score); got != tt.want {
			t.Errorf("level(%f) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestCompletenessMonotonicInLength(t *testing.T) {
	short := legalTestItem("short")
	short.Content = "ماده قانون قرارداد دادگاه سند."
	short.WordCount = 5

	long := legalTestItem("long")

	shortScore := evaluateContentCompleteness(&short)
	longScore := evaluateContentCompleteness(&long)
	if longScore <= shortScore {
		t.Errorf("longer document scored %f, short scored %f", longScore, shortScore)
	}
}

func TestOCRConfidenceMetadataWins(t *testing.T) {
	item := legalTestItem("item-1")
	item.Metadata["ocr_confidence"] = "0.93"

	if got := evaluateOCRAccuracy(&item); got != 0.93 {
		t.Errorf("expected metadata confidence 0.93, got %f", got)
	}

	item.Metadata["ocr_confidence"] = "1.7"
	if got := evaluateOCRAccuracy(&item); got != 1.0 {
		t.Errorf("expected clamp to 1.0, got %f", got)
	}
}

func TestFreshnessBuckets(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{24 * time.Hour, 1.0},
		{29 * 24 * time.Hour, 1.0},
		{90 * 24 * time.Hour, 0.75},
		{300 * 24 * time.Hour, 0.5},
		{500 * 24 * time.Hour, 0.25},
	}

	for _, tt := range tests {
		item := legalTestItem("item-1")
		item.Metadata = map[string]string{}
		item.CreatedAt = now.Add(-tt.age)
		if got := evaluateDataFreshness(&item, now); got != tt.want {
			t.Errorf("freshness at age %v = %f, want %f", tt.age, got, tt.want)
		}
	}
}

func TestFreshnessPrefersPublishDate(t *testing.T) {
	now := time.Now().UTC()
	item := legalTestItem("item-1")
	item.CreatedAt = now
	item.Metadata["published_at"] = now.Add(-400 * 24 * time.Hour).Format(time.RFC3339)

	if got := evaluateDataFreshness(&item, now); got != 0.25 {
		t.Errorf("expected publish date to win, got %f", got)
	}
}

func TestCredibilityTiers(t *testing.T) {
	trusted := config.DefaultRating().TrustedDomains

	tests := []struct {
		url    string
		domain string
		min    float64
		max    float64
	}{
		{"https://court.gov.ir/x", "court.gov.ir", 0.9, 1.0},
		{"https://www.irna.ir/news/1", "www.irna.ir", 0.7, 0.9},
		{"https://example.com/doc", "example.com", 0.5, 0.7},
		{"http://example.com/doc", "example.com", 0.2, 0.5},
	}

	for _, tt := range tests {
		item := database.ScrapedItem{URL: tt.url, Domain: tt.domain, Metadata: map[string]string{}}
		got := evaluateSourceCredibility(&item, trusted)
		if got < tt.min || got > tt.max {
			t.Errorf("credibility(%s) = %f, want in [%f, %f]", tt.domain, got, tt.min, tt.max)
		}
	}
}
