package rating

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"docgrader/app/config"
	"docgrader/app/database"
)

// Criterion names as persisted in criteria_scores
const (
	CriterionSourceCredibility   = "source_credibility"
	CriterionContentCompleteness = "content_completeness"
	CriterionOCRAccuracy         = "ocr_accuracy"
	CriterionDataFreshness       = "data_freshness"
	CriterionContentRelevance    = "content_relevance"
	CriterionTechnicalQuality    = "technical_quality"
)

// Persian and English legal terminology used by the completeness and
// relevance evaluators.
var legalTerms = []string{
	"قرارداد", "عهدنامه", "سند", "مدرک", "پرونده", "دادگاه",
	"ماده", "قانون", "اعلان", "آگهی", "رای", "حکم", "رویه",
	"contract", "agreement", "legal", "court", "verdict", "statute",
	"plaintiff", "defendant",
}

// Section markers of structured legal documents
var structureMarkers = []string{"فصل", "بخش", "ماده", "تبصره", "بند"}

// Markers of official/governmental language
var officialMarkers = []string{
	"دولت", "وزارت", "سازمان", "اداره", "قوه قضاییه",
	"ministry", "government", "official",
}

// evaluateSourceCredibility scores the item's origin by domain tier:
// official domains land in the excellent band, known news outlets in the
// good band, other HTTPS domains in the average band, everything else below.
// Official markers in title or metadata nudge the score up within its band.
func evaluateSourceCredibility(item *database.ScrapedItem, trusted config.TrustedDomains) float64 {
	domain := strings.ToLower(item.Domain)

	var base, ceiling float64
	switch {
	case matchesDomain(domain, trusted.Official) || strings.HasSuffix(domain, ".gov.ir") || strings.Contains(domain, ".gov."):
		base, ceiling = 0.9, 1.0
	case matchesDomain(domain, trusted.News):
		base, ceiling = 0.7, 0.9
	case strings.HasSuffix(domain, ".ac.ir") || strings.Contains(domain, ".edu."):
		base, ceiling = 0.7, 0.9
	case strings.HasPrefix(strings.ToLower(item.URL), "https://"):
		base, ceiling = 0.5, 0.7
	default:
		base, ceiling = 0.2, 0.5
	}

	score := base
	haystack := strings.ToLower(item.Title + " " + item.Metadata["description"] + " " + item.Metadata["site_name"])
	for _, marker := range officialMarkers {
		if strings.Contains(haystack, marker) {
			score += 0.05
		}
	}

	return clamp01(math.Min(score, ceiling))
}

func matchesDomain(domain string, trusted []string) bool {
	for _, t := range trusted {
		t = strings.ToLower(t)
		if domain == t || strings.HasSuffix(domain, "."+t) {
			return true
		}
	}
	return false
}

// evaluateContentCompleteness is a monotonic function of word count plus
// structural bonuses for a title, section markers and legal patterns.
func evaluateContentCompleteness(item *database.ScrapedItem) float64 {
	var score float64
	switch {
	case item.WordCount >= 1000:
		score = 0.70
	case item.WordCount >= 500:
		score = 0.50
	case item.WordCount >= 200:
		score = 0.30
	case item.WordCount > 0:
		score = 0.10
	}

	if strings.TrimSpace(item.Title) != "" {
		score += 0.05
	}
	if countMatches(item.Content, structureMarkers) > 0 {
		score += 0.15
	}

	switch kinds := countDistinctTerms(item.Content, legalTerms); {
	case kinds >= 3:
		score += 0.10
	case kinds >= 1:
		score += 0.05
	}

	return clamp01(score)
}

// evaluateOCRAccuracy uses the upstream OCR confidence when the pipeline
// recorded one, falling back to text-quality heuristics.
func evaluateOCRAccuracy(item *database.ScrapedItem) float64 {
	if raw, ok := item.Metadata["ocr_confidence"]; ok {
		if confidence, err := strconv.ParseFloat(raw, 64); err == nil {
			return clamp01(confidence)
		}
	}

	content := item.Content
	if content == "" {
		return 0.0
	}

	var score float64

	// Garbled character runs are the classic OCR failure signature
	runRatio := repeatedRunRatio(content)
	switch {
	case runRatio < 0.01:
		score += 0.3
	case runRatio < 0.05:
		score += 0.15
	}

	score += sentenceRegularity(content) * 0.4

	persian, latin := scriptCounts(content)
	total := persian + latin
	if total > 0 {
		if float64(persian)/float64(total) > 0.7 || float64(latin)/float64(total) > 0.7 {
			score += 0.2
		} else {
			score += 0.1
		}
	}

	if strings.Contains(content, "\n\n") {
		score += 0.1
	}

	return clamp01(score)
}

// evaluateDataFreshness buckets the item's age. A publish date extracted
// from metadata is preferred over the scrape timestamp.
func evaluateDataFreshness(item *database.ScrapedItem, now time.Time) float64 {
	reference := item.CreatedAt
	if raw, ok := item.Metadata["published_at"]; ok {
		if published, err := time.Parse(time.RFC3339, raw); err == nil {
			reference = published
		}
	}

	age := now.Sub(reference)
	switch {
	case age <= 30*24*time.Hour:
		return 1.0
	case age <= 180*24*time.Hour:
		return 0.75
	case age <= 365*24*time.Hour:
		return 0.5
	default:
		return 0.25
	}
}

// evaluateContentRelevance measures legal-terminology density, with extra
// weight for terms appearing in the title and for official language.
func evaluateContentRelevance(item *database.ScrapedItem) float64 {
	if item.WordCount == 0 {
		return 0.0
	}

	terms := countMatches(item.Content, legalTerms)
	density := float64(terms) / float64(item.WordCount)
	score := math.Min(density*30, 0.6)

	if countMatches(item.Title, legalTerms) > 0 {
		score += 0.2
	}
	if countMatches(item.Content, officialMarkers) > 0 {
		score += 0.2
	}

	return clamp01(score)
}

// evaluateTechnicalQuality is a composite of structural and formatting
// signals: sections, paragraph breaks, script consistency, metadata richness.
func evaluateTechnicalQuality(item *database.ScrapedItem) float64 {
	var score float64

	if countMatches(item.Content, structureMarkers) > 0 {
		score += 0.3
	}
	if strings.Contains(item.Content, "\n\n") {
		score += 0.2
	}

	persian, _ := scriptCounts(item.Content)
	if length := len([]rune(item.Content)); length > 0 {
		ratio := float64(persian) / float64(length)
		if ratio >= 0.3 && ratio <= 0.9 {
			score += 0.2
		}
	}

	if len(item.Metadata) >= 3 {
		score += 0.1
	}
	if len(item.Content) >= 200 {
		score += 0.2
	}

	return clamp01(score)
}

func countMatches(text string, terms []string) int {
	lowered := strings.ToLower(text)
	count := 0
	for _, term := range terms {
		count += strings.Count(lowered, term)
	}
	return count
}

func countDistinctTerms(text string, terms []string) int {
	lowered := strings.ToLower(text)
	kinds := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			kinds++
		}
	}
	return kinds
}

// repeatedRunRatio is the fraction of characters that belong to runs of
// three or more identical letters.
func repeatedRunRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0.0
	}

	garbled := 0
	runStart := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || runes[i] != runes[runStart] {
			if length := i - runStart; length >= 3 && unicode.IsLetter(runes[runStart]) {
				garbled += length
			}
			runStart = i
		}
	}

	return float64(garbled) / float64(len(runes))
}

// sentenceRegularity is the fraction of sentences of plausible length
func sentenceRegularity(text string) float64 {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '؟' || r == '۔'
	})
	if len(sentences) == 0 {
		return 0.0
	}

	proper := 0
	for _, sentence := range sentences {
		if len(strings.TrimSpace(sentence)) > 10 {
			proper++
		}
	}

	return float64(proper) / float64(len(sentences))
}

func scriptCounts(text string) (persian, latin int) {
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			persian++
		case unicode.IsLetter(r) && r < 0x0250:
			latin++
		}
	}
	return persian, latin
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
