package extractor

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
)

// Content that needs at least this many characters after cleaning to count
// as a usable extraction.
const minContentLength = 50

// Content is the structured result of extracting one fetched page.
type Content struct {
	Title           string
	Text            string
	Metadata        map[string]string
	Language        Language
	WordCount       int
	ContentHash     string
	KeywordsMatched bool
}

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Run extracts structured content from raw HTML under the given strategy.
// Extraction is total with respect to keywords: non-matching content is
// flagged, never discarded.
func (e *Extractor) Run(data []byte, pageURL string, strategy Strategy, keywords []string) (*Content, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ExtractionError{Kind: KindEmptyContent, URL: pageURL}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{Kind: KindMalformedContent, URL: pageURL, Err: err}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	metadata := extractMetadata(doc)

	doc.Find("script, style, nav, header, footer, aside").Remove()

	var text string
	if strategy == StrategyGeneral {
		text = extractReadable(data, pageURL)
	} else {
		text = extractBySelectors(doc, strategySelectors[strategy])
	}
	if text == "" {
		text = doc.Find("body").Text()
	}

	text = CleanText(text)
	if len(text) < minContentLength {
		return nil, &ExtractionError{
			Kind: KindEmptyContent,
			URL:  pageURL,
			Err:  fmt.Errorf("cleaned content is %d characters", len(text)),
		}
	}

	matched := MatchesKeywords(title+"\n"+text, keywords)
	if len(keywords) > 0 {
		metadata["keywords_matched"] = fmt.Sprintf("%t", matched)
	}

	content := &Content{
		Title:           title,
		Text:            text,
		Metadata:        metadata,
		Language:        DetectLanguage(text),
		WordCount:       CountWords(text),
		ContentHash:     hashContent(text),
		KeywordsMatched: matched,
	}

	slog.Debug("Content extracted",
		"url", pageURL,
		"strategy", string(strategy),
		"words", content.WordCount,
		"language", string(content.Language))

	return content, nil
}

// extractReadable runs the readability algorithm, which handles boilerplate
// removal better than selector lists on unknown page layouts.
func extractReadable(data []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsed)
	if err != nil {
		return ""
	}

	return article.TextContent
}

func extractBySelectors(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var parts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if joined := strings.Join(parts, "\n\n"); len(joined) >= minContentLength {
			return joined
		}
	}
	return ""
}

var metaSelectors = map[string][]string{
	"description": {
		`meta[name="description"]`,
		`meta[property="og:description"]`,
	},
	"author": {
		`meta[name="author"]`,
		`meta[property="article:author"]`,
	},
	"site_name": {
		`meta[property="og:site_name"]`,
	},
}

var publishDateSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[name="date"]`,
	`meta[name="publish-date"]`,
	`meta[itemprop="datePublished"]`,
}

func extractMetadata(doc *goquery.Document) map[string]string {
	metadata := make(map[string]string)

	for key, selectors := range metaSelectors {
		for _, selector := range selectors {
			if value, ok := doc.Find(selector).First().Attr("content"); ok {
				if value = strings.TrimSpace(value); value != "" {
					metadata[key] = value
					break
				}
			}
		}
	}

	if published := extractPublishDate(doc); !published.IsZero() {
		metadata["published_at"] = published.UTC().Format(time.RFC3339)
	}

	return metadata
}

func extractPublishDate(doc *goquery.Document) time.Time {
	candidates := make([]string, 0, len(publishDateSelectors)+1)
	for _, selector := range publishDateSelectors {
		if value, ok := doc.Find(selector).First().Attr("content"); ok {
			candidates = append(candidates, value)
		}
	}
	if value, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, value)
	}

	for _, candidate := range candidates {
		if parsed, err := dateparse.ParseAny(strings.TrimSpace(candidate)); err == nil {
			return parsed
		}
	}

	return time.Time{}
}

// hashContent produces a stable fingerprint of normalized content for
// de-duplication.
func hashContent(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
