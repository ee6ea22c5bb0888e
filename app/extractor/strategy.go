package extractor

import "fmt"

// Strategy is a named extraction policy controlling which text regions the
// extractor privileges.
type Strategy string

const (
	StrategyGeneral         Strategy = "general"
	StrategyLegalDocuments  Strategy = "legal_documents"
	StrategyNewsArticles    Strategy = "news_articles"
	StrategyAcademicPapers  Strategy = "academic_papers"
	StrategyGovernmentSites Strategy = "government_sites"
	StrategyCustom          Strategy = "custom"
)

var strategySelectors = map[Strategy][]string{
	StrategyLegalDocuments: {
		"article", ".legal-content", ".document-content",
		".legal-text", ".document-text", "main",
	},
	StrategyNewsArticles: {
		"article", ".article-content", ".news-content",
		".story-content", ".post-content", "main",
	},
	StrategyAcademicPapers: {
		".abstract", ".content", ".paper-content",
		"article", ".research-content", "main",
	},
	StrategyGovernmentSites: {
		"main", "article", ".main-content", ".content", "#content",
	},
	StrategyCustom: {
		"main", "article", ".content",
	},
}

// ParseStrategy validates a strategy name supplied by a caller
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyGeneral, StrategyLegalDocuments, StrategyNewsArticles,
		StrategyAcademicPapers, StrategyGovernmentSites, StrategyCustom:
		return Strategy(name), nil
	case "":
		return StrategyGeneral, nil
	}
	return "", fmt.Errorf("unknown scraping strategy %q", name)
}
