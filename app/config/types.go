package config

// Rating holds the weighted-criteria configuration of the rating engine.
// It is loaded once at startup and never mutated mid-batch.
type Rating struct {
	Weights        Weights        `yaml:"weights"`
	Thresholds     Thresholds     `yaml:"thresholds"`
	TrustedDomains TrustedDomains `yaml:"trusted_domains"`
}

// Weights of the six rating criteria. They must sum to 1.0.
type Weights struct {
	SourceCredibility   float64 `yaml:"source_credibility"`
	ContentCompleteness float64 `yaml:"content_completeness"`
	OCRAccuracy         float64 `yaml:"ocr_accuracy"`
	DataFreshness       float64 `yaml:"data_freshness"`
	ContentRelevance    float64 `yaml:"content_relevance"`
	TechnicalQuality    float64 `yaml:"technical_quality"`
}

// Thresholds are the ascending lower bounds of the rating tiers.
type Thresholds struct {
	Poor      float64 `yaml:"poor"`
	Average   float64 `yaml:"average"`
	Good      float64 `yaml:"good"`
	Excellent float64 `yaml:"excellent"`
}

// TrustedDomains is the updatable source-credibility lookup table. Domains
// are matched by suffix, so "gov.ir" covers "court.gov.ir".
type TrustedDomains struct {
	Official []string `yaml:"official"`
	News     []string `yaml:"news"`
}

// Source describes one auto-scrape target for the background scheduler.
type Source struct {
	Name         string   `yaml:"name"`
	URLs         []string `yaml:"urls"`
	Strategy     string   `yaml:"strategy"`
	Keywords     []string `yaml:"keywords"`
	ContentTypes []string `yaml:"content_types"`
	MaxDepth     int      `yaml:"max_depth"`
	Delay        float64  `yaml:"delay"`
	Timeout      int      `yaml:"timeout"`
	Enabled      bool     `yaml:"enabled"`
	Interval     int      `yaml:"interval"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}
