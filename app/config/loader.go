package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docgrader/app/extractor"
)

// ErrInvalidConfig marks fatal configuration errors. The rating engine must
// not start with an invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

const weightEpsilon = 1e-6

// DefaultRating returns the built-in rating configuration
func DefaultRating() *Rating {
	return &Rating{
		Weights: Weights{
			SourceCredibility:   0.25,
			ContentCompleteness: 0.25,
			OCRAccuracy:         0.20,
			DataFreshness:       0.15,
			ContentRelevance:    0.10,
			TechnicalQuality:    0.05,
		},
		Thresholds: Thresholds{
			Poor:      0.2,
			Average:   0.4,
			Good:      0.6,
			Excellent: 0.8,
		},
		TrustedDomains: TrustedDomains{
			Official: []string{
				"gov.ir", "court.gov.ir", "justice.gov.ir",
			},
			News: []string{
				"mizanonline.ir", "irna.ir", "isna.ir", "mehrnews.com",
				"tasnimnews.com", "farsnews.ir", "entekhab.ir", "khabaronline.ir",
			},
		},
	}
}

// Loader reads rating and source configurations from a directory
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadRating reads rating.yaml from the configuration directory, falling
// back to the built-in defaults when the file does not exist. Values from
// the file override defaults key by key.
func (l *Loader) LoadRating() (*Rating, error) {
	rating := DefaultRating()

	path := filepath.Join(l.dir, "rating.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rating, ValidateRating(rating)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, rating); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := ValidateRating(rating); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rating, nil
}

// ValidateRating enforces the construction-time invariants: weights sum to
// 1.0 and thresholds are strictly increasing.
func ValidateRating(rating *Rating) error {
	w := rating.Weights
	weights := []float64{
		w.SourceCredibility, w.ContentCompleteness, w.OCRAccuracy,
		w.DataFreshness, w.ContentRelevance, w.TechnicalQuality,
	}

	sum := 0.0
	for _, weight := range weights {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("%w: weight %.3f is outside [0,1]", ErrInvalidConfig, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("%w: weights sum to %.3f, want 1.0", ErrInvalidConfig, sum)
	}

	t := rating.Thresholds
	thresholds := []float64{t.Poor, t.Average, t.Good, t.Excellent}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("%w: thresholds must be strictly increasing, got %v", ErrInvalidConfig, thresholds)
		}
	}

	return nil
}

// LoadSources reads sources.yaml from the configuration directory. A missing
// file simply means the scheduler has nothing to auto-scrape.
func (l *Loader) LoadSources() ([]Source, error) {
	path := filepath.Join(l.dir, "sources.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range file.Sources {
		setSourceDefaults(&file.Sources[i])
		if err := validateSource(&file.Sources[i]); err != nil {
			return nil, fmt.Errorf("%s: source %d: %w", path, i, err)
		}
	}

	return file.Sources, nil
}

func setSourceDefaults(source *Source) {
	if source.Strategy == "" {
		source.Strategy = string(extractor.StrategyGeneral)
	}
	if source.MaxDepth == 0 {
		source.MaxDepth = 1
	}
	if source.Delay == 0 {
		source.Delay = 1.0
	}
	if source.Timeout == 0 {
		source.Timeout = 30
	}
	if source.Interval == 0 {
		source.Interval = 300
	}
}

func validateSource(source *Source) error {
	if source.Name == "" {
		return fmt.Errorf("%w: source name is required", ErrInvalidConfig)
	}
	if len(source.URLs) == 0 {
		return fmt.Errorf("%w: source %q has no URLs", ErrInvalidConfig, source.Name)
	}
	if _, err := extractor.ParseStrategy(source.Strategy); err != nil {
		return fmt.Errorf("%w: source %q: %v", ErrInvalidConfig, source.Name, err)
	}
	if source.Delay < 0 {
		return fmt.Errorf("%w: source %q has negative delay", ErrInvalidConfig, source.Name)
	}
	if source.Timeout < 0 {
		return fmt.Errorf("%w: source %q has negative timeout", ErrInvalidConfig, source.Name)
	}
	return nil
}
