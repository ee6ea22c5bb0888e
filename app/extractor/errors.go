package extractor

import "fmt"

type ErrorKind string

const (
	KindEmptyContent     ErrorKind = "empty_content"
	KindMalformedContent ErrorKind = "malformed_content"
)

// ExtractionError marks one URL's content as unusable. Like fetch errors it
// is recorded against the item and never aborts the job.
type ExtractionError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.URL, e.Kind)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
