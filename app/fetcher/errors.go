package fetcher

import "fmt"

type ErrorKind string

const (
	KindInvalidURL         ErrorKind = "invalid_url"
	KindNetwork            ErrorKind = "network"
	KindHTTPStatus         ErrorKind = "http_status"
	KindTimeout            ErrorKind = "timeout"
	KindUnsupportedContent ErrorKind = "unsupported_content"
)

// FetchError classifies a failed retrieval of a single URL. It is recorded
// against the item and never aborts the surrounding job.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch %s: HTTP status %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
