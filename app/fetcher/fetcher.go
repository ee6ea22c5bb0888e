package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// RawResponse is the outcome of a successful fetch. Body is decoded to UTF-8.
type RawResponse struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

type Options struct {
	UserAgent      string
	AllowedDomains []string
	ContentTypes   []string
	Delay          time.Duration
}

// Fetcher performs rate-limited HTTP retrieval. A single Fetcher is shared by
// all workers of one scraping job so the configured delay is honored
// collectively across concurrent requests.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	allowedDomains []string
	contentTypes   []string
	limiter        *rate.Limiter
}

func New(opts Options) *Fetcher {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	contentTypes := opts.ContentTypes
	if len(contentTypes) == 0 {
		contentTypes = []string{"text/html", "application/xhtml+xml"}
	}

	return &Fetcher{
		client:         &http.Client{},
		userAgent:      opts.UserAgent,
		allowedDomains: opts.AllowedDomains,
		contentTypes:   contentTypes,
		limiter:        limiter,
	}
}

// Fetch retrieves a single URL. Invalid URLs short-circuit without a network
// call; every failure is reported as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*RawResponse, error) {
	if err := ValidateURL(rawURL, f.allowedDomains); err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: KindHTTPStatus, URL: rawURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !f.acceptsContentType(contentType) {
		return nil, &FetchError{
			Kind: KindUnsupportedContent,
			URL:  rawURL,
			Err:  fmt.Errorf("content type %q is not accepted", contentType),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: rawURL, Err: err}
	}

	body = decodeToUTF8(body, contentType)

	slog.Debug("Fetched URL", "url", rawURL, "status", resp.StatusCode, "bytes", len(body))

	return &RawResponse{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// ValidateURL checks scheme, host and the optional domain allow-list
func ValidateURL(rawURL string, allowedDomains []string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("URL has no host")
	}

	if len(allowedDomains) > 0 && !domainAllowed(parsed.Hostname(), allowedDomains) {
		return fmt.Errorf("domain %q is not in the allow-list", parsed.Hostname())
	}

	return nil
}

func domainAllowed(hostname string, allowedDomains []string) bool {
	hostname = strings.ToLower(strings.TrimPrefix(hostname, "www."))
	for _, allowed := range allowedDomains {
		allowed = strings.ToLower(strings.TrimPrefix(allowed, "www."))
		if hostname == allowed || strings.HasSuffix(hostname, "."+allowed) {
			return true
		}
	}
	return false
}

func (f *Fetcher) acceptsContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	lowered := strings.ToLower(contentType)
	for _, accepted := range f.contentTypes {
		if strings.Contains(lowered, strings.ToLower(accepted)) {
			return true
		}
	}
	return false
}

func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

// decodeToUTF8 converts the body to UTF-8 using the response charset. On
// detection failure the original bytes are kept, which covers the common
// already-UTF-8 case.
func decodeToUTF8(body []byte, contentType string) []byte {
	if len(body) == 0 {
		return body
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}

	decoded, err := io.ReadAll(reader)
	if err != nil || len(decoded) == 0 {
		return body
	}

	return decoded
}
