package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docgrader/app/database"
	"docgrader/app/extractor"
	"docgrader/app/fetcher"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrNoURLs      = errors.New("job has no URLs")
)

const (
	defaultDelaySeconds   = 1.0
	defaultTimeoutSeconds = 30
	defaultMaxDepth       = 1

	// Hard ceiling on pages one job may visit, crawling included
	maxPagesPerJob = 500
)

// Request describes one scraping job submission.
type Request struct {
	URLs           []string
	Strategy       string
	Keywords       []string
	ContentTypes   []string
	MaxDepth       int
	DelaySeconds   float64
	TimeoutSeconds int
}

// Manager runs scraping jobs: it owns the worker pools, persists every
// scraped item and keeps job counters and status up to date.
type Manager struct {
	jobs  database.JobRepository
	items database.ItemRepository

	workerCount    int
	userAgent      string
	allowedDomains []string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(jobs database.JobRepository, items database.ItemRepository, workerCount int, userAgent string, allowedDomains []string) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:           jobs,
		items:          items,
		workerCount:    workerCount,
		userAgent:      userAgent,
		allowedDomains: allowedDomains,
		baseCtx:        ctx,
		cancel:         cancel,
	}
}

// StartJob validates the request, persists the job in pending state and
// launches the crawl in the background. It returns immediately.
func (m *Manager) StartJob(req Request) (*database.ScrapingJob, error) {
	urls := make([]string, 0, len(req.URLs))
	for _, raw := range req.URLs {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	strategy, err := extractor.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	job := database.ScrapingJob{
		JobID:          uuid.New().String(),
		URLs:           urls,
		Strategy:       string(strategy),
		Keywords:       req.Keywords,
		ContentTypes:   req.ContentTypes,
		MaxDepth:       req.MaxDepth,
		DelaySeconds:   req.DelaySeconds,
		TimeoutSeconds: req.TimeoutSeconds,
		Status:         database.JobStatusPending,
		TotalItems:     len(urls),
		CreatedAt:      time.Now().UTC(),
	}
	if job.MaxDepth <= 0 {
		job.MaxDepth = defaultMaxDepth
	}
	if job.DelaySeconds <= 0 {
		job.DelaySeconds = defaultDelaySeconds
	}
	if job.TimeoutSeconds <= 0 {
		job.TimeoutSeconds = defaultTimeoutSeconds
	}

	if err := m.jobs.SaveJob(job); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(job)
	}()

	slog.Info("Job accepted", "job_id", job.JobID, "urls", len(urls), "strategy", job.Strategy)
	return &job, nil
}

// GetJob returns a job by ID.
func (m *Manager) GetJob(jobID string) (*database.ScrapingJob, error) {
	job, err := m.jobs.GetJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", jobID, err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// ListJobs returns the most recent jobs.
func (m *Manager) ListJobs(limit int) ([]database.ScrapingJob, error) {
	return m.jobs.ListJobs(limit)
}

// ListItems returns scraped items, optionally filtered by job.
func (m *Manager) ListItems(jobID string, limit, offset int) ([]database.ScrapedItem, error) {
	return m.items.ListItems(jobID, limit, offset)
}

// Shutdown cancels all in-flight jobs and waits for their workers to stop.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

type crawlTask struct {
	url   string
	depth int
}

// run executes one job to completion. Seed URLs count toward the job's
// totals even when they fail; pages discovered by crawling extend the total
// as they are claimed.
func (m *Manager) run(job database.ScrapingJob) {
	if err := m.jobs.UpdateJobStatus(job.JobID, database.JobStatusRunning); err != nil {
		slog.Error("Failed to mark job running", "job_id", job.JobID, "error", err)
	}

	strategy, _ := extractor.ParseStrategy(job.Strategy)
	f := fetcher.New(fetcher.Options{
		UserAgent:      m.userAgent,
		AllowedDomains: m.allowedDomains,
		ContentTypes:   job.ContentTypes,
		Delay:          time.Duration(job.DelaySeconds * float64(time.Second)),
	})
	ext := extractor.New()
	timeout := time.Duration(job.TimeoutSeconds) * time.Second

	var (
		mu        sync.Mutex
		visited   = make(map[string]bool)
		total     int
		completed int
		failed    int
	)

	claim := func(rawURL string) bool {
		mu.Lock()
		defer mu.Unlock()
		if visited[rawURL] || total >= maxPagesPerJob {
			return false
		}
		visited[rawURL] = true
		total++
		return true
	}

	tasks := make(chan crawlTask, maxPagesPerJob)
	var pending sync.WaitGroup

	enqueue := func(rawURL string, depth int) {
		if !claim(rawURL) {
			return
		}
		pending.Add(1)
		tasks <- crawlTask{url: rawURL, depth: depth}
	}

	record := func(ok bool) {
		mu.Lock()
		defer mu.Unlock()
		completed += boolToInt(ok)
		failed += boolToInt(!ok)
		if err := m.jobs.UpdateJobCounters(job.JobID, completed, failed, database.JobStatusRunning); err != nil {
			slog.Error("Failed to update job counters", "job_id", job.JobID, "error", err)
		}
	}

	workers := min(m.workerCount, len(job.URLs))
	if workers < 1 {
		workers = 1
	}

	var workerGroup sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			for task := range tasks {
				ok, links := m.processURL(m.baseCtx, &job, f, ext, strategy, task.url, timeout)
				record(ok)

				if task.depth < job.MaxDepth {
					for _, link := range links {
						enqueue(link, task.depth+1)
					}
				}
				pending.Done()
			}
		}()
	}

	for _, seed := range job.URLs {
		enqueue(seed, 1)
	}

	pending.Wait()
	close(tasks)
	workerGroup.Wait()

	job.TotalItems = total
	job.CompletedItems = completed
	job.FailedItems = failed
	job.Status = finalStatus(total, completed, failed)
	if err := m.jobs.SaveJob(job); err != nil {
		slog.Error("Failed to finalize job", "job_id", job.JobID, "error", err)
		return
	}

	slog.Info("Job finished",
		"job_id", job.JobID, "status", job.Status, "total", total, "completed", completed, "failed", failed)
}

// processURL fetches and extracts a single page. Failures are stored as
// failed item shells so every visited URL stays accountable. On success it
// returns the same-host links found on the page.
func (m *Manager) processURL(ctx context.Context, job *database.ScrapingJob, f *fetcher.Fetcher, ext *extractor.Extractor, strategy extractor.Strategy, rawURL string, timeout time.Duration) (bool, []string) {
	item := database.ScrapedItem{
		ID:        uuid.New().String(),
		JobID:     job.JobID,
		URL:       rawURL,
		SourceURL: rawURL,
		Domain:    hostOf(rawURL),
		CreatedAt: time.Now().UTC(),
	}

	resp, err := f.Fetch(ctx, rawURL, timeout)
	if err != nil {
		return false, m.saveFailure(item, err)
	}

	content, err := ext.Run(resp.Body, rawURL, strategy, job.Keywords)
	if err != nil {
		return false, m.saveFailure(item, err)
	}

	item.Title = content.Title
	item.Content = content.Text
	item.Metadata = content.Metadata
	item.Language = string(content.Language)
	item.StrategyUsed = string(strategy)
	item.ContentHash = content.ContentHash
	item.WordCount = content.WordCount
	item.ProcessingStatus = database.ItemStatusCompleted

	if dup, originalID, err := m.items.CheckDuplicate(content.ContentHash); err == nil && dup && originalID != nil {
		if item.Metadata == nil {
			item.Metadata = make(map[string]string)
		}
		item.Metadata["duplicate_of"] = *originalID
	}

	if err := m.items.SaveItem(item); err != nil {
		slog.Error("Failed to save item", "job_id", job.JobID, "url", rawURL, "error", err)
		return false, nil
	}

	var links []string
	if job.MaxDepth > 1 {
		links = sameHostLinks(resp.Body, rawURL)
	}
	return true, links
}

func (m *Manager) saveFailure(item database.ScrapedItem, cause error) []string {
	item.ProcessingStatus = database.ItemStatusFailed
	item.ErrorMessage = cause.Error()
	if err := m.items.SaveItem(item); err != nil {
		slog.Error("Failed to save failed item", "job_id", item.JobID, "url", item.URL, "error", err)
	}
	return nil
}

// finalStatus applies the terminal-state rule: completed only when nothing
// failed, failed only when nothing succeeded, partially_failed otherwise.
func finalStatus(total, completed, failed int) database.JobStatus {
	switch {
	case failed == 0:
		return database.JobStatusCompleted
	case completed == 0 && failed == total:
		return database.JobStatusFailed
	default:
		return database.JobStatusPartiallyFailed
	}
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
