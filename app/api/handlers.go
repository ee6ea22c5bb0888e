package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docgrader/app/config"
	"docgrader/app/jobs"
	"docgrader/app/rating"
	"docgrader/app/tasks"
)

func NewHandler(manager JobManagerInterface, engine RatingEngineInterface,
	reporter ReporterInterface, scheduler tasks.TaskSchedulerInterface,
	sources []config.Source, defaultThreshold float64) *Handler {
	return &Handler{
		manager:          manager,
		engine:           engine,
		reporter:         reporter,
		scheduler:        scheduler,
		sources:          sources,
		defaultThreshold: defaultThreshold,
	}
}

// StartScrape accepts a scraping job and returns 202 with the pending job.
func (h *Handler) StartScrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}

	job, err := h.manager.StartJob(jobs.Request{
		URLs:           req.URLs,
		Strategy:       req.Strategy,
		Keywords:       req.Keywords,
		ContentTypes:   req.ContentTypes,
		MaxDepth:       req.MaxDepth,
		DelaySeconds:   req.DelaySeconds,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid scrape request", "message": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, jobResponse(job))
}

// GetJobStatus returns one job by ID.
func (h *Handler) GetJobStatus(c *gin.Context) {
	job, err := h.manager.GetJob(c.Param("job_id"))
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		slog.Error("Database error", "operation", "get_job", "job_id", c.Param("job_id"), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, jobResponse(job))
}

// ListJobs returns the most recent jobs.
func (h *Handler) ListJobs(c *gin.Context) {
	limit := intQuery(c, "limit", 20)

	list, err := h.manager.ListJobs(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_jobs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	responses := make([]JobResponse, len(list))
	for i := range list {
		responses[i] = jobResponse(&list[i])
	}

	c.JSON(http.StatusOK, gin.H{"count": len(responses), "jobs": responses})
}

// ListItems returns scraped items, optionally filtered by job_id.
func (h *Handler) ListItems(c *gin.Context) {
	jobID := c.Query("job_id")
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)

	list, err := h.manager.ListItems(jobID, limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "job_id", jobID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	responses := make([]ItemResponse, len(list))
	for i := range list {
		responses[i] = itemResponse(&list[i])
	}

	c.JSON(http.StatusOK, gin.H{"count": len(responses), "items": responses})
}

// TriggerSource enqueues an immediate scrape of one configured source,
// bypassing its schedule. Disabled sources can be triggered explicitly.
func (h *Handler) TriggerSource(c *gin.Context) {
	name := c.Param("name")

	var source *config.Source
	for i := range h.sources {
		if h.sources[i].Name == name {
			source = &h.sources[i]
			break
		}
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}

	scrapeTask := tasks.NewScrapeSourceTask(*source, h.manager)
	if err := h.scheduler.EnqueueTask(scrapeTask); err != nil {
		slog.Error("Error enqueueing scrape task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue scrape task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Scrape task enqueued successfully",
		"task": gin.H{
			"id":     scrapeTask.ID,
			"type":   scrapeTask.Type,
			"source": source.Name,
		},
	})
}

// GetStatistics returns the scraping corpus summary.
func (h *Handler) GetStatistics(c *gin.Context) {
	statistics, err := h.reporter.ScrapingStatistics()
	if err != nil {
		slog.Error("Statistics error", "operation", "scraping_statistics", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, statistics)
}

// RateItem evaluates a single item on demand.
func (h *Handler) RateItem(c *gin.Context) {
	itemID := c.Param("item_id")

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}
	if req.Evaluator == "" {
		req.Evaluator = "manual"
	}

	result, err := h.engine.RateItem(itemID, req.Evaluator, req.Notes)
	if err != nil {
		h.ratingError(c, itemID, err)
		return
	}

	c.JSON(http.StatusOK, ratingResponse(result))
}

// ReEvaluate re-runs the evaluation, keeping the previous results in history.
func (h *Handler) ReEvaluate(c *gin.Context) {
	itemID := c.Param("item_id")

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}

	result, err := h.engine.ReEvaluate(itemID, req.Evaluator, req.Notes)
	if err != nil {
		h.ratingError(c, itemID, err)
		return
	}

	c.JSON(http.StatusOK, ratingResponse(result))
}

// RateAll evaluates every unrated item in one pass.
func (h *Handler) RateAll(c *gin.Context) {
	result, err := h.engine.RateAll()
	if err != nil {
		slog.Error("Batch rating failed", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRatingHistory returns every stored evaluation for an item, newest first.
func (h *Handler) GetRatingHistory(c *gin.Context) {
	itemID := c.Param("item_id")

	history, err := h.engine.History(itemID)
	if err != nil {
		h.ratingError(c, itemID, err)
		return
	}

	responses := make([]RatingResponse, len(history))
	for i := range history {
		responses[i] = ratingResponse(&history[i])
	}

	c.JSON(http.StatusOK, gin.H{"item_id": itemID, "count": len(responses), "history": responses})
}

// GetRatingSummary returns the aggregate rating overview.
func (h *Handler) GetRatingSummary(c *gin.Context) {
	summary, err := h.reporter.RatingSummary()
	if err != nil {
		slog.Error("Statistics error", "operation", "rating_summary", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetLowQuality returns rated items below the score threshold.
func (h *Handler) GetLowQuality(c *gin.Context) {
	threshold := h.defaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number between 0 and 1"})
			return
		}
		threshold = parsed
	}
	limit := intQuery(c, "limit", 50)

	report, err := h.reporter.LowQuality(threshold, limit)
	if err != nil {
		slog.Error("Statistics error", "operation", "low_quality", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetHealth reports liveness and basic corpus counters.
func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if statistics, err := h.reporter.ScrapingStatistics(); err == nil {
		health["items"] = statistics.TotalItems
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ratingError(c *gin.Context, itemID string, err error) {
	switch {
	case errors.Is(err, rating.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, rating.ErrEmptyContent):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "item has no content to rate"})
	default:
		slog.Error("Rating error", "item_id", itemID, "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
