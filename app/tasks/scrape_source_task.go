package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"docgrader/app/config"
	"docgrader/app/jobs"
)

// ScrapeSourceTask submits one configured source as a scraping job. The job
// itself runs asynchronously inside the jobs manager; the task only owns the
// submission.
type ScrapeSourceTask struct {
	Task
	SourceConfig config.Source
	starter      JobStarter
}

func NewScrapeSourceTask(source config.Source, starter JobStarter) *ScrapeSourceTask {
	return &ScrapeSourceTask{
		Task:         NewTask(TaskTypeScrapeSource, source.Name),
		SourceConfig: source,
		starter:      starter,
	}
}

func (t *ScrapeSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	job, err := t.starter.StartJob(jobs.Request{
		URLs:           t.SourceConfig.URLs,
		Strategy:       t.SourceConfig.Strategy,
		Keywords:       t.SourceConfig.Keywords,
		ContentTypes:   t.SourceConfig.ContentTypes,
		MaxDepth:       t.SourceConfig.MaxDepth,
		DelaySeconds:   t.SourceConfig.Delay,
		TimeoutSeconds: t.SourceConfig.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to start job for source %s: %w", t.Source, err)
	}

	slog.Info("Task completed",
		"type", "ScrapeSource",
		"source", t.Source,
		"job_id", job.JobID,
		"urls", len(job.URLs),
		"duration", t.GetDuration())

	return nil
}
