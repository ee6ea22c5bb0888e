package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// RateAllTask evaluates every unrated item in one batch pass.
type RateAllTask struct {
	Task
	rater BatchRater
}

func NewRateAllTask(rater BatchRater) *RateAllTask {
	return &RateAllTask{
		Task:  NewTask(TaskTypeRateAll, ""),
		rater: rater,
	}
}

func (t *RateAllTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.rater.RateAll()
	if err != nil {
		return fmt.Errorf("failed to rate unrated items: %w", err)
	}

	slog.Info("Task completed",
		"type", "RateAll",
		"duration", t.GetDuration(),
		"total", result.TotalItems,
		"rated", result.RatedCount,
		"errors", result.FailedCount)

	return nil
}
