package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"docgrader/app/config"
	"docgrader/app/database"
	"docgrader/app/jobs"
	"docgrader/app/rating"
)

type mockJobStarter struct {
	requests []jobs.Request
	err      error
}

func (m *mockJobStarter) StartJob(req jobs.Request) (*database.ScrapingJob, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	return &database.ScrapingJob{JobID: "job-1", URLs: req.URLs}, nil
}

type mockBatchRater struct {
	calls atomic.Int32
	err   error
}

func (m *mockBatchRater) RateAll() (*rating.BatchResult, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &rating.BatchResult{TotalItems: 2, RatedCount: 2}, nil
}

func newTestScheduler(sources []config.Source, starter JobStarter, rater BatchRater, autoRate bool) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sources:     sources,
		starter:     starter,
		rater:       rater,
		autoRate:    autoRate,
		interval:    time.Hour,
		workerCount: 1,
		nextRunAt:   make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 10),
	}
}

func drainQueue(s *Scheduler) []TaskInterface {
	var tasks []TaskInterface
	for {
		select {
		case task := <-s.taskQueue:
			tasks = append(tasks, task)
		default:
			return tasks
		}
	}
}

func TestEnqueueTasksSkipsDisabledSources(t *testing.T) {
	sources := []config.Source{
		{Name: "enabled", URLs: []string{"https://a.example"}, Enabled: true, Interval: 300},
		{Name: "disabled", URLs: []string{"https://b.example"}, Enabled: false, Interval: 300},
	}
	s := newTestScheduler(sources, &mockJobStarter{}, &mockBatchRater{}, false)
	defer s.cancel()

	s.enqueueTasks()

	tasks := drainQueue(s)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].GetSource() != "enabled" {
		t.Errorf("wrong source scheduled: %q", tasks[0].GetSource())
	}
}

func TestEnqueueTasksHonorsInterval(t *testing.T) {
	sources := []config.Source{
		{Name: "src", URLs: []string{"https://a.example"}, Enabled: true, Interval: 300},
	}
	s := newTestScheduler(sources, &mockJobStarter{}, &mockBatchRater{}, false)
	defer s.cancel()

	s.enqueueTasks()
	s.enqueueTasks()

	if tasks := drainQueue(s); len(tasks) != 1 {
		t.Errorf("source scheduled %d times within its interval, want 1", len(tasks))
	}
}

func TestEnqueueTasksAutoRate(t *testing.T) {
	s := newTestScheduler(nil, &mockJobStarter{}, &mockBatchRater{}, true)
	defer s.cancel()

	s.enqueueTasks()

	tasks := drainQueue(s)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].GetType() != TaskTypeRateAll {
		t.Errorf("expected a rate_all task, got %q", tasks[0].GetType())
	}
}

func TestEnqueueTaskQueueFull(t *testing.T) {
	s := newTestScheduler(nil, &mockJobStarter{}, &mockBatchRater{}, false)
	defer s.cancel()
	s.taskQueue = make(chan TaskInterface, 1)

	if err := s.EnqueueTask(NewRateAllTask(s.rater)); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if err := s.EnqueueTask(NewRateAllTask(s.rater)); err == nil {
		t.Fatal("expected an error when the queue is full")
	}
}

func TestScrapeSourceTaskExecute(t *testing.T) {
	starter := &mockJobStarter{}
	source := config.Source{
		Name:     "courts",
		URLs:     []string{"https://court.gov.ir/archive"},
		Strategy: "legal_documents",
		Keywords: []string{"قرارداد"},
		MaxDepth: 2,
		Delay:    2.0,
		Timeout:  60,
	}

	task := NewScrapeSourceTask(source, starter)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if len(starter.requests) != 1 {
		t.Fatalf("expected 1 job submission, got %d", len(starter.requests))
	}
	req := starter.requests[0]
	if req.Strategy != "legal_documents" || req.MaxDepth != 2 || req.TimeoutSeconds != 60 {
		t.Errorf("request does not match source config: %+v", req)
	}
}

func TestScrapeSourceTaskExecuteError(t *testing.T) {
	starter := &mockJobStarter{err: errors.New("boom")}
	task := NewScrapeSourceTask(config.Source{Name: "src", URLs: []string{"https://a.example"}}, starter)
	task.Start()

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestRateAllTaskExecute(t *testing.T) {
	rater := &mockBatchRater{}
	task := NewRateAllTask(rater)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if rater.calls.Load() != 1 {
		t.Errorf("RateAll called %d times, want 1", rater.calls.Load())
	}
}

func TestTaskRetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeScrapeSource, "src")

	if !task.CanRetry() {
		t.Error("fresh task should be retryable")
	}
	for i := 0; i < DefaultMaxRetries; i++ {
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("task should not retry past max retries")
	}
}

func TestStopCancelsPendingRetry(t *testing.T) {
	rater := &mockBatchRater{err: errors.New("boom")}
	s := newTestScheduler(nil, &mockJobStarter{}, rater, false)

	s.wg.Add(1)
	go s.worker(0)

	if err := s.EnqueueTask(NewRateAllTask(rater)); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rater.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if rater.calls.Load() == 0 {
		t.Fatal("task was never executed")
	}

	// The failed task has a retry sleeping in the background. Stop must
	// wait it out (or cancel it) before closing the queue, and return
	// well before the retry delay elapses.
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return while a retry was pending")
	}

	if got := rater.calls.Load(); got != 1 {
		t.Errorf("task executed %d times after Stop, want 1", got)
	}
}

func TestWorkerExecutesQueuedTasks(t *testing.T) {
	rater := &mockBatchRater{}
	s := newTestScheduler(nil, &mockJobStarter{}, rater, false)

	s.wg.Add(1)
	go s.worker(0)

	if err := s.EnqueueTask(NewRateAllTask(rater)); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rater.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	s.cancel()
	s.wg.Wait()

	if rater.calls.Load() != 1 {
		t.Errorf("task executed %d times, want 1", rater.calls.Load())
	}
}
