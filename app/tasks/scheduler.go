package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poe2tools/patchwatch/app/cfg"
	"github.com/poe2tools/patchwatch/app/pipeline"
)

var _ SchedulerInterface = (*Scheduler)(nil)

// Scheduler runs scrape tasks on a fixed interval with a single worker.
// The persistence layer has no locking, so tasks must never run
// concurrently; one worker guarantees that.
type Scheduler struct {
	fetchers     []SourceFetcher
	orchestrator *pipeline.Orchestrator
	interval     time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(fetchers []SourceFetcher, orchestrator *pipeline.Orchestrator) SchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		fetchers:     fetchers,
		orchestrator: orchestrator,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueScrapeTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueScrapeTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	// Check for shutdown before touching the queue: once Stop has run,
	// the queue is closed and a send would panic.
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueScrapeTasks() {
	if len(s.fetchers) == 0 {
		slog.Debug("No sources configured")
		return
	}

	for _, fetcher := range s.fetchers {
		task := NewScrapeSourceTask(fetcher, s.orchestrator)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue scrape task", "source", fetcher.Name(), "error", err)
		}
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "delay", retryDelay.String())

	// The retry goroutine joins the WaitGroup so Stop cannot close the
	// queue while a re-enqueue is still pending.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "error", retryErr)
			}
		}
	}()
}
