package tasks

import (
	"context"
	"fmt"
	"testing"

	"github.com/poe2tools/patchwatch/app/patch"
	"github.com/poe2tools/patchwatch/app/pipeline"
	"github.com/poe2tools/patchwatch/app/scrape"
	"github.com/poe2tools/patchwatch/app/storage"
)

type stubFetcher struct {
	records []scrape.RawPatchRecord
	err     error
}

func (stubFetcher) Name() string { return "stub" }

func (f stubFetcher) FetchAll(context.Context) (*scrape.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &scrape.FetchResult{All: f.records}, nil
}

type passNormalizer struct{}

func (passNormalizer) Run(raw scrape.RawPatchRecord) (*patch.Note, error) {
	return &patch.Note{Title: raw.Title, Date: raw.Date}, nil
}

type countingSaver struct {
	saved int
}

func (s *countingSaver) Save(note *patch.Note) (string, storage.SaveResult, error) {
	s.saved++
	return note.Title, storage.Saved, nil
}

func TestScrapeSourceTask_Execute(t *testing.T) {
	saver := &countingSaver{}
	orchestrator := pipeline.NewOrchestrator(passNormalizer{}, saver)

	fetcher := stubFetcher{records: []scrape.RawPatchRecord{
		{Title: "Patch 0.2.0", Date: "2025-04-04"},
		{Title: "Hotfix 0.2.0b", Date: "2025-04-06"},
	}}

	task := NewScrapeSourceTask(fetcher, orchestrator)
	if task.GetType() != TaskTypeScrapeSource || task.GetSourceName() != "stub" {
		t.Errorf("Task identity = %s/%s", task.GetType(), task.GetSourceName())
	}

	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if saver.saved != 2 {
		t.Errorf("Saved %d notes, expected 2", saver.saved)
	}
}

func TestScrapeSourceTask_Execute_FetchFailure(t *testing.T) {
	orchestrator := pipeline.NewOrchestrator(passNormalizer{}, &countingSaver{})
	task := NewScrapeSourceTask(stubFetcher{err: fmt.Errorf("boom")}, orchestrator)

	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected fetch error to propagate")
	}
}

func TestTask_RetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeScrapeSource, "stub")

	if !task.CanRetry() {
		t.Error("Fresh task should be retryable")
	}
	for i := 0; i < DefaultMaxRetries; i++ {
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Task should be exhausted after max retries")
	}
	if task.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("RetryCount = %d", task.GetRetryCount())
	}
}
