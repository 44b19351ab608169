package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poe2tools/patchwatch/app/pipeline"
)

var _ TaskInterface = (*ScrapeSourceTask)(nil)

// ScrapeSourceTask fetches one source and runs the batch through the
// normalize/persist pipeline.
type ScrapeSourceTask struct {
	Task
	fetcher      SourceFetcher
	orchestrator *pipeline.Orchestrator
}

func NewScrapeSourceTask(fetcher SourceFetcher, orchestrator *pipeline.Orchestrator) *ScrapeSourceTask {
	return &ScrapeSourceTask{
		Task:         NewTask(TaskTypeScrapeSource, fetcher.Name()),
		fetcher:      fetcher,
		orchestrator: orchestrator,
	}
}

func (t *ScrapeSourceTask) Execute(ctx context.Context) error {
	result, err := t.fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch from %s failed: %w", t.SourceName, err)
	}

	tally := t.orchestrator.Run(result.All, func(msg string) {
		slog.Debug(msg, "source", t.SourceName)
	})

	slog.Info("Scrape task finished",
		"source", t.SourceName,
		"new", tally.New,
		"skipped", tally.Skipped,
		"errors", tally.Errors,
		"duration", t.GetDuration().String())

	return nil
}
