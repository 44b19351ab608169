package tasks

import (
	"context"

	"github.com/poe2tools/patchwatch/app/scrape"
)

// SchedulerInterface is what the rest of the application sees of the
// background scheduler: lifecycle plus on-demand enqueueing (used by
// the API's scrape trigger).
type SchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// SourceFetcher is one upstream patch-note source. Implementations
// must be safe to call repeatedly; caching is their concern.
type SourceFetcher interface {
	Name() string
	FetchAll(ctx context.Context) (*scrape.FetchResult, error)
}
