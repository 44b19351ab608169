package api

import (
	"github.com/poe2tools/patchwatch/app/pipeline"
	"github.com/poe2tools/patchwatch/app/storage"
	"github.com/poe2tools/patchwatch/app/tasks"
)

type Handler struct {
	store        *storage.Store
	scheduler    tasks.SchedulerInterface
	fetchers     []tasks.SourceFetcher
	orchestrator *pipeline.Orchestrator
}

// NoteSummary is the list-view shape of a stored note.
type NoteSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	URL      string `json:"url"`
	ThreadID string `json:"thread_id"`
}
