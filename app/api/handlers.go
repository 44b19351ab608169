package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poe2tools/patchwatch/app/pipeline"
	"github.com/poe2tools/patchwatch/app/storage"
	"github.com/poe2tools/patchwatch/app/tasks"
)

func NewHandler(store *storage.Store, scheduler tasks.SchedulerInterface,
	fetchers []tasks.SourceFetcher, orchestrator *pipeline.Orchestrator) *Handler {
	return &Handler{
		store:        store,
		scheduler:    scheduler,
		fetchers:     fetchers,
		orchestrator: orchestrator,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.store.Count(); err == nil {
		health["stored_notes"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	count, err := h.store.Count()
	if err != nil {
		slog.Error("Storage error", "operation", "count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	stats := gin.H{
		"stored_notes": count,
		"sources":      len(h.fetchers),
	}

	if latest, err := h.store.LoadLatest(); err == nil && latest != nil {
		stats["latest"] = gin.H{
			"title": latest.Title,
			"date":  latest.Date,
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListNotes(c *gin.Context) {
	entries, err := h.store.List()
	if err != nil {
		slog.Error("Storage error", "operation", "list", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	notes := make([]NoteSummary, 0, len(entries))
	for _, entry := range entries {
		notes = append(notes, NoteSummary{
			ID:       storage.ID(entry.Handle),
			Title:    entry.Note.Title,
			Date:     entry.Note.Date,
			URL:      entry.Note.URL,
			ThreadID: entry.Note.ThreadID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"total": len(notes),
	})
}

func (h *Handler) GetLatestNote(c *gin.Context) {
	note, err := h.store.LoadLatest()
	if err != nil {
		slog.Error("Storage error", "operation", "load_latest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No patch notes stored yet"})
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *Handler) GetNoteByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing note id parameter"})
		return
	}

	note, err := h.store.LoadByID(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid note id"})
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patch note not found"})
		return
	}

	c.JSON(http.StatusOK, note)
}

// APITriggerScrape enqueues a scrape task for every configured source.
func (h *Handler) APITriggerScrape(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler is not running"})
		return
	}

	enqueued := make([]gin.H, 0, len(h.fetchers))
	for _, fetcher := range h.fetchers {
		task := tasks.NewScrapeSourceTask(fetcher, h.orchestrator)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Error enqueueing scrape task", "source", fetcher.Name(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to enqueue scrape task",
				"details": err.Error(),
			})
			return
		}
		enqueued = append(enqueued, gin.H{
			"id":     task.GetID(),
			"source": fetcher.Name(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scrape tasks enqueued successfully",
		"tasks":   enqueued,
	})
}
