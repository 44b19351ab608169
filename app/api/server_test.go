package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poe2tools/patchwatch/app/patch"
	"github.com/poe2tools/patchwatch/app/pipeline"
	"github.com/poe2tools/patchwatch/app/scrape"
	"github.com/poe2tools/patchwatch/app/storage"
	"github.com/poe2tools/patchwatch/app/tasks"
)

type fakeScheduler struct {
	enqueued []tasks.TaskInterface
	err      error
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}

func (f *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, task)
	return nil
}

type noopFetcher struct{}

func (noopFetcher) Name() string { return "forum" }

func (noopFetcher) FetchAll(context.Context) (*scrape.FetchResult, error) {
	return &scrape.FetchResult{}, nil
}

type rejectNormalizer struct{}

func (rejectNormalizer) Run(scrape.RawPatchRecord) (*patch.Note, error) { return nil, nil }

func newTestServer(t *testing.T, accessKey string) (*fakeScheduler, http.Handler) {
	t.Helper()

	store := storage.NewStore(t.TempDir())
	for _, note := range []*patch.Note{
		{Title: "Patch Notes 0.2.0", Date: "2025-04-04T10:00:00", URL: "https://example.com/1", ThreadID: "111"},
		{Title: "Hotfix 0.2.0b", Date: "2025-04-06T09:00:00", URL: "https://example.com/2", ThreadID: "222"},
	} {
		if _, result, err := store.Save(note); err != nil || result != storage.Saved {
			t.Fatalf("Seeding store failed: %v (%v)", err, result)
		}
	}

	scheduler := &fakeScheduler{}
	orchestrator := pipeline.NewOrchestrator(rejectNormalizer{}, store)
	handler := NewHandler(store, scheduler, []tasks.SourceFetcher{noopFetcher{}}, orchestrator)
	return scheduler, NewServer(handler, accessKey)
}

func doRequest(t *testing.T, server http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestGetHealth(t *testing.T) {
	_, server := newTestServer(t, "")

	w := doRequest(t, server, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["stored_notes"] != float64(2) {
		t.Errorf("stored_notes = %v", body["stored_notes"])
	}
}

func TestListNotes(t *testing.T) {
	_, server := newTestServer(t, "")

	w := doRequest(t, server, "GET", "/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /notes = %d", w.Code)
	}

	var body struct {
		Notes []NoteSummary `json:"notes"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 2 {
		t.Fatalf("total = %d", body.Total)
	}
	// Newest first.
	if body.Notes[0].Title != "Hotfix 0.2.0b" {
		t.Errorf("Notes[0] = %+v", body.Notes[0])
	}
	if body.Notes[0].ID != "2025-04-06_hotfix-020b" {
		t.Errorf("ID = %q", body.Notes[0].ID)
	}
}

func TestGetLatestNote(t *testing.T) {
	_, server := newTestServer(t, "")

	w := doRequest(t, server, "GET", "/notes/latest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /notes/latest = %d", w.Code)
	}

	var note patch.Note
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatal(err)
	}
	if note.Title != "Hotfix 0.2.0b" {
		t.Errorf("Latest = %q", note.Title)
	}
}

func TestGetNoteByID(t *testing.T) {
	_, server := newTestServer(t, "")

	w := doRequest(t, server, "GET", "/notes/2025-04-04_patch-notes-020", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /notes/:id = %d, body %s", w.Code, w.Body.String())
	}

	if w = doRequest(t, server, "GET", "/notes/2025-01-01_does-not-exist", nil); w.Code != http.StatusNotFound {
		t.Errorf("Missing note = %d", w.Code)
	}
}

func TestTriggerScrape_RequiresAuth(t *testing.T) {
	scheduler, server := newTestServer(t, "secret")

	w := doRequest(t, server, "POST", "/api/scrape", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Unauthenticated scrape = %d", w.Code)
	}

	w = doRequest(t, server, "POST", "/api/scrape", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Wrong key scrape = %d", w.Code)
	}
	if len(scheduler.enqueued) != 0 {
		t.Errorf("Tasks enqueued without auth: %d", len(scheduler.enqueued))
	}

	w = doRequest(t, server, "POST", "/api/scrape", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Authenticated scrape = %d, body %s", w.Code, w.Body.String())
	}
	if len(scheduler.enqueued) != 1 {
		t.Errorf("Enqueued %d tasks, expected 1", len(scheduler.enqueued))
	}
}

func TestTriggerScrape_BearerToken(t *testing.T) {
	_, server := newTestServer(t, "secret")

	w := doRequest(t, server, "POST", "/api/scrape", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Bearer auth = %d", w.Code)
	}
}

func TestTriggerScrape_DisabledWithoutKey(t *testing.T) {
	_, server := newTestServer(t, "")

	w := doRequest(t, server, "POST", "/api/scrape", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Scrape without configured key = %d, expected 404", w.Code)
	}
}
