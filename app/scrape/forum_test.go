package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poe2tools/patchwatch/app/cache"
)

const forumListPage = `
<html><body>
<div class="thread-list">
	<div class="thread">
		<a class="thread_title" href="/forum/view-thread/111">Patch Notes 0.2.0</a>
	</div>
	<div class="thread">
		<a class="thread_title" href="/forum/view-thread/222">Weekend Race Announcement</a>
	</div>
	<div class="thread">
		<a class="thread_title" href="/forum/view-thread/333">Hotfix 0.2.0b</a>
	</div>
</div>
</body></html>`

func forumTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/forum/view-forum/2212", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(forumListPage))
	})
	mux.HandleFunc("/forum/view-thread/111", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="content"><h2>Changes</h2><p>Nerfed totems. Buffed traps.</p></div>
			<span class="post_date">on Dec 05, 2023, 10:00:00 AM</span>
		</body></html>`))
	})
	mux.HandleFunc("/forum/view-thread/333", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="content"><p>Fixed a crash.</p></div>
			<span class="post_date">on Dec 07, 2023, 9:00:00 AM</span>
		</body></html>`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestForumFetcher(t *testing.T, serverURL, cacheDir string) *ForumFetcher {
	t.Helper()
	store := cache.NewStore(cacheDir, "patch_notes", time.Hour)
	fetcher := NewForumFetcher(NewClient("test-agent"), store, serverURL+"/forum/view-forum/2212")
	fetcher.ThreadDelay = 0
	return fetcher
}

func TestForumFetcher_FetchAll(t *testing.T) {
	server := forumTestServer(t)
	fetcher := newTestForumFetcher(t, server.URL, t.TempDir())

	result, err := fetcher.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	// The announcement thread does not match the title filter.
	if len(result.All) != 2 {
		t.Fatalf("Got %d records, expected 2: %+v", len(result.All), result.All)
	}

	// Newest first: the Dec 07 hotfix precedes the Dec 05 patch.
	if result.All[0].Title != "Hotfix 0.2.0b" {
		t.Errorf("All[0] = %q, expected the newer thread first", result.All[0].Title)
	}
	if result.Latest == nil || result.Latest.Title != "Hotfix 0.2.0b" {
		t.Errorf("Latest = %+v", result.Latest)
	}

	patchRecord := result.All[1]
	if patchRecord.ThreadID != "111" {
		t.Errorf("ThreadID = %q, expected 111", patchRecord.ThreadID)
	}
	if !strings.Contains(patchRecord.RawHTML, "Nerfed totems.") {
		t.Errorf("RawHTML missing thread content: %q", patchRecord.RawHTML)
	}
	if patchRecord.Date != "on Dec 05, 2023, 10:00:00 AM" {
		t.Errorf("Date = %q", patchRecord.Date)
	}
	if patchRecord.SortKey.IsZero() {
		t.Error("SortKey not parsed for a parseable date")
	}
}

func TestForumFetcher_FetchAll_UsesCache(t *testing.T) {
	server := forumTestServer(t)
	cacheDir := t.TempDir()

	fetcher := newTestForumFetcher(t, server.URL, cacheDir)
	if _, err := fetcher.FetchAll(context.Background()); err != nil {
		t.Fatalf("First FetchAll failed: %v", err)
	}

	// Shut the server down: a second fetch must be served from cache.
	server.Close()

	again := newTestForumFetcher(t, server.URL, cacheDir)
	result, err := again.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("Cached FetchAll failed: %v", err)
	}
	if len(result.All) != 2 {
		t.Errorf("Cached result has %d records, expected 2", len(result.All))
	}
}

func TestForumFetcher_FetchAll_NoThreads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>maintenance</p></body></html>"))
	}))
	defer server.Close()

	store := cache.NewStore(t.TempDir(), "patch_notes", time.Hour)
	fetcher := NewForumFetcher(NewClient("test-agent"), store, server.URL)
	fetcher.ThreadDelay = 0

	if _, err := fetcher.FetchAll(context.Background()); err == nil {
		t.Error("Expected error when no thread elements are found")
	}
}

func TestMatchesTitleFilter(t *testing.T) {
	tests := []struct {
		title    string
		expected bool
	}{
		{"Patch Notes 0.2.0", true},
		{"Hotfix 0.2.0b", true},
		{"0.2.0 Update Preview", true},
		{"Weekend Race Announcement", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := matchesTitleFilter(tt.title); got != tt.expected {
			t.Errorf("matchesTitleFilter(%q) = %v, expected %v", tt.title, got, tt.expected)
		}
	}
}

func TestThreadID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.pathofexile.com/forum/view-thread/3456789", "3456789"},
		{"https://example.com/some/other/42", "42"},
	}
	for _, tt := range tests {
		if got := threadID(tt.url); got != tt.expected {
			t.Errorf("threadID(%q) = %q, expected %q", tt.url, got, tt.expected)
		}
	}
}

func TestParseSortKey(t *testing.T) {
	key := parseSortKey("on Dec 05, 2023, 10:00:00 AM")
	if key.IsZero() {
		t.Fatal("Expected forum phrasing to parse")
	}
	if key.Year() != 2023 || key.Month() != time.December || key.Day() != 5 {
		t.Errorf("parseSortKey = %v", key)
	}

	if !parseSortKey("total garbage").IsZero() {
		t.Error("Expected zero time for unparseable date")
	}
}
