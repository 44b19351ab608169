package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/go-resty/resty/v2"

	"github.com/poe2tools/patchwatch/app/cache"
)

const forumBatchCacheKey = "all_patch_notes"

// titleFilter keeps only threads that look like patch announcements.
var titleFilter = []string{"patch", "hotfix", "update", "notes"}

var threadIDPattern = regexp.MustCompile(`thread/(\d+)`)

// ForumFetcher pulls patch-note threads from the official forum board.
// The selectors are tied to the forum's markup and degrade to empty
// results when the page structure drifts.
type ForumFetcher struct {
	client   *resty.Client
	cache    *cache.Store
	forumURL string

	// Delay between thread fetches; zero in tests.
	ThreadDelay time.Duration
}

func NewForumFetcher(client *resty.Client, cacheStore *cache.Store, forumURL string) *ForumFetcher {
	return &ForumFetcher{
		client:      client,
		cache:       cacheStore,
		forumURL:    forumURL,
		ThreadDelay: 1500 * time.Millisecond,
	}
}

func (f *ForumFetcher) Name() string {
	return "forum"
}

// FetchAll returns every patch-note thread on the board, newest first.
// The whole batch is cached under a single key; a cache hit skips the
// network entirely.
func (f *ForumFetcher) FetchAll(ctx context.Context) (*FetchResult, error) {
	var records []RawPatchRecord
	if f.cache.Get(forumBatchCacheKey, &records) && len(records) > 0 {
		return buildResult(records), nil
	}

	slog.Info("Fetching patch notes from forum", "url", f.forumURL)

	resp, err := f.client.R().SetContext(ctx).Get(f.forumURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forum page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("forum page returned HTTP %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse forum page: %w", err)
	}

	threads := doc.Find("div.thread-list div.thread")
	if threads.Length() == 0 {
		threads = doc.Find("div.thread")
	}
	if threads.Length() == 0 {
		return nil, fmt.Errorf("no thread elements found on forum page")
	}

	slog.Debug("Found candidate threads", "count", threads.Length())

	records = nil
	threads.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		record, ok := f.processThread(ctx, sel)
		if ok {
			records = append(records, record)
			if f.ThreadDelay > 0 {
				time.Sleep(f.ThreadDelay)
			}
		}
		return true
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &FetchResult{}, nil
	}

	// Newest first; records with unparseable dates sink to the end.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortKey.After(records[j].SortKey)
	})

	f.cache.Put(forumBatchCacheKey, records)

	return buildResult(records), nil
}

func (f *ForumFetcher) processThread(ctx context.Context, sel *goquery.Selection) (RawPatchRecord, bool) {
	title, href, ok := threadTitleLink(sel)
	if !ok {
		slog.Debug("Skipping thread, no title element found")
		return RawPatchRecord{}, false
	}

	if !matchesTitleFilter(title) {
		return RawPatchRecord{}, false
	}

	threadURL := f.resolveURL(href)

	slog.Debug("Processing matching thread", "title", title, "url", threadURL)

	resp, err := f.client.R().SetContext(ctx).Get(threadURL)
	if err != nil || resp.StatusCode() != 200 {
		slog.Warn("Failed to fetch thread", "url", threadURL, "error", err)
		return RawPatchRecord{}, false
	}

	threadDoc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		slog.Warn("Failed to parse thread page", "url", threadURL, "error", err)
		return RawPatchRecord{}, false
	}

	rawHTML, textContent := firstPostContent(threadDoc)
	if rawHTML == "" {
		slog.Warn("Main content div not found for thread", "title", title)
	}

	dateStr := postDate(threadDoc)

	return RawPatchRecord{
		Title:       title,
		URL:         threadURL,
		ThreadID:    threadID(threadURL),
		Date:        dateStr,
		RawHTML:     rawHTML,
		TextContent: textContent,
		SortKey:     parseSortKey(dateStr),
	}, true
}

func (f *ForumFetcher) resolveURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(f.forumURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func threadTitleLink(sel *goquery.Selection) (string, string, bool) {
	for _, selector := range []string{"a.thread_title", "div.title a", "div.thread-title a"} {
		link := sel.Find(selector).First()
		if link.Length() > 0 {
			href, _ := link.Attr("href")
			return strings.TrimSpace(link.Text()), href, href != ""
		}
	}
	return "", "", false
}

func matchesTitleFilter(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range titleFilter {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func firstPostContent(doc *goquery.Document) (string, []string) {
	for _, selector := range []string{"div.content", "div.forum-post-content div.content", "div.post_content"} {
		content := doc.Find(selector).First()
		if content.Length() == 0 {
			continue
		}
		rawHTML, err := goquery.OuterHtml(content)
		if err != nil {
			continue
		}
		var lines []string
		for _, line := range strings.Split(strings.TrimSpace(content.Text()), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		return rawHTML, lines
	}
	return "", nil
}

func postDate(doc *goquery.Document) string {
	for _, selector := range []string{"span.post_date", "div.post-time", "time"} {
		elem := doc.Find(selector).First()
		if elem.Length() > 0 {
			return strings.TrimSpace(elem.Text())
		}
	}
	return "Unknown Date"
}

func threadID(threadURL string) string {
	if match := threadIDPattern.FindStringSubmatch(threadURL); match != nil {
		return match[1]
	}
	parts := strings.Split(strings.TrimRight(threadURL, "/"), "/")
	return parts[len(parts)-1]
}

// parseSortKey turns a free-text date into a best-effort ordering key.
// Unparseable dates get the zero time and sort last.
func parseSortKey(dateStr string) time.Time {
	candidate := dateStr
	if idx := strings.Index(strings.ToLower(candidate), "on "); idx >= 0 {
		candidate = candidate[idx+len("on "):]
	}
	candidate = strings.TrimSpace(candidate)

	if t, err := time.Parse("Jan 2, 2006, 3:04:05 PM", candidate); err == nil {
		return t
	}
	t, err := dateparse.ParseAny(candidate)
	if err != nil {
		return time.Time{}
	}
	return t
}

func buildResult(records []RawPatchRecord) *FetchResult {
	result := &FetchResult{All: records}
	if len(records) > 0 {
		result.Latest = &records[0]
	}
	return result
}
