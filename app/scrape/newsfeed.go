package scrape

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"github.com/poe2tools/patchwatch/app/cache"
)

const newsBatchCacheKey = "news_feed"

// NewsFeedFetcher reads the official news RSS feed and maps entries
// that look like patch announcements onto raw patch records. Unlike
// the forum scraper it gets structured dates for free.
type NewsFeedFetcher struct {
	client  *resty.Client
	cache   *cache.Store
	feedURL string
	parser  *gofeed.Parser
}

func NewNewsFeedFetcher(client *resty.Client, cacheStore *cache.Store, feedURL string) *NewsFeedFetcher {
	return &NewsFeedFetcher{
		client:  client,
		cache:   cacheStore,
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
	}
}

func (f *NewsFeedFetcher) Name() string {
	return "news_feed"
}

func (f *NewsFeedFetcher) FetchAll(ctx context.Context) (*FetchResult, error) {
	var records []RawPatchRecord
	if f.cache.Get(newsBatchCacheKey, &records) && len(records) > 0 {
		return buildResult(records), nil
	}

	slog.Info("Fetching news feed", "url", f.feedURL)

	resp, err := f.client.R().SetContext(ctx).Get(f.feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("news feed returned HTTP %d", resp.StatusCode())
	}

	feed, err := f.parser.ParseString(resp.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	for _, item := range feed.Items {
		if item == nil || !matchesTitleFilter(item.Title) {
			continue
		}

		record := RawPatchRecord{
			Title:    item.Title,
			URL:      item.Link,
			ThreadID: threadID(cmp.Or(item.GUID, item.Link)),
			Date:     item.Published,
			RawHTML:  cmp.Or(item.Content, item.Description),
		}
		if item.PublishedParsed != nil {
			record.SortKey = *item.PublishedParsed
			record.Date = item.PublishedParsed.Format(time.RFC3339)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return &FetchResult{}, nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortKey.After(records[j].SortKey)
	})

	f.cache.Put(newsBatchCacheKey, records)

	return buildResult(records), nil
}
