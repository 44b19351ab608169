package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	readability "github.com/go-shiori/go-readability"

	"github.com/poe2tools/patchwatch/app/cache"
)

// CommunityFetcher searches reddit and the official forums for
// discussions about a skill, item or build archetype, and reduces
// guide pages to readable text.
type CommunityFetcher struct {
	client         *resty.Client
	cache          *cache.Store
	subreddit      string
	forumSearchURL string
	limit          int
}

func NewCommunityFetcher(client *resty.Client, cacheStore *cache.Store, sources *Sources) *CommunityFetcher {
	return &CommunityFetcher{
		client:         client,
		cache:          cacheStore,
		subreddit:      sources.Community.Subreddit,
		forumSearchURL: sources.Community.ForumSearch,
		limit:          sources.Community.Limit,
	}
}

// redditListing mirrors the slice of reddit's search API we consume.
type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Selftext    string  `json:"selftext"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditPosts searches the configured subreddit for a term.
func (f *CommunityFetcher) RedditPosts(ctx context.Context, searchTerm string) (*CommunityData, error) {
	cacheKey := "reddit_" + searchTerm

	var cached CommunityData
	if f.cache.Get(cacheKey, &cached) {
		return &cached, nil
	}

	searchURL := fmt.Sprintf("https://www.reddit.com/r/%s/search.json", f.subreddit)
	slog.Info("Searching reddit", "subreddit", f.subreddit, "term", searchTerm)

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":           searchTerm,
			"restrict_sr": "on",
			"sort":        "relevance",
			"t":           "all",
			"limit":       strconv.Itoa(f.limit),
		}).
		Get(searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reddit posts: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit search returned HTTP %d", resp.StatusCode())
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("failed to parse reddit response: %w", err)
	}

	data := &CommunityData{
		SearchTerm: searchTerm,
		Subreddit:  f.subreddit,
		SourceURL:  searchURL,
	}
	for _, child := range listing.Data.Children {
		post := child.Data
		data.Posts = append(data.Posts, CommunityPost{
			Title:       post.Title,
			URL:         "https://reddit.com" + post.Permalink,
			Score:       post.Score,
			NumComments: post.NumComments,
			CreatedUTC:  post.CreatedUTC,
			Body:        post.Selftext,
		})
	}

	f.cache.Put(cacheKey, data)

	return data, nil
}

// ForumPosts searches the official forums for a term.
func (f *CommunityFetcher) ForumPosts(ctx context.Context, searchTerm string) (*CommunityData, error) {
	cacheKey := "forum_" + searchTerm

	var cached CommunityData
	if f.cache.Get(cacheKey, &cached) {
		return &cached, nil
	}

	slog.Info("Searching official forums", "term", searchTerm)

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     searchTerm,
			"forum": "poe2",
			"sort":  "relevance",
		}).
		Get(f.forumSearchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forum posts: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("forum search returned HTTP %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse forum search results: %w", err)
	}

	data := &CommunityData{
		SearchTerm: searchTerm,
		SourceURL:  f.forumSearchURL,
	}

	doc.Find("div.forumPost").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= f.limit {
			return false
		}
		link := sel.Find("a").First()
		href, _ := link.Attr("href")
		if href != "" && !strings.HasPrefix(href, "http") {
			href = "https://www.pathofexile.com" + href
		}
		data.Posts = append(data.Posts, CommunityPost{
			Title: strings.TrimSpace(link.Text()),
			URL:   href,
			Body:  strings.TrimSpace(sel.Find("div.content").Text()),
		})
		return true
	})

	f.cache.Put(cacheKey, data)

	return data, nil
}

// GuidePage fetches one community guide and reduces it to its
// readable article text.
func (f *CommunityFetcher) GuidePage(ctx context.Context, pageURL string) (*GuideData, error) {
	cacheKey := "guide_" + pageURL

	var cached GuideData
	if f.cache.Get(cacheKey, &cached) {
		return &cached, nil
	}

	slog.Info("Fetching guide page", "url", pageURL)

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guide page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("guide page returned HTTP %d", resp.StatusCode())
	}

	article, err := readability.FromReader(strings.NewReader(resp.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to extract guide content: %w", err)
	}

	data := &GuideData{
		Title:     article.Title,
		Content:   article.TextContent,
		SourceURL: pageURL,
	}

	f.cache.Put(cacheKey, data)

	return data, nil
}
