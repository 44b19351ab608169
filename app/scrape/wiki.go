package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/poe2tools/patchwatch/app/cache"
	"github.com/poe2tools/patchwatch/app/htmlutil"
)

var (
	mechanicsHeading = regexp.MustCompile(`(?i)mechanics`)
	loreHeading      = regexp.MustCompile(`(?i)lore|background`)
	versionHeading   = regexp.MustCompile(`(?i)version history`)
)

// WikiFetcher pulls skill and item pages from the community wiki.
// Extraction is best effort: anything it cannot locate stays "N/A",
// and accuracy degrades silently when the wiki's markup changes.
type WikiFetcher struct {
	client  *resty.Client
	cache   *cache.Store
	baseURL string
}

func NewWikiFetcher(client *resty.Client, cacheStore *cache.Store, baseURL string) *WikiFetcher {
	return &WikiFetcher{
		client:  client,
		cache:   cacheStore,
		baseURL: baseURL,
	}
}

// Fetch returns the wiki data for one skill or item name.
func (f *WikiFetcher) Fetch(ctx context.Context, name, elementType string) (*WikiData, error) {
	cacheKey := name + "_wiki"

	var cached WikiData
	if f.cache.Get(cacheKey, &cached) {
		return &cached, nil
	}

	pageURL := f.baseURL + strings.ReplaceAll(name, " ", "_")
	slog.Info("Fetching wiki page", "name", name, "url", pageURL)

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wiki page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("wiki page %s returned HTTP %d", pageURL, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wiki page: %w", err)
	}

	data := &WikiData{
		Name:        name,
		Type:        elementType,
		Description: "N/A",
		Mechanics:   "N/A",
		Lore:        "N/A",
		SourceURL:   pageURL,
	}

	content := doc.Find("div.mw-parser-output").First()
	if content.Length() > 0 {
		if first := content.ChildrenFiltered("p").First(); first.Length() > 0 {
			data.Description = strings.TrimSpace(first.Text())
		}
		if text := headingSectionText(content, mechanicsHeading); text != "" {
			data.Mechanics = text
		}
		if text := headingSectionText(content, loreHeading); text != "" {
			data.Lore = text
		}
		data.VersionHistory = versionHistoryRows(content)
	}

	f.cache.Put(cacheKey, data)

	return data, nil
}

// headingSectionText finds an h2/h3 whose headline matches pattern and
// collects the paragraph and list text up to the next h2/h3.
func headingSectionText(content *goquery.Selection, pattern *regexp.Regexp) string {
	var heading *goquery.Selection
	content.Find("h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		headline := sel.Find("span.mw-headline").Text()
		if headline == "" {
			headline = sel.Text()
		}
		if pattern.MatchString(headline) {
			heading = sel
			return false
		}
		return true
	})
	if heading == nil {
		return ""
	}

	var parts []string
	for node := heading.Get(0).NextSibling; node != nil; node = node.NextSibling {
		if level := htmlutil.HeadingLevel(node); level == 2 || level == 3 {
			break
		}
		if node.Data == "p" || node.Data == "ul" {
			if text := htmlutil.ExtractNodeText(node); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// versionHistoryRows flattens the version-history table, if any, into
// "version: change" lines.
func versionHistoryRows(content *goquery.Selection) []string {
	var heading *goquery.Selection
	content.Find("h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if versionHeading.MatchString(sel.Text()) {
			heading = sel
			return false
		}
		return true
	})
	if heading == nil {
		return nil
	}

	table := heading.NextAllFiltered("table").First()
	if table.Length() == 0 {
		return nil
	}

	var rows []string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() >= 2 {
			version := strings.TrimSpace(cells.Eq(0).Text())
			change := strings.TrimSpace(cells.Eq(1).Text())
			if version != "" && change != "" {
				rows = append(rows, version+": "+change)
			}
		}
	})
	return rows
}
