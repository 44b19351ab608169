package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/poe2tools/patchwatch/app/cache"
)

// PoE2DBFetcher pulls skill and item detail pages from poe2db and
// flattens their stat tables into pipe-separated text that downstream
// prompts can consume.
type PoE2DBFetcher struct {
	client  *resty.Client
	cache   *cache.Store
	baseURL string
}

func NewPoE2DBFetcher(client *resty.Client, cacheStore *cache.Store, baseURL string) *PoE2DBFetcher {
	return &PoE2DBFetcher{
		client:  client,
		cache:   cacheStore,
		baseURL: baseURL,
	}
}

// Fetch retrieves the detail page for one skill or item name.
func (f *PoE2DBFetcher) Fetch(ctx context.Context, name string) (*DetailData, error) {
	var cached DetailData
	if f.cache.Get(name, &cached) {
		return &cached, nil
	}

	pageURL := f.baseURL + strings.ReplaceAll(name, " ", "_")
	slog.Info("Fetching detail page", "name", name, "url", pageURL)

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("detail page %s returned HTTP %d", pageURL, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	data := &DetailData{
		Name:      name,
		Stats:     "N/A",
		Tables:    "N/A",
		SourceURL: pageURL,
	}

	if stats := doc.Find("div.Stats").First(); stats.Length() > 0 {
		data.Stats = strings.TrimSpace(stats.Text())
	}

	var tables []string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if text := TableToText(table); text != "" {
			tables = append(tables, text)
		}
	})
	if len(tables) > 0 {
		data.Tables = strings.Join(tables, "\n\n")
	}

	f.cache.Put(name, data)

	return data, nil
}

// TableToText flattens an HTML table into pipe-separated rows with a
// dashed separator under the header, mirroring markdown tables.
func TableToText(table *goquery.Selection) string {
	var out []string

	headerCells := table.Find("thead th")
	if headerCells.Length() == 0 {
		headerCells = table.Find("tr").First().Find("th")
	}
	var headers []string
	headerCells.Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, normalizeCell(cell.Text()))
	})
	if len(headers) > 0 {
		out = append(out, strings.Join(headers, " | "))
		dashes := make([]string, len(headers))
		for i, h := range headers {
			dashes[i] = strings.Repeat("-", len(h))
		}
		out = append(out, strings.Join(dashes, " | "))
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}
	rows.Each(func(_ int, row *goquery.Selection) {
		// Skip the header row when it doubles as a body row
		if row.Find("th").Length() > 0 && row.Find("td").Length() == 0 {
			return
		}
		var cols []string
		empty := true
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := normalizeCell(cell.Text())
			if text != "" {
				empty = false
			}
			cols = append(cols, text)
		})
		if !empty {
			out = append(out, strings.Join(cols, " | "))
		}
	})

	return strings.Join(out, "\n")
}

func normalizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
