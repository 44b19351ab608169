package scrape

import "time"

// RawPatchRecord is the source-shaped record produced by a fetcher.
// It is ephemeral: the pipeline normalizes it into a patch.Note and
// never persists it directly.
type RawPatchRecord struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	ThreadID    string   `json:"thread_id"`
	Date        string   `json:"date"`
	RawHTML     string   `json:"raw_html_content"`
	TextContent []string `json:"text_content"`

	// SortKey is a best-effort parsed timestamp used only for
	// newest-first ordering. Zero when the date never parsed.
	SortKey time.Time `json:"parsed_date_sort_key"`
}

// FetchResult is what a source fetcher hands to the pipeline.
type FetchResult struct {
	Latest *RawPatchRecord  `json:"latest"`
	All    []RawPatchRecord `json:"all"`
}

// WikiData holds the best-effort extraction of one wiki page. Fields
// that could not be located stay at their "N/A" defaults; accuracy is
// inherently tied to upstream page structure.
type WikiData struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Mechanics      string   `json:"mechanics"`
	Lore           string   `json:"lore"`
	VersionHistory []string `json:"version_history"`
	SourceURL      string   `json:"source_url"`
}

// CommunityPost is one search hit from reddit or the official forums.
type CommunityPost struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Body        string  `json:"selftext"`
}

// CommunityData aggregates search hits for one term.
type CommunityData struct {
	SearchTerm string          `json:"search_term"`
	Subreddit  string          `json:"subreddit,omitempty"`
	Posts      []CommunityPost `json:"posts"`
	SourceURL  string          `json:"source_url"`
}

// GuideData is the readable text of one community guide page.
type GuideData struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceURL string `json:"source_url"`
}

// DetailData is the flattened text of one poe2db detail page.
type DetailData struct {
	Name      string `json:"name"`
	Stats     string `json:"stats"`
	Tables    string `json:"tables"`
	SourceURL string `json:"source_url"`
}
