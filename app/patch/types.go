package patch

// Note is the canonical, persisted record of one game update
// announcement. It is constructed once by the Normalizer and only
// read afterwards.
type Note struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	ThreadID    string    `json:"thread_id"`
	CleanedText string    `json:"cleaned_text"`
	Summary     string    `json:"summary"`
	Keywords    []string  `json:"keywords"`
	Sections    []Section `json:"sections"`
	RawHTML     string    `json:"raw_html_preserved"`
}

// Section is one best-effort structural slice of a patch note.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
