package patch

import (
	"log/slog"
	"strings"

	"github.com/poe2tools/patchwatch/app/htmlutil"
	"github.com/poe2tools/patchwatch/app/scrape"
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run converts one raw fetched record into a canonical Note. A record
// without a title cannot be identified and yields (nil, nil): a
// reportable skip, not an error.
func (n *Normalizer) Run(raw scrape.RawPatchRecord) (*Note, error) {
	if strings.TrimSpace(raw.Title) == "" {
		slog.Debug("Skipping record without title", "url", raw.URL)
		return nil, nil
	}

	cleaned := htmlutil.ExtractText(raw.RawHTML)

	note := &Note{
		URL:         raw.URL,
		Title:       raw.Title,
		Date:        NormalizeDate(raw.Date),
		ThreadID:    raw.ThreadID,
		CleanedText: cleaned,
		Summary:     Summarize(cleaned),
		Keywords:    ExtractKeywords(cleaned),
		Sections:    ExtractSections(raw.RawHTML),
		RawHTML:     raw.RawHTML,
	}

	return note, nil
}
