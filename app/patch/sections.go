package patch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/poe2tools/patchwatch/app/htmlutil"
)

// fallbackSectionTitle is used when markup has no headings at all.
const fallbackSectionTitle = "General Changes"

// ExtractSections walks h1-h4 headings in the fragment and collects
// each heading's sibling content up to the next heading of equal or
// higher priority. Markup without headings but with text yields a
// single catch-all section. Best effort: unparseable input yields nil.
func ExtractSections(fragment string) []Section {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var sections []Section
	doc.Find("h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		level := htmlutil.HeadingLevel(node)
		title := strings.TrimSpace(sel.Text())
		content := collectSiblingContent(node, level)
		if title != "" && content != "" {
			sections = append(sections, Section{Title: title, Content: content})
		}
	})

	if len(sections) == 0 {
		if text := htmlutil.ExtractText(fragment); text != "" {
			sections = append(sections, Section{
				Title:   fallbackSectionTitle,
				Content: text,
			})
		}
	}

	return sections
}

func collectSiblingContent(heading *html.Node, level int) string {
	var parts []string
	for node := heading.NextSibling; node != nil; node = node.NextSibling {
		if siblingLevel := htmlutil.HeadingLevel(node); siblingLevel > 0 && siblingLevel <= level {
			break
		}
		if text := htmlutil.ExtractNodeText(node); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
