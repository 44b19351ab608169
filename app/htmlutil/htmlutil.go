package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "div": true, "dl": true, "dt": true, "dd": true,
	"fieldset": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// ExtractText renders an HTML fragment as plain text with block-level
// elements separated by newlines. Inline markup collapses into its
// surrounding text; script and style bodies are dropped.
func ExtractText(fragment string) string {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var b strings.Builder
	writeText(root, &b)
	return CollapseWhitespace(b.String())
}

// ExtractNodeText renders a single parsed node and its children.
func ExtractNodeText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	writeText(node, &b)
	return CollapseWhitespace(b.String())
}

func writeText(node *html.Node, b *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.ElementNode && skipTags[node.Data] {
		return
	}
	if node.Type == html.TextNode {
		b.WriteString(node.Data)
		return
	}

	block := node.Type == html.ElementNode && blockTags[node.Data]
	if block {
		b.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(child, b)
	}
	if block {
		b.WriteByte('\n')
	}
}

// CollapseWhitespace trims every line, squeezes runs of spaces and
// drops empty lines so block boundaries come out as single newlines.
func CollapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// HeadingLevel returns 1-4 for h1 through h4 element nodes and 0 for
// anything else.
func HeadingLevel(node *html.Node) int {
	if node == nil || node.Type != html.ElementNode {
		return 0
	}
	switch node.Data {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	}
	return 0
}
