package htmlutil

import (
	"strings"
	"testing"
)

func TestExtractText_SingleParagraph(t *testing.T) {
	got := ExtractText("<p>Fixed a bug. Buffed damage.</p>")
	if got != "Fixed a bug. Buffed damage." {
		t.Errorf("ExtractText = %q, expected %q", got, "Fixed a bug. Buffed damage.")
	}
}

func TestExtractText_BlockSeparation(t *testing.T) {
	got := ExtractText("<div><p>First block.</p><p>Second block.</p></div>")
	expected := "First block.\nSecond block."
	if got != expected {
		t.Errorf("ExtractText = %q, expected %q", got, expected)
	}
}

func TestExtractText_InlineMarkupCollapses(t *testing.T) {
	got := ExtractText("<p>The <strong>Fireball</strong> gem was <em>reworked</em>.</p>")
	if got != "The Fireball gem was reworked." {
		t.Errorf("ExtractText = %q", got)
	}
}

func TestExtractText_ListItems(t *testing.T) {
	got := ExtractText("<ul><li>Nerfed totems.</li><li>Buffed traps.</li></ul>")
	expected := "Nerfed totems.\nBuffed traps."
	if got != expected {
		t.Errorf("ExtractText = %q, expected %q", got, expected)
	}
}

func TestExtractText_DropsScriptAndStyle(t *testing.T) {
	got := ExtractText("<div><script>var x = 1;</script><style>p{}</style><p>Visible text.</p></div>")
	if got != "Visible text." {
		t.Errorf("ExtractText = %q, expected script/style dropped", got)
	}
	if strings.Contains(got, "var x") {
		t.Error("Script body leaked into extracted text")
	}
}

func TestExtractText_Empty(t *testing.T) {
	if got := ExtractText(""); got != "" {
		t.Errorf("ExtractText(\"\") = %q, expected empty", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := CollapseWhitespace("  a   b \n\n\n c\t d \n")
	if got != "a b\nc d" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
