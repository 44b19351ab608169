package patch

import (
	"strings"
	"unicode"
)

const (
	summarySentences = 5
	summaryMinWords  = 5
)

// Summarize selects the first summarySentences sentences of text with
// more than summaryMinWords words. Purely positional and extractive;
// no rewriting.
func Summarize(text string) string {
	if text == "" {
		return ""
	}

	var picked []string
	for _, sentence := range SplitSentences(text) {
		if len(strings.Fields(sentence)) > summaryMinWords {
			picked = append(picked, sentence)
		}
		if len(picked) == summarySentences {
			break
		}
	}
	return strings.Join(picked, " ")
}

// SplitSentences breaks text on sentence-final punctuation followed by
// whitespace. Periods inside dotted abbreviations ("e.g.") and after
// two-letter honorifics ("Mr.") do not end a sentence.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isAbbreviation reports whether the word ending at the candidate
// period looks like an abbreviation rather than a sentence end.
func isAbbreviation(before []rune) bool {
	// Last whitespace-delimited token before the period
	end := len(before)
	startIdx := end
	for startIdx > 0 && !unicode.IsSpace(before[startIdx-1]) {
		startIdx--
	}
	token := string(before[startIdx:end])
	if token == "" {
		return false
	}

	// Dotted abbreviations: "e.g", "i.e", "U.S"
	if strings.Contains(token, ".") {
		return true
	}

	// Two-letter honorifics: "Mr", "Dr", "St"
	tr := []rune(token)
	if len(tr) == 2 && unicode.IsUpper(tr[0]) && unicode.IsLower(tr[1]) {
		return true
	}

	return false
}
