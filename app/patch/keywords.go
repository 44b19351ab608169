package patch

import (
	"regexp"
	"sort"
	"strings"
)

// vocabulary is the fixed set of domain terms the normalizer matches
// against. Keywords on a note are always a subset of this list.
var vocabulary = []string{
	"nerf", "buff", "new skill", "unique item", "gem", "passive tree",
	"vaal", "aura", "curse", "mine", "trap", "totem", "sentinel", "sanctum",
	"crucible", "ancestor", "affliction", "archnemesis", "kalguuran", "expedition",
	"ultimatum", "ritual", "heist", "harvest", "delirium", "metamorph", "blight",
	"legion", "synthesis", "betrayal", "delve", "incursion", "bestiary", "abyss",
	"harbinger", "breach", "essence", "prophecy", "perandus", "talisman", "rampage",
	"beyond", "ambush", "domination", "nemesis", "torment", "bloodlines", "onslaught",
	"ascendancy", "atlas", "shaper", "elder", "conqueror", "sirus", "maven",
	"vaal skill", "support gem", "skill gem", "keystone", "cluster jewel", "flask",
	"map", "boss", "monster", "crafting", "vendor recipe", "divination card",
	"ruthless", "ssf", "hardcore", "standard", "league", "event", "patch", "hotfix",
	"update", "balance", "change", "fix", "improvement", "pvp", "pve", "trade",
	"zana", "kirac", "einhar", "alva", "niko", "jun", "cassia", "tane", "sister divinia",
	"path of exile", "wraeclast", "oriath",
}

var keywordPatterns = buildKeywordPatterns()

func buildKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(vocabulary))
	for _, term := range vocabulary {
		patterns[term] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return patterns
}

// ExtractKeywords returns the sorted, deduplicated vocabulary terms
// found in text as whole words, case-insensitively.
func ExtractKeywords(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	found := make(map[string]bool)
	for term, pattern := range keywordPatterns {
		if pattern.MatchString(lower) {
			found[term] = true
		}
	}

	keywords := make([]string, 0, len(found))
	for term := range found {
		keywords = append(keywords, term)
	}
	sort.Strings(keywords)
	return keywords
}
