package pob

import (
	"fmt"
	"strings"
)

// FormatForPrompt flattens the build into the plain-text block handed
// to the analysis model.
func (b *Build) FormatForPrompt() string {
	var out []string

	out = append(out, "### Path of Exile 2 Build Analysis Data ###")

	out = append(out, "\n--- BUILD BASICS ---")
	out = append(out,
		fmt.Sprintf("Class Name: %s", b.ClassName),
		fmt.Sprintf("Ascend Class Name: %s", b.AscendClassName),
		fmt.Sprintf("Level: %s", b.Level),
		fmt.Sprintf("Total DPS: %s", b.TotalDPS),
	)

	out = append(out, fmt.Sprintf("\n--- CHARACTER STATS (Main Skill: %s) ---", b.MainSkillName))
	for _, entry := range statOrder {
		out = append(out, fmt.Sprintf("%s: %s", entry.Display, b.Stats[entry.Display]))
	}

	out = append(out, "\n--- SKILL SETUPS ---")
	out = append(out, fmt.Sprintf("Main Skill Name: %s", b.MainSkillName))
	for i, group := range b.Skills {
		if !group.Enabled || len(group.Gems) == 0 {
			continue
		}
		mainIndicator := ""
		if group.IsMain {
			mainIndicator = " (MAIN SKILL)"
		}
		out = append(out, fmt.Sprintf("\n  Skill Group %d%s (Source: %s):", i+1, mainIndicator, group.Source))
		for _, gem := range group.Gems {
			if gem.Enabled {
				out = append(out, fmt.Sprintf("    - %s (Lvl %s Q%s)", gem.Name, gem.Level, gem.Quality))
			}
		}
	}

	out = append(out, "\n--- EQUIPPED ITEMS ---")
	for _, item := range b.Items {
		out = append(out, fmt.Sprintf("\n  Slot: %s", item.Slot))
		out = append(out, fmt.Sprintf("    Name: %s, Base: %s, Rarity: %s", item.Name, item.BaseType, item.Rarity))
		if len(item.Mods) > 0 {
			out = append(out, fmt.Sprintf("    Mods (%d):", len(item.Mods)))
			for _, mod := range item.Mods {
				out = append(out, "      - "+mod)
			}
		}
	}

	out = append(out, "\n--- PASSIVE TREE ---")
	out = append(out, fmt.Sprintf("Tree URL: %s", b.Tree.URL))
	out = append(out, fmt.Sprintf("Allocated Node IDs (Count): %d", len(b.Tree.AllocatedNodes)))
	if b.Tree.MasteryEffects != "" {
		out = append(out, fmt.Sprintf("Mastery Effects Raw: %s", b.Tree.MasteryEffects))
	}

	out = append(out, "\n### END OF BUILD DATA ###")
	return strings.Join(out, "\n")
}
