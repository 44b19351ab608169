package pob

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// statOrder maps display names to the PlayerStat attribute the export
// uses, in the order they are reported.
var statOrder = []struct {
	Display string
	Attr    string
}{
	{"Life", "Life"},
	{"Mana", "Mana"},
	{"EnergyShield", "EnergyShield"},
	{"Armour", "Armour"},
	{"Evasion", "Evasion"},
	{"FireResist", "FireResist"},
	{"ColdResist", "ColdResist"},
	{"LightningResist", "LightningResist"},
	{"ChaosResist", "ChaosResist"},
	{"EffectiveHP", "TotalEHP"},
	{"CritChance", "CritChance"},
	{"CritMultiplier", "CritMultiplier"},
	{"HitChance", "HitChance"},
	{"AttackSpeed", "Speed"},
	{"ManaRegen", "ManaRegenRecovery"},
	{"LifeRegen", "LifeRegenRecovery"},
	{"SpellSuppression", "EffectiveSpellSuppressionChance"},
}

// modKeywords marks lines that look like explicit modifiers on
// magic/normal items. Rare and unique items keep every line.
var modKeywords = []string{
	"%", "Adds", " to ", "+", "Leech", "Regenerate", "Penetrates",
	"increased", "reduced", "more", "less", "Gain", "Grants Skill", "Allocates",
}

// nonModPrefixes are bookkeeping lines inside an item block that are
// never modifiers.
var nonModPrefixes = []string{
	"unique id:", "item level:", "quality:", "levelreq:", "sockets:", "rune:",
	"implicits:", "radius:", "evasion:", "energy shield:", "armour:", "spirit:",
}

type xmlExport struct {
	XMLName xml.Name
	Build   *xmlBuild  `xml:"Build"`
	Skills  *xmlSkills `xml:"Skills"`
	Items   *xmlItems  `xml:"Items"`
	Tree    *xmlTree   `xml:"Tree"`
}

type xmlBuild struct {
	ClassName       string          `xml:"className,attr"`
	AscendClassName string          `xml:"ascendClassName,attr"`
	Level           string          `xml:"level,attr"`
	MainSocketGroup string          `xml:"mainSocketGroup,attr"`
	PlayerStats     []xmlPlayerStat `xml:"PlayerStat"`
}

type xmlPlayerStat struct {
	Stat  string `xml:"stat,attr"`
	Value string `xml:"value,attr"`
}

type xmlSkills struct {
	SkillSets []struct {
		Skills []xmlSkill `xml:"Skill"`
	} `xml:"SkillSet"`
}

type xmlSkill struct {
	Label           string   `xml:"label,attr"`
	Enabled         string   `xml:"enabled,attr"`
	MainActiveSkill string   `xml:"mainActiveSkill,attr"`
	Source          string   `xml:"source,attr"`
	Gems            []xmlGem `xml:"Gem"`
}

type xmlGem struct {
	NameSpec string `xml:"nameSpec,attr"`
	Level    string `xml:"level,attr"`
	Quality  string `xml:"quality,attr"`
	SkillID  string `xml:"skillId,attr"`
	Enabled  string `xml:"enabled,attr"`
}

type xmlItems struct {
	Items []struct {
		ID  string `xml:"id,attr"`
		Raw string `xml:",chardata"`
	} `xml:"Item"`
	ItemSets []struct {
		Slots []struct {
			Name   string `xml:"name,attr"`
			ItemID string `xml:"itemId,attr"`
		} `xml:"Slot"`
	} `xml:"ItemSet"`
}

type xmlTree struct {
	Specs []struct {
		Nodes          string `xml:"nodes,attr"`
		MasteryEffects string `xml:"masteryEffects,attr"`
		URL            string `xml:"URL"`
		Sockets        struct {
			Sockets []struct {
				NodeID string `xml:"nodeId,attr"`
				ItemID string `xml:"itemId,attr"`
			} `xml:"Socket"`
		} `xml:"Sockets"`
	} `xml:"Spec"`
}

// ParseFile reads and parses a Path of Building export.
func ParseFile(path string) (*Build, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build file: %w", err)
	}
	return Parse(data)
}

// Parse extracts build basics, character stats, skills, equipped items
// and the passive tree from an export. Missing sections degrade to
// "N/A" values rather than errors; only a malformed document or a
// document with no Build element fails.
func Parse(data []byte) (*Build, error) {
	var export xmlExport
	if err := xml.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse build XML: %w", err)
	}
	if export.Build == nil {
		return nil, fmt.Errorf("no Build element found in export")
	}

	build := &Build{
		ClassName:       orNA(export.Build.ClassName),
		AscendClassName: orNA(export.Build.AscendClassName),
		Level:           orNA(export.Build.Level),
		TotalDPS:        totalDPS(export.Build.PlayerStats),
		MainSkillName:   "N/A",
		Stats:           characterStats(export.Build.PlayerStats),
		Tree:            Tree{URL: "N/A"},
	}

	if export.Skills != nil {
		build.Skills, build.MainSkillName = skillGroups(export.Skills)
	} else {
		slog.Debug("Build export has no Skills element")
	}
	if export.Items != nil {
		build.Items = equippedItems(export.Items, export.Tree)
	}
	if export.Tree != nil && len(export.Tree.Specs) > 0 {
		spec := export.Tree.Specs[0]
		if spec.URL != "" {
			build.Tree.URL = strings.TrimSpace(spec.URL)
		}
		if spec.Nodes != "" {
			build.Tree.AllocatedNodes = strings.Split(spec.Nodes, ",")
		}
		build.Tree.MasteryEffects = spec.MasteryEffects
	}

	return build, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// totalDPS prefers TotalDPS, falls back to CombinedDPS.
func totalDPS(stats []xmlPlayerStat) string {
	combined := ""
	for _, stat := range stats {
		switch stat.Stat {
		case "TotalDPS":
			return stat.Value
		case "CombinedDPS":
			combined = stat.Value
		}
	}
	return orNA(combined)
}

func characterStats(playerStats []xmlPlayerStat) map[string]string {
	byAttr := make(map[string]string, len(playerStats))
	for _, stat := range playerStats {
		byAttr[stat.Stat] = stat.Value
	}

	stats := make(map[string]string, len(statOrder))
	for _, entry := range statOrder {
		if value, ok := byAttr[entry.Attr]; ok {
			stats[entry.Display] = value
		} else {
			stats[entry.Display] = "N/A"
		}
	}
	return stats
}

// skillGroups flattens all skill sets. The main skill name is the first
// gem of the group flagged mainActiveSkill.
func skillGroups(skills *xmlSkills) ([]SkillGroup, string) {
	var groups []SkillGroup
	mainSkill := "N/A"

	for _, set := range skills.SkillSets {
		for _, skill := range set.Skills {
			group := SkillGroup{
				Label:   skill.Label,
				Enabled: skill.Enabled == "true",
				IsMain:  skill.MainActiveSkill == "1",
				Source:  orDefault(skill.Source, "Socketed"),
			}
			for _, gem := range skill.Gems {
				group.Gems = append(group.Gems, Gem{
					Name:    gem.NameSpec,
					Level:   gem.Level,
					Quality: gem.Quality,
					SkillID: gem.SkillID,
					Enabled: gem.Enabled == "true",
				})
			}
			if group.IsMain && len(group.Gems) > 0 {
				mainSkill = orDefault(group.Gems[0].Name, "Unknown Main Skill")
			}
			if len(group.Gems) > 0 {
				groups = append(groups, group)
			}
		}
	}
	return groups, mainSkill
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func equippedItems(items *xmlItems, tree *xmlTree) []Item {
	slotByItemID := make(map[string]string)
	for _, set := range items.ItemSets {
		for _, slot := range set.Slots {
			if slot.ItemID != "" && slot.ItemID != "0" {
				slotByItemID[slot.ItemID] = slot.Name
			}
		}
	}
	if tree != nil {
		for _, spec := range tree.Specs {
			for _, socket := range spec.Sockets.Sockets {
				if socket.ItemID == "" || socket.ItemID == "0" {
					continue
				}
				if _, taken := slotByItemID[socket.ItemID]; !taken {
					slotByItemID[socket.ItemID] = fmt.Sprintf("Jewel Socket (Tree Node %s)", socket.NodeID)
				}
			}
		}
	}

	var parsed []Item
	for _, raw := range items.Items {
		lines := itemLines(raw.Raw)
		if len(lines) == 0 {
			continue
		}

		item := Item{
			ID:       raw.ID,
			Slot:     orDefault(slotByItemID[raw.ID], "Unknown Slot"),
			Name:     "Unknown Item",
			BaseType: "Unknown Base",
			Rarity:   "Unknown",
		}
		parseItemText(&item, lines)
		parsed = append(parsed, item)
	}
	return parsed
}

func itemLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseItemText works through the free-text block: rarity line, then
// name, then for rare/unique items a base type line, then modifiers.
// The name/base split is heuristic since the format carries no markers.
func parseItemText(item *Item, lines []string) {
	idx := 0
	if strings.HasPrefix(lines[idx], "Rarity:") {
		item.Rarity = strings.TrimSpace(strings.TrimPrefix(lines[idx], "Rarity:"))
		idx++
	}
	if idx >= len(lines) {
		return
	}

	item.Name = lines[idx]
	idx++

	if (item.Rarity == "RARE" || item.Rarity == "UNIQUE") && idx < len(lines) {
		if candidate := lines[idx]; !hasNonModPrefix(candidate) && !looksLikeMod(candidate) {
			item.BaseType = candidate
			idx++
		}
	}

	for ; idx < len(lines); idx++ {
		line := lines[idx]
		if hasNonModPrefix(line) {
			continue
		}
		if item.Rarity == "RARE" || item.Rarity == "UNIQUE" || looksLikeMod(line) {
			item.Mods = append(item.Mods, line)
		}
	}
}

func hasNonModPrefix(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range nonModPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func looksLikeMod(line string) bool {
	for _, keyword := range modKeywords {
		if strings.Contains(line, keyword) {
			return true
		}
	}
	return false
}
