package pob

// Build is the parsed view of a Path of Building export. Attributes the
// export does not carry stay at "N/A" so downstream formatting never has
// to nil-check.
type Build struct {
	ClassName       string            `json:"class_name"`
	AscendClassName string            `json:"ascend_class_name"`
	Level           string            `json:"level"`
	TotalDPS        string            `json:"total_dps"`
	MainSkillName   string            `json:"main_skill_name"`
	Stats           map[string]string `json:"stats"`
	Skills          []SkillGroup      `json:"skills"`
	Items           []Item            `json:"items"`
	Tree            Tree              `json:"tree"`
}

// SkillGroup is one socket group from the export.
type SkillGroup struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	IsMain  bool   `json:"is_main"`
	Source  string `json:"source"`
	Gems    []Gem  `json:"gems"`
}

type Gem struct {
	Name    string `json:"name"`
	Level   string `json:"level"`
	Quality string `json:"quality"`
	SkillID string `json:"skill_id"`
	Enabled bool   `json:"enabled"`
}

// Item is one equipped item, parsed from the free-text item block.
type Item struct {
	ID       string   `json:"id"`
	Slot     string   `json:"slot"`
	Name     string   `json:"name"`
	BaseType string   `json:"base_type"`
	Rarity   string   `json:"rarity"`
	Mods     []string `json:"mods"`
}

// Tree holds the allocated passive tree.
type Tree struct {
	URL            string   `json:"url"`
	AllocatedNodes []string `json:"allocated_node_ids"`
	MasteryEffects string   `json:"mastery_effects_raw"`
}
