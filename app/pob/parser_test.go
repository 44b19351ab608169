package pob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<PathOfBuilding>
	<Build className="Sorceress" ascendClassName="Stormweaver" level="92" mainSocketGroup="1">
		<PlayerStat stat="TotalDPS" value="154321.5"/>
		<PlayerStat stat="Life" value="2100"/>
		<PlayerStat stat="Mana" value="950"/>
		<PlayerStat stat="FireResist" value="75"/>
	</Build>
	<Skills>
		<SkillSet id="1">
			<Skill label="Body Armour" enabled="true" mainActiveSkill="1" source="">
				<Gem nameSpec="Spark" level="20" quality="20" skillId="SparkPlayer" enabled="true"/>
				<Gem nameSpec="Pierce" level="18" quality="0" skillId="SupportPierce" enabled="true"/>
			</Skill>
			<Skill label="Gloves" enabled="true" mainActiveSkill="0" source="">
				<Gem nameSpec="Flame Wall" level="15" quality="0" skillId="FlameWallPlayer" enabled="false"/>
			</Skill>
			<Skill label="Empty" enabled="true" mainActiveSkill="0" source=""/>
		</SkillSet>
	</Skills>
	<Items>
		<Item id="1">
			Rarity: UNIQUE
			The Searing Touch
			Lathi
			Item Level: 72
			60% increased Spell Damage
			30% increased Cast Speed
		</Item>
		<Item id="2">
			Rarity: MAGIC
			Effervescent Ultimate Mana Flask of the Continuous
			25% increased Charge Recovery
		</Item>
		<Item id="3">
			Rarity: RARE
			Blight Glimmer
			Emerald
			12% increased Projectile Damage
		</Item>
		<ItemSet id="1">
			<Slot name="Weapon 1" itemId="1"/>
			<Slot name="Flask 1" itemId="2"/>
		</ItemSet>
	</Items>
	<Tree>
		<Spec nodes="100,200,300" masteryEffects="{400,1}">
			<URL>https://example.com/passive-tree/AAAA</URL>
			<Sockets>
				<Socket nodeId="5555" itemId="3"/>
			</Sockets>
		</Spec>
	</Tree>
</PathOfBuilding>`

func TestParse_BuildBasics(t *testing.T) {
	build, err := Parse([]byte(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if build.ClassName != "Sorceress" || build.AscendClassName != "Stormweaver" {
		t.Errorf("Class = %s/%s", build.ClassName, build.AscendClassName)
	}
	if build.Level != "92" {
		t.Errorf("Level = %q", build.Level)
	}
	if build.TotalDPS != "154321.5" {
		t.Errorf("TotalDPS = %q", build.TotalDPS)
	}
}

func TestParse_CharacterStats(t *testing.T) {
	build, err := Parse([]byte(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if build.Stats["Life"] != "2100" {
		t.Errorf("Life = %q", build.Stats["Life"])
	}
	if build.Stats["FireResist"] != "75" {
		t.Errorf("FireResist = %q", build.Stats["FireResist"])
	}
	// Stats absent from the export default to N/A.
	if build.Stats["ChaosResist"] != "N/A" {
		t.Errorf("ChaosResist = %q, expected N/A", build.Stats["ChaosResist"])
	}
}

func TestParse_Skills(t *testing.T) {
	build, err := Parse([]byte(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if build.MainSkillName != "Spark" {
		t.Errorf("MainSkillName = %q", build.MainSkillName)
	}
	// The gem-less skill group is dropped.
	if len(build.Skills) != 2 {
		t.Fatalf("Got %d skill groups, expected 2", len(build.Skills))
	}
	main := build.Skills[0]
	if !main.IsMain || len(main.Gems) != 2 {
		t.Errorf("Main group = %+v", main)
	}
	if main.Source != "Socketed" {
		t.Errorf("Source = %q, expected Socketed default", main.Source)
	}
	if build.Skills[1].Gems[0].Enabled {
		t.Error("Disabled gem reported as enabled")
	}
}

func TestParse_Items(t *testing.T) {
	build, err := Parse([]byte(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(build.Items) != 3 {
		t.Fatalf("Got %d items, expected 3", len(build.Items))
	}

	unique := build.Items[0]
	if unique.Slot != "Weapon 1" {
		t.Errorf("Slot = %q", unique.Slot)
	}
	if unique.Rarity != "UNIQUE" || unique.Name != "The Searing Touch" || unique.BaseType != "Lathi" {
		t.Errorf("Unique item = %+v", unique)
	}
	if len(unique.Mods) != 2 || unique.Mods[0] != "60% increased Spell Damage" {
		t.Errorf("Unique mods = %v", unique.Mods)
	}

	flask := build.Items[1]
	if flask.Rarity != "MAGIC" || flask.BaseType != "Unknown Base" {
		t.Errorf("Magic item = %+v", flask)
	}
	if len(flask.Mods) != 1 {
		t.Errorf("Magic mods = %v", flask.Mods)
	}

	// The jewel has no ItemSet slot; it maps through the tree socket.
	jewel := build.Items[2]
	if jewel.Slot != "Jewel Socket (Tree Node 5555)" {
		t.Errorf("Jewel slot = %q", jewel.Slot)
	}
	if jewel.Name != "Blight Glimmer" || jewel.BaseType != "Emerald" {
		t.Errorf("Jewel = %+v", jewel)
	}
}

func TestParse_Tree(t *testing.T) {
	build, err := Parse([]byte(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if build.Tree.URL != "https://example.com/passive-tree/AAAA" {
		t.Errorf("Tree URL = %q", build.Tree.URL)
	}
	if len(build.Tree.AllocatedNodes) != 3 {
		t.Errorf("AllocatedNodes = %v", build.Tree.AllocatedNodes)
	}
	if build.Tree.MasteryEffects != "{400,1}" {
		t.Errorf("MasteryEffects = %q", build.Tree.MasteryEffects)
	}
}

func TestParse_MissingSections(t *testing.T) {
	build, err := Parse([]byte(`<PathOfBuilding><Build className="Witch"/></PathOfBuilding>`))
	if err != nil {
		t.Fatalf("Parse should degrade for missing sections: %v", err)
	}
	if build.Level != "N/A" || build.TotalDPS != "N/A" || build.MainSkillName != "N/A" {
		t.Errorf("Expected N/A defaults, got %+v", build)
	}
	if build.Tree.URL != "N/A" {
		t.Errorf("Tree URL = %q, expected N/A", build.Tree.URL)
	}
	if build.Stats["Life"] != "N/A" {
		t.Errorf("Life = %q, expected N/A", build.Stats["Life"])
	}
}

func TestParse_NoBuildElement(t *testing.T) {
	if _, err := Parse([]byte(`<PathOfBuilding></PathOfBuilding>`)); err == nil {
		t.Error("Expected error when Build element is missing")
	}
}

func TestParse_MalformedXML(t *testing.T) {
	if _, err := Parse([]byte(`<PathOfBuilding><Build`)); err == nil {
		t.Error("Expected error for malformed XML")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.xml")
	if err := os.WriteFile(path, []byte(sampleExport), 0o644); err != nil {
		t.Fatal(err)
	}

	build, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if build.ClassName != "Sorceress" {
		t.Errorf("ClassName = %q", build.ClassName)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFormatForPrompt(t *testing.T) {
	build, err := Parse([]byte(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	prompt := build.FormatForPrompt()
	for _, want := range []string{
		"### Path of Exile 2 Build Analysis Data ###",
		"Class Name: Sorceress",
		"Main Skill Name: Spark",
		"(MAIN SKILL)",
		"- Spark (Lvl 20 Q20)",
		"Slot: Weapon 1",
		"Allocated Node IDs (Count): 3",
		"### END OF BUILD DATA ###",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
	// The disabled Flame Wall gem is not reported.
	if strings.Contains(prompt, "Flame Wall") {
		t.Error("Prompt includes a disabled gem")
	}
}
