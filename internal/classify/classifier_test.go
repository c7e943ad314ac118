package classify_test

import (
	"testing"

	"assetopt/internal/classify"
)

func TestClassifyDefaultTable(t *testing.T) {
	tests := []struct {
		name string
		want classify.Category
	}{
		{"soldier_idle.png", classify.Soldier},
		{"EnemyRunning.PNG", classify.Soldier},
		{"dipterocarp.png", classify.Tree},
		{"CoconutPalm.png", classify.Tree},
		{"fern_01.png", classify.Foliage},
		{"elephant-ear.png", classify.Foliage},
		{"skybox.png", classify.Skybox},
		{"forestfloor.png", classify.Texture},
		{"ground_mud.png", classify.Texture},
		{"first-person-rifle.png", classify.UI},
		{"ui_crosshair.png", classify.UI},
		{"mushroom.png", classify.Misc},
		{"jungle1.wav", classify.AmbientAudio},
		{"ambient_rain.wav", classify.AmbientAudio},
		{"playerGunshot.wav", classify.ImpactAudio},
		{"EnemyDeath.wav", classify.ImpactAudio},
		{"music.wav", classify.Misc},
		{"assets/nested/palm.png", classify.Tree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify.Classify(tt.name); got != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	// tree precedes texture in the default table.
	if got := classify.Classify("tree_floor.png"); got != classify.Tree {
		t.Fatalf("expected tree for a name matching tree and floor, got %s", got)
	}
	// soldier precedes foliage.
	if got := classify.Classify("enemy_in_grass.png"); got != classify.Soldier {
		t.Fatalf("expected soldier, got %s", got)
	}

	reordered, err := classify.New([]classify.Rule{
		{Category: classify.Texture, Media: classify.MediaImage, Substrings: []string{"floor"}},
		{Category: classify.Tree, Media: classify.MediaImage, Substrings: []string{"tree"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := reordered.Classify("tree_floor.png"); got != classify.Texture {
		t.Fatalf("expected texture when floor rule is first, got %s", got)
	}
}

func TestClassifyAudioIgnoresImageRules(t *testing.T) {
	// "enemy" is an image rule; audio names only see audio rules.
	if got := classify.Classify("enemy_footsteps.wav"); got != classify.Misc {
		t.Fatalf("expected misc for audio name without audio rule match, got %s", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	names := []string{"tree.png", "a.png", "", "UI.png", "jungle.ogg", "x.unknown"}
	for _, name := range names {
		first := classify.Classify(name)
		for i := 0; i < 5; i++ {
			if got := classify.Classify(name); got != first {
				t.Fatalf("Classify(%q) changed from %s to %s", name, first, got)
			}
		}
	}
}

func TestExplainReportsRuleIndex(t *testing.T) {
	c := classify.Default()
	if cat, idx := c.Explain("skybox_day.png"); cat != classify.Skybox || idx != 3 {
		t.Fatalf("Explain = (%s, %d), want (skybox, 3)", cat, idx)
	}
	if cat, idx := c.Explain("rock.png"); cat != classify.Misc || idx != -1 {
		t.Fatalf("Explain = (%s, %d), want (misc, -1)", cat, idx)
	}
}

func TestNewRejectsInvalidRules(t *testing.T) {
	cases := [][]classify.Rule{
		nil,
		{{Category: "weapon", Media: classify.MediaImage, Substrings: []string{"gun"}}},
		{{Category: classify.Tree, Media: "video", Substrings: []string{"tree"}}},
		{{Category: classify.Tree, Media: classify.MediaImage, Substrings: []string{" "}}},
	}
	for i, rules := range cases {
		if _, err := classify.New(rules); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestRulesReturnsCopy(t *testing.T) {
	c := classify.Default()
	rules := c.Rules()
	rules[0].Substrings[0] = "mutated"
	if got := c.Classify("soldier.png"); got != classify.Soldier {
		t.Fatalf("mutating Rules() result changed classification: %s", got)
	}
}

func TestParseAndMedia(t *testing.T) {
	if c, err := classify.Parse(" Impact-Audio "); err != nil || c != classify.ImpactAudio {
		t.Fatalf("Parse = %v, %v", c, err)
	}
	if _, err := classify.Parse("weapon"); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if classify.MediaOf("a.WAV") != classify.MediaAudio || classify.MediaOf("a.png") != classify.MediaImage {
		t.Fatal("unexpected media inference")
	}
	if classify.Supported("a.jpg") || !classify.Supported("a.flac") {
		t.Fatal("unexpected Supported result")
	}
}
