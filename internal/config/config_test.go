package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wowsim-core/internal/specs"
)

func TestLoadConfigRepositoryFiles(t *testing.T) {
	b, err := LoadConfig("../../configs")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if b.Player.Spec != "warlock_destruction" || b.Simulation.Seed != 42 {
		t.Errorf("player = %+v, simulation = %+v", b.Player, b.Simulation)
	}
	if b.Duration().Seconds() != 300 || len(b.Encounter.Targets) != 1 {
		t.Errorf("encounter = %+v", b.Encounter)
	}
	if b.Simulation.Workers <= 0 {
		t.Errorf("workers default not applied: %d", b.Simulation.Workers)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigUsesPresetEncounter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "player.yaml", "character: {name: Bob}\nspec: training_dummy\nresources:\n  mana: {max: 100}\n")
	b, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(b.Encounter.Targets) != 1 || b.Encounter.Targets[0].Name != "Training Dummy" {
		t.Errorf("targets = %+v", b.Encounter.Targets)
	}
	if b.Simulation.Iterations != 1000 {
		t.Errorf("iterations = %d", b.Simulation.Iterations)
	}
	if b.Constants.GCD.Base != 1.5 {
		t.Errorf("default constants not applied: %+v", b.Constants.GCD)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil || !strings.Contains(err.Error(), "player.yaml") {
		t.Errorf("missing player.yaml: %v", err)
	}

	dir := t.TempDir()
	writeFile(t, dir, "player.yaml", "spec: training_dummy\nresources:\n  focus: {max: 100}\n")
	writeFile(t, dir, "encounter.yaml", "duration_seconds: -5\ntargets: [{name: X}]\n")
	_, err := LoadConfig(dir)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"focus", "encounter"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q lacks %q", err, want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	cat, err := specs.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	spec, _ := cat.Get("training_dummy")
	b := ForSpec(spec)
	err = ApplyEnv(b, map[string]string{
		"SIM_ITERATIONS": "25",
		"SIM_SEED":       "9",
		"SIM_DURATION":   "30",
		"SIM_LABEL":      "ci",
	})
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if b.Simulation.Iterations != 25 || b.Simulation.Seed != 9 || b.Simulation.Label != "ci" {
		t.Errorf("simulation = %+v", b.Simulation)
	}
	if b.Encounter.DurationSeconds != 30 {
		t.Errorf("duration = %.0f", b.Encounter.DurationSeconds)
	}
	if spec.Data().Preset.Encounter.DurationSeconds != 60 {
		t.Error("override leaked into the preset")
	}

	if err := ApplyEnv(ForSpec(spec), map[string]string{"SIM_WORKERS": "lots"}); err == nil {
		t.Error("expected parse error")
	}
	if err := ApplyEnv(ForSpec(spec), map[string]string{"SIM_ITERATIONS": "0"}); err == nil {
		t.Error("expected validation error")
	}
}

func TestCloneIsolatesStats(t *testing.T) {
	b := &Bundle{}
	b.Player.Stats = map[string]float64{"spell_power": 100}
	c := b.Clone()
	c.Player.Stats["spell_power"] = 200
	if b.Player.Stats["spell_power"] != 100 {
		t.Error("clone shares stats map")
	}
}

func TestForSpecCopiesPreset(t *testing.T) {
	cat, err := specs.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	spec, _ := cat.Get("warlock_destruction")
	preset := spec.Data().Preset
	b := ForSpec(spec)
	b.Player.Stats["spell_power"] += 500
	mana := b.Player.Resources["mana"]
	mana.Max = 1
	b.Player.Resources["mana"] = mana
	b.Encounter.Targets[0].Health = 123

	if preset.Stats["spell_power"] != 600 {
		t.Errorf("preset spell_power = %.0f, want 600", preset.Stats["spell_power"])
	}
	if preset.Resources["mana"].Max == 1 {
		t.Error("bundle shares the preset resources")
	}
	if preset.Encounter.Targets[0].Health == 123 {
		t.Error("bundle shares the preset targets")
	}
}
