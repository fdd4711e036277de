package apl

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

type fakeNames struct{}

func (fakeNames) HasAbility(id string) bool {
	switch id {
	case "immolate", "incinerate", "conflagrate", "life_tap", "chaos_bolt":
		return true
	}
	return false
}

func (fakeNames) HasAura(id string) bool {
	return id == "immolate" || id == "backdraft"
}

func (fakeNames) HasResource(name string) bool { return name == "mana" || name == "health" }

type fakeContext struct {
	debuffs    map[string]time.Duration
	buffs      map[string]int
	mana       float64
	cooldowns  map[string]time.Duration
	health     float64
	healthRate float64
	elapsed    time.Duration
	remaining  time.Duration
}

func (f *fakeContext) BuffActive(name string) bool                 { return f.buffs[name] > 0 }
func (f *fakeContext) BuffRemaining(name string) time.Duration     { return 10 * time.Second }
func (f *fakeContext) BuffCharges(name string) int                 { return f.buffs[name] }
func (f *fakeContext) DebuffActive(name string) bool               { _, ok := f.debuffs[name]; return ok }
func (f *fakeContext) DebuffRemaining(name string) time.Duration   { return f.debuffs[name] }
func (f *fakeContext) ResourcePercent(resource string) float64     { return f.mana }
func (f *fakeContext) ResourceAmount(resource string) float64      { return f.mana * 1000 }
func (f *fakeContext) CooldownReady(name string) bool              { return f.cooldowns[name] == 0 }
func (f *fakeContext) CooldownRemaining(name string) time.Duration { return f.cooldowns[name] }
func (f *fakeContext) TargetHealthPercent() float64                { return f.health }
func (f *fakeContext) TargetHealthRate() float64                   { return f.healthRate }
func (f *fakeContext) TimeElapsed() time.Duration                  { return f.elapsed }
func (f *fakeContext) TimeRemaining() time.Duration                { return f.remaining }
func (f *fakeContext) CanCast(name string) bool                    { return name != "chaos_bolt" }

const destroRotation = `
name: test
variables:
  refresh: 2
rotation:
  - action: cast
    spell: immolate
    when:
      dot_remaining:
        spell: immolate
        lt_seconds: '${refresh}'
  - action: cast
    spell: conflagrate
    when:
      all:
        - debuff_active: {debuff: immolate}
        - cooldown_ready: {spell: conflagrate}
  - action: cast
    spell: life_tap
    when:
      resource_percent: {resource: mana, lt: 0.2}
  - action: cast
    spell: incinerate
`

func compileString(t *testing.T, src string) *CompiledRotation {
	t.Helper()
	file, err := ParseRotation([]byte(src))
	if err != nil {
		t.Fatalf("ParseRotation: %v", err)
	}
	rot, err := Compile(file, fakeNames{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return rot
}

func firstMatch(rot *CompiledRotation, ctx EvaluationContext) string {
	for _, a := range rot.Actions {
		if a.Condition.Eval(ctx) {
			return a.Spell
		}
	}
	return ""
}

func TestPriorityOrder(t *testing.T) {
	rot := compileString(t, destroRotation)
	if len(rot.Actions) != 4 || rot.Actions[3].Index != 3 {
		t.Fatalf("compiled %d actions", len(rot.Actions))
	}
	ctx := &fakeContext{debuffs: map[string]time.Duration{}, mana: 0.5}
	if got := firstMatch(rot, ctx); got != "immolate" {
		t.Errorf("missing dot: got %s", got)
	}
	ctx.debuffs["immolate"] = 12 * time.Second
	if got := firstMatch(rot, ctx); got != "conflagrate" {
		t.Errorf("conflagrate ready: got %s", got)
	}
	ctx.cooldowns = map[string]time.Duration{"conflagrate": 3 * time.Second}
	if got := firstMatch(rot, ctx); got != "incinerate" {
		t.Errorf("filler: got %s", got)
	}
	ctx.mana = 0.1
	if got := firstMatch(rot, ctx); got != "life_tap" {
		t.Errorf("low mana: got %s", got)
	}
}

func TestCompileRejectsUnknownNames(t *testing.T) {
	cases := map[string]string{
		"ability":  "rotation:\n  - action: cast\n    spell: shadow_bolt\n",
		"aura":     "rotation:\n  - action: cast\n    spell: immolate\n    when: {buff_active: {buff: pyroclasm}}\n",
		"resource": "rotation:\n  - action: cast\n    spell: immolate\n    when: {resource_percent: {resource: focus, lt: 0.5}}\n",
		"field":    "rotation:\n  - action: cast\n    spell: immolate\n    when: {dot_remaining: {spell: immolate, less_than: 2}}\n",
		"variable": "rotation:\n  - action: cast\n    spell: immolate\n    when: {dot_remaining: {spell: immolate, lt_seconds: '${nope}'}}\n",
		"action":   "rotation:\n  - action: dance\n",
		"step":     "rotation:\n  - action: sequence\n    steps:\n      - action: wait\n        duration_seconds: 1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			file, err := ParseRotation([]byte(src))
			if err != nil {
				t.Fatalf("ParseRotation: %v", err)
			}
			if _, err := Compile(file, fakeNames{}); err == nil {
				t.Fatal("expected compile error")
			} else if !strings.Contains(err.Error(), "rotation entry 0") {
				t.Errorf("error lacks entry index: %v", err)
			}
		})
	}
}

func TestActionsAndMetrics(t *testing.T) {
	rot := compileString(t, `
rotation:
  - action: sequence
    reset: true
    steps:
      - {action: cast, spell: chaos_bolt}
      - {action: cast, spell: incinerate}
  - action: wait_for
    spell: chaos_bolt
    when: {cooldown_remaining: {spell: chaos_bolt, lte_seconds: 1}}
  - action: wait
    duration_seconds: 0.5
    when:
      any:
        - target_health_percent: {lt: 0.2}
        - time_remaining: {lt_seconds: 5}
  - action: noop
    when:
      not: {can_cast: {spell: chaos_bolt}}
  - action: cast
    spell: incinerate
    when: {charges: {buff: backdraft, gte: 1}}
`)
	acts := rot.Actions
	if acts[0].Type != ActionSequence || len(acts[0].Steps) != 2 || !acts[0].Reset {
		t.Fatalf("sequence compiled as %+v", acts[0])
	}
	if acts[1].Type != ActionWaitFor || acts[2].Duration != 500*time.Millisecond || acts[3].Type != ActionNoop {
		t.Fatalf("unexpected actions %v %v %v", acts[1].Type, acts[2].Duration, acts[3].Type)
	}
	ctx := &fakeContext{health: 0.5, remaining: time.Minute, cooldowns: map[string]time.Duration{"chaos_bolt": time.Second}}
	if !acts[1].Condition.Eval(ctx) {
		t.Error("cooldown_remaining lte 1s should match 1s")
	}
	if acts[2].Condition.Eval(ctx) {
		t.Error("wait should not trigger")
	}
	ctx.remaining = 4 * time.Second
	if !acts[2].Condition.Eval(ctx) {
		t.Error("time_remaining lt 5s should match")
	}
	if !acts[3].Condition.Eval(ctx) {
		t.Error("not can_cast chaos_bolt should match")
	}
	if acts[4].Condition.Eval(ctx) {
		t.Error("charges without buff should not match")
	}
	ctx.buffs = map[string]int{"backdraft": 2}
	if !acts[4].Condition.Eval(ctx) {
		t.Error("charges gte 1 should match")
	}
}

func TestLoadRotationFSImports(t *testing.T) {
	fsys := fstest.MapFS{
		"base.yaml": {Data: []byte("variables: {refresh: 3}\nrotation:\n  - {action: cast, spell: immolate, when: {dot_remaining: {spell: immolate, lt_seconds: '${refresh}'}}}\n")},
		"main.yaml": {Data: []byte("imports: [base.yaml]\nrotation:\n  - {action: cast, spell: incinerate}\n")},
		"a.yaml":    {Data: []byte("imports: [b.yaml]\n")},
		"b.yaml":    {Data: []byte("imports: [a.yaml]\n")},
	}
	file, err := LoadRotationFS(fsys, "main.yaml")
	if err != nil {
		t.Fatalf("LoadRotationFS: %v", err)
	}
	if len(file.Rotation) != 2 || file.Rotation[0].Spell != "immolate" {
		t.Fatalf("imports not merged first: %+v", file.Rotation)
	}
	if _, err := Compile(file, fakeNames{}); err != nil {
		t.Fatalf("imported variables not visible: %v", err)
	}
	if _, err := LoadRotationFS(fsys, "a.yaml"); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected cycle error, got %v", err)
	}
}

func TestNextChange(t *testing.T) {
	rot := compileString(t, `
rotation:
  - {action: cast, spell: incinerate, when: {time_elapsed: {gte_seconds: 5}}}
  - {action: cast, spell: incinerate, when: {time_remaining: {lt_seconds: 10}}}
  - {action: cast, spell: immolate, when: {dot_remaining: {spell: immolate, lt_seconds: 3}}}
  - {action: cast, spell: incinerate, when: {all: [{debuff_active: {debuff: immolate}}, {time_elapsed: {gte_seconds: 10}}]}}
  - {action: cast, spell: conflagrate, when: {not: {cooldown_ready: {spell: conflagrate}}}}
  - {action: cast, spell: life_tap, when: {resource_percent: {resource: mana, lt: 0.2}}}
  - {action: cast, spell: incinerate, when: {debuff_active: {debuff: immolate, max_remaining: 2}}}
`)
	ctx := &fakeContext{
		debuffs:   map[string]time.Duration{"immolate": 8 * time.Second},
		cooldowns: map[string]time.Duration{"conflagrate": 4 * time.Second},
		elapsed:   2 * time.Second,
		remaining: 25 * time.Second,
		mana:      0.5,
	}
	cases := []struct {
		name string
		want time.Duration
		ok   bool
	}{
		{"time_elapsed", 3 * time.Second, true},
		{"time_remaining", 15*time.Second + 1, true},
		{"dot_remaining", 5*time.Second + 1, true},
		{"all", 8 * time.Second, true},
		{"not cooldown_ready", 4 * time.Second, true},
		{"resource_percent", 0, false},
		{"max_remaining", 6 * time.Second, true},
	}
	for i, tc := range cases {
		got, ok := NextChange(rot.Actions[i].Condition, ctx)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: NextChange = %s, %v; want %s, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}

	delete(ctx.debuffs, "immolate")
	if _, ok := NextChange(rot.Actions[2].Condition, ctx); ok {
		t.Error("missing debuff should not wake on its own")
	}
	ctx.remaining = 0
	if _, ok := NextChange(rot.Actions[1].Condition, ctx); ok {
		t.Error("finished fight should not wake")
	}
}

func TestNextChangeFollowsHealthClock(t *testing.T) {
	rot := compileString(t, `
rotation:
  - {action: cast, spell: incinerate, when: {target_health_percent: {lt: 0.2}}}
`)
	cond := rot.Actions[0].Condition
	ctx := &fakeContext{health: 0.5}
	if _, ok := NextChange(cond, ctx); ok {
		t.Fatal("static health should not wake")
	}
	ctx.healthRate = -0.01
	got, ok := NextChange(cond, ctx)
	if !ok || got < 30*time.Second || got > 30*time.Second+1 {
		t.Errorf("NextChange = %s, %v; want about 30s", got, ok)
	}
}
