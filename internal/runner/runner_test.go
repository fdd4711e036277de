package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"wowsim-core/internal/config"
	"wowsim-core/internal/engine"
	"wowsim-core/internal/specs"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setup(t *testing.T, name string) (*config.Bundle, *specs.Catalog, *engine.Simulator) {
	t.Helper()
	cat, err := specs.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	spec, err := cat.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	b := config.ForSpec(spec)
	b.Constants.StatConversions.BaseSpellCritPercent = 0
	sim, err := engine.Setup(b, cat)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return b, cat, sim
}

func TestRunBatchDummy(t *testing.T) {
	_, _, sim := setup(t, "training_dummy")
	var combat bytes.Buffer
	br, err := RunBatch(context.Background(), sim, Options{
		Iterations: 8,
		Workers:    4,
		Seed:       100,
		Label:      "dummy",
		CombatLog:  &combat,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if br.Completed != 8 || len(br.Failures) != 0 || br.Canceled {
		t.Fatalf("completed=%d failures=%v canceled=%v", br.Completed, br.Failures, br.Canceled)
	}
	if math.Abs(br.DPS.Mean-40000.0/60) > 1e-9 || br.DPS.StdDev > 1e-9 {
		t.Errorf("dps = %+v", br.DPS)
	}
	if got := br.Abilities["strike"].Casts; got != 320 {
		t.Errorf("strike casts = %d, want 320", got)
	}
	for i, r := range br.Results {
		if r.Seed != 100+int64(i) {
			t.Errorf("result %d has seed %d", i, r.Seed)
		}
	}
	if br.RunID == "" || br.Spec != "training_dummy" {
		t.Errorf("run id %q spec %q", br.RunID, br.Spec)
	}
	if n := strings.Count(combat.String(), "--- Iteration seed="); n != 1 {
		t.Errorf("combat log covers %d iterations, want 1", n)
	}
	if !strings.Contains(combat.String(), "seed=100 ") {
		t.Error("combat log is not from iteration 0")
	}
}

func TestRunBatchReproducible(t *testing.T) {
	_, _, sim := setup(t, "warlock_destruction")
	opts := Options{Iterations: 6, Workers: 3, Seed: 5, Logger: quietLogger()}
	first, err := RunBatch(context.Background(), sim, opts)
	if err != nil {
		t.Fatal(err)
	}
	opts.Workers = 1
	second, err := RunBatch(context.Background(), sim, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.DPS != second.DPS {
		t.Errorf("worker count changed results: %+v vs %+v", first.DPS, second.DPS)
	}
}

func TestRunBatchCanceled(t *testing.T) {
	_, _, sim := setup(t, "training_dummy")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	br, err := RunBatch(ctx, sim, Options{Iterations: 4, Workers: 2, Logger: quietLogger()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if br == nil || !br.Canceled || br.Completed != 0 {
		t.Fatalf("batch = %+v", br)
	}
}

func TestRunBatchRejectsZeroIterations(t *testing.T) {
	_, _, sim := setup(t, "training_dummy")
	if _, err := RunBatch(context.Background(), sim, Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPrintSummary(t *testing.T) {
	_, _, sim := setup(t, "training_dummy")
	br, err := RunBatch(context.Background(), sim, Options{Iterations: 2, Workers: 1, Label: "dummy", Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	PrintSummary(&out, br, sim.Registry)
	for _, want := range []string{"Simulation Results: dummy (training_dummy)", "Total DPS: 666.67", "Strike", "Total Casts: 40.0"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary lacks %q:\n%s", want, out.String())
		}
	}
}

func TestStatWeights(t *testing.T) {
	b, cat, _ := setup(t, "warlock_destruction")
	deltas := DefaultDeltas(b)
	if len(deltas) == 0 || deltas[0].Stat != "spell_power" {
		t.Fatalf("deltas = %+v", deltas)
	}
	opts := Options{Iterations: 10, Workers: 2, Seed: 3, Logger: quietLogger()}
	ws, err := StatWeights(context.Background(), b, cat, opts, []StatDelta{{Stat: "spell_power", Delta: 200}})
	if err != nil {
		t.Fatalf("StatWeights: %v", err)
	}
	if len(ws.Weights) != 1 || ws.Weights[0].Weight <= 0 {
		t.Errorf("weights = %+v", ws.Weights)
	}
	if b.Player.Stats["spell_power"] != 600 {
		t.Error("weights mutated the base bundle")
	}

	if _, err := StatWeights(context.Background(), b, cat, opts, []StatDelta{{Stat: "luck", Delta: 1}}); err == nil {
		t.Error("expected unknown stat error")
	}
}
