package benchstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wowsim-core/internal/bench"
	"wowsim-core/internal/metrics"
	"wowsim-core/internal/runner"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "bench.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReportRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	a, _ := bench.Summarize("warlock_destruction", []bench.Run{{Iterations: 100, NsPerOp: 10}, {Iterations: 100, NsPerOp: 30}})
	r := bench.NewReport("baseline", []*bench.SpecResult{a})
	r.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveReport(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	if r.ID == "" {
		t.Fatal("report id not assigned")
	}

	got, err := store.LoadReport(ctx, "baseline")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.CreatedAt.Equal(r.CreatedAt) || got.TotalAvg != 20 || got.DevMax != 0.5 {
		t.Errorf("report = %+v", got)
	}
	sr := got.Results["warlock_destruction"]
	if sr == nil || sr.Count != 2 || sr.Runs[1].NsPerOp != 30 {
		t.Errorf("spec = %+v", sr)
	}

	// Saving the same label replaces the previous report.
	b, _ := bench.Summarize("warrior_fury", []bench.Run{{Iterations: 1, NsPerOp: 5}})
	if err := store.SaveReport(ctx, bench.NewReport("baseline", []*bench.SpecResult{b})); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, err = store.LoadReport(ctx, "baseline")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Results) != 1 || got.Results["warrior_fury"] == nil {
		t.Errorf("results after replace = %+v", got.Results)
	}
	labels, err := store.Labels(ctx)
	if err != nil || len(labels) != 1 {
		t.Errorf("labels = %v, %v", labels, err)
	}

	if _, err := store.LoadReport(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBatchRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	br := &runner.BatchResult{
		RunID:      "run-1",
		Label:      "destro",
		Spec:       "warlock_destruction",
		Seed:       42,
		Iterations: 10,
		Completed:  9,
		Failures:   []runner.Failure{{Index: 3, Seed: 45, Error: "boom"}},
		DPS:        metrics.Summary{Count: 9, Mean: 1234.5, StdDev: 20},
		Duration:   180 * time.Second,
	}
	if err := store.SaveBatch(ctx, br); err != nil {
		t.Fatalf("save batch: %v", err)
	}
	got, err := store.LoadBatch(ctx, "run-1")
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if got.DPS.Mean != 1234.5 || got.Duration != br.Duration || len(got.Failures) != 1 {
		t.Errorf("batch = %+v", got)
	}
	if err := store.SaveBatch(ctx, &runner.BatchResult{}); err == nil {
		t.Error("expected error for missing run id")
	}
}
