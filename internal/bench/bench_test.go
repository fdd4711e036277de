package bench

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"wowsim-core/internal/specs"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		name string
		run  Run
		err  bool
	}{
		{line: "BenchmarkWarlockDestruction-8   \t     120\t   9512345 ns/op", name: "warlock_destruction", run: Run{120, 9512345}},
		{line: "BenchmarkTrainingDummy \t 3000\t 402113 ns/op\t 1200 B/op", name: "training_dummy", run: Run{3000, 402113}},
		{line: "BenchmarkWarriorFury-4  12  abc ns/op", name: "warrior_fury", err: true},
		{line: "BenchmarkWarriorFury-4  12", err: true},
		{line: "ok  \twowsim-core/internal/specs\t3.2s", err: true},
	}
	for _, tc := range tests {
		name, run, err := ParseLine(tc.line)
		if tc.err {
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("%q: err = %v, want ErrMalformedLine", tc.line, err)
			}
			if name != tc.name {
				t.Errorf("%q: name = %q, want %q", tc.line, name, tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.line, err)
			continue
		}
		if name != tc.name || run != tc.run {
			t.Errorf("%q: got %s %+v", tc.line, name, run)
		}
	}
}

func TestParseOutputSkipsMalformedSpec(t *testing.T) {
	out := `goos: linux
BenchmarkWarlockDestruction-8   100   10000000 ns/op
BenchmarkWarriorFury-8          200   5000000 ns/op
BenchmarkWarlockDestruction-8   100   oops ns/op
BenchmarkWarriorFury-8          200   7000000 ns/op
PASS
`
	runs, errs, err := ParseOutput(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 {
		t.Errorf("errs = %v", errs)
	}
	if _, ok := runs["warlock_destruction"]; ok {
		t.Error("malformed spec was kept")
	}
	if len(runs["warrior_fury"]) != 2 {
		t.Errorf("warrior runs = %+v", runs["warrior_fury"])
	}
}

func TestSummarizeAndReport(t *testing.T) {
	a, err := Summarize("a", []Run{{1, 10}, {1, 20}, {1, 30}})
	if err != nil {
		t.Fatal(err)
	}
	if a.Avg != 20 || a.Dev != 0.5 || math.Abs(a.StdDev-8.165) > 0.001 {
		t.Errorf("summary = %+v", a)
	}
	b, _ := Summarize("b", []Run{{1, 40}, {1, 40}})
	r := NewReport("base", []*SpecResult{a, b})
	if r.TotalAvg != 30 || r.DevMax != 0.5 || r.StdDevMax != a.StdDev {
		t.Errorf("report = %+v", r)
	}
	if _, err := Summarize("empty", nil); err == nil {
		t.Error("expected no-data error")
	}
}

func TestCompare(t *testing.T) {
	old := NewReport("old", []*SpecResult{{Name: "a", Avg: 100}, {Name: "gone", Avg: 50}})
	cur := NewReport("new", []*SpecResult{{Name: "a", Avg: 80}, {Name: "added", Avg: 10}})
	c := Compare(old, cur)
	if len(c.Specs) != 3 {
		t.Fatalf("specs = %+v", c.Specs)
	}
	byName := map[string]SpecDelta{}
	for _, d := range c.Specs {
		byName[d.Name] = d
	}
	if math.Abs(byName["a"].Change+0.2) > 1e-9 {
		t.Errorf("a change = %v", byName["a"].Change)
	}
	if byName["gone"].Missing != "new" || byName["added"].Missing != "old" {
		t.Errorf("missing = %+v", byName)
	}
	var buf bytes.Buffer
	c.Print(&buf)
	if !strings.Contains(buf.String(), "-20.0%") {
		t.Errorf("comparison output:\n%s", buf.String())
	}
}

func TestRunSpecs(t *testing.T) {
	if testing.Short() {
		t.Skip("runs real benchmarks")
	}
	cat, err := specs.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	r, errs, err := RunSpecs(context.Background(), cat, Options{
		Label: "test",
		Specs: []string{"training_dummy", "unknown"},
		Count: 1,
		Log:   log,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], specs.ErrUnknownSpec) {
		t.Errorf("errs = %v", errs)
	}
	sr := r.Results["training_dummy"]
	if sr == nil || sr.Count != 1 || sr.Avg <= 0 {
		t.Errorf("result = %+v", sr)
	}
}
