// Package bench measures simulation throughput per specialization and
// keeps labelled reports that can be compared across changes.
package bench

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"wowsim-core/internal/config"
	"wowsim-core/internal/engine"
	"wowsim-core/internal/metrics"
	"wowsim-core/internal/specs"
)

// ErrMalformedLine is returned for benchmark lines that do not match the
// "Benchmark<Name> <iterations> <ns> ns/op" shape.
var ErrMalformedLine = errors.New("bench: malformed benchmark line")

// Run is one benchmark measurement.
type Run struct {
	Iterations int     `json:"iterations"`
	NsPerOp    float64 `json:"ns_per_op"`
}

// SpecResult summarizes the runs of one specialization.
type SpecResult struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Runs   []Run   `json:"runs"`
	Avg    float64 `json:"avg"`
	Dev    float64 `json:"dev"`
	StdDev float64 `json:"std_dev"`
}

// Report is a labelled set of spec results.
type Report struct {
	ID        string                 `json:"id,omitempty"`
	Label     string                 `json:"label"`
	CreatedAt time.Time              `json:"created_at"`
	Results   map[string]*SpecResult `json:"results"`
	TotalAvg  float64                `json:"total_avg"`
	DevMax    float64                `json:"dev_max"`
	StdDevMax float64                `json:"std_dev_max"`
}

// ParseLine parses one line of `go test -bench` output. The name loses its
// -GOMAXPROCS suffix and is converted to the snake_case spec name, so
// BenchmarkWarlockDestruction-8 reports as warlock_destruction.
func ParseLine(line string) (string, Run, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") || fields[3] != "ns/op" {
		return "", Run{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	name := strings.TrimPrefix(fields[0], "Benchmark")
	if i := strings.LastIndexByte(name, '-'); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			name = name[:i]
		}
	}
	if name == "" {
		return "", Run{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	name = snakeCase(name)
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return name, Run{}, fmt.Errorf("%w: iterations %q", ErrMalformedLine, fields[1])
	}
	ns, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return name, Run{}, fmt.Errorf("%w: ns/op %q", ErrMalformedLine, fields[2])
	}
	return name, Run{Iterations: n, NsPerOp: ns}, nil
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseOutput collects benchmark lines from r. A spec with any malformed
// line is dropped; its error is returned alongside the remaining specs.
func ParseOutput(r io.Reader) (map[string][]Run, []error, error) {
	runs := make(map[string][]Run)
	bad := make(map[string]bool)
	var errs []error
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}
		name, run, err := ParseLine(line)
		if err != nil {
			errs = append(errs, err)
			if name != "" {
				bad[name] = true
			}
			continue
		}
		runs[name] = append(runs[name], run)
	}
	if err := sc.Err(); err != nil {
		return nil, errs, err
	}
	for name := range bad {
		delete(runs, name)
	}
	return runs, errs, nil
}

// Summarize reduces the runs of one spec.
func Summarize(name string, runs []Run) (*SpecResult, error) {
	ns := make([]float64, len(runs))
	for i, r := range runs {
		ns[i] = r.NsPerOp
	}
	s, err := metrics.Summarize(ns)
	if err != nil {
		return nil, fmt.Errorf("bench %s: %w", name, err)
	}
	return &SpecResult{
		Name:   name,
		Count:  len(runs),
		Runs:   runs,
		Avg:    s.Mean,
		Dev:    s.Dev,
		StdDev: s.StdDev,
	}, nil
}

// NewReport combines spec results under label.
func NewReport(label string, results []*SpecResult) *Report {
	r := &Report{
		Label:     label,
		CreatedAt: time.Now().UTC(),
		Results:   make(map[string]*SpecResult, len(results)),
	}
	for _, sr := range results {
		r.Results[sr.Name] = sr
		r.TotalAvg += sr.Avg
		if sr.Dev > r.DevMax {
			r.DevMax = sr.Dev
		}
		if sr.StdDev > r.StdDevMax {
			r.StdDevMax = sr.StdDev
		}
	}
	if len(results) > 0 {
		r.TotalAvg /= float64(len(results))
	}
	return r
}

// Names returns the specialization names in the report, sorted.
func (r *Report) Names() []string {
	out := make([]string, 0, len(r.Results))
	for name := range r.Results {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Iterations returns a benchmark body that runs b.N iterations of sim.
func Iterations(sim *engine.Simulator) func(*testing.B) {
	return func(b *testing.B) {
		ctx := context.Background()
		for i := 0; i < b.N; i++ {
			if _, err := sim.RunIteration(ctx, int64(i)); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// Options controls an in-process benchmark.
type Options struct {
	Label string
	Specs []string
	Count int
	Log   logrus.FieldLogger
}

// RunSpecs benchmarks each named spec's preset Count times through
// testing.Benchmark. A spec that fails to set up is skipped and reported.
func RunSpecs(ctx context.Context, catalog *specs.Catalog, opts Options) (*Report, []error, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	count := opts.Count
	if count <= 0 {
		count = 5
	}
	names := opts.Specs
	if len(names) == 0 {
		names = catalog.Names()
	}

	var (
		results []*SpecResult
		errs    []error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, errs, err
		}
		spec, err := catalog.Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sim, err := engine.Setup(config.ForSpec(spec), catalog)
		if err != nil {
			errs = append(errs, fmt.Errorf("bench %s: %w", name, err))
			continue
		}
		log.WithFields(logrus.Fields{"spec": name, "count": count}).Info("starting benchmark")
		runs := make([]Run, 0, count)
		for i := 0; i < count; i++ {
			br := testing.Benchmark(Iterations(sim))
			if br.N == 0 {
				break
			}
			runs = append(runs, Run{Iterations: br.N, NsPerOp: float64(br.NsPerOp())})
		}
		sr, err := Summarize(name, runs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		log.WithFields(logrus.Fields{"spec": name}).Infof("done: %.3f ms ±%.1f%% (σ %.3f ms)",
			sr.Avg/1e6, sr.Dev*100, sr.StdDev/1e6)
		results = append(results, sr)
	}
	return NewReport(opts.Label, results), errs, nil
}
