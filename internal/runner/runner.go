// Package runner executes batches of independent iterations on a worker
// pool and reduces them to a BatchResult.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wowsim-core/internal/config"
	"wowsim-core/internal/engine"
	"wowsim-core/internal/metrics"
)

// Options controls one batch.
type Options struct {
	Iterations int
	Workers    int
	Seed       int64
	Label      string

	// CombatLog receives the log of iteration 0 only.
	CombatLog io.Writer
	Logger    logrus.FieldLogger
}

// OptionsFrom copies the batch parameters of b.
func OptionsFrom(b *config.Bundle) Options {
	return Options{
		Iterations: b.Simulation.Iterations,
		Workers:    b.Simulation.Workers,
		Seed:       b.Simulation.Seed,
		Label:      b.Simulation.Label,
	}
}

// Failure is an iteration that aborted with an error.
type Failure struct {
	Index int    `json:"index"`
	Seed  int64  `json:"seed"`
	Error string `json:"error"`
}

// BatchResult aggregates the successful iterations of a batch. Failed
// iterations are listed but excluded from every statistic.
type BatchResult struct {
	RunID      string    `json:"run_id"`
	Label      string    `json:"label"`
	Spec       string    `json:"spec"`
	Seed       int64     `json:"seed"`
	Iterations int       `json:"iterations"`
	Completed  int       `json:"completed"`
	Canceled   bool      `json:"canceled"`
	Failures   []Failure `json:"failures,omitempty"`

	Duration    time.Duration   `json:"avg_duration"`
	DPS         metrics.Summary `json:"dps"`
	Damage      metrics.Summary `json:"damage"`
	EarlyStops  int             `json:"early_stops"`
	Casts       int             `json:"casts"`
	FailedCasts int             `json:"failed_casts"`
	Healing     float64         `json:"healing"`

	// Abilities and AuraUptime are summed over completed iterations.
	Abilities  map[string]*engine.AbilityStats `json:"abilities"`
	AuraUptime map[string]time.Duration        `json:"aura_uptime"`

	Elapsed time.Duration              `json:"elapsed"`
	Results []*engine.IterationResult `json:"-"`
}

// RunBatch runs opts.Iterations iterations of sim, iteration i with seed
// opts.Seed+i. Cancelling ctx stops scheduling new iterations; completed
// results are kept and returned along with the context error.
func RunBatch(ctx context.Context, sim *engine.Simulator, opts Options) (*BatchResult, error) {
	if opts.Iterations <= 0 {
		return nil, fmt.Errorf("runner: iterations must be > 0, got %d", opts.Iterations)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	br := &BatchResult{
		RunID:      uuid.NewString(),
		Label:      opts.Label,
		Spec:       sim.Spec.Name(),
		Seed:       opts.Seed,
		Iterations: opts.Iterations,
	}
	log = log.WithFields(logrus.Fields{"run_id": br.RunID, "label": br.Label, "spec": br.Spec})
	log.WithFields(logrus.Fields{"iterations": opts.Iterations, "workers": workers}).Info("batch started")

	started := time.Now()
	results := make([]*engine.IterationResult, opts.Iterations)
	var (
		mu       sync.Mutex
		failures []Failure
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < opts.Iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		seed := opts.Seed + int64(i)
		var w io.Writer
		if i == 0 {
			w = opts.CombatLog
		}
		g.Go(func() error {
			res, err := sim.RunLogged(ctx, seed, w)
			if err != nil {
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					return nil
				}
				mu.Lock()
				failures = append(failures, Failure{Index: i, Seed: seed, Error: err.Error()})
				mu.Unlock()
				log.WithFields(logrus.Fields{"index": i, "seed": seed}).WithError(err).Warn("iteration failed")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(a, b int) bool { return failures[a].Index < failures[b].Index })
	br.Failures = failures
	br.Elapsed = time.Since(started)
	for _, r := range results {
		if r != nil {
			br.Results = append(br.Results, r)
		}
	}
	br.Canceled = ctx.Err() != nil

	err := br.aggregate()
	if br.Canceled {
		log.WithField("completed", br.Completed).Warn("batch canceled")
		return br, errors.Join(ctx.Err(), err)
	}
	if err != nil {
		return br, fmt.Errorf("batch %s: %w", br.Label, err)
	}
	log.WithFields(logrus.Fields{
		"completed": br.Completed,
		"failed":    len(br.Failures),
		"dps":       fmt.Sprintf("%.2f", br.DPS.Mean),
		"elapsed":   br.Elapsed.Round(time.Millisecond),
	}).Info("batch finished")
	return br, nil
}

func (br *BatchResult) aggregate() error {
	br.Completed = len(br.Results)
	br.Abilities = make(map[string]*engine.AbilityStats)
	br.AuraUptime = make(map[string]time.Duration)

	dps := make([]float64, 0, br.Completed)
	damage := make([]float64, 0, br.Completed)
	var total time.Duration
	for _, r := range br.Results {
		dps = append(dps, r.DPS)
		damage = append(damage, r.TotalDamage)
		total += r.Duration
		br.Casts += r.Casts
		br.FailedCasts += r.FailedCasts
		br.Healing += r.TotalHealing
		if r.EarlyStop {
			br.EarlyStops++
		}
		for id, s := range r.Abilities {
			agg, ok := br.Abilities[id]
			if !ok {
				agg = &engine.AbilityStats{}
				br.Abilities[id] = agg
			}
			agg.Add(s)
		}
		for id, d := range r.AuraUptime {
			br.AuraUptime[id] += d
		}
	}

	var err error
	if br.DPS, err = metrics.Summarize(dps); err != nil {
		return err
	}
	br.Damage, _ = metrics.Summarize(damage)
	br.Duration = total / time.Duration(br.Completed)
	return nil
}
