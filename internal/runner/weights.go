package runner

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"wowsim-core/internal/config"
	"wowsim-core/internal/engine"
	"wowsim-core/internal/specs"
	"wowsim-core/internal/stats"
)

// StatDelta is the step used for one stat's central difference.
type StatDelta struct {
	Stat  string
	Delta float64
}

// Weight is the DPS gained per point of a stat.
type Weight struct {
	Stat     string  `json:"stat"`
	Delta    float64 `json:"delta"`
	Weight   float64 `json:"weight"`
	DPSPlus  float64 `json:"dps_plus"`
	DPSMinus float64 `json:"dps_minus"`
}

// Weights is the result of a stat weight run.
type Weights struct {
	Baseline float64  `json:"baseline"`
	Seed     int64    `json:"seed"`
	Weights  []Weight `json:"weights"`
}

// DefaultDeltas returns one step per stat the player has. Ratings move by
// one percent worth of rating; everything else by ten points.
func DefaultDeltas(b *config.Bundle) []StatDelta {
	conv := b.Constants.StatConversions
	ratingStep := map[stats.Stat]float64{
		stats.CritRating:  conv.CritRatingPerPercent,
		stats.HitRating:   conv.HitRatingPerPercent,
		stats.HasteRating: conv.HasteRatingPerPercent,
		stats.Expertise:   conv.ExpertisePerPercent,
	}
	var out []StatDelta
	for s := stats.Stat(0); s < stats.NumStats; s++ {
		if _, ok := b.Player.Stats[s.String()]; !ok {
			continue
		}
		d := 10.0
		if step, ok := ratingStep[s]; ok && step > 0 {
			d = step
		}
		out = append(out, StatDelta{Stat: s.String(), Delta: d})
	}
	return out
}

// StatWeights estimates DPS per stat point by central difference. Every
// batch shares opts.Seed, so the plus and minus runs see the same rolls
// wherever the stat change does not alter the sequence of events.
func StatWeights(ctx context.Context, b *config.Bundle, catalog *specs.Catalog, opts Options, deltas []StatDelta) (*Weights, error) {
	quiet := opts
	quiet.CombatLog = nil
	if quiet.Logger == nil {
		quiet.Logger = logrus.StandardLogger()
	}

	run := func(bundle *config.Bundle) (float64, error) {
		sim, err := engine.Setup(bundle, catalog)
		if err != nil {
			return 0, err
		}
		br, err := RunBatch(ctx, sim, quiet)
		if err != nil {
			return 0, err
		}
		return br.DPS.Mean, nil
	}

	baseline, err := run(b)
	if err != nil {
		return nil, err
	}
	out := &Weights{Baseline: baseline, Seed: opts.Seed}
	for _, d := range deltas {
		if _, ok := stats.ParseStat(d.Stat); !ok {
			return nil, fmt.Errorf("weights: unknown stat '%s'", d.Stat)
		}
		if d.Delta <= 0 {
			return nil, fmt.Errorf("weights: delta for '%s' must be > 0", d.Stat)
		}
		base := b.Player.Stats[d.Stat]
		hi, lo := base+d.Delta, base-d.Delta
		if lo < 0 {
			lo = 0
		}
		plus := b.Clone()
		plus.Player.Stats[d.Stat] = hi
		minus := b.Clone()
		minus.Player.Stats[d.Stat] = lo

		dpsPlus, err := run(plus)
		if err != nil {
			return nil, fmt.Errorf("weights %s+: %w", d.Stat, err)
		}
		dpsMinus, err := run(minus)
		if err != nil {
			return nil, fmt.Errorf("weights %s-: %w", d.Stat, err)
		}
		out.Weights = append(out.Weights, Weight{
			Stat:     d.Stat,
			Delta:    d.Delta,
			Weight:   (dpsPlus - dpsMinus) / (hi - lo),
			DPSPlus:  dpsPlus,
			DPSMinus: dpsMinus,
		})
	}
	return out, nil
}

// Print writes the weight table, normalized to the first stat when its
// weight is non-zero.
func (ws *Weights) Print(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "Stat Weights (central diff, shared seed %d)\n", ws.Seed)
	fmt.Fprintf(w, "Baseline DPS: %.2f\n\n", ws.Baseline)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if verbose {
		fmt.Fprintf(tw, "Stat\tDelta\tDPS/Point\tPlus DPS\tMinus DPS\n")
	} else {
		fmt.Fprintf(tw, "Stat\tDelta\tDPS/Point\n")
	}
	for _, r := range ws.Weights {
		if verbose {
			fmt.Fprintf(tw, "%s\t%+g\t%.3f\t%.2f\t%.2f\n", r.Stat, r.Delta, r.Weight, r.DPSPlus, r.DPSMinus)
		} else {
			fmt.Fprintf(tw, "%s\t%+g\t%.3f\n", r.Stat, r.Delta, r.Weight)
		}
	}
	tw.Flush()

	if len(ws.Weights) == 0 || ws.Weights[0].Weight == 0 {
		return
	}
	ref := ws.Weights[0]
	nw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(nw, "\nNormalized (%s = 1.0)\n", ref.Stat)
	fmt.Fprintf(nw, "Stat\tWeight\n")
	for _, r := range ws.Weights {
		fmt.Fprintf(nw, "%s\t%.3f\n", r.Stat, r.Weight/ref.Weight)
	}
	nw.Flush()
}
