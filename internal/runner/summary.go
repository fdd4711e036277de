package runner

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"wowsim-core/internal/registry"
)

// PrintSummary writes the human-readable batch report. reg supplies
// display names and may be nil.
func PrintSummary(w io.Writer, br *BatchResult, reg *registry.Registry) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Simulation Results: %s (%s)\n", br.Label, br.Spec)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Run: %s\n", br.RunID)
	fmt.Fprintf(w, "Duration: %.1fs (avg)\n", br.Duration.Seconds())
	fmt.Fprintf(w, "Iterations: %d/%d", br.Completed, br.Iterations)
	if br.Canceled {
		fmt.Fprint(w, " (canceled)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	if br.Completed == 0 {
		fmt.Fprintln(w, "No completed iterations.")
		printFailures(w, br)
		return
	}
	n := float64(br.Completed)

	fmt.Fprintf(w, "Total DPS: %.2f  (min %.2f, max %.2f, ±%.1f%%, σ %.2f)\n",
		br.DPS.Mean, br.DPS.Min, br.DPS.Max, br.DPS.Dev*100, br.DPS.StdDev)
	fmt.Fprintf(w, "Total Damage: %.0f\n", br.Damage.Mean)
	if br.Healing > 0 {
		fmt.Fprintf(w, "Total Healing: %.0f\n", br.Healing/n)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Ability Breakdown (average per iteration):")
	fmt.Fprintln(w, "--------------------------------------------------------------------------------------")
	fmt.Fprintf(w, "%-18s | %7s | %12s | %6s | %7s | %7s | %7s | %7s | %7s\n",
		"Ability", "Casts", "Damage", "Share", "Avg", "Min", "Max", "Crit%", "Miss%")
	fmt.Fprintln(w, "--------------------------------------------------------------------------------------")
	var totalDamage float64
	ids := make([]string, 0, len(br.Abilities))
	for id, s := range br.Abilities {
		totalDamage += s.Damage
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		di, dj := br.Abilities[ids[i]].Damage, br.Abilities[ids[j]].Damage
		if di == dj {
			return ids[i] < ids[j]
		}
		return di > dj
	})
	for _, id := range ids {
		s := br.Abilities[id]
		label := id
		if reg != nil {
			if def, ok := reg.Ability(id); ok {
				label = def.DisplayName()
			}
		}
		share := 0.0
		if totalDamage > 0 {
			share = s.Damage / totalDamage * 100
		}
		landed := s.Hits + s.Ticks
		var avg, critPct float64
		if landed > 0 {
			avg = s.Damage / float64(landed)
			critPct = float64(s.Crits) / float64(landed) * 100
		}
		missPct := 0.0
		if attempts := s.Hits + s.Misses + s.Dodges; attempts > 0 {
			missPct = float64(s.Misses+s.Dodges) / float64(attempts) * 100
		}
		fmt.Fprintf(w, "%-18s | %7.1f | %12.0f | %5.1f%% | %7.0f | %7.0f | %7.0f | %6.1f%% | %6.1f%%\n",
			label, float64(s.Casts)/n, s.Damage/n, share, avg, s.MinDamage, s.MaxDamage, critPct, missPct)
	}
	fmt.Fprintln(w, "--------------------------------------------------------------------------------------")

	if len(br.AuraUptime) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Aura Uptimes:")
		fmt.Fprintln(w, "----------------------------------------")
		keys := make([]string, 0, len(br.AuraUptime))
		for k := range br.AuraUptime {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fight := br.Duration.Seconds()
		for _, k := range keys {
			avg := br.AuraUptime[k].Seconds() / n
			pct := 0.0
			if fight > 0 {
				pct = avg / fight * 100
			}
			fmt.Fprintf(w, "%-28s %6.1fs (%5.1f%%)\n", auraLabel(k, reg)+":", avg, pct)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Statistics:")
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Total Casts: %.1f\n", float64(br.Casts)/n)
	if br.FailedCasts > 0 {
		fmt.Fprintf(w, "Failed Casts: %.1f\n", float64(br.FailedCasts)/n)
	}
	if br.EarlyStops > 0 {
		fmt.Fprintf(w, "Early Stops: %d (%.1f%%)\n", br.EarlyStops, float64(br.EarlyStops)/n*100)
	}
	fmt.Fprintf(w, "Wall Time: %s\n", br.Elapsed.Round(1e6))
	printFailures(w, br)
	fmt.Fprintln(w, "========================================")
}

// auraLabel renders "Target:aura" keys with display names.
func auraLabel(key string, reg *registry.Registry) string {
	owner, id, onTarget := strings.Cut(key, ":")
	if !onTarget {
		id, owner = key, ""
	}
	label := id
	if reg != nil {
		if def, ok := reg.Aura(id); ok {
			label = def.DisplayName()
		}
	}
	if owner != "" {
		return label + " (" + owner + ")"
	}
	return label
}

func printFailures(w io.Writer, br *BatchResult) {
	if len(br.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "Failed Iterations: %d\n", len(br.Failures))
	for _, f := range br.Failures {
		fmt.Fprintf(w, "  #%d seed=%d: %s\n", f.Index, f.Seed, f.Error)
	}
}
