package bench

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// SpecDelta compares one spec across two reports. Change is the relative
// difference of the averages; negative is faster.
type SpecDelta struct {
	Name      string  `json:"name"`
	OldAvg    float64 `json:"old_avg"`
	NewAvg    float64 `json:"new_avg"`
	Change    float64 `json:"change"`
	OldStdDev float64 `json:"old_std_dev"`
	NewStdDev float64 `json:"new_std_dev"`
	Missing   string  `json:"missing,omitempty"`
}

// Comparison is the field-by-field difference of two reports.
type Comparison struct {
	Old, New       string
	Specs          []SpecDelta
	TotalAvgChange float64
	DevMaxDelta    float64
	StdDevMaxDelta float64
}

func relative(old, cur float64) float64 {
	if old == 0 {
		return 0
	}
	return (cur - old) / old
}

// Compare diffs cur against old. Specs present in only one report are
// listed with Missing set to the report that lacks them.
func Compare(old, cur *Report) *Comparison {
	c := &Comparison{
		Old:            old.Label,
		New:            cur.Label,
		TotalAvgChange: relative(old.TotalAvg, cur.TotalAvg),
		DevMaxDelta:    cur.DevMax - old.DevMax,
		StdDevMaxDelta: cur.StdDevMax - old.StdDevMax,
	}
	seen := make(map[string]bool)
	for name, o := range old.Results {
		seen[name] = true
		d := SpecDelta{Name: name, OldAvg: o.Avg, OldStdDev: o.StdDev}
		if n, ok := cur.Results[name]; ok {
			d.NewAvg, d.NewStdDev = n.Avg, n.StdDev
			d.Change = relative(o.Avg, n.Avg)
		} else {
			d.Missing = cur.Label
		}
		c.Specs = append(c.Specs, d)
	}
	for name, n := range cur.Results {
		if !seen[name] {
			c.Specs = append(c.Specs, SpecDelta{Name: name, NewAvg: n.Avg, NewStdDev: n.StdDev, Missing: old.Label})
		}
	}
	sort.Slice(c.Specs, func(i, j int) bool { return c.Specs[i].Name < c.Specs[j].Name })
	return c
}

func nsToMs(ns float64) float64 { return ns / 1e6 }

// Print writes one line per spec and the report totals.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Benchmark report %q (%s)\n", r.Label, r.CreatedAt.Format("2006-01-02 15:04:05"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Spec\tRuns\tAvg ms\tDev\tσ ms\n")
	for _, name := range r.Names() {
		sr := r.Results[name]
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t±%.1f%%\t%.3f\n", name, sr.Count, nsToMs(sr.Avg), sr.Dev*100, nsToMs(sr.StdDev))
	}
	tw.Flush()
	fmt.Fprintf(w, "Total avg: %.3f ms, dev max ±%.1f%%, σ max %.3f ms\n", nsToMs(r.TotalAvg), r.DevMax*100, nsToMs(r.StdDevMax))
}

// Print writes the comparison table.
func (c *Comparison) Print(w io.Writer) {
	fmt.Fprintf(w, "Comparing %q -> %q\n", c.Old, c.New)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Spec\tOld ms\tNew ms\tChange\n")
	for _, d := range c.Specs {
		if d.Missing != "" {
			fmt.Fprintf(tw, "%s\t%.3f\t%.3f\tmissing in %s\n", d.Name, nsToMs(d.OldAvg), nsToMs(d.NewAvg), d.Missing)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%+.1f%%\n", d.Name, nsToMs(d.OldAvg), nsToMs(d.NewAvg), d.Change*100)
	}
	tw.Flush()
	fmt.Fprintf(w, "Total avg change: %+.1f%%, dev max %+.1f pts, σ max %+.3f ms\n",
		c.TotalAvgChange*100, c.DevMaxDelta*100, nsToMs(c.StdDevMaxDelta))
}
