package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wowsim-core/internal/runner"
	"wowsim-core/internal/stats"
)

var weightsFlags struct {
	iterations int
	workers    int
	seed       int64
	stats      []string
	verbose    bool
	jsonOut    bool
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Estimate stat weights by central difference",
	RunE:  runWeights,
}

func init() {
	f := weightsCmd.Flags()
	addBatchFlags(f, &weightsFlags.iterations, &weightsFlags.workers, &weightsFlags.seed)
	f.StringSliceVar(&weightsFlags.stats, "stat", nil, "Stat to weigh as name or name=delta (default: every stat the player has)")
	f.BoolVar(&weightsFlags.verbose, "verbose", false, "Show plus/minus DPS columns")
	f.BoolVar(&weightsFlags.jsonOut, "json", false, "Print weights as JSON")
}

func runWeights(cmd *cobra.Command, args []string) error {
	b, cat, err := loadBundle()
	if err != nil {
		return err
	}
	deltas, err := parseDeltas(weightsFlags.stats, runner.DefaultDeltas(b))
	if err != nil {
		return err
	}
	opts := batchOptions(b, weightsFlags.iterations, weightsFlags.workers, weightsFlags.seed)
	ws, err := runner.StatWeights(cmd.Context(), b, cat, opts, deltas)
	if err != nil {
		return err
	}
	if weightsFlags.jsonOut {
		return writeJSON(cmd.OutOrStdout(), ws)
	}
	ws.Print(cmd.OutOrStdout(), weightsFlags.verbose)
	return nil
}

// parseDeltas turns "stat" or "stat=delta" arguments into deltas. A bare
// name takes its step from defaults, or 10 when it has none.
func parseDeltas(args []string, defaults []runner.StatDelta) ([]runner.StatDelta, error) {
	if len(args) == 0 {
		return defaults, nil
	}
	out := make([]runner.StatDelta, 0, len(args))
	for _, arg := range args {
		var d runner.StatDelta
		name, value, hasValue := strings.Cut(strings.TrimSpace(arg), "=")
		if _, ok := stats.ParseStat(name); !ok {
			return nil, fmt.Errorf("unknown stat '%s'", name)
		}
		d.Stat = name
		d.Delta = 10
		for _, def := range defaults {
			if def.Stat == name {
				d.Delta = def.Delta
			}
		}
		if hasValue {
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("stat %s: bad delta %q", name, value)
			}
			d.Delta = v
		}
		out = append(out, d)
	}
	return out, nil
}
