package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wowsim-core/internal/bench"
	"wowsim-core/internal/specs"
)

var benchFlags struct {
	label   string
	count   int
	specs   []string
	parse   string
	noSave  bool
	jsonOut bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark specializations and save a labelled report",
	Long: `Runs each specialization's preset through testing.Benchmark --count times,
or parses the output of "go test -run=^$ -bench=. ./internal/specs" given with
--parse, and stores the report under --label.`,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVarP(&benchFlags.label, "label", "l", "", "Label to save the report with (required)")
	f.IntVar(&benchFlags.count, "count", 5, "Runs per spec")
	f.StringSliceVar(&benchFlags.specs, "spec-list", nil, "Specs to benchmark (default all)")
	f.StringVar(&benchFlags.parse, "parse", "", "Parse go test -bench output from this file instead of running")
	f.BoolVar(&benchFlags.noSave, "no-save", false, "Do not store the report")
	f.BoolVar(&benchFlags.jsonOut, "json", false, "Print the report as JSON")
	_ = benchCmd.MarkFlagRequired("label")
}

func runBench(cmd *cobra.Command, args []string) error {
	var (
		report *bench.Report
		errs   []error
		err    error
	)
	if benchFlags.parse != "" {
		report, errs, err = parseBenchFile(benchFlags.parse)
	} else {
		cat, catErr := specs.Builtin()
		if catErr != nil {
			return catErr
		}
		report, errs, err = bench.RunSpecs(cmd.Context(), cat, bench.Options{
			Label: benchFlags.label,
			Specs: benchFlags.specs,
			Count: benchFlags.count,
			Log:   log,
		})
	}
	if err != nil {
		return err
	}
	for _, e := range errs {
		log.WithError(e).Warn("spec skipped")
	}
	if len(report.Results) == 0 {
		return fmt.Errorf("bench %s: no spec produced results", benchFlags.label)
	}

	if benchFlags.jsonOut {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		report.Print(cmd.OutOrStdout())
	}
	if benchFlags.noSave {
		return nil
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveReport(cmd.Context(), report); err != nil {
		return err
	}
	log.WithField("label", report.Label).Info("report saved")
	return nil
}

func parseBenchFile(path string) (*bench.Report, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	runs, errs, err := bench.ParseOutput(f)
	if err != nil {
		return nil, errs, err
	}
	var results []*bench.SpecResult
	for name, rs := range runs {
		sr, err := bench.Summarize(name, rs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, sr)
	}
	return bench.NewReport(benchFlags.label, results), errs, nil
}

var compareCmd = &cobra.Command{
	Use:   "compare <old-label> <new-label>",
	Short: "Compare two saved benchmark reports",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		old, err := store.LoadReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cur, err := store.LoadReport(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		bench.Compare(old, cur).Print(cmd.OutOrStdout())
		return nil
	},
}
