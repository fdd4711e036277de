package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wowsim-core/internal/benchstore"
	"wowsim-core/internal/config"
	"wowsim-core/internal/engine"
	"wowsim-core/internal/runner"
)

var runFlags struct {
	iterations int
	workers    int
	seed       int64
	label      string
	jsonOut    bool
	combatLog  bool
	save       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch of iterations and print the summary",
	RunE:  runBatch,
}

func init() {
	f := runCmd.Flags()
	addBatchFlags(f, &runFlags.iterations, &runFlags.workers, &runFlags.seed)
	f.StringVar(&runFlags.label, "label", "", "Label for this run")
	f.BoolVar(&runFlags.jsonOut, "json", false, "Print the batch result as JSON")
	f.BoolVar(&runFlags.combatLog, "combat-log", false, "Log the first iteration's combat log at debug level")
	f.BoolVar(&runFlags.save, "save", false, "Store the batch summary in the database")
}

type flagSet interface {
	IntVarP(p *int, name, shorthand string, value int, usage string)
	IntVar(p *int, name string, value int, usage string)
	Int64Var(p *int64, name string, value int64, usage string)
}

func addBatchFlags(f flagSet, iterations, workers *int, seed *int64) {
	f.IntVarP(iterations, "iterations", "n", 0, "Iterations (0 = use configuration)")
	f.IntVar(workers, "workers", 0, "Concurrent workers (0 = use configuration)")
	f.Int64Var(seed, "seed", 0, "Base seed (0 = use configuration)")
}

// batchOptions applies command-line overrides on top of the bundle.
func batchOptions(b *config.Bundle, iterations, workers int, seed int64) runner.Options {
	opts := runner.OptionsFrom(b)
	if iterations > 0 {
		opts.Iterations = iterations
	}
	if workers > 0 {
		opts.Workers = workers
	}
	if seed != 0 {
		opts.Seed = seed
	}
	opts.Logger = log
	return opts
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, cat, err := loadBundle()
	if err != nil {
		return err
	}
	sim, err := engine.Setup(b, cat)
	if err != nil {
		return err
	}
	opts := batchOptions(b, runFlags.iterations, runFlags.workers, runFlags.seed)
	if runFlags.label != "" {
		opts.Label = runFlags.label
	}
	if runFlags.combatLog {
		log.SetLevel(logrus.DebugLevel)
		w := log.WriterLevel(logrus.DebugLevel)
		defer w.Close()
		opts.CombatLog = w
	}

	br, err := runner.RunBatch(cmd.Context(), sim, opts)
	if br == nil {
		return err
	}
	out := cmd.OutOrStdout()
	if runFlags.jsonOut {
		if encErr := writeJSON(out, br); encErr != nil {
			return encErr
		}
	} else {
		runner.PrintSummary(out, br, sim.Registry)
	}
	if err != nil {
		return err
	}
	if runFlags.save {
		return saveBatch(cmd, br)
	}
	return nil
}

func saveBatch(cmd *cobra.Command, br *runner.BatchResult) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveBatch(cmd.Context(), br); err != nil {
		return err
	}
	log.WithField("run_id", br.RunID).Info("batch saved")
	return nil
}

func openStore() (*benchstore.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return benchstore.Open(dbPath)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
