package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wowsim-core/internal/config"
	"wowsim-core/internal/logging"
	"wowsim-core/internal/specs"
)

var (
	configDir string
	specName  string
	dbPath    string

	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Combat simulation engine",
	Long: `Simulates a character executing a priority rotation against scripted
targets for many seeded iterations and reports damage statistics.

Configuration comes from a directory holding constants.yaml, player.yaml and
encounter.yaml, or from a built-in specialization preset (--spec). SIM_*
environment variables override batch parameters; LOG_LEVEL and LOG_FORMAT
control logging.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.FromEnv()
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "", "Path to config directory (empty uses the --spec preset)")
	rootCmd.PersistentFlags().StringVarP(&specName, "spec", "s", "warlock_destruction", "Built-in specialization used when no config directory is given")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "benchres/bench.db", "SQLite database for saved reports and batches")

	rootCmd.AddCommand(runCmd, weightsCmd, benchCmd, compareCmd, specsCmd)
}

// loadBundle resolves the configuration and applies environment overrides.
func loadBundle() (*config.Bundle, *specs.Catalog, error) {
	cat, err := specs.Builtin()
	if err != nil {
		return nil, nil, err
	}
	var b *config.Bundle
	if configDir != "" {
		b, err = config.LoadConfig(configDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	} else {
		spec, err := cat.Get(specName)
		if err != nil {
			return nil, nil, err
		}
		b = config.ForSpec(spec)
	}
	if err := config.ApplyEnv(b, nil); err != nil {
		return nil, nil, err
	}
	return b, cat, nil
}

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "List built-in specializations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := specs.Builtin()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range cat.Names() {
			spec, _ := cat.Get(name)
			data := spec.Data()
			fmt.Fprintf(out, "%-22s %-24s %d abilities, %d auras, %d runes\n",
				name, spec.Label(), len(data.Abilities), len(data.Auras), len(data.Runes))
		}
		return nil
	},
}
