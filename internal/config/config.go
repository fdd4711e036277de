package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"wowsim-core/internal/apl"
	"wowsim-core/internal/encounter"
	"wowsim-core/internal/runes"
	"wowsim-core/internal/specs"
	"wowsim-core/internal/stats"
)

// Constants holds game-wide constants
type Constants struct {
	StatConversions stats.Conversions `yaml:"stat_conversions"`
	GCD             GCD               `yaml:"gcd"`
	RuneLimits      runes.Limits      `yaml:"rune_limits"`
}

// GCD holds global cooldown lengths in seconds.
type GCD struct {
	Base     float64 `yaml:"base"`
	Minimum  float64 `yaml:"minimum"`
	Physical float64 `yaml:"physical"`
}

// DefaultConstants mirrors configs/constants.yaml.
func DefaultConstants() Constants {
	return Constants{
		StatConversions: stats.DefaultConversions(),
		GCD:             GCD{Base: 1.5, Minimum: 1.0, Physical: 1.0},
		RuneLimits:      runes.DefaultLimits(),
	}
}

// Player holds player character configuration
type Player struct {
	Character struct {
		Name  string `yaml:"name"`
		Level int    `yaml:"level"`
	} `yaml:"character"`
	Spec      string                          `yaml:"spec"`
	Stats     map[string]float64              `yaml:"stats"`
	Resources map[string]stats.ResourceConfig `yaml:"resources"`
	Runes     runes.Selection                 `yaml:"runes"`
	// Rotation is relative to the config directory; empty selects the
	// specialization's default.
	Rotation string `yaml:"rotation"`
}

// Simulation holds batch parameters
type Simulation struct {
	Iterations int    `yaml:"iterations"`
	Workers    int    `yaml:"workers"`
	Seed       int64  `yaml:"seed"`
	Label      string `yaml:"label"`
}

// Bundle is everything one batch needs. It is read-only once loaded.
type Bundle struct {
	Dir        string           `yaml:"-"`
	Constants  Constants        `yaml:"constants"`
	Player     Player           `yaml:"player"`
	Encounter  encounter.Config `yaml:"encounter"`
	Simulation Simulation       `yaml:"simulation"`

	// RotationFile, when set, takes precedence over Player.Rotation.
	RotationFile *apl.File `yaml:"-"`
}

type playerFile struct {
	Player     `yaml:",inline"`
	Simulation Simulation `yaml:"simulation"`
}

// LoadConfig loads all YAML configuration files
func LoadConfig(configDir string) (*Bundle, error) {
	cfg := &Bundle{Dir: configDir, Constants: DefaultConstants()}

	if err := readYAML(configDir, "constants.yaml", &cfg.Constants, true); err != nil {
		return nil, err
	}

	var pf playerFile
	if err := readYAML(configDir, "player.yaml", &pf, false); err != nil {
		return nil, err
	}
	cfg.Player = pf.Player
	cfg.Simulation = pf.Simulation

	if err := readYAML(configDir, "encounter.yaml", &cfg.Encounter, true); err != nil {
		return nil, err
	}
	if len(cfg.Encounter.Targets) == 0 {
		if err := cfg.fillEncounterFromPreset(); err != nil {
			return nil, err
		}
	}
	cfg.Simulation.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readYAML(dir, name string, out any, optional bool) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (b *Bundle) fillEncounterFromPreset() error {
	cat, err := specs.Builtin()
	if err != nil {
		return err
	}
	spec, err := cat.Get(b.Player.Spec)
	if err != nil {
		return err
	}
	b.Encounter = spec.Data().Preset.Encounter
	return nil
}

func (s *Simulation) applyDefaults() {
	if s.Iterations == 0 {
		s.Iterations = 1000
	}
	if s.Workers == 0 {
		s.Workers = runtime.NumCPU()
	}
}

// ForSpec builds a bundle from a specialization's built-in preset.
func ForSpec(spec specs.Specialization) *Bundle {
	preset := spec.Data().Preset
	b := &Bundle{
		Constants: DefaultConstants(),
		Encounter: preset.Encounter,
		Simulation: Simulation{
			Seed:  1,
			Label: spec.Name(),
		},
	}
	b.Player.Character.Name = preset.Name
	b.Player.Character.Level = 60
	b.Player.Spec = spec.Name()
	b.Player.Stats = copyStats(preset.Stats)
	b.Player.Resources = copyResources(preset.Resources)
	b.Player.Runes = preset.Runes
	b.Encounter.Targets = append([]encounter.TargetConfig(nil), preset.Encounter.Targets...)
	b.Simulation.applyDefaults()
	return b
}

// Duration returns the configured fight length.
func (b *Bundle) Duration() time.Duration {
	return b.Encounter.Duration()
}

// Clone returns a copy whose player stats, resources and targets may be
// modified independently.
func (b *Bundle) Clone() *Bundle {
	out := *b
	out.Player.Stats = copyStats(b.Player.Stats)
	out.Player.Resources = copyResources(b.Player.Resources)
	out.Encounter.Targets = append([]encounter.TargetConfig(nil), b.Encounter.Targets...)
	return &out
}

func copyStats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyResources(in map[string]stats.ResourceConfig) map[string]stats.ResourceConfig {
	out := make(map[string]stats.ResourceConfig, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
