package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"wowsim-core/internal/apl"
	"wowsim-core/internal/config"
	"wowsim-core/internal/effects"
	"wowsim-core/internal/registry"
	"wowsim-core/internal/runes"
	"wowsim-core/internal/specs"
	"wowsim-core/internal/stats"
)

// Simulator is the validated, read-only setup every iteration of a batch
// starts from.
type Simulator struct {
	Bundle   *config.Bundle
	Spec     specs.Specialization
	Registry *registry.Registry
	Rotation *apl.CompiledRotation

	baseStats stats.Stats
	resources map[stats.Resource]stats.ResourceConfig
	runes     *runes.Set
	initial   []*effects.AuraDef
}

// Setup resolves every name in b against the selected specialization.
// All failures are ConfigErrors and happen before any event is scheduled.
func Setup(b *config.Bundle, catalog *specs.Catalog) (*Simulator, error) {
	if err := b.Validate(); err != nil {
		return nil, configErr("bundle", err)
	}
	spec, err := catalog.Get(b.Player.Spec)
	if err != nil {
		return nil, configErr("spec", err)
	}
	data := spec.Data()
	reg, err := registry.New(data.Abilities, data.Auras, data.Runes)
	if err != nil {
		return nil, configErr("spec "+spec.Name(), err)
	}
	base, err := stats.FromMap(b.Player.Stats)
	if err != nil {
		return nil, configErr("player.stats", err)
	}
	pools, err := b.Player.ResourceConfigs()
	if err != nil {
		return nil, configErr("player.resources", err)
	}
	equipped, err := runes.Resolve(b.Player.Runes, b.Constants.RuneLimits, reg.Runes())
	if err != nil {
		return nil, configErr("player.runes", err)
	}

	sim := &Simulator{
		Bundle:    b,
		Spec:      spec,
		Registry:  reg,
		baseStats: base,
		resources: pools,
		runes:     equipped,
	}
	initial := append([]string(nil), data.InitialAuras...)
	for _, r := range equipped.Equipped() {
		if r.Aura != "" {
			initial = append(initial, r.Aura)
		}
	}
	for _, id := range initial {
		def, ok := reg.Aura(id)
		if !ok {
			return nil, configErr("initial aura", fmt.Errorf("unknown aura '%s'", id))
		}
		sim.initial = append(sim.initial, def)
	}
	if err := sim.checkEncounter(); err != nil {
		return nil, err
	}

	file, err := sim.rotationFile()
	if err != nil {
		return nil, configErr("rotation", err)
	}
	rot, err := apl.Compile(file, reg)
	if err != nil {
		return nil, configErr("rotation "+file.Name, err)
	}
	sim.Rotation = rot
	return sim, nil
}

func (s *Simulator) rotationFile() (*apl.File, error) {
	b := s.Bundle
	if b.RotationFile != nil {
		return b.RotationFile, nil
	}
	if strings.TrimSpace(b.Player.Rotation) == "" {
		return s.Spec.DefaultRotation()
	}
	path := filepath.Join(b.Dir, filepath.Clean(b.Player.Rotation))
	return apl.LoadRotation(filepath.Dir(path), filepath.Base(path))
}

func (s *Simulator) checkEncounter() error {
	for _, t := range s.Bundle.Encounter.Targets {
		for _, p := range t.Phases {
			if p.ApplyAura != "" && !s.Registry.HasAura(p.ApplyAura) {
				return configErr("encounter", fmt.Errorf("target '%s' phase '%s': unknown aura '%s'", t.Name, p.Name, p.ApplyAura))
			}
		}
		for _, d := range t.Drains {
			if _, ok := stats.ParseResource(d.Resource); !ok {
				return configErr("encounter", fmt.Errorf("target '%s' drain '%s': unknown resource '%s'", t.Name, d.Name, d.Resource))
			}
		}
	}
	return nil
}

// RunIteration runs one independent iteration. The same seed always
// produces the same result.
func (s *Simulator) RunIteration(ctx context.Context, seed int64) (*IterationResult, error) {
	return s.RunLogged(ctx, seed, nil)
}

// RunLogged is RunIteration with the combat log written to w.
func (s *Simulator) RunLogged(ctx context.Context, seed int64, w io.Writer) (*IterationResult, error) {
	it := s.newIteration(ctx, seed, w)
	if err := it.run(); err != nil {
		return nil, err
	}
	return it.result, nil
}

// RunIteration sets up b and runs a single iteration with seed.
func RunIteration(ctx context.Context, b *config.Bundle, catalog *specs.Catalog, seed int64) (*IterationResult, error) {
	sim, err := Setup(b, catalog)
	if err != nil {
		return nil, err
	}
	return sim.RunIteration(ctx, seed)
}
