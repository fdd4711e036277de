// Package specs holds the built-in class specializations. Each one is a
// YAML data table embedded in the binary plus optional Go hooks for
// mechanics the table format cannot express.
package specs

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"wowsim-core/internal/apl"
	"wowsim-core/internal/effects"
	"wowsim-core/internal/encounter"
	"wowsim-core/internal/runes"
	"wowsim-core/internal/spells"
	"wowsim-core/internal/stats"
)

//go:embed data
var dataFS embed.FS

// ErrUnknownSpec is returned for names the catalog does not know.
var ErrUnknownSpec = errors.New("unknown specialization")

// HookState is what a hook may read when an ability resolves.
type HookState struct {
	Now    time.Duration
	Caster stats.Stats
	Self   *effects.Tracker
	Target *encounter.Target
}

// HookResult adjusts a resolution. A zero Multiplier means 1.
type HookResult struct {
	BaseBonus  float64
	Multiplier float64
}

// Hook customizes the damage of an ability that names it.
type Hook func(st HookState) HookResult

// Preset is the reference character and fight used for benchmarks and
// as the default when no configuration directory is given.
type Preset struct {
	Name      string                          `yaml:"name"`
	Stats     map[string]float64              `yaml:"stats"`
	Resources map[string]stats.ResourceConfig `yaml:"resources"`
	Runes     runes.Selection                 `yaml:"runes"`
	Encounter encounter.Config                `yaml:"encounter"`
}

// Data is the decoded contents of one specialization file.
type Data struct {
	Name            string              `yaml:"name"`
	Label           string              `yaml:"label"`
	DefaultRotation string              `yaml:"default_rotation"`
	InitialAuras    []string            `yaml:"initial_auras"`
	Runes           []runes.Def         `yaml:"runes"`
	Auras           []effects.AuraDef   `yaml:"auras"`
	Abilities       []spells.AbilityDef `yaml:"abilities"`
	Preset          Preset              `yaml:"preset"`
}

// Specialization is one playable class setup.
type Specialization interface {
	Name() string
	Label() string
	Data() *Data
	Hook(name string) (Hook, bool)
	DefaultRotation() (*apl.File, error)
}

type spec struct {
	data  *Data
	hooks map[string]Hook
}

func (s *spec) Name() string  { return s.data.Name }
func (s *spec) Label() string { return s.data.Label }
func (s *spec) Data() *Data   { return s.data }

func (s *spec) Hook(name string) (Hook, bool) {
	h, ok := s.hooks[name]
	return h, ok
}

func (s *spec) DefaultRotation() (*apl.File, error) {
	sub, err := fs.Sub(dataFS, "data/rotations")
	if err != nil {
		return nil, err
	}
	return apl.LoadRotationFS(sub, s.data.DefaultRotation)
}

// Load decodes an embedded specialization and binds its hooks. Every hook
// an ability names must be provided.
func Load(name string, hooks map[string]Hook) (Specialization, error) {
	raw, err := dataFS.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpec, name)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var data Data
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("spec %s: %w", name, err)
	}
	if data.Name != name {
		return nil, fmt.Errorf("spec %s: file declares name %q", name, data.Name)
	}
	for _, a := range data.Abilities {
		if a.Hook == "" {
			continue
		}
		if _, ok := hooks[a.Hook]; !ok {
			return nil, fmt.Errorf("spec %s: ability '%s' names missing hook '%s'", name, a.ID, a.Hook)
		}
	}
	return &spec{data: &data, hooks: hooks}, nil
}

// Catalog is a name-indexed set of specializations.
type Catalog struct {
	specs map[string]Specialization
}

// NewCatalog indexes specs by name.
func NewCatalog(list ...Specialization) *Catalog {
	c := &Catalog{specs: make(map[string]Specialization, len(list))}
	for _, s := range list {
		c.specs[s.Name()] = s
	}
	return c
}

// Get returns the named specialization.
func (c *Catalog) Get(name string) (Specialization, error) {
	s, ok := c.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %v)", ErrUnknownSpec, name, c.Names())
	}
	return s, nil
}

// Names returns the sorted specialization names.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.specs))
	for name := range c.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var builtinHooks = map[string]map[string]Hook{
	"warlock_destruction": warlockHooks,
	"warrior_fury":        nil,
	"training_dummy":      nil,
}

// Builtin returns the catalog of embedded specializations. It is loaded
// once per process.
var Builtin = sync.OnceValues(func() (*Catalog, error) {
	names := make([]string, 0, len(builtinHooks))
	for name := range builtinHooks {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]Specialization, 0, len(names))
	for _, name := range names {
		s, err := Load(name, builtinHooks[name])
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return NewCatalog(list...), nil
})
