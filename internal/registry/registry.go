// Package registry indexes the ability and aura definitions of one
// configuration. A Registry is read-only once built and is shared by every
// iteration of a batch.
package registry

import (
	"errors"
	"fmt"

	"wowsim-core/internal/effects"
	"wowsim-core/internal/runes"
	"wowsim-core/internal/spells"
	"wowsim-core/internal/stats"
)

type Registry struct {
	abilities map[string]*spells.AbilityDef
	auras     map[string]*effects.AuraDef
	runes     map[string]runes.Def
	order     []*spells.AbilityDef
	auraOrder []*effects.AuraDef
	runeOrder []runes.Def
}

// New validates definitions and every cross reference between them.
func New(abilities []spells.AbilityDef, auras []effects.AuraDef, known []runes.Def) (*Registry, error) {
	r := &Registry{
		abilities: make(map[string]*spells.AbilityDef, len(abilities)),
		auras:     make(map[string]*effects.AuraDef, len(auras)),
		runes:     make(map[string]runes.Def, len(known)),
	}
	var errs []error
	for i := range auras {
		def := &auras[i]
		if err := def.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.auras[def.ID]; dup {
			errs = append(errs, fmt.Errorf("aura '%s' defined more than once", def.ID))
			continue
		}
		r.auras[def.ID] = def
		r.auraOrder = append(r.auraOrder, def)
	}
	for i := range abilities {
		def := &abilities[i]
		if err := def.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.abilities[def.ID]; dup {
			errs = append(errs, fmt.Errorf("ability '%s' defined more than once", def.ID))
			continue
		}
		r.abilities[def.ID] = def
		r.order = append(r.order, def)
	}
	for _, d := range known {
		r.runes[runes.Normalize(d.ID)] = d
		r.runeOrder = append(r.runeOrder, d)
		if d.Aura != "" && r.auras[d.Aura] == nil {
			errs = append(errs, fmt.Errorf("rune '%s': unknown aura '%s'", d.ID, d.Aura))
		}
	}
	for _, def := range r.auraOrder {
		if def.OnExpire != "" && r.auras[def.OnExpire] == nil {
			errs = append(errs, fmt.Errorf("aura '%s': unknown on_expire aura '%s'", def.ID, def.OnExpire))
		}
		if p := def.Periodic; p != nil {
			if p.Ability != "" && r.abilities[p.Ability] == nil {
				errs = append(errs, fmt.Errorf("aura '%s': unknown periodic ability '%s'", def.ID, p.Ability))
			}
			if p.Resource != "" {
				if _, ok := stats.ParseResource(p.Resource); !ok {
					errs = append(errs, fmt.Errorf("aura '%s': unknown resource '%s'", def.ID, p.Resource))
				}
			}
		}
	}
	for _, def := range r.order {
		for _, group := range [][]spells.AuraRef{def.Requires, def.Applies, def.OnCrit, def.Consumes} {
			for _, ref := range group {
				if r.auras[ref.Aura] == nil {
					errs = append(errs, fmt.Errorf("ability '%s': unknown aura '%s'", def.ID, ref.Aura))
				}
				if ref.IfAura != "" && r.auras[ref.IfAura] == nil {
					errs = append(errs, fmt.Errorf("ability '%s': unknown aura '%s'", def.ID, ref.IfAura))
				}
			}
		}
		if def.Rune != "" {
			if _, ok := r.runes[runes.Normalize(def.Rune)]; !ok {
				errs = append(errs, fmt.Errorf("ability '%s': unknown rune '%s'", def.ID, def.Rune))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Ability returns the definition for id.
func (r *Registry) Ability(id string) (*spells.AbilityDef, bool) {
	d, ok := r.abilities[id]
	return d, ok
}

// Aura returns the definition for id.
func (r *Registry) Aura(id string) (*effects.AuraDef, bool) {
	d, ok := r.auras[id]
	return d, ok
}

// Abilities returns definitions in declaration order.
func (r *Registry) Abilities() []*spells.AbilityDef {
	return append([]*spells.AbilityDef(nil), r.order...)
}

// Runes returns the rune catalog in declaration order.
func (r *Registry) Runes() []runes.Def {
	return append([]runes.Def(nil), r.runeOrder...)
}

func (r *Registry) HasAbility(id string) bool { _, ok := r.abilities[id]; return ok }
func (r *Registry) HasAura(id string) bool    { _, ok := r.auras[id]; return ok }

func (r *Registry) HasResource(name string) bool {
	_, ok := stats.ParseResource(name)
	return ok
}
