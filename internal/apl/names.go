package apl

import (
	"fmt"
	"strings"
)

// Names is the read-only registry a rotation is validated against.
type Names interface {
	HasAbility(id string) bool
	HasAura(id string) bool
	HasResource(name string) bool
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *compiler) ability(name string) (string, error) {
	n := normalizeName(name)
	if n == "" {
		return n, fmt.Errorf("ability name missing")
	}
	if !c.names.HasAbility(n) {
		return "", fmt.Errorf("unknown ability '%s'", name)
	}
	return n, nil
}

func (c *compiler) aura(kind, name string) (string, error) {
	n := normalizeName(name)
	if n == "" {
		return n, fmt.Errorf("%s name missing", kind)
	}
	if !c.names.HasAura(n) {
		return "", fmt.Errorf("unknown %s '%s'", kind, name)
	}
	return n, nil
}

func (c *compiler) resource(name string) (string, error) {
	n := normalizeName(name)
	if n == "" {
		return n, fmt.Errorf("resource name missing")
	}
	if !c.names.HasResource(n) {
		return "", fmt.Errorf("unknown resource '%s'", name)
	}
	return n, nil
}
