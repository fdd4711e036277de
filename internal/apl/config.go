package apl

import "gopkg.in/yaml.v3"

// File represents one rotation YAML file.
type File struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Imports     []string           `yaml:"imports"`
	Variables   map[string]any     `yaml:"variables"`
	Rotation    []ActionDefinition `yaml:"rotation"`
}

// ActionDefinition describes one entry in the priority list.
type ActionDefinition struct {
	Action          string             `yaml:"action"`
	Spell           string             `yaml:"spell,omitempty"`
	DurationSeconds float64            `yaml:"duration_seconds,omitempty"`
	Steps           []ActionDefinition `yaml:"steps,omitempty"`
	// Reset restarts a finished sequence from its first step.
	Reset bool           `yaml:"reset,omitempty"`
	Tags  []string       `yaml:"tags,omitempty"`
	When  *ConditionNode `yaml:"when,omitempty"`
}

// ConditionNode keeps the raw YAML tree so the compiler can interpret it
// against a registry later.
type ConditionNode struct {
	raw *yaml.Node
}

// Node exposes the underlying YAML node.
func (c *ConditionNode) Node() *yaml.Node {
	if c == nil {
		return nil
	}
	return c.raw
}

// UnmarshalYAML stores the condition tree verbatim.
func (c *ConditionNode) UnmarshalYAML(value *yaml.Node) error {
	c.raw = value
	return nil
}
