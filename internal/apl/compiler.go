package apl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CompiledRotation is the runtime representation of an APL file. It is
// immutable after Compile and safe to share between iterations.
type CompiledRotation struct {
	Name        string
	Description string
	Variables   map[string]any
	Actions     []*Action
}

// ActionType enumerates supported rotation actions.
type ActionType int

const (
	ActionCast ActionType = iota
	ActionWait
	ActionWaitFor
	ActionSequence
	ActionNoop
)

func (t ActionType) String() string {
	switch t {
	case ActionCast:
		return "cast"
	case ActionWait:
		return "wait"
	case ActionWaitFor:
		return "wait_for"
	case ActionSequence:
		return "sequence"
	case ActionNoop:
		return "noop"
	}
	return "unknown"
}

// Action is a compiled, ready-to-evaluate rotation entry.
type Action struct {
	Index     int
	Type      ActionType
	Spell     string
	Duration  time.Duration
	Steps     []*Action
	Reset     bool
	Condition Condition
	Tags      []string
}

type compiler struct {
	names Names
	vars  map[string]any
}

// Compile validates file against names and turns it into a CompiledRotation.
// Unknown abilities, auras and resources are rejected here, never at runtime.
func Compile(file *File, names Names) (*CompiledRotation, error) {
	if file == nil {
		return nil, fmt.Errorf("nil rotation file")
	}
	if names == nil {
		return nil, fmt.Errorf("rotation %q: no registry to validate against", file.Name)
	}
	c := &compiler{names: names, vars: file.Variables}
	actions := make([]*Action, 0, len(file.Rotation))
	for idx := range file.Rotation {
		action, err := c.compileAction(&file.Rotation[idx])
		if err != nil {
			return nil, fmt.Errorf("rotation entry %d: %w", idx, err)
		}
		action.Index = idx
		actions = append(actions, action)
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("rotation %q has no entries", file.Name)
	}
	return &CompiledRotation{
		Name:        file.Name,
		Description: file.Description,
		Variables:   file.Variables,
		Actions:     actions,
	}, nil
}

func (c *compiler) compileAction(def *ActionDefinition) (*Action, error) {
	action := &Action{Tags: def.Tags}
	var err error
	action.Condition, err = c.compileCondition(def.When)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(def.Action) {
	case "cast_spell", "cast":
		if def.Spell == "" {
			return nil, fmt.Errorf("cast action requires 'spell'")
		}
		if action.Spell, err = c.ability(def.Spell); err != nil {
			return nil, err
		}
		action.Type = ActionCast
	case "wait":
		if def.DurationSeconds <= 0 {
			return nil, fmt.Errorf("wait action requires duration_seconds > 0")
		}
		action.Type = ActionWait
		action.Duration = time.Duration(def.DurationSeconds * float64(time.Second))
	case "wait_for":
		if action.Spell, err = c.ability(def.Spell); err != nil {
			return nil, fmt.Errorf("wait_for: %w", err)
		}
		action.Type = ActionWaitFor
	case "sequence", "macro":
		if len(def.Steps) == 0 {
			return nil, fmt.Errorf("sequence requires at least one step")
		}
		action.Type = ActionSequence
		action.Reset = def.Reset
		for stepIdx := range def.Steps {
			step, err := c.compileAction(&def.Steps[stepIdx])
			if err != nil {
				return nil, fmt.Errorf("sequence step %d: %w", stepIdx, err)
			}
			if step.Type != ActionCast {
				return nil, fmt.Errorf("sequence step %d: only cast steps are allowed", stepIdx)
			}
			step.Index = stepIdx
			action.Steps = append(action.Steps, step)
		}
	case "noop":
		action.Type = ActionNoop
	default:
		return nil, fmt.Errorf("unsupported action '%s'", def.Action)
	}

	return action, nil
}

func (c *compiler) compileCondition(node *ConditionNode) (Condition, error) {
	if node == nil || node.Node() == nil {
		return trueCondition{}, nil
	}
	return c.parseConditionNode(node.Node())
}

func (c *compiler) parseConditionNode(node *yaml.Node) (Condition, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return c.parseConditionMapping(node)
	case yaml.SequenceNode:
		// Bare sequences are an implicit "all".
		children, err := c.parseConditionSequence(node)
		if err != nil {
			return nil, err
		}
		return allCondition{children: children}, nil
	case yaml.ScalarNode:
		var boolVal bool
		if err := node.Decode(&boolVal); err == nil {
			if boolVal {
				return trueCondition{}, nil
			}
			return falseCondition{}, nil
		}
		return nil, fmt.Errorf("line %d: unsupported scalar condition: %s", node.Line, node.Value)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

var durationKeys = [4]string{"lt_seconds", "lte_seconds", "gt_seconds", "gte_seconds"}
var valueKeys = [4]string{"lt", "lte", "gt", "gte"}

func (c *compiler) parseConditionMapping(node *yaml.Node) (Condition, error) {
	if len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: condition mapping must have exactly one entry", node.Line)
	}

	key := node.Content[0].Value
	val := node.Content[1]

	switch key {
	case "all", "any":
		children, err := c.parseConditionSequence(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if key == "all" {
			return allCondition{children: children}, nil
		}
		return anyCondition{children: children}, nil
	case "not":
		child, err := c.parseConditionNode(val)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return notCondition{child: child}, nil
	case "true":
		return trueCondition{}, nil
	case "false":
		return falseCondition{}, nil
	}

	params, err := nodeToMap(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	cond, err := c.parseLeaf(key, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return cond, nil
}

func (c *compiler) parseLeaf(key string, params map[string]*yaml.Node) (Condition, error) {
	switch key {
	case "buff_active", "debuff_active":
		field := strings.TrimSuffix(key, "_active")
		if err := checkFields(params, field, "min_remaining", "max_remaining"); err != nil {
			return nil, err
		}
		raw, err := c.stringField(params, field, true)
		if err != nil {
			return nil, err
		}
		name, err := c.aura(field, raw)
		if err != nil {
			return nil, err
		}
		cond := auraCondition{name: name, onTarget: field == "debuff"}
		if cond.minRemaining, err = c.durationField(params, "min_remaining"); err != nil {
			return nil, err
		}
		if cond.maxRemaining, err = c.durationField(params, "max_remaining"); err != nil {
			return nil, err
		}
		return cond, nil
	case "dot_remaining", "debuff_remaining":
		name, b, err := c.namedDurationBounds(params, "spell", c.auraResolver("debuff"))
		if err != nil {
			return nil, err
		}
		return metricCondition[time.Duration]{read: func(ctx EvaluationContext) time.Duration { return ctx.DebuffRemaining(name) }, rate: countingDown, bounds: b}, nil
	case "buff_remaining":
		name, b, err := c.namedDurationBounds(params, "buff", c.auraResolver("buff"))
		if err != nil {
			return nil, err
		}
		return metricCondition[time.Duration]{read: func(ctx EvaluationContext) time.Duration { return ctx.BuffRemaining(name) }, rate: countingDown, bounds: b}, nil
	case "cooldown_remaining":
		name, b, err := c.namedDurationBounds(params, "spell", c.ability)
		if err != nil {
			return nil, err
		}
		return metricCondition[time.Duration]{read: func(ctx EvaluationContext) time.Duration { return ctx.CooldownRemaining(name) }, rate: countingDown, bounds: b}, nil
	case "resource_percent", "resource_amount":
		if err := checkFields(params, append([]string{"resource"}, valueKeys[:]...)...); err != nil {
			return nil, err
		}
		raw, err := c.stringField(params, "resource", true)
		if err != nil {
			return nil, err
		}
		res, err := c.resource(raw)
		if err != nil {
			return nil, err
		}
		b, err := floatBounds(c, params)
		if err != nil {
			return nil, err
		}
		if key == "resource_percent" {
			return metricCondition[float64]{read: func(ctx EvaluationContext) float64 { return ctx.ResourcePercent(res) }, bounds: b}, nil
		}
		return metricCondition[float64]{read: func(ctx EvaluationContext) float64 { return ctx.ResourceAmount(res) }, bounds: b}, nil
	case "charges":
		if err := checkFields(params, append([]string{"buff"}, valueKeys[:]...)...); err != nil {
			return nil, err
		}
		raw, err := c.stringField(params, "buff", true)
		if err != nil {
			return nil, err
		}
		buff, err := c.aura("buff", raw)
		if err != nil {
			return nil, err
		}
		var b bounds[int]
		ptrs := [4]**int{&b.lt, &b.lte, &b.gt, &b.gte}
		for i, k := range valueKeys {
			if *ptrs[i], err = c.intField(params, k); err != nil {
				return nil, err
			}
		}
		if b.empty() {
			return nil, fmt.Errorf("at least one of lt/lte/gt/gte is required")
		}
		return metricCondition[int]{read: func(ctx EvaluationContext) int { return ctx.BuffCharges(buff) }, bounds: b}, nil
	case "target_health_percent":
		if err := checkFields(params, valueKeys[:]...); err != nil {
			return nil, err
		}
		b, err := floatBounds(c, params)
		if err != nil {
			return nil, err
		}
		return metricCondition[float64]{read: EvaluationContext.TargetHealthPercent, rate: healthDrift, bounds: b}, nil
	case "time_remaining", "time_elapsed":
		if err := checkFields(params, durationKeys[:]...); err != nil {
			return nil, err
		}
		b, err := durationBounds(c, params)
		if err != nil {
			return nil, err
		}
		if key == "time_remaining" {
			return metricCondition[time.Duration]{read: EvaluationContext.TimeRemaining, rate: countingDown, bounds: b}, nil
		}
		return metricCondition[time.Duration]{read: EvaluationContext.TimeElapsed, rate: elapsing, bounds: b}, nil
	case "cooldown_ready", "can_cast":
		if err := checkFields(params, "spell"); err != nil {
			return nil, err
		}
		raw, err := c.stringField(params, "spell", true)
		if err != nil {
			return nil, err
		}
		name, err := c.ability(raw)
		if err != nil {
			return nil, err
		}
		if key == "can_cast" {
			return canCastCondition{name: name}, nil
		}
		return cooldownReadyCondition{name: name}, nil
	default:
		return nil, fmt.Errorf("unknown condition")
	}
}

func (c *compiler) auraResolver(kind string) func(string) (string, error) {
	return func(name string) (string, error) { return c.aura(kind, name) }
}

func (c *compiler) namedDurationBounds(params map[string]*yaml.Node, field string, resolve func(string) (string, error)) (string, bounds[time.Duration], error) {
	if err := checkFields(params, append([]string{field}, durationKeys[:]...)...); err != nil {
		return "", bounds[time.Duration]{}, err
	}
	raw, err := c.stringField(params, field, true)
	if err != nil {
		return "", bounds[time.Duration]{}, err
	}
	name, err := resolve(raw)
	if err != nil {
		return "", bounds[time.Duration]{}, err
	}
	b, err := durationBounds(c, params)
	return name, b, err
}

func durationBounds(c *compiler, params map[string]*yaml.Node) (bounds[time.Duration], error) {
	var b bounds[time.Duration]
	ptrs := [4]**time.Duration{&b.lt, &b.lte, &b.gt, &b.gte}
	for i, k := range durationKeys {
		v, err := c.durationField(params, k)
		if err != nil {
			return b, err
		}
		*ptrs[i] = v
	}
	if b.empty() {
		return b, fmt.Errorf("at least one of lt_seconds/lte_seconds/gt_seconds/gte_seconds is required")
	}
	return b, nil
}

func floatBounds(c *compiler, params map[string]*yaml.Node) (bounds[float64], error) {
	var b bounds[float64]
	ptrs := [4]**float64{&b.lt, &b.lte, &b.gt, &b.gte}
	for i, k := range valueKeys {
		v, err := c.floatField(params, k)
		if err != nil {
			return b, err
		}
		*ptrs[i] = v
	}
	if b.empty() {
		return b, fmt.Errorf("at least one of lt/lte/gt/gte is required")
	}
	return b, nil
}

func (c *compiler) parseConditionSequence(node *yaml.Node) ([]Condition, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected sequence", node.Line)
	}
	children := make([]Condition, 0, len(node.Content))
	for idx, childNode := range node.Content {
		child, err := c.parseConditionNode(childNode)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", idx, err)
		}
		children = append(children, child)
	}
	return children, nil
}

func nodeToMap(node *yaml.Node) (map[string]*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected mapping node", node.Line)
	}
	result := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		result[node.Content[i].Value] = node.Content[i+1]
	}
	return result, nil
}

func checkFields(params map[string]*yaml.Node, allowed ...string) error {
	var unknown []string
	for key := range params {
		found := false
		for _, a := range allowed {
			if key == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown field(s) %s", strings.Join(unknown, ", "))
	}
	return nil
}

func (c *compiler) stringField(fields map[string]*yaml.Node, key string, required bool) (string, error) {
	node, ok := fields[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing field '%s'", key)
		}
		return "", nil
	}
	val, err := c.resolveScalar(node)
	if err != nil {
		return "", err
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func (c *compiler) durationField(fields map[string]*yaml.Node, key string) (*time.Duration, error) {
	val, err := c.floatField(fields, key)
	if err != nil || val == nil {
		return nil, err
	}
	d := time.Duration(*val * float64(time.Second))
	return &d, nil
}

func (c *compiler) floatField(fields map[string]*yaml.Node, key string) (*float64, error) {
	node, ok := fields[key]
	if !ok {
		return nil, nil
	}
	val, err := c.resolveScalar(node)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	case uint64:
		f := float64(v)
		return &f, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", key, err)
		}
		return &parsed, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float for key '%s'", v, key)
	}
}

func (c *compiler) intField(fields map[string]*yaml.Node, key string) (*int, error) {
	f, err := c.floatField(fields, key)
	if err != nil || f == nil {
		return nil, err
	}
	n := int(*f)
	if float64(n) != *f {
		return nil, fmt.Errorf("field '%s': %v is not a whole number", key, *f)
	}
	return &n, nil
}

// resolveScalar decodes a scalar, substituting ${name} from rotation variables.
func (c *compiler) resolveScalar(node *yaml.Node) (any, error) {
	var out any
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	str, ok := out.(string)
	if !ok {
		return out, nil
	}
	str = strings.TrimSpace(str)
	if !strings.HasPrefix(str, "${") || !strings.HasSuffix(str, "}") {
		return out, nil
	}
	name := strings.TrimSpace(str[2 : len(str)-1])
	val, ok := c.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable '%s' not defined", name)
	}
	return val, nil
}
