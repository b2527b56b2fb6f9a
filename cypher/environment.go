package cypher

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// IndentUnit is the text added per nesting level of a sub-query block.
const IndentUnit = "    "

// Default name hints for auto-named references.
const (
	hintNode         = "this"
	hintRelationship = "this"
	hintVariable     = "var"
	hintPath         = "p"
	hintParam        = "param"
)

// Environment is the naming and scoping registry of one build pass.
//
// It hands out variable names and parameter keys in first-encountered
// order, records parameter values and tracks the current nesting depth.
// Nested sub-queries share the Environment of their parent, so numbering
// continues across levels instead of restarting.
//
// An Environment is created by Build and is valid for exactly one build.
// Once ResolveParameters has been called it is sealed and every further
// registration fails. It is not safe for concurrent use.
type Environment struct {
	prefix string

	varCount   int
	paramCount int
	depth      int
	maxDepth   int

	varNames map[Reference]string
	taken    map[string]Reference // nil value: fresh name from RegisterVariable
	reserved map[string]bool      // explicit names found before compilation

	paramKeys      map[*Param]string
	paramOrder     []string
	paramValues    map[string]any
	namedParams    map[string]bool
	reservedParams map[string]bool

	sealed bool
}

func newEnvironment(prefix string) *Environment {
	return &Environment{
		prefix:         prefix,
		varNames:       make(map[Reference]string),
		taken:          make(map[string]Reference),
		reserved:       make(map[string]bool),
		paramKeys:      make(map[*Param]string),
		paramValues:    make(map[string]any),
		namedParams:    make(map[string]bool),
		reservedParams: make(map[string]bool),
	}
}

// VariableName returns the display name of ref, assigning one on first use.
//
// References with an explicit name keep it. Anonymous references receive
// <prefix><hint><N>, where N comes from a counter shared by all hints.
// Repeated calls for the same reference return the same name.
func (e *Environment) VariableName(ref Reference) (string, error) {
	if err := e.checkOpen(); err != nil {
		return "", err
	}
	if isNil(ref) {
		return "", newCompileError("Variable", "variable reference is nil")
	}
	if name, ok := e.varNames[ref]; ok {
		return name, nil
	}

	if explicit := ref.explicitName(); explicit != "" {
		if owner, ok := e.taken[explicit]; ok && (owner == nil || owner.explicitName() != explicit) {
			return "", newNamingConflict("explicit variable name %q is already assigned to another variable", explicit)
		}
		e.varNames[ref] = explicit
		e.taken[explicit] = ref
		return explicit, nil
	}

	name := e.nextVariableName(ref.nameHint())
	e.varNames[ref] = name
	e.taken[name] = ref
	return name, nil
}

// RegisterVariable allocates a fresh variable name that is not bound to
// any reference. An empty hint falls back to "this".
func (e *Environment) RegisterVariable(hint string) (string, error) {
	if err := e.checkOpen(); err != nil {
		return "", err
	}
	name := e.nextVariableName(hint)
	e.taken[name] = nil
	return name, nil
}

func (e *Environment) nextVariableName(hint string) string {
	if hint == "" {
		hint = hintNode
	}
	for {
		name := e.prefix + hint + strconv.Itoa(e.varCount)
		e.varCount++
		if _, ok := e.taken[name]; ok {
			continue
		}
		if e.reserved[name] {
			continue
		}
		return name
	}
}

// ParameterKey returns the key of p, registering its value on first use.
//
// Anonymous parameters receive <prefix>param<N>. Named parameters use their
// own name; two named parameters may share a name only when their values
// are equal.
func (e *Environment) ParameterKey(p *Param) (string, error) {
	if err := e.checkOpen(); err != nil {
		return "", err
	}
	if key, ok := e.paramKeys[p]; ok {
		return key, nil
	}

	if p.name != "" {
		if existing, ok := e.paramValues[p.name]; ok {
			if !e.namedParams[p.name] {
				return "", newNamingConflict("parameter name %q is already used by an anonymous parameter", p.name)
			}
			if !reflect.DeepEqual(existing, p.value) {
				return "", newNamingConflict("parameter %q is bound to two different values", p.name)
			}
			e.paramKeys[p] = p.name
			return p.name, nil
		}
		e.namedParams[p.name] = true
		e.storeParameter(p.name, p.value)
		e.paramKeys[p] = p.name
		return p.name, nil
	}

	key := e.nextParameterKey()
	e.storeParameter(key, p.value)
	e.paramKeys[p] = key
	return key, nil
}

// RegisterParameter stores value under a fresh key and returns the key.
func (e *Environment) RegisterParameter(value any) (string, error) {
	if err := e.checkOpen(); err != nil {
		return "", err
	}
	key := e.nextParameterKey()
	e.storeParameter(key, value)
	return key, nil
}

func (e *Environment) nextParameterKey() string {
	for {
		key := e.prefix + hintParam + strconv.Itoa(e.paramCount)
		e.paramCount++
		if _, ok := e.paramValues[key]; ok {
			continue
		}
		if e.reservedParams[key] {
			continue
		}
		return key
	}
}

func (e *Environment) storeParameter(key string, value any) {
	e.paramOrder = append(e.paramOrder, key)
	e.paramValues[key] = value
}

// Indent enters one nesting level.
func (e *Environment) Indent() {
	e.depth++
	if e.depth > e.maxDepth {
		e.maxDepth = e.depth
	}
}

// Dedent leaves one nesting level. It never goes below zero.
func (e *Environment) Dedent() {
	if e.depth > 0 {
		e.depth--
	}
}

// Depth returns the current nesting depth.
func (e *Environment) Depth() int {
	return e.depth
}

// Pad prefixes line with one IndentUnit per nesting level.
func (e *Environment) Pad(line string) string {
	return strings.Repeat(IndentUnit, e.depth) + line
}

// ResolveParameters returns a snapshot of every key→value association and
// seals the Environment.
func (e *Environment) ResolveParameters() map[string]any {
	e.sealed = true
	return maps.Clone(e.paramValues)
}

// ParameterKeys returns the registered keys in first-encountered order.
func (e *Environment) ParameterKeys() []string {
	return slices.Clone(e.paramOrder)
}

// checkAlias fails when alias is already the name of another variable.
// An explicit reference of the same name may refer to the alias.
func (e *Environment) checkAlias(alias string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if owner, ok := e.taken[alias]; ok && (owner == nil || owner.explicitName() != alias) {
		return newNamingConflict("alias %q is already assigned to another variable", alias)
	}
	return nil
}

// reserveVariable keeps name away from auto-naming.
func (e *Environment) reserveVariable(name string) {
	e.reserved[name] = true
}

// reserveParameter keeps key away from auto-keying.
func (e *Environment) reserveParameter(key string) {
	e.reservedParams[key] = true
}

func (e *Environment) checkOpen() error {
	if e.sealed {
		return &Error{
			Code:    ErrCodeEnvironmentSealed,
			Message: "environment already resolved; create a new build",
		}
	}
	return nil
}
