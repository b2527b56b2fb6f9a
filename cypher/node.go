package cypher

import (
	"reflect"
	"regexp"
	"slices"
	"strings"
)

// Node is the unit of compilation.
//
// Every node declares its owned children and compiles itself to Cypher text
// against the Environment of the current build. Children are fixed when the
// node is constructed and never mutated afterwards.
type Node interface {
	// Compile renders the node. It may register variables and parameters
	// with env but must not keep a reference to it.
	Compile(env *Environment) (string, error)

	// Children returns the node's direct children in render order.
	Children() []Node
}

// Expr is an inline expression: a value, a variable reference, a function
// call or an operator application. It compiles to a single token.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	Node
	exprNode() // Marker method - seals interface to this package
}

// Clause is a statement fragment that compiles to one or more lines.
//
// This is a sealed interface - only types in this package implement it.
type Clause interface {
	Node
	clauseNode() // Marker method - seals interface to this package

	// Err returns the first construction error recorded by a builder call.
	Err() error
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// escapeLabel renders a label or relationship type delimited with backticks.
// Backticks inside the label are doubled.
func escapeLabel(label string) string {
	return "`" + strings.ReplaceAll(label, "`", "``") + "`"
}

// escapeName renders a variable or property name, adding backticks only
// when the name is not a plain identifier.
func escapeName(name string) string {
	if identifierPattern.MatchString(name) {
		return name
	}
	return escapeLabel(name)
}

// compileList compiles each node and returns the rendered tokens.
func compileList[T Node](env *Environment, nodes []T) ([]string, error) {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s, err := n.Compile(env)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// compileJoined compiles each node and joins the tokens with sep.
func compileJoined[T Node](env *Environment, nodes []T, sep string) (string, error) {
	parts, err := compileList(env, nodes)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, sep), nil
}

// asNodes widens a typed slice to []Node for Children implementations.
func asNodes[T Node](items []T) []Node {
	out := make([]Node, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// hasNil reports whether any item is nil in the sense of isNil.
func hasNil[T any](items []T) bool {
	return slices.ContainsFunc(items, func(item T) bool { return isNil(item) })
}

// appendNode appends n to nodes when n is not nil.
func appendNode(nodes []Node, n Node) []Node {
	if isNil(n) {
		return nodes
	}
	return append(nodes, n)
}
