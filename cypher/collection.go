package cypher

import (
	"maps"
	"slices"
	"strings"
)

// ListExpr renders [a, b, c] from expressions.
// Use Literal or Param for lists of plain values.
type ListExpr struct {
	items []Expr
}

// NewList creates a list expression.
func NewList(items ...Expr) *ListExpr {
	return &ListExpr{items: slices.Clone(items)}
}

func (*ListExpr) exprNode() {}

// Children returns the items.
func (l *ListExpr) Children() []Node { return asNodes(l.items) }

// Compile renders the list.
func (l *ListExpr) Compile(env *Environment) (string, error) {
	if hasNil(l.items) {
		return "", newCompileError("List", "list item is nil")
	}
	items, err := compileJoined(env, l.items, ", ")
	if err != nil {
		return "", err
	}
	return "[" + items + "]", nil
}

// MapExpr renders {k: v, ...} with keys in sorted order.
type MapExpr struct {
	entries map[string]Expr
}

// NewMap creates a map projection from expressions.
func NewMap(entries map[string]Expr) *MapExpr {
	return &MapExpr{entries: maps.Clone(entries)}
}

func (*MapExpr) exprNode() {}

// Children returns the values in key order.
func (m *MapExpr) Children() []Node { return appendProperties(nil, m.entries) }

// Compile renders the map.
func (m *MapExpr) Compile(env *Environment) (string, error) {
	keys := slices.Sorted(maps.Keys(m.entries))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if isNil(m.entries[k]) {
			return "", newCompileError("Map", "map entry %q has no value", k)
		}
		v, err := m.entries[k].Compile(env)
		if err != nil {
			return "", err
		}
		parts = append(parts, escapeName(k)+": "+v)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}
