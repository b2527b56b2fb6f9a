package cypher

import (
	"maps"
	"slices"
	"strings"
)

// Direction is the direction of a relationship in a pattern.
type Direction int

const (
	// DirectionRight renders -[r]->.
	DirectionRight Direction = iota
	// DirectionLeft renders <-[r]-.
	DirectionLeft
	// DirectionUndirected renders -[r]-.
	DirectionUndirected
)

type patternNode struct {
	node       *NodeRef
	properties map[string]Expr
	noLabels   bool
}

type patternHop struct {
	rel        *RelationshipRef
	properties map[string]Expr
	direction  Direction
	to         *patternNode
}

// Pattern is a graph pattern such as (a:`Movie`)-[r:`ACTED_IN`]->(b).
// Builder methods return a new Pattern and leave the receiver unchanged.
type Pattern struct {
	start patternNode
	hops  []patternHop
	err   error
}

// NewPattern starts a pattern at node.
func NewPattern(node *NodeRef) *Pattern {
	p := &Pattern{start: patternNode{node: node}}
	if node == nil {
		p.err = newConstructionError("Pattern", "pattern start node is nil")
	}
	return p
}

func (p *Pattern) clone() *Pattern {
	c := *p
	c.hops = slices.Clone(p.hops)
	return &c
}

// Related adds a relationship leaving the last node. It must be followed
// by To.
func (p *Pattern) Related(rel *RelationshipRef) *Pattern {
	c := p.clone()
	switch {
	case c.err != nil:
	case rel == nil:
		c.err = newConstructionError("Pattern", "relationship is nil")
	case c.pending():
		c.err = newConstructionError("Pattern", "Related called before the previous relationship got a target node")
	default:
		c.hops = append(c.hops, patternHop{rel: rel})
	}
	return c
}

// To sets the target node of the last relationship.
func (p *Pattern) To(node *NodeRef) *Pattern {
	c := p.clone()
	switch {
	case c.err != nil:
	case node == nil:
		c.err = newConstructionError("Pattern", "target node is nil")
	case !c.pending():
		c.err = newConstructionError("Pattern", "To called without a preceding Related")
	default:
		c.hops[len(c.hops)-1].to = &patternNode{node: node}
	}
	return c
}

// WithDirection sets the direction of the last relationship.
func (p *Pattern) WithDirection(d Direction) *Pattern {
	c := p.clone()
	if c.err == nil && len(c.hops) == 0 {
		c.err = newConstructionError("Pattern", "WithDirection called on a pattern without relationships")
		return c
	}
	if c.err == nil {
		c.hops[len(c.hops)-1].direction = d
	}
	return c
}

// WithProperties sets inline properties on the last element of the
// pattern: the pending relationship, or else the last node.
func (p *Pattern) WithProperties(properties map[string]Expr) *Pattern {
	c := p.clone()
	if c.err != nil {
		return c
	}
	props := maps.Clone(properties)
	switch {
	case c.pending():
		c.hops[len(c.hops)-1].properties = props
	case len(c.hops) > 0:
		to := *c.hops[len(c.hops)-1].to
		to.properties = props
		c.hops[len(c.hops)-1].to = &to
	default:
		c.start.properties = props
	}
	return c
}

// WithoutLabels renders the last node without its labels, for nodes
// already introduced earlier in the query.
func (p *Pattern) WithoutLabels() *Pattern {
	c := p.clone()
	if c.err != nil {
		return c
	}
	if n := len(c.hops); n > 0 && c.hops[n-1].to != nil {
		to := *c.hops[n-1].to
		to.noLabels = true
		c.hops[n-1].to = &to
		return c
	}
	c.start.noLabels = true
	return c
}

// pending reports whether the last relationship has no target yet.
func (p *Pattern) pending() bool {
	return len(p.hops) > 0 && p.hops[len(p.hops)-1].to == nil
}

// Err returns the first construction error of the pattern.
func (p *Pattern) Err() error {
	if p.err != nil {
		return p.err
	}
	if p.pending() {
		return newConstructionError("Pattern", "relationship has no target node")
	}
	return nil
}

func (*Pattern) exprNode() {}

// Children returns nodes, relationships and property values in render order.
func (p *Pattern) Children() []Node {
	var out []Node
	out = appendPatternNode(out, &p.start)
	for _, hop := range p.hops {
		if hop.rel != nil {
			out = append(out, hop.rel)
		}
		out = appendProperties(out, hop.properties)
		if hop.to != nil {
			out = appendPatternNode(out, hop.to)
		}
	}
	return out
}

func appendPatternNode(out []Node, n *patternNode) []Node {
	if n.node != nil {
		out = append(out, n.node)
	}
	return appendProperties(out, n.properties)
}

func appendProperties(out []Node, props map[string]Expr) []Node {
	for _, k := range slices.Sorted(maps.Keys(props)) {
		out = appendNode(out, props[k])
	}
	return out
}

// Compile renders the pattern.
func (p *Pattern) Compile(env *Environment) (string, error) {
	if err := p.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	start, err := compilePatternNode(env, &p.start)
	if err != nil {
		return "", err
	}
	b.WriteString(start)

	for _, hop := range p.hops {
		rel, err := compilePatternRelationship(env, hop)
		if err != nil {
			return "", err
		}
		to, err := compilePatternNode(env, hop.to)
		if err != nil {
			return "", err
		}
		b.WriteString(rel)
		b.WriteString(to)
	}
	return b.String(), nil
}

func compilePatternNode(env *Environment, n *patternNode) (string, error) {
	name, err := n.node.Compile(env)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(name)
	if !n.noLabels {
		for _, label := range n.node.labels {
			b.WriteByte(':')
			b.WriteString(escapeLabel(label))
		}
	}
	props, err := compileProperties(env, n.properties)
	if err != nil {
		return "", err
	}
	b.WriteString(props)
	b.WriteByte(')')
	return b.String(), nil
}

func compilePatternRelationship(env *Environment, hop patternHop) (string, error) {
	name, err := hop.rel.Compile(env)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(name)
	if hop.rel.relType != "" {
		b.WriteByte(':')
		b.WriteString(escapeLabel(hop.rel.relType))
	}
	props, err := compileProperties(env, hop.properties)
	if err != nil {
		return "", err
	}
	b.WriteString(props)
	b.WriteByte(']')

	switch hop.direction {
	case DirectionLeft:
		return "<-" + b.String() + "-", nil
	case DirectionUndirected:
		return "-" + b.String() + "-", nil
	default:
		return "-" + b.String() + "->", nil
	}
}

// compileProperties renders " { a: x, b: y }" with sorted keys, or "".
func compileProperties(env *Environment, props map[string]Expr) (string, error) {
	if len(props) == 0 {
		return "", nil
	}
	keys := slices.Sorted(maps.Keys(props))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if isNil(props[k]) {
			return "", newCompileError("Pattern", "property %q has no value", k)
		}
		v, err := props[k].Compile(env)
		if err != nil {
			return "", err
		}
		parts = append(parts, escapeName(k)+": "+v)
	}
	return " { " + strings.Join(parts, ", ") + " }", nil
}
