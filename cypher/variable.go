package cypher

import (
	"slices"
	"strings"
)

// Reference is a variable-like expression whose display name is assigned
// by the Environment. The same reference instance may appear anywhere in a
// tree and always compiles to the same name within one build.
type Reference interface {
	Expr
	explicitName() string
	nameHint() string
}

// Variable is a plain variable reference, auto-named var<N>.
type Variable struct {
	name string
}

// NewVariable creates an anonymous variable.
func NewVariable() *Variable {
	return &Variable{}
}

// NewNamedVariable creates a variable that keeps name in the output.
// An empty name behaves like NewVariable.
func NewNamedVariable(name string) *Variable {
	return &Variable{name: name}
}

func (*Variable) exprNode()              {}
func (v *Variable) explicitName() string { return v.name }
func (*Variable) nameHint() string       { return hintVariable }

// Children returns nil; references are leaves.
func (*Variable) Children() []Node { return nil }

// Compile renders the variable name.
func (v *Variable) Compile(env *Environment) (string, error) {
	return compileReference(env, v)
}

// Property returns an access to a property of the variable.
func (v *Variable) Property(path ...string) *PropertyRef {
	return newProperty(v, path)
}

// NodeRef is a variable bound to graph nodes, auto-named this<N>.
// Its labels are rendered by patterns, not by the reference itself.
type NodeRef struct {
	name   string
	labels []string
}

// NewNode creates an anonymous node variable with the given labels.
func NewNode(labels ...string) *NodeRef {
	return &NodeRef{labels: slices.Clone(labels)}
}

// NewNamedNode creates a node variable that keeps name in the output.
func NewNamedNode(name string, labels ...string) *NodeRef {
	return &NodeRef{name: name, labels: slices.Clone(labels)}
}

func (*NodeRef) exprNode()              {}
func (n *NodeRef) explicitName() string { return n.name }
func (*NodeRef) nameHint() string       { return hintNode }

// Labels returns a copy of the node labels.
func (n *NodeRef) Labels() []string { return slices.Clone(n.labels) }

// Children returns nil; references are leaves.
func (*NodeRef) Children() []Node { return nil }

// Compile renders the variable name.
func (n *NodeRef) Compile(env *Environment) (string, error) {
	return compileReference(env, n)
}

// Property returns an access to a property of the node.
func (n *NodeRef) Property(path ...string) *PropertyRef {
	return newProperty(n, path)
}

// RelationshipRef is a variable bound to relationships, auto-named this<N>.
type RelationshipRef struct {
	name    string
	relType string
}

// NewRelationship creates an anonymous relationship variable.
// An empty type matches any relationship type.
func NewRelationship(relType string) *RelationshipRef {
	return &RelationshipRef{relType: relType}
}

// NewNamedRelationship creates a relationship variable that keeps name.
func NewNamedRelationship(name, relType string) *RelationshipRef {
	return &RelationshipRef{name: name, relType: relType}
}

func (*RelationshipRef) exprNode()              {}
func (r *RelationshipRef) explicitName() string { return r.name }
func (*RelationshipRef) nameHint() string       { return hintRelationship }

// Type returns the relationship type.
func (r *RelationshipRef) Type() string { return r.relType }

// Children returns nil; references are leaves.
func (*RelationshipRef) Children() []Node { return nil }

// Compile renders the variable name.
func (r *RelationshipRef) Compile(env *Environment) (string, error) {
	return compileReference(env, r)
}

// Property returns an access to a property of the relationship.
func (r *RelationshipRef) Property(path ...string) *PropertyRef {
	return newProperty(r, path)
}

// PathRef is a variable bound to a whole path, auto-named p<N>.
type PathRef struct {
	name string
}

// NewPath creates an anonymous path variable.
func NewPath() *PathRef {
	return &PathRef{}
}

// NewNamedPath creates a path variable that keeps name.
func NewNamedPath(name string) *PathRef {
	return &PathRef{name: name}
}

func (*PathRef) exprNode()              {}
func (p *PathRef) explicitName() string { return p.name }
func (*PathRef) nameHint() string       { return hintPath }

// Children returns nil; references are leaves.
func (*PathRef) Children() []Node { return nil }

// Compile renders the variable name.
func (p *PathRef) Compile(env *Environment) (string, error) {
	return compileReference(env, p)
}

func compileReference(env *Environment, ref Reference) (string, error) {
	name, err := env.VariableName(ref)
	if err != nil {
		return "", err
	}
	return escapeName(name), nil
}

// PropertyRef renders <expr>.<prop>[.<prop>...].
type PropertyRef struct {
	owner Expr
	path  []string
}

func newProperty(owner Expr, path []string) *PropertyRef {
	return &PropertyRef{owner: owner, path: slices.Clone(path)}
}

// Property extends the access path.
func (p *PropertyRef) Property(path ...string) *PropertyRef {
	return &PropertyRef{owner: p.owner, path: append(slices.Clone(p.path), path...)}
}

func (*PropertyRef) exprNode() {}

// Children returns the owning expression.
func (p *PropertyRef) Children() []Node { return []Node{p.owner} }

// Compile renders the property access.
func (p *PropertyRef) Compile(env *Environment) (string, error) {
	if len(p.path) == 0 {
		return "", newCompileError("Property", "property path is empty")
	}
	owner, err := p.owner.Compile(env)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(owner)
	for _, segment := range p.path {
		if segment == "" {
			return "", newCompileError("Property", "empty property name")
		}
		b.WriteByte('.')
		b.WriteString(escapeName(segment))
	}
	return b.String(), nil
}
