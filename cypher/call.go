package cypher

import (
	"slices"
	"strings"
)

// Call wraps a complete inner statement in a CALL { ... } sub-query.
//
// The inner statement is compiled with the same Environment, one level
// deeper, so its variables and parameters continue the numbering of the
// enclosing query:
//
//	CALL {
//	    WITH this0
//	    MATCH (this0:`Movie`)
//	    RETURN this0.title AS movie
//	}
type Call struct {
	inner   Clause
	imports []Reference
	next    Clause
	err     error
}

// NewCall creates a sub-query around inner.
func NewCall(inner Clause) *Call {
	c := &Call{inner: inner}
	if isNil(inner) {
		c.err = newConstructionError("Call", "inner statement is nil")
	}
	return c
}

func (c *Call) clone() *Call {
	n := *c
	n.imports = slices.Clone(c.imports)
	n.inner = copyClause(c.inner)
	n.next = copyClause(c.next)
	return &n
}

func (c *Call) fail(err error) *Call {
	if c.err == nil {
		c.err = err
	}
	return c
}

// InnerWith imports outer variables into the sub-query. They are rendered
// as a WITH line before the inner statement.
func (c *Call) InnerWith(refs ...Reference) *Call {
	n := c.clone()
	if hasNil(refs) {
		return n.fail(newConstructionError("Call", "imported variable is nil"))
	}
	n.imports = append(n.imports, refs...)
	return n
}

// Return appends a RETURN clause after the sub-query block.
func (c *Call) Return(items ...Expr) *Call {
	return c.Then(NewReturn(items...))
}

// Then appends the clause that follows the sub-query block.
func (c *Call) Then(next Clause) *Call {
	n := c.clone()
	if isNil(next) {
		return n.fail(newConstructionError("Call", "next clause is nil"))
	}
	n.next = chain(n.next, next)
	return n
}

func (*Call) clauseNode() {}

// Err returns the first construction error of the wrapper itself.
// Errors of the inner statement are reported by the inner clauses.
func (c *Call) Err() error { return c.err }

// Children returns the imports, the inner statement and the next clause.
func (c *Call) Children() []Node {
	out := asNodes(c.imports)
	out = appendNode(out, c.inner)
	return appendNode(out, c.next)
}

// Compile renders the block.
func (c *Call) Compile(env *Environment) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	var b block
	b.line(env, "CALL {")
	body, err := c.compileBody(env)
	if err != nil {
		return "", err
	}
	b.raw(body)
	b.line(env, "}")
	if err := compileTail(env, &b, c.next); err != nil {
		return "", err
	}
	return b.String(), nil
}

// compileBody renders the import line and the inner statement one level
// deeper than the enclosing clause.
func (c *Call) compileBody(env *Environment) (string, error) {
	env.Indent()
	defer env.Dedent()

	var b block
	if len(c.imports) > 0 {
		names, err := compileJoined(env, c.imports, ", ")
		if err != nil {
			return "", err
		}
		b.line(env, "WITH "+names)
	}
	inner, err := c.inner.Compile(env)
	if err != nil {
		return "", err
	}
	b.raw(inner)
	return b.String(), nil
}

// Concat renders clauses one after another, each on its own lines.
type Concat struct {
	clauses []Clause
	err     error
}

// NewConcat creates a sequence of clauses.
func NewConcat(clauses ...Clause) *Concat {
	c := &Concat{clauses: slices.Clone(clauses)}
	if hasNil(clauses) {
		c.err = newConstructionError("Concat", "clause is nil")
	}
	return c
}

func (c *Concat) clone() *Concat {
	return &Concat{clauses: copyClauses(c.clauses), err: c.err}
}

// Then returns a sequence with next appended.
func (c *Concat) Then(next Clause) *Concat {
	n := c.clone()
	n.clauses = append(n.clauses, next)
	if isNil(next) && n.err == nil {
		n.err = newConstructionError("Concat", "clause is nil")
	}
	return n
}

func (*Concat) clauseNode() {}

// Err returns the first construction error.
func (c *Concat) Err() error { return c.err }

// Children returns the clauses.
func (c *Concat) Children() []Node { return asNodes(c.clauses) }

// Compile renders each clause in declaration order.
func (c *Concat) Compile(env *Environment) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	var b block
	for _, clause := range c.clauses {
		text, err := clause.Compile(env)
		if err != nil {
			return "", err
		}
		b.raw(text)
	}
	return b.String(), nil
}

// Union combines the results of several statements.
type Union struct {
	clauses []Clause
	all     bool
	err     error
}

// NewUnion joins statements with UNION.
func NewUnion(clauses ...Clause) *Union {
	return newUnion(clauses, false)
}

// NewUnionAll joins statements with UNION ALL.
func NewUnionAll(clauses ...Clause) *Union {
	return newUnion(clauses, true)
}

func newUnion(clauses []Clause, all bool) *Union {
	u := &Union{clauses: slices.Clone(clauses), all: all}
	switch {
	case len(clauses) < 2:
		u.err = newConstructionError("Union", "UNION requires at least two statements")
	case hasNil(clauses):
		u.err = newConstructionError("Union", "statement is nil")
	}
	return u
}

func (u *Union) clone() *Union {
	c := *u
	c.clauses = copyClauses(u.clauses)
	return &c
}

func (*Union) clauseNode() {}

// Err returns the first construction error.
func (u *Union) Err() error { return u.err }

// Children returns the statements.
func (u *Union) Children() []Node { return asNodes(u.clauses) }

// Compile renders the statements separated by UNION lines.
func (u *Union) Compile(env *Environment) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	keyword := "UNION"
	if u.all {
		keyword = "UNION ALL"
	}
	parts := make([]string, 0, len(u.clauses))
	for _, clause := range u.clauses {
		text, err := clause.Compile(env)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"+env.Pad(keyword)+"\n"), nil
}
