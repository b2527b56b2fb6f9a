package cypher

import "slices"

// Set is a standalone SET clause.
type Set struct {
	items []SetItem
	next  Clause
	err   error
}

// NewSet creates a SET clause with at least one assignment.
func NewSet(items ...SetItem) *Set {
	s := &Set{items: slices.Clone(items)}
	if len(items) == 0 {
		s.err = newConstructionError("Set", "at least one assignment is required")
	} else {
		s.err = validateSetItems("Set", items)
	}
	return s
}

func (s *Set) clone() *Set {
	c := *s
	c.items = slices.Clone(s.items)
	c.next = copyClause(s.next)
	return &c
}

// Then appends the clause that follows this one.
func (s *Set) Then(next Clause) *Set {
	c := s.clone()
	if isNil(next) {
		if c.err == nil {
			c.err = newConstructionError("Set", "next clause is nil")
		}
		return c
	}
	c.next = chain(c.next, next)
	return c
}

func (*Set) clauseNode() {}

// Err returns the first construction error.
func (s *Set) Err() error { return s.err }

// Children returns assignments and the next clause.
func (s *Set) Children() []Node {
	return appendNode(setChildren(s.items), s.next)
}

// Compile renders the clause.
func (s *Set) Compile(env *Environment) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var b block
	if err := compileSetBlock(env, &b, "SET", s.items); err != nil {
		return "", err
	}
	if err := compileTail(env, &b, s.next); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Delete is a standalone DELETE or DETACH DELETE clause.
type Delete struct {
	exprs  []Expr
	detach bool
	next   Clause
	err    error
}

// NewDelete creates a DELETE clause.
func NewDelete(exprs ...Expr) *Delete {
	return &Delete{exprs: slices.Clone(exprs), err: validateExprs("Delete", "delete", exprs)}
}

// NewDetachDelete creates a DETACH DELETE clause.
func NewDetachDelete(exprs ...Expr) *Delete {
	d := NewDelete(exprs...)
	d.detach = true
	return d
}

func (d *Delete) clone() *Delete {
	c := *d
	c.exprs = slices.Clone(d.exprs)
	c.next = copyClause(d.next)
	return &c
}

// Then appends the clause that follows this one.
func (d *Delete) Then(next Clause) *Delete {
	c := d.clone()
	if isNil(next) {
		if c.err == nil {
			c.err = newConstructionError("Delete", "next clause is nil")
		}
		return c
	}
	c.next = chain(c.next, next)
	return c
}

func (*Delete) clauseNode() {}

// Err returns the first construction error.
func (d *Delete) Err() error { return d.err }

// Children returns the deleted expressions and the next clause.
func (d *Delete) Children() []Node {
	return appendNode(asNodes(d.exprs), d.next)
}

// Compile renders the clause.
func (d *Delete) Compile(env *Environment) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	var b block
	if err := compileDeleteLine(env, &b, d.detach, d.exprs); err != nil {
		return "", err
	}
	if err := compileTail(env, &b, d.next); err != nil {
		return "", err
	}
	return b.String(), nil
}

func compileDeleteLine(env *Environment, b *block, detach bool, exprs []Expr) error {
	if len(exprs) == 0 {
		return nil
	}
	items, err := compileJoined(env, exprs, ", ")
	if err != nil {
		return err
	}
	keyword := "DELETE "
	if detach {
		keyword = "DETACH DELETE "
	}
	b.line(env, keyword+items)
	return nil
}

// Unwind renders UNWIND <expr> AS <variable>.
type Unwind struct {
	expr Expr
	as   Reference
	next Clause
	err  error
}

// NewUnwind expands a list expression into rows bound to as.
func NewUnwind(expr Expr, as Reference) *Unwind {
	u := &Unwind{expr: expr, as: as}
	if isNil(expr) || isNil(as) {
		u.err = newConstructionError("Unwind", "UNWIND requires an expression and a variable")
	}
	return u
}

func (u *Unwind) clone() *Unwind {
	c := *u
	c.next = copyClause(u.next)
	return &c
}

// Then appends the clause that follows this one.
func (u *Unwind) Then(next Clause) *Unwind {
	c := u.clone()
	if isNil(next) {
		if c.err == nil {
			c.err = newConstructionError("Unwind", "next clause is nil")
		}
		return c
	}
	c.next = chain(c.next, next)
	return c
}

// Return appends a RETURN clause.
func (u *Unwind) Return(items ...Expr) *Unwind {
	return u.Then(NewReturn(items...))
}

func (*Unwind) clauseNode() {}

// Err returns the first construction error.
func (u *Unwind) Err() error { return u.err }

// Children returns the list expression, the variable and the next clause.
func (u *Unwind) Children() []Node {
	out := appendNode(nil, u.expr)
	out = appendNode(out, u.as)
	return appendNode(out, u.next)
}

// Compile renders the clause.
func (u *Unwind) Compile(env *Environment) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	expr, err := u.expr.Compile(env)
	if err != nil {
		return "", err
	}
	as, err := u.as.Compile(env)
	if err != nil {
		return "", err
	}
	var b block
	b.line(env, "UNWIND "+expr+" AS "+as)
	if err := compileTail(env, &b, u.next); err != nil {
		return "", err
	}
	return b.String(), nil
}
