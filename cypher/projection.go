package cypher

import (
	"slices"
	"strings"
)

// OrderItem is one sort key of ORDER BY.
type OrderItem struct {
	expr Expr
	desc bool
}

// Asc sorts by expr ascending.
func Asc(expr Expr) OrderItem { return OrderItem{expr: expr} }

// Desc sorts by expr descending.
func Desc(expr Expr) OrderItem { return OrderItem{expr: expr, desc: true} }

// Return renders RETURN with optional DISTINCT, ORDER BY, SKIP and LIMIT.
// A Return with no items renders RETURN *.
type Return struct {
	items    []Expr
	distinct bool
	orderBy  []OrderItem
	skip     Expr
	limit    Expr
	err      error
}

// NewReturn creates a RETURN clause.
func NewReturn(items ...Expr) *Return {
	r := &Return{items: slices.Clone(items)}
	if hasNil(items) {
		r.err = newConstructionError("Return", "return item is nil")
	}
	return r
}

func (r *Return) clone() *Return {
	c := *r
	c.items = slices.Clone(r.items)
	c.orderBy = slices.Clone(r.orderBy)
	return &c
}

func (r *Return) fail(err error) *Return {
	if r.err == nil {
		r.err = err
	}
	return r
}

// Distinct renders RETURN DISTINCT.
func (r *Return) Distinct() *Return {
	c := r.clone()
	c.distinct = true
	return c
}

// OrderBy adds sort keys.
func (r *Return) OrderBy(items ...OrderItem) *Return {
	c := r.clone()
	for _, item := range items {
		if isNil(item.expr) {
			return c.fail(newConstructionError("Return", "order by expression is nil"))
		}
	}
	c.orderBy = append(c.orderBy, items...)
	return c
}

// Skip sets the number of rows to skip.
func (r *Return) Skip(expr Expr) *Return {
	c := r.clone()
	if isNil(expr) {
		return c.fail(newConstructionError("Return", "skip expression is nil"))
	}
	c.skip = expr
	return c
}

// Limit sets the maximum number of rows.
func (r *Return) Limit(expr Expr) *Return {
	c := r.clone()
	if isNil(expr) {
		return c.fail(newConstructionError("Return", "limit expression is nil"))
	}
	c.limit = expr
	return c
}

func (*Return) clauseNode() {}

// Err returns the first construction error.
func (r *Return) Err() error { return r.err }

// Children returns items, sort keys, skip and limit.
func (r *Return) Children() []Node {
	out := asNodes(r.items)
	out = append(out, orderChildren(r.orderBy)...)
	out = appendNode(out, r.skip)
	return appendNode(out, r.limit)
}

// Compile renders the clause.
func (r *Return) Compile(env *Environment) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	items, err := compileProjection(env, r.items)
	if err != nil {
		return "", err
	}
	keyword := "RETURN "
	if r.distinct {
		keyword = "RETURN DISTINCT "
	}
	var b block
	b.line(env, keyword+items)
	if err := compileOrderBy(env, &b, r.orderBy); err != nil {
		return "", err
	}
	if r.skip != nil {
		skip, err := r.skip.Compile(env)
		if err != nil {
			return "", err
		}
		b.line(env, "SKIP "+skip)
	}
	if r.limit != nil {
		limit, err := r.limit.Compile(env)
		if err != nil {
			return "", err
		}
		b.line(env, "LIMIT "+limit)
	}
	return b.String(), nil
}

// With renders WITH, piping projected rows to the next clause.
// A With with no items renders WITH *.
type With struct {
	items    []Expr
	distinct bool
	where    Expr
	next     Clause
	err      error
}

// NewWith creates a WITH clause.
func NewWith(items ...Expr) *With {
	w := &With{items: slices.Clone(items)}
	if hasNil(items) {
		w.err = newConstructionError("With", "with item is nil")
	}
	return w
}

func (w *With) clone() *With {
	c := *w
	c.items = slices.Clone(w.items)
	c.next = copyClause(w.next)
	return &c
}

func (w *With) fail(err error) *With {
	if w.err == nil {
		w.err = err
	}
	return w
}

// Distinct renders WITH DISTINCT.
func (w *With) Distinct() *With {
	c := w.clone()
	c.distinct = true
	return c
}

// Where filters the projected rows. Repeated calls are joined with AND.
func (w *With) Where(predicate Expr) *With {
	c := w.clone()
	if isNil(predicate) {
		return c.fail(newConstructionError("With", "where predicate is nil"))
	}
	c.where = conjoin(c.where, predicate)
	return c
}

// Return appends a RETURN clause.
func (w *With) Return(items ...Expr) *With {
	return w.Then(NewReturn(items...))
}

// Then appends the clause that follows this one.
func (w *With) Then(next Clause) *With {
	c := w.clone()
	if isNil(next) {
		return c.fail(newConstructionError("With", "next clause is nil"))
	}
	c.next = chain(c.next, next)
	return c
}

func (*With) clauseNode() {}

// Err returns the first construction error.
func (w *With) Err() error { return w.err }

// Children returns items, the predicate and the next clause.
func (w *With) Children() []Node {
	out := asNodes(w.items)
	out = appendNode(out, w.where)
	return appendNode(out, w.next)
}

// Compile renders the clause.
func (w *With) Compile(env *Environment) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	items, err := compileProjection(env, w.items)
	if err != nil {
		return "", err
	}
	keyword := "WITH "
	if w.distinct {
		keyword = "WITH DISTINCT "
	}
	var b block
	b.line(env, keyword+items)
	if w.where != nil {
		where, err := w.where.Compile(env)
		if err != nil {
			return "", err
		}
		b.line(env, "WHERE "+where)
	}
	if err := compileTail(env, &b, w.next); err != nil {
		return "", err
	}
	return b.String(), nil
}

func compileProjection(env *Environment, items []Expr) (string, error) {
	if len(items) == 0 {
		return "*", nil
	}
	return compileJoined(env, items, ", ")
}

func orderChildren(items []OrderItem) []Node {
	var out []Node
	for _, item := range items {
		out = appendNode(out, item.expr)
	}
	return out
}

func compileOrderBy(env *Environment, b *block, items []OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s, err := item.expr.Compile(env)
		if err != nil {
			return err
		}
		if item.desc {
			s += " DESC"
		}
		parts = append(parts, s)
	}
	b.line(env, "ORDER BY "+strings.Join(parts, ", "))
	return nil
}
