package cypher

import "slices"

// Match renders MATCH (or OPTIONAL MATCH) with its optional WHERE, SET and
// DELETE parts, followed by the next clause.
type Match struct {
	patterns []*Pattern
	optional bool
	where    Expr
	set      []SetItem
	deletes  []Expr
	detach   bool
	next     Clause
	err      error
}

// NewMatch creates a MATCH clause over one or more patterns.
func NewMatch(patterns ...*Pattern) *Match {
	return &Match{
		patterns: slices.Clone(patterns),
		err:      validatePatterns("Match", patterns),
	}
}

// NewOptionalMatch creates an OPTIONAL MATCH clause.
func NewOptionalMatch(patterns ...*Pattern) *Match {
	m := NewMatch(patterns...)
	m.optional = true
	return m
}

func (m *Match) clone() *Match {
	c := *m
	c.patterns = slices.Clone(m.patterns)
	c.set = slices.Clone(m.set)
	c.deletes = slices.Clone(m.deletes)
	c.next = copyClause(m.next)
	return &c
}

func (m *Match) fail(err error) *Match {
	if m.err == nil {
		m.err = err
	}
	return m
}

// Where adds a filter. Repeated calls are joined with AND.
func (m *Match) Where(predicate Expr) *Match {
	c := m.clone()
	if isNil(predicate) {
		return c.fail(newConstructionError("Match", "where predicate is nil"))
	}
	c.where = conjoin(c.where, predicate)
	return c
}

// Set adds property assignments rendered after the WHERE part.
func (m *Match) Set(items ...SetItem) *Match {
	c := m.clone()
	if err := validateSetItems("Match", items); err != nil {
		return c.fail(err)
	}
	c.set = append(c.set, items...)
	return c
}

// Delete deletes the given entities.
func (m *Match) Delete(exprs ...Expr) *Match {
	return m.withDelete(false, exprs)
}

// DetachDelete deletes the given nodes and their relationships.
func (m *Match) DetachDelete(exprs ...Expr) *Match {
	return m.withDelete(true, exprs)
}

func (m *Match) withDelete(detach bool, exprs []Expr) *Match {
	c := m.clone()
	if err := validateExprs("Match", "delete", exprs); err != nil {
		return c.fail(err)
	}
	c.deletes = append(c.deletes, exprs...)
	c.detach = c.detach || detach
	return c
}

// Return appends a RETURN clause.
func (m *Match) Return(items ...Expr) *Match {
	return m.Then(NewReturn(items...))
}

// Then appends the clause that follows this one.
func (m *Match) Then(next Clause) *Match {
	c := m.clone()
	if isNil(next) {
		return c.fail(newConstructionError("Match", "next clause is nil"))
	}
	c.next = chain(c.next, next)
	return c
}

func (*Match) clauseNode() {}

// Err returns the first construction error.
func (m *Match) Err() error {
	return firstErr(m.err, patternErr(m.patterns))
}

// Children returns patterns, predicate, assignments, deletions and the next clause.
func (m *Match) Children() []Node {
	out := asNodes(m.patterns)
	out = appendNode(out, m.where)
	out = append(out, setChildren(m.set)...)
	out = append(out, asNodes(m.deletes)...)
	return appendNode(out, m.next)
}

// Compile renders the clause.
func (m *Match) Compile(env *Environment) (string, error) {
	if err := m.Err(); err != nil {
		return "", err
	}
	patterns, err := compilePatterns(env, m.patterns)
	if err != nil {
		return "", err
	}
	keyword := "MATCH "
	if m.optional {
		keyword = "OPTIONAL MATCH "
	}

	var b block
	b.line(env, keyword+patterns)
	if m.where != nil {
		where, err := m.where.Compile(env)
		if err != nil {
			return "", err
		}
		b.line(env, "WHERE "+where)
	}
	if err := compileSetBlock(env, &b, "SET", m.set); err != nil {
		return "", err
	}
	if err := compileDeleteLine(env, &b, m.detach, m.deletes); err != nil {
		return "", err
	}
	if err := compileTail(env, &b, m.next); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Create renders CREATE with an optional SET part, followed by the next clause.
type Create struct {
	patterns []*Pattern
	set      []SetItem
	next     Clause
	err      error
}

// NewCreate creates a CREATE clause.
func NewCreate(patterns ...*Pattern) *Create {
	return &Create{
		patterns: slices.Clone(patterns),
		err:      validatePatterns("Create", patterns),
	}
}

func (cr *Create) clone() *Create {
	c := *cr
	c.patterns = slices.Clone(cr.patterns)
	c.set = slices.Clone(cr.set)
	c.next = copyClause(cr.next)
	return &c
}

func (cr *Create) fail(err error) *Create {
	if cr.err == nil {
		cr.err = err
	}
	return cr
}

// Set adds property assignments rendered after CREATE.
func (cr *Create) Set(items ...SetItem) *Create {
	c := cr.clone()
	if err := validateSetItems("Create", items); err != nil {
		return c.fail(err)
	}
	c.set = append(c.set, items...)
	return c
}

// Return appends a RETURN clause.
func (cr *Create) Return(items ...Expr) *Create {
	return cr.Then(NewReturn(items...))
}

// Then appends the clause that follows this one.
func (cr *Create) Then(next Clause) *Create {
	c := cr.clone()
	if isNil(next) {
		return c.fail(newConstructionError("Create", "next clause is nil"))
	}
	c.next = chain(c.next, next)
	return c
}

func (*Create) clauseNode() {}

// Err returns the first construction error.
func (cr *Create) Err() error {
	return firstErr(cr.err, patternErr(cr.patterns))
}

// Children returns patterns, assignments and the next clause.
func (cr *Create) Children() []Node {
	out := asNodes(cr.patterns)
	out = append(out, setChildren(cr.set)...)
	return appendNode(out, cr.next)
}

// Compile renders the clause.
func (cr *Create) Compile(env *Environment) (string, error) {
	if err := cr.Err(); err != nil {
		return "", err
	}
	patterns, err := compilePatterns(env, cr.patterns)
	if err != nil {
		return "", err
	}
	var b block
	b.line(env, "CREATE "+patterns)
	if err := compileSetBlock(env, &b, "SET", cr.set); err != nil {
		return "", err
	}
	if err := compileTail(env, &b, cr.next); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Merge renders MERGE with optional ON CREATE SET and ON MATCH SET parts.
type Merge struct {
	pattern  *Pattern
	onCreate []SetItem
	onMatch  []SetItem
	next     Clause
	err      error
}

// NewMerge creates a MERGE clause for a single pattern.
func NewMerge(pattern *Pattern) *Merge {
	m := &Merge{pattern: pattern}
	if pattern == nil {
		m.err = newConstructionError("Merge", "pattern is nil")
	}
	return m
}

func (m *Merge) clone() *Merge {
	c := *m
	c.onCreate = slices.Clone(m.onCreate)
	c.onMatch = slices.Clone(m.onMatch)
	c.next = copyClause(m.next)
	return &c
}

func (m *Merge) fail(err error) *Merge {
	if m.err == nil {
		m.err = err
	}
	return m
}

// OnCreateSet adds assignments applied when MERGE creates the pattern.
func (m *Merge) OnCreateSet(items ...SetItem) *Merge {
	c := m.clone()
	if err := validateSetItems("Merge", items); err != nil {
		return c.fail(err)
	}
	c.onCreate = append(c.onCreate, items...)
	return c
}

// OnMatchSet adds assignments applied when MERGE matches the pattern.
func (m *Merge) OnMatchSet(items ...SetItem) *Merge {
	c := m.clone()
	if err := validateSetItems("Merge", items); err != nil {
		return c.fail(err)
	}
	c.onMatch = append(c.onMatch, items...)
	return c
}

// Return appends a RETURN clause.
func (m *Merge) Return(items ...Expr) *Merge {
	return m.Then(NewReturn(items...))
}

// Then appends the clause that follows this one.
func (m *Merge) Then(next Clause) *Merge {
	c := m.clone()
	if isNil(next) {
		return c.fail(newConstructionError("Merge", "next clause is nil"))
	}
	c.next = chain(c.next, next)
	return c
}

func (*Merge) clauseNode() {}

// Err returns the first construction error.
func (m *Merge) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.pattern.Err()
}

// Children returns the pattern, assignments and the next clause.
func (m *Merge) Children() []Node {
	var out []Node
	if m.pattern != nil {
		out = append(out, m.pattern)
	}
	out = append(out, setChildren(m.onCreate)...)
	out = append(out, setChildren(m.onMatch)...)
	return appendNode(out, m.next)
}

// Compile renders the clause.
func (m *Merge) Compile(env *Environment) (string, error) {
	if err := m.Err(); err != nil {
		return "", err
	}
	pattern, err := m.pattern.Compile(env)
	if err != nil {
		return "", err
	}
	var b block
	b.line(env, "MERGE "+pattern)
	if err := compileSetBlock(env, &b, "ON CREATE SET", m.onCreate); err != nil {
		return "", err
	}
	if err := compileSetBlock(env, &b, "ON MATCH SET", m.onMatch); err != nil {
		return "", err
	}
	if err := compileTail(env, &b, m.next); err != nil {
		return "", err
	}
	return b.String(), nil
}

// conjoin joins predicates with AND, flattening an existing conjunction.
func conjoin(existing, predicate Expr) Expr {
	if isNil(existing) {
		return predicate
	}
	if and, ok := existing.(*BooleanOp); ok && and.token == "AND" {
		return And(append(slices.Clone(and.operands), predicate)...)
	}
	return And(existing, predicate)
}

func validateExprs(node, what string, exprs []Expr) error {
	if len(exprs) == 0 {
		return newConstructionError(node, "%s requires at least one expression", what)
	}
	for _, e := range exprs {
		if isNil(e) {
			return newConstructionError(node, "%s expression is nil", what)
		}
	}
	return nil
}
