package cypher

import "strings"

// block collects the padded lines of one clause.
type block []string

// line appends text at the current depth.
func (b *block) line(env *Environment, text string) {
	*b = append(*b, env.Pad(text))
}

// raw appends already padded text, skipping empty output.
func (b *block) raw(text string) {
	if text != "" {
		*b = append(*b, text)
	}
}

func (b block) String() string {
	return strings.Join(b, "\n")
}

// compileTail compiles the clause following c, if any.
func compileTail(env *Environment, b *block, next Clause) error {
	if isNil(next) {
		return nil
	}
	text, err := next.Compile(env)
	if err != nil {
		return err
	}
	b.raw(text)
	return nil
}

// copyClause returns a deep copy of a clause chain owned by a builder value,
// so two values derived from one base never share a clause instance.
// Expressions, references and parameters are immutable and stay shared.
func copyClause(c Clause) Clause {
	if isNil(c) {
		return c
	}
	switch v := c.(type) {
	case *Match:
		return v.clone()
	case *Create:
		return v.clone()
	case *Merge:
		return v.clone()
	case *Set:
		return v.clone()
	case *Delete:
		return v.clone()
	case *Unwind:
		return v.clone()
	case *With:
		return v.clone()
	case *Return:
		return v.clone()
	case *Call:
		return v.clone()
	case *Concat:
		return v.clone()
	case *Union:
		return v.clone()
	}
	return c
}

func copyClauses(clauses []Clause) []Clause {
	out := make([]Clause, len(clauses))
	for i, c := range clauses {
		out[i] = copyClause(c)
	}
	return out
}

// chain appends next after prev, keeping both.
func chain(prev, next Clause) Clause {
	if isNil(prev) {
		return next
	}
	if c, ok := prev.(*Concat); ok {
		return c.Then(next)
	}
	return NewConcat(prev, next)
}

// SetItem is one assignment of a SET clause: <property> = <value>.
type SetItem struct {
	target *PropertyRef
	value  Expr
}

// SetProperty assigns value to target.
func SetProperty(target *PropertyRef, value Expr) SetItem {
	return SetItem{target: target, value: value}
}

func (s SetItem) children() []Node {
	var out []Node
	if s.target != nil {
		out = append(out, s.target)
	}
	return appendNode(out, s.value)
}

func (s SetItem) compile(env *Environment) (string, error) {
	if s.target == nil || isNil(s.value) {
		return "", newCompileError("Set", "set item requires a target and a value")
	}
	target, err := s.target.Compile(env)
	if err != nil {
		return "", err
	}
	value, err := s.value.Compile(env)
	if err != nil {
		return "", err
	}
	return target + " = " + value, nil
}

func setChildren(items []SetItem) []Node {
	var out []Node
	for _, item := range items {
		out = append(out, item.children()...)
	}
	return out
}

// compileSetBlock renders
//
//	<keyword>
//	    a = x,
//	    b = y
func compileSetBlock(env *Environment, b *block, keyword string, items []SetItem) error {
	if len(items) == 0 {
		return nil
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s, err := item.compile(env)
		if err != nil {
			return err
		}
		parts = append(parts, env.Pad(IndentUnit+s))
	}
	b.line(env, keyword)
	b.raw(strings.Join(parts, ",\n"))
	return nil
}

func validateSetItems(node string, items []SetItem) error {
	for _, item := range items {
		if item.target == nil || isNil(item.value) {
			return newConstructionError(node, "set item requires a target and a value")
		}
	}
	return nil
}

func patternErr(patterns []*Pattern) error {
	for _, p := range patterns {
		if p == nil {
			continue
		}
		if err := p.Err(); err != nil {
			return err
		}
	}
	return nil
}

func validatePatterns(node string, patterns []*Pattern) error {
	if len(patterns) == 0 {
		return newConstructionError(node, "at least one pattern is required")
	}
	for _, p := range patterns {
		if p == nil {
			return newConstructionError(node, "pattern is nil")
		}
	}
	return nil
}

func compilePatterns(env *Environment, patterns []*Pattern) (string, error) {
	return compileJoined(env, patterns, ", ")
}
