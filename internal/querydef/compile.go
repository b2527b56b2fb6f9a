package querydef

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/cypherbuild/cypher"
)

// Validate checks the structure of a definition without parsing any
// expression text.
func Validate(def *Definition) error {
	if def == nil {
		return fieldError("definition", "definition is nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		return fieldError("name", "name is required")
	}
	for _, handle := range slices.Sorted(maps.Keys(def.Variables)) {
		v := def.Variables[handle]
		field := "variables." + handle
		switch v.Kind {
		case "", KindValue, KindPath:
			if len(v.Labels) > 0 || v.Type != "" {
				return fieldError(field, "labels and type apply to node and relationship variables only")
			}
		case KindNode:
			if v.Type != "" {
				return fieldError(field, "node variables have labels, not a type")
			}
		case KindRelationship:
			if len(v.Labels) > 0 {
				return fieldError(field, "relationship variables have a type, not labels")
			}
		default:
			return fieldError(field, "unknown kind %q (want value, node, relationship or path)", v.Kind)
		}
	}
	for handle := range def.NamedParams {
		if _, ok := def.Params[handle]; ok {
			return fieldError("named_params."+handle, "handle is also declared in params")
		}
	}
	return validateStatement("query", def.Query)
}

func validateStatement(field string, clauses []ClauseDef) error {
	if len(clauses) == 0 {
		return fieldError(field, "at least one clause is required")
	}
	for i, c := range clauses {
		clauseField := fmt.Sprintf("%s[%d]", field, i)
		kinds := c.kinds()
		if len(kinds) != 1 {
			return fieldError(clauseField, "exactly one clause kind is required, got %d (%s)", len(kinds), strings.Join(kinds, ", "))
		}
		switch {
		case c.Call != nil:
			if err := validateStatement(clauseField+".call.query", c.Call.Query); err != nil {
				return err
			}
		case c.Union != nil:
			if len(c.Union.Queries) < 2 {
				return fieldError(clauseField+".union.queries", "at least two statements are required")
			}
			for j, q := range c.Union.Queries {
				if err := validateStatement(fmt.Sprintf("%s.union.queries[%d]", clauseField, j), q); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// kinds lists the clause kinds set on c.
func (c ClauseDef) kinds() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(c.Match != nil, "match")
	add(c.OptionalMatch != nil, "optional_match")
	add(c.Create != nil, "create")
	add(c.Merge != nil, "merge")
	add(c.Set != nil, "set")
	add(c.Delete != nil, "delete")
	add(c.With != nil, "with")
	add(c.Return != nil, "return")
	add(c.Unwind != nil, "unwind")
	add(c.Call != nil, "call")
	add(c.Union != nil, "union")
	return out
}

// Compile turns a definition into a clause tree ready for cypher.Build.
func Compile(def *Definition) (cypher.Clause, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	s := newScope(def)
	return s.statement("query", def.Query)
}

// Build compiles def and builds it with the definition's prefix.
// Extra options are applied after the prefix.
func Build(def *Definition, opts ...cypher.BuildOption) (*cypher.Result, error) {
	clause, err := Compile(def)
	if err != nil {
		return nil, err
	}
	all := append([]cypher.BuildOption{cypher.WithPrefix(def.Prefix)}, opts...)
	return cypher.Build(clause, all...)
}

// scope resolves handles while a definition is compiled. Handles created
// by patterns, UNWIND and aliases stay visible to later clauses.
type scope struct {
	vars   map[string]cypher.Reference
	params map[string]*cypher.Param
}

func newScope(def *Definition) *scope {
	s := &scope{
		vars:   make(map[string]cypher.Reference, len(def.Variables)),
		params: make(map[string]*cypher.Param, len(def.Params)+len(def.NamedParams)),
	}
	for handle, v := range def.Variables {
		s.vars[handle] = newReference(v)
	}
	for handle, value := range def.Params {
		s.params[handle] = cypher.NewParam(value)
	}
	for handle, value := range def.NamedParams {
		s.params[handle] = cypher.NewNamedParam(handle, value)
	}
	return s
}

func newReference(v VariableDef) cypher.Reference {
	switch v.Kind {
	case KindNode:
		if v.Name != "" {
			return cypher.NewNamedNode(v.Name, v.Labels...)
		}
		return cypher.NewNode(v.Labels...)
	case KindRelationship:
		if v.Name != "" {
			return cypher.NewNamedRelationship(v.Name, v.Type)
		}
		return cypher.NewRelationship(v.Type)
	case KindPath:
		if v.Name != "" {
			return cypher.NewNamedPath(v.Name)
		}
		return cypher.NewPath()
	default:
		if v.Name != "" {
			return cypher.NewNamedVariable(v.Name)
		}
		return cypher.NewVariable()
	}
}

func (s *scope) statement(field string, defs []ClauseDef) (cypher.Clause, error) {
	clauses := make([]cypher.Clause, 0, len(defs))
	for i, def := range defs {
		c, err := s.clause(fmt.Sprintf("%s[%d]", field, i), def)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return cypher.NewConcat(clauses...), nil
}

func (s *scope) clause(field string, def ClauseDef) (cypher.Clause, error) {
	switch {
	case def.Match != nil:
		return s.match(field+".match", def.Match, false)
	case def.OptionalMatch != nil:
		return s.match(field+".optional_match", def.OptionalMatch, true)
	case def.Create != nil:
		return s.create(field+".create", def.Create)
	case def.Merge != nil:
		return s.merge(field+".merge", def.Merge)
	case def.Set != nil:
		items, err := s.setItems(field+".set", def.Set)
		if err != nil {
			return nil, err
		}
		return cypher.NewSet(items...), nil
	case def.Delete != nil:
		items, err := s.expressions(field+".delete.items", def.Delete.Items)
		if err != nil {
			return nil, err
		}
		if def.Delete.Detach {
			return cypher.NewDetachDelete(items...), nil
		}
		return cypher.NewDelete(items...), nil
	case def.With != nil:
		return s.with(field+".with", def.With)
	case def.Return != nil:
		return s.returnClause(field+".return", def.Return)
	case def.Unwind != nil:
		return s.unwind(field+".unwind", def.Unwind)
	case def.Call != nil:
		return s.call(field+".call", def.Call)
	case def.Union != nil:
		return s.union(field+".union", def.Union)
	}
	return nil, fieldError(field, "empty clause")
}

func (s *scope) match(field string, def *MatchDef, optional bool) (cypher.Clause, error) {
	patterns, err := s.patterns(field+".patterns", def.Patterns)
	if err != nil {
		return nil, err
	}
	newMatch := cypher.NewMatch
	if optional {
		newMatch = cypher.NewOptionalMatch
	}
	m := newMatch(patterns...)
	if def.Where != "" {
		where, err := s.expression(field+".where", def.Where)
		if err != nil {
			return nil, err
		}
		m = m.Where(where)
	}
	if len(def.Set) > 0 {
		items, err := s.setItems(field+".set", def.Set)
		if err != nil {
			return nil, err
		}
		m = m.Set(items...)
	}
	if len(def.Delete) > 0 {
		items, err := s.expressions(field+".delete", def.Delete)
		if err != nil {
			return nil, err
		}
		if def.Detach {
			m = m.DetachDelete(items...)
		} else {
			m = m.Delete(items...)
		}
	}
	return m, nil
}

func (s *scope) create(field string, def *CreateDef) (cypher.Clause, error) {
	patterns, err := s.patterns(field+".patterns", def.Patterns)
	if err != nil {
		return nil, err
	}
	c := cypher.NewCreate(patterns...)
	if len(def.Set) > 0 {
		items, err := s.setItems(field+".set", def.Set)
		if err != nil {
			return nil, err
		}
		c = c.Set(items...)
	}
	return c, nil
}

func (s *scope) merge(field string, def *MergeDef) (cypher.Clause, error) {
	pattern, err := s.pattern(field+".pattern", def.Pattern)
	if err != nil {
		return nil, err
	}
	m := cypher.NewMerge(pattern)
	if len(def.OnCreate) > 0 {
		items, err := s.setItems(field+".on_create", def.OnCreate)
		if err != nil {
			return nil, err
		}
		m = m.OnCreateSet(items...)
	}
	if len(def.OnMatch) > 0 {
		items, err := s.setItems(field+".on_match", def.OnMatch)
		if err != nil {
			return nil, err
		}
		m = m.OnMatchSet(items...)
	}
	return m, nil
}

func (s *scope) with(field string, def *WithDef) (cypher.Clause, error) {
	items, aliases, err := s.projection(field+".items", def.Items)
	if err != nil {
		return nil, err
	}
	w := cypher.NewWith(items...)
	if def.Distinct {
		w = w.Distinct()
	}
	s.bindAliases(aliases)
	if def.Where != "" {
		where, err := s.expression(field+".where", def.Where)
		if err != nil {
			return nil, err
		}
		w = w.Where(where)
	}
	return w, nil
}

func (s *scope) returnClause(field string, def *ReturnDef) (cypher.Clause, error) {
	items, aliases, err := s.projection(field+".items", def.Items)
	if err != nil {
		return nil, err
	}
	r := cypher.NewReturn(items...)
	if def.Distinct {
		r = r.Distinct()
	}
	s.bindAliases(aliases)
	if len(def.OrderBy) > 0 {
		order, err := s.orderItems(field+".order_by", def.OrderBy)
		if err != nil {
			return nil, err
		}
		r = r.OrderBy(order...)
	}
	if def.Skip != "" {
		skip, err := s.expression(field+".skip", def.Skip)
		if err != nil {
			return nil, err
		}
		r = r.Skip(skip)
	}
	if def.Limit != "" {
		limit, err := s.expression(field+".limit", def.Limit)
		if err != nil {
			return nil, err
		}
		r = r.Limit(limit)
	}
	return r, nil
}

func (s *scope) unwind(field string, def *UnwindDef) (cypher.Clause, error) {
	expr, err := s.expression(field+".expr", def.Expr)
	if err != nil {
		return nil, err
	}
	if def.As == "" {
		return nil, fieldError(field+".as", "UNWIND requires a variable")
	}
	ref, ok := s.vars[def.As]
	if !ok {
		ref = cypher.NewVariable()
		s.vars[def.As] = ref
	}
	return cypher.NewUnwind(expr, ref), nil
}

func (s *scope) call(field string, def *CallDef) (cypher.Clause, error) {
	imports := make([]cypher.Reference, 0, len(def.Imports))
	for i, handle := range def.Imports {
		ref, ok := s.vars[handle]
		if !ok {
			return nil, fieldError(fmt.Sprintf("%s.imports[%d]", field, i), "unknown variable %q", handle)
		}
		imports = append(imports, ref)
	}
	inner, err := s.statement(field+".query", def.Query)
	if err != nil {
		return nil, err
	}
	c := cypher.NewCall(inner)
	if len(imports) > 0 {
		c = c.InnerWith(imports...)
	}
	return c, nil
}

func (s *scope) union(field string, def *UnionDef) (cypher.Clause, error) {
	statements := make([]cypher.Clause, 0, len(def.Queries))
	for i, q := range def.Queries {
		stmt, err := s.statement(fmt.Sprintf("%s.queries[%d]", field, i), q)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	if def.All {
		return cypher.NewUnionAll(statements...), nil
	}
	return cypher.NewUnion(statements...), nil
}

func (s *scope) patterns(field string, texts []string) ([]*cypher.Pattern, error) {
	if len(texts) == 0 {
		return nil, fieldError(field, "at least one pattern is required")
	}
	out := make([]*cypher.Pattern, 0, len(texts))
	for i, text := range texts {
		p, err := s.pattern(fmt.Sprintf("%s[%d]", field, i), text)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *scope) expressions(field string, texts []string) ([]cypher.Expr, error) {
	out := make([]cypher.Expr, 0, len(texts))
	for i, text := range texts {
		e, err := s.expression(fmt.Sprintf("%s[%d]", field, i), text)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *scope) projection(field string, texts []string) ([]cypher.Expr, []string, error) {
	items := make([]cypher.Expr, 0, len(texts))
	var aliases []string
	for i, text := range texts {
		itemField := fmt.Sprintf("%s[%d]", field, i)
		ast, err := projectionParser.ParseString(itemField, text)
		if err != nil {
			return nil, nil, syntaxError(itemField, text, err)
		}
		expr, err := s.convertExpression(itemField, ast.Expr)
		if err != nil {
			return nil, nil, err
		}
		if ast.Alias == "" {
			items = append(items, expr)
			continue
		}
		alias := unquoteName(ast.Alias)
		items = append(items, cypher.As(expr, alias))
		aliases = append(aliases, alias)
	}
	return items, aliases, nil
}

// bindAliases makes projected aliases visible to later clauses under
// their literal names.
func (s *scope) bindAliases(aliases []string) {
	for _, alias := range aliases {
		s.vars[alias] = cypher.NewNamedVariable(alias)
	}
}

func (s *scope) orderItems(field string, texts []string) ([]cypher.OrderItem, error) {
	out := make([]cypher.OrderItem, 0, len(texts))
	for i, text := range texts {
		itemField := fmt.Sprintf("%s[%d]", field, i)
		ast, err := orderParser.ParseString(itemField, text)
		if err != nil {
			return nil, syntaxError(itemField, text, err)
		}
		expr, err := s.convertExpression(itemField, ast.Expr)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(ast.Direction, "DESC") {
			out = append(out, cypher.Desc(expr))
		} else {
			out = append(out, cypher.Asc(expr))
		}
	}
	return out, nil
}

func (s *scope) setItems(field string, texts []string) ([]cypher.SetItem, error) {
	if len(texts) == 0 {
		return nil, fieldError(field, "at least one assignment is required")
	}
	out := make([]cypher.SetItem, 0, len(texts))
	for i, text := range texts {
		itemField := fmt.Sprintf("%s[%d]", field, i)
		ast, err := setParser.ParseString(itemField, text)
		if err != nil {
			return nil, syntaxError(itemField, text, err)
		}
		if ast.Target.Call != nil || len(ast.Target.Path) < 2 {
			return nil, fieldError(itemField, "%q: assignment target must be a property such as n.name", text)
		}
		target, err := s.reference(itemField, ast.Target)
		if err != nil {
			return nil, err
		}
		value, err := s.convertExpression(itemField, ast.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, cypher.SetProperty(target.(*cypher.PropertyRef), value))
	}
	return out, nil
}

func (s *scope) expression(field, text string) (cypher.Expr, error) {
	ast, err := expressionParser.ParseString(field, text)
	if err != nil {
		return nil, syntaxError(field, text, err)
	}
	return s.convertExpression(field, ast)
}
