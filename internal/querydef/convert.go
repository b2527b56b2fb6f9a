package querydef

import (
	"slices"
	"strings"

	"github.com/roach88/cypherbuild/cypher"
)

var comparisonOps = map[string]cypher.ComparisonOperator{
	"=":          cypher.OpEq,
	"<>":         cypher.OpNeq,
	">":          cypher.OpGt,
	">=":         cypher.OpGte,
	"<":          cypher.OpLt,
	"<=":         cypher.OpLte,
	"=~":         cypher.OpMatches,
	"IN":         cypher.OpIn,
	"CONTAINS":   cypher.OpContains,
	"STARTSWITH": cypher.OpStartsWith,
	"ENDSWITH":   cypher.OpEndsWith,
}

func (s *scope) convertExpression(field string, e *Expression) (cypher.Expr, error) {
	terms := make([]cypher.Expr, 0, len(e.Terms))
	for _, t := range e.Terms {
		x, err := s.convertXor(field, t)
		if err != nil {
			return nil, err
		}
		terms = append(terms, x)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return cypher.Or(terms...), nil
}

func (s *scope) convertXor(field string, t *XorTerm) (cypher.Expr, error) {
	terms := make([]cypher.Expr, 0, len(t.Terms))
	for _, a := range t.Terms {
		x, err := s.convertAnd(field, a)
		if err != nil {
			return nil, err
		}
		terms = append(terms, x)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return cypher.Xor(terms...), nil
}

func (s *scope) convertAnd(field string, t *AndTerm) (cypher.Expr, error) {
	terms := make([]cypher.Expr, 0, len(t.Terms))
	for _, n := range t.Terms {
		x, err := s.convertNot(field, n)
		if err != nil {
			return nil, err
		}
		terms = append(terms, x)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return cypher.And(terms...), nil
}

func (s *scope) convertNot(field string, t *NotTerm) (cypher.Expr, error) {
	if t.Not != nil {
		x, err := s.convertNot(field, t.Not)
		if err != nil {
			return nil, err
		}
		return cypher.Not(x), nil
	}
	return s.convertComparison(field, t.Comparison)
}

func (s *scope) convertComparison(field string, c *ComparisonTerm) (cypher.Expr, error) {
	left, err := s.convertAdditive(field, c.Left)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Null != nil:
		if c.Null.Not {
			return cypher.IsNotNull(left), nil
		}
		return cypher.IsNull(left), nil
	case c.Op != nil:
		op, ok := comparisonOps[strings.ToUpper(c.Op.Op)]
		if !ok {
			return nil, fieldError(field, "unknown operator %q", c.Op.Op)
		}
		right, err := s.convertAdditive(field, c.Right)
		if err != nil {
			return nil, err
		}
		return cypher.Compare(op, left, right), nil
	}
	return left, nil
}

func (s *scope) convertAdditive(field string, a *Additive) (cypher.Expr, error) {
	left, err := s.convertMultiplicative(field, a.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range a.Rest {
		right, err := s.convertMultiplicative(field, op.Right)
		if err != nil {
			return nil, err
		}
		if op.Op == "+" {
			left = cypher.Plus(left, right)
		} else {
			left = cypher.Minus(left, right)
		}
	}
	return left, nil
}

func (s *scope) convertMultiplicative(field string, m *Multiplicative) (cypher.Expr, error) {
	left, err := s.convertPower(field, m.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range m.Rest {
		right, err := s.convertPower(field, op.Right)
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case "*":
			left = cypher.Multiply(left, right)
		case "/":
			left = cypher.Divide(left, right)
		default:
			left = cypher.Mod(left, right)
		}
	}
	return left, nil
}

func (s *scope) convertPower(field string, p *Power) (cypher.Expr, error) {
	base, err := s.convertUnary(field, p.Base)
	if err != nil {
		return nil, err
	}
	if p.Exponent == nil {
		return base, nil
	}
	exp, err := s.convertUnary(field, p.Exponent)
	if err != nil {
		return nil, err
	}
	return cypher.Pow(base, exp), nil
}

func (s *scope) convertUnary(field string, u *Unary) (cypher.Expr, error) {
	if u.Neg && u.Value.Literal != nil {
		switch lit := u.Value.Literal; {
		case lit.Int != nil:
			return cypher.NewLiteral(-*lit.Int), nil
		case lit.Float != nil:
			return cypher.NewLiteral(-*lit.Float), nil
		}
	}
	x, err := s.convertPrimary(field, u.Value)
	if err != nil {
		return nil, err
	}
	if u.Neg {
		return cypher.Multiply(cypher.NewLiteral(-1), x), nil
	}
	return x, nil
}

func (s *scope) convertPrimary(field string, p *Primary) (cypher.Expr, error) {
	switch {
	case p.Literal != nil:
		return convertLiteral(p.Literal), nil
	case p.Param != nil:
		handle := unquoteName(*p.Param)
		param, ok := s.params[handle]
		if !ok {
			return nil, fieldError(field, "unknown parameter $%s", handle)
		}
		return param, nil
	case p.Ref != nil:
		return s.reference(field, p.Ref)
	case p.List != nil:
		items := make([]cypher.Expr, 0, len(p.List.Items))
		for _, item := range p.List.Items {
			x, err := s.convertExpression(field, item)
			if err != nil {
				return nil, err
			}
			items = append(items, x)
		}
		return cypher.NewList(items...), nil
	case p.Map != nil:
		entries, err := s.convertMap(field, p.Map)
		if err != nil {
			return nil, err
		}
		return cypher.NewMap(entries), nil
	case p.Group != nil:
		return s.convertExpression(field, p.Group)
	}
	return nil, fieldError(field, "empty expression")
}

func convertLiteral(l *LiteralValue) cypher.Expr {
	switch {
	case l.Float != nil:
		return cypher.NewLiteral(*l.Float)
	case l.Int != nil:
		return cypher.NewLiteral(*l.Int)
	case l.String != nil:
		return cypher.NewLiteral(*l.String)
	case l.Bool != nil:
		return cypher.NewLiteral(bool(*l.Bool))
	}
	return cypher.Null
}

func (s *scope) convertMap(field string, m *MapValue) (map[string]cypher.Expr, error) {
	if m == nil {
		return nil, nil
	}
	entries := make(map[string]cypher.Expr, len(m.Entries))
	for _, entry := range m.Entries {
		key := unquoteName(entry.Key)
		if _, dup := entries[key]; dup {
			return nil, fieldError(field, "duplicate map key %q", key)
		}
		x, err := s.convertExpression(field, entry.Value)
		if err != nil {
			return nil, err
		}
		entries[key] = x
	}
	return entries, nil
}

// reference resolves a variable, a property access or a function call.
func (s *scope) reference(field string, r *RefPath) (cypher.Expr, error) {
	path := make([]string, len(r.Path))
	for i, segment := range r.Path {
		path[i] = unquoteName(segment)
	}

	if r.Call != nil {
		args := make([]cypher.Expr, 0, len(r.Call.Args))
		for _, arg := range r.Call.Args {
			x, err := s.convertExpression(field, arg)
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		return cypher.CallFunction(strings.Join(path, "."), args...), nil
	}

	ref, ok := s.vars[path[0]]
	if !ok {
		return nil, fieldError(field, "unknown variable %q", path[0])
	}
	if len(path) == 1 {
		return ref, nil
	}
	switch v := ref.(type) {
	case *cypher.NodeRef:
		return v.Property(path[1:]...), nil
	case *cypher.RelationshipRef:
		return v.Property(path[1:]...), nil
	case *cypher.Variable:
		return v.Property(path[1:]...), nil
	}
	return nil, fieldError(field, "variable %q has no properties", path[0])
}

// pattern parses and resolves one pattern.
//
// Labels are rendered exactly where the text writes them, so the second
// occurrence of a node is written without labels, as in Cypher. Handles
// that are not declared are created on first use.
func (s *scope) pattern(field, text string) (*cypher.Pattern, error) {
	ast, err := patternParser.ParseString(field, text)
	if err != nil {
		return nil, syntaxError(field, text, err)
	}

	start, err := s.patternNode(field, ast.Start)
	if err != nil {
		return nil, err
	}
	p := cypher.NewPattern(start)
	if p, err = s.decorateNode(field, p, ast.Start); err != nil {
		return nil, err
	}

	for _, hop := range ast.Hops {
		rel, err := s.patternRelationship(field, hop.Rel)
		if err != nil {
			return nil, err
		}
		p = p.Related(rel)
		if hop.Rel != nil && hop.Rel.Props != nil {
			props, err := s.convertMap(field, hop.Rel.Props)
			if err != nil {
				return nil, err
			}
			p = p.WithProperties(props)
		}

		to, err := s.patternNode(field, hop.Node)
		if err != nil {
			return nil, err
		}
		p = p.To(to)

		switch {
		case hop.Left && hop.Right:
			return nil, fieldError(field, "%q: relationship cannot point both ways", text)
		case hop.Left:
			p = p.WithDirection(cypher.DirectionLeft)
		case !hop.Right:
			p = p.WithDirection(cypher.DirectionUndirected)
		}

		if p, err = s.decorateNode(field, p, hop.Node); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *scope) decorateNode(field string, p *cypher.Pattern, n *NodePattern) (*cypher.Pattern, error) {
	if n.Props != nil {
		props, err := s.convertMap(field, n.Props)
		if err != nil {
			return nil, err
		}
		p = p.WithProperties(props)
	}
	if len(n.Labels) == 0 {
		p = p.WithoutLabels()
	}
	return p, nil
}

func (s *scope) patternNode(field string, n *NodePattern) (*cypher.NodeRef, error) {
	labels := make([]string, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = unquoteName(l)
	}
	if n.Name == "" {
		return cypher.NewNode(labels...), nil
	}

	handle := unquoteName(n.Name)
	ref, ok := s.vars[handle]
	if !ok {
		node := cypher.NewNode(labels...)
		s.vars[handle] = node
		return node, nil
	}
	node, ok := ref.(*cypher.NodeRef)
	if !ok {
		return nil, fieldError(field, "variable %q is not a node", handle)
	}
	if len(labels) > 0 && !slices.Equal(labels, node.Labels()) {
		return nil, fieldError(field, "node %q has labels %v, pattern writes %v", handle, node.Labels(), labels)
	}
	return node, nil
}

func (s *scope) patternRelationship(field string, r *RelPattern) (*cypher.RelationshipRef, error) {
	if r == nil {
		return cypher.NewRelationship(""), nil
	}
	relType := unquoteName(r.Type)
	if r.Name == "" {
		return cypher.NewRelationship(relType), nil
	}

	handle := unquoteName(r.Name)
	ref, ok := s.vars[handle]
	if !ok {
		rel := cypher.NewRelationship(relType)
		s.vars[handle] = rel
		return rel, nil
	}
	rel, ok := ref.(*cypher.RelationshipRef)
	if !ok {
		return nil, fieldError(field, "variable %q is not a relationship", handle)
	}
	if relType != "" && relType != rel.Type() {
		return nil, fieldError(field, "relationship %q has type %q, pattern writes %q", handle, rel.Type(), relType)
	}
	return rel, nil
}
