package cypher

import "strings"

// ComparisonOperator identifies a binary comparison.
type ComparisonOperator string

const (
	OpEq         ComparisonOperator = "eq"
	OpNeq        ComparisonOperator = "neq"
	OpGt         ComparisonOperator = "gt"
	OpGte        ComparisonOperator = "gte"
	OpLt         ComparisonOperator = "lt"
	OpLte        ComparisonOperator = "lte"
	OpIn         ComparisonOperator = "in"
	OpContains   ComparisonOperator = "contains"
	OpStartsWith ComparisonOperator = "startsWith"
	OpEndsWith   ComparisonOperator = "endsWith"
	OpMatches    ComparisonOperator = "matches"
)

// comparisonTokens maps each logical operator to its Cypher token.
var comparisonTokens = map[ComparisonOperator]string{
	OpEq:         "=",
	OpNeq:        "<>",
	OpGt:         ">",
	OpGte:        ">=",
	OpLt:         "<",
	OpLte:        "<=",
	OpIn:         "IN",
	OpContains:   "CONTAINS",
	OpStartsWith: "STARTS WITH",
	OpEndsWith:   "ENDS WITH",
	OpMatches:    "=~",
}

// Token returns the Cypher token of the operator, or "" when unknown.
func (op ComparisonOperator) Token() string {
	return comparisonTokens[op]
}

// Comparison renders <left> <operator> <right>.
type Comparison struct {
	op    ComparisonOperator
	left  Expr
	right Expr
}

// Compare builds a comparison for an arbitrary operator.
func Compare(op ComparisonOperator, left, right Expr) *Comparison {
	return &Comparison{op: op, left: left, right: right}
}

func Eq(left, right Expr) *Comparison         { return Compare(OpEq, left, right) }
func Neq(left, right Expr) *Comparison        { return Compare(OpNeq, left, right) }
func Gt(left, right Expr) *Comparison         { return Compare(OpGt, left, right) }
func Gte(left, right Expr) *Comparison        { return Compare(OpGte, left, right) }
func Lt(left, right Expr) *Comparison         { return Compare(OpLt, left, right) }
func Lte(left, right Expr) *Comparison        { return Compare(OpLte, left, right) }
func In(left, right Expr) *Comparison         { return Compare(OpIn, left, right) }
func Contains(left, right Expr) *Comparison   { return Compare(OpContains, left, right) }
func StartsWith(left, right Expr) *Comparison { return Compare(OpStartsWith, left, right) }
func EndsWith(left, right Expr) *Comparison   { return Compare(OpEndsWith, left, right) }
func Matches(left, right Expr) *Comparison    { return Compare(OpMatches, left, right) }

func (*Comparison) exprNode() {}

// Children returns both operands.
func (c *Comparison) Children() []Node {
	return appendNode(appendNode(nil, c.left), c.right)
}

// Compile renders the comparison.
func (c *Comparison) Compile(env *Environment) (string, error) {
	token := c.op.Token()
	if token == "" {
		return "", newCompileError("Comparison", "unknown comparison operator %q", c.op)
	}
	if isNil(c.left) || isNil(c.right) {
		return "", newCompileError("Comparison", "%s requires two operands", c.op)
	}
	left, err := c.left.Compile(env)
	if err != nil {
		return "", err
	}
	right, err := c.right.Compile(env)
	if err != nil {
		return "", err
	}
	return left + " " + token + " " + right, nil
}

// NullCheck renders <operand> IS NULL or <operand> IS NOT NULL.
type NullCheck struct {
	operand Expr
	negate  bool
}

// IsNull renders <expr> IS NULL.
func IsNull(expr Expr) *NullCheck { return &NullCheck{operand: expr} }

// IsNotNull renders <expr> IS NOT NULL.
func IsNotNull(expr Expr) *NullCheck { return &NullCheck{operand: expr, negate: true} }

func (*NullCheck) exprNode() {}

// Children returns the operand.
func (n *NullCheck) Children() []Node { return appendNode(nil, n.operand) }

// Compile renders the predicate.
func (n *NullCheck) Compile(env *Environment) (string, error) {
	if isNil(n.operand) {
		return "", newCompileError("NullCheck", "null check requires an operand")
	}
	operand, err := n.operand.Compile(env)
	if err != nil {
		return "", err
	}
	if n.negate {
		return operand + " IS NOT NULL", nil
	}
	return operand + " IS NULL", nil
}

// BooleanOp joins predicates with AND, OR or XOR.
type BooleanOp struct {
	token    string
	operands []Expr
}

// And joins predicates with AND. Nil operands are skipped.
func And(operands ...Expr) *BooleanOp { return newBooleanOp("AND", operands) }

// Or joins predicates with OR. Nil operands are skipped.
func Or(operands ...Expr) *BooleanOp { return newBooleanOp("OR", operands) }

// Xor joins predicates with XOR. Nil operands are skipped.
func Xor(operands ...Expr) *BooleanOp { return newBooleanOp("XOR", operands) }

func newBooleanOp(token string, operands []Expr) *BooleanOp {
	kept := make([]Expr, 0, len(operands))
	for _, op := range operands {
		if !isNil(op) {
			kept = append(kept, op)
		}
	}
	return &BooleanOp{token: token, operands: kept}
}

func (*BooleanOp) exprNode() {}

// Children returns the operands.
func (b *BooleanOp) Children() []Node { return asNodes(b.operands) }

// Compile renders the operands joined by the operator. Nested boolean
// operations are parenthesized.
func (b *BooleanOp) Compile(env *Environment) (string, error) {
	if len(b.operands) == 0 {
		return "", newCompileError("BooleanOp", "%s requires at least one operand", b.token)
	}
	parts := make([]string, 0, len(b.operands))
	for _, operand := range b.operands {
		s, err := operand.Compile(env)
		if err != nil {
			return "", err
		}
		if nested, ok := operand.(*BooleanOp); ok && len(nested.operands) > 1 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+b.token+" "), nil
}

// NotOp renders NOT <operand>.
type NotOp struct {
	operand Expr
}

// Not negates a predicate.
func Not(expr Expr) *NotOp { return &NotOp{operand: expr} }

func (*NotOp) exprNode() {}

// Children returns the operand.
func (n *NotOp) Children() []Node { return appendNode(nil, n.operand) }

// Compile renders the negation.
func (n *NotOp) Compile(env *Environment) (string, error) {
	if isNil(n.operand) {
		return "", newCompileError("Not", "NOT requires an operand")
	}
	operand, err := n.operand.Compile(env)
	if err != nil {
		return "", err
	}
	switch n.operand.(type) {
	case *BooleanOp, *Comparison:
		operand = "(" + operand + ")"
	}
	return "NOT " + operand, nil
}

// MathOp renders (<left> <operator> <right>).
type MathOp struct {
	token string
	left  Expr
	right Expr
}

func Plus(left, right Expr) *MathOp     { return &MathOp{token: "+", left: left, right: right} }
func Minus(left, right Expr) *MathOp    { return &MathOp{token: "-", left: left, right: right} }
func Multiply(left, right Expr) *MathOp { return &MathOp{token: "*", left: left, right: right} }
func Divide(left, right Expr) *MathOp   { return &MathOp{token: "/", left: left, right: right} }
func Mod(left, right Expr) *MathOp      { return &MathOp{token: "%", left: left, right: right} }
func Pow(left, right Expr) *MathOp      { return &MathOp{token: "^", left: left, right: right} }

func (*MathOp) exprNode() {}

// Children returns both operands.
func (m *MathOp) Children() []Node {
	return appendNode(appendNode(nil, m.left), m.right)
}

// Compile renders the operation.
func (m *MathOp) Compile(env *Environment) (string, error) {
	if isNil(m.left) || isNil(m.right) {
		return "", newCompileError("MathOp", "%s requires two operands", m.token)
	}
	left, err := m.left.Compile(env)
	if err != nil {
		return "", err
	}
	right, err := m.right.Compile(env)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + m.token + " " + right + ")", nil
}

// Alias renders <expr> AS <alias> inside projections.
type Alias struct {
	expr  Expr
	alias string
}

// As aliases expr in a RETURN or WITH projection.
func As(expr Expr, alias string) *Alias {
	return &Alias{expr: expr, alias: alias}
}

func (*Alias) exprNode() {}

// Children returns the aliased expression.
func (a *Alias) Children() []Node { return appendNode(nil, a.expr) }

// Compile renders the projection item.
func (a *Alias) Compile(env *Environment) (string, error) {
	if isNil(a.expr) {
		return "", newCompileError("Alias", "alias %q has no expression", a.alias)
	}
	if a.alias == "" {
		return "", newCompileError("Alias", "alias name is empty")
	}
	if err := env.checkAlias(a.alias); err != nil {
		return "", err
	}
	expr, err := a.expr.Compile(env)
	if err != nil {
		return "", err
	}
	return expr + " AS " + escapeName(a.alias), nil
}
