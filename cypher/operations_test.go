package cypher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileExpr(t *testing.T, expr Expr) string {
	t.Helper()
	out, err := expr.Compile(newEnvironment(""))
	require.NoError(t, err)
	return out
}

func TestComparison_Operators(t *testing.T) {
	tests := []struct {
		op    ComparisonOperator
		token string
	}{
		{OpEq, "="},
		{OpNeq, "<>"},
		{OpGt, ">"},
		{OpGte, ">="},
		{OpLt, "<"},
		{OpLte, "<="},
		{OpIn, "IN"},
		{OpContains, "CONTAINS"},
		{OpStartsWith, "STARTS WITH"},
		{OpEndsWith, "ENDS WITH"},
		{OpMatches, "=~"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			movie := NewNode("Movie")
			query := NewMatch(NewPattern(movie)).
				Where(Compare(tt.op, movie.Property("title"), Coalesce(NewVariable())))

			result, err := Build(query)
			require.NoError(t, err)
			assert.Equal(t, "MATCH (this0:`Movie`)\nWHERE this0.title "+tt.token+" coalesce(var1)", result.Cypher)
			assert.Equal(t, tt.token, tt.op.Token())
		})
	}
}

func TestComparison_UnknownOperator(t *testing.T) {
	_, err := Compare("between", NewLiteral(1), NewLiteral(2)).Compile(newEnvironment(""))
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
}

func TestNullCheck(t *testing.T) {
	x := NewNamedVariable("x")
	assert.Equal(t, "x IS NULL", compileExpr(t, IsNull(x)))
	assert.Equal(t, "x IS NOT NULL", compileExpr(t, IsNotNull(x)))

	_, err := IsNull(nil).Compile(newEnvironment(""))
	assert.True(t, IsCompileError(err))
}

func TestBooleanOp(t *testing.T) {
	a := NewNamedVariable("a")
	b := NewNamedVariable("b")
	c := NewNamedVariable("c")

	tests := []struct {
		name     string
		expr     Expr
		expected string
	}{
		{"and", And(Eq(a, b), Gt(c, NewLiteral(1))), "a = b AND c > 1"},
		{"or nested in and", And(a, Or(b, c)), "a AND (b OR c)"},
		{"xor", Xor(a, b), "a XOR b"},
		{"nil operands skipped", And(nil, a, nil), "a"},
		{"single nested operand stays bare", And(Or(a), b), "a AND b"},
		{"not comparison", Not(Eq(a, b)), "NOT (a = b)"},
		{"not variable", Not(a), "NOT a"},
		{"not boolean", Not(Or(a, b)), "NOT (a OR b)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileExpr(t, tt.expr))
		})
	}
}

func TestBooleanOp_Empty(t *testing.T) {
	_, err := And().Compile(newEnvironment(""))
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
}

func TestMathOp(t *testing.T) {
	n := NewNamedVariable("n")
	assert.Equal(t, "(n + 1)", compileExpr(t, Plus(n, NewLiteral(1))))
	assert.Equal(t, "((n * 2) - 1)", compileExpr(t, Minus(Multiply(n, NewLiteral(2)), NewLiteral(1))))
	assert.Equal(t, "(n % 3)", compileExpr(t, Mod(n, NewLiteral(3))))
	assert.Equal(t, "(n ^ 2)", compileExpr(t, Pow(n, NewLiteral(2))))
	assert.Equal(t, "(n / 2.5)", compileExpr(t, Divide(n, NewLiteral(2.5))))

	_, err := Plus(n, nil).Compile(newEnvironment(""))
	assert.True(t, IsCompileError(err))
}

func TestAlias(t *testing.T) {
	m := NewNamedNode("m")
	assert.Equal(t, "m.title AS title", compileExpr(t, As(m.Property("title"), "title")))
	assert.Equal(t, "m AS `movie title`", compileExpr(t, As(m, "movie title")))

	_, err := As(m, "").Compile(newEnvironment(""))
	assert.True(t, IsCompileError(err))
}

func TestFunction(t *testing.T) {
	m := NewNamedNode("m")
	tests := []struct {
		name     string
		fn       *Function
		expected string
	}{
		{"coalesce", Coalesce(m.Property("a"), m.Property("b"), NewLiteral("x")), `coalesce(m.a, m.b, "x")`},
		{"point", Point(NewLiteral(map[string]any{"x": 1, "y": 2})), "point({x: 1, y: 2})"},
		{"distance", Distance(m.Property("l"), NewNamedParam("p", nil)), "distance(m.l, $p)"},
		{"point.distance", PointDistance(m.Property("l"), NewNamedParam("p", nil)), "point.distance(m.l, $p)"},
		{"randomUUID", RandomUUID(), "randomUUID()"},
		{"id", ID(m), "id(m)"},
		{"elementId", ElementID(m), "elementId(m)"},
		{"count", Count(m), "count(m)"},
		{"custom", NewFunction("apoc.text.join", m.Property("tags"), NewLiteral(",")), `apoc.text.join(m.tags, ",")`},
		{"resolved by name", CallFunction("toLower", m.Property("name")), "toLower(m.name)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileExpr(t, tt.fn))
		})
	}
}

func TestFunction_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   *Function
	}{
		{"empty name", NewFunction("")},
		{"catalog arity", CallFunction("point.distance", NewLiteral(1))},
		{"nil argument", Coalesce(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn.Compile(newEnvironment(""))
			require.Error(t, err)
			assert.True(t, IsCompileError(err))
		})
	}
}

func TestLiteral(t *testing.T) {
	s := "ptr"
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"null", nil, "NULL"},
		{"nil pointer", (*string)(nil), "NULL"},
		{"pointer", &s, `"ptr"`},
		{"string", "it's", `"it's"`},
		{"escaped string", "a\"b\\c\nd", `"a\"b\\c\nd"`},
		{"bool", true, "true"},
		{"int", -42, "-42"},
		{"uint", uint8(7), "7"},
		{"whole float", 3.0, "3.0"},
		{"float", 0.25, "0.25"},
		{"list", []any{1, "a", nil}, `[1, "a", NULL]`},
		{"map", map[string]any{"b": 2, "a": 1, "c d": true}, "{a: 1, b: 2, `c d`: true}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileExpr(t, NewLiteral(tt.value)))
		})
	}
}

func TestLiteral_Unsupported(t *testing.T) {
	for _, value := range []any{math.Inf(1), map[int]string{1: "a"}, struct{}{}} {
		_, err := NewLiteral(value).Compile(newEnvironment(""))
		require.Error(t, err)
		assert.True(t, IsCompileError(err))
	}
}

func TestProperty(t *testing.T) {
	m := NewNamedNode("m")
	assert.Equal(t, "m.address.city", compileExpr(t, m.Property("address").Property("city")))
	assert.Equal(t, "m.`first name`", compileExpr(t, m.Property("first name")))

	_, err := m.Property("a", "").Compile(newEnvironment(""))
	assert.True(t, IsCompileError(err))
}

func TestCollections(t *testing.T) {
	m := NewNamedNode("m")
	assert.Equal(t, "[m.a, 1, $p]", compileExpr(t, NewList(m.Property("a"), NewLiteral(1), NewNamedParam("p", 2))))
	assert.Equal(t, "[]", compileExpr(t, NewList()))
	assert.Equal(t, "{`full name`: toUpper(m.name), id: m.id}",
		compileExpr(t, NewMap(map[string]Expr{"full name": ToUpper(m.Property("name")), "id": m.Property("id")})))

	_, err := NewList(nil).Compile(newEnvironment(""))
	assert.True(t, IsCompileError(err))
	_, err = NewMap(map[string]Expr{"a": nil}).Compile(newEnvironment(""))
	assert.True(t, IsCompileError(err))
}
