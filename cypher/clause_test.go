package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, root Clause) *Result {
	t.Helper()
	result, err := Build(root)
	require.NoError(t, err)
	return result
}

func TestClauses_Compile(t *testing.T) {
	tests := []struct {
		name     string
		build    func() Clause
		expected string
	}{
		{
			name: "match where return",
			build: func() Clause {
				m := NewNode("Movie")
				return NewMatch(NewPattern(m)).
					Where(Gt(m.Property("year"), NewLiteral(2000))).
					Where(IsNotNull(m.Property("title"))).
					Return(m.Property("title"))
			},
			expected: "MATCH (this0:`Movie`)\n" +
				"WHERE this0.year > 2000 AND this0.title IS NOT NULL\n" +
				"RETURN this0.title",
		},
		{
			name: "optional match",
			build: func() Clause {
				p := NewNode("Person")
				m := NewNode("Movie")
				return NewMatch(NewPattern(p)).
					Then(NewOptionalMatch(NewPattern(p).WithoutLabels().Related(NewRelationship("ACTED_IN")).To(m))).
					Return(p, Count(m))
			},
			expected: "MATCH (this0:`Person`)\n" +
				"OPTIONAL MATCH (this0)-[this1:`ACTED_IN`]->(this2:`Movie`)\n" +
				"RETURN this0, count(this2)",
		},
		{
			name: "match set",
			build: func() Clause {
				m := NewNode("Movie")
				return NewMatch(NewPattern(m)).
					Set(
						SetProperty(m.Property("title"), NewLiteral("The Matrix")),
						SetProperty(m.Property("updated"), NewFunction("datetime")),
					)
			},
			expected: "MATCH (this0:`Movie`)\n" +
				"SET\n" +
				"    this0.title = \"The Matrix\",\n" +
				"    this0.updated = datetime()",
		},
		{
			name: "match detach delete",
			build: func() Clause {
				m := NewNode("Movie")
				return NewMatch(NewPattern(m)).DetachDelete(m)
			},
			expected: "MATCH (this0:`Movie`)\nDETACH DELETE this0",
		},
		{
			name: "merge on create on match",
			build: func() Clause {
				m := NewNode("Movie")
				return NewMerge(NewPattern(m).WithProperties(map[string]Expr{"id": NewParam("m1")})).
					OnCreateSet(SetProperty(m.Property("created"), NewLiteral(true))).
					OnMatchSet(SetProperty(m.Property("seen"), Plus(m.Property("seen"), NewLiteral(1)))).
					Return(m)
			},
			expected: "MERGE (this0:`Movie` { id: $param0 })\n" +
				"ON CREATE SET\n" +
				"    this0.created = true\n" +
				"ON MATCH SET\n" +
				"    this0.seen = (this0.seen + 1)\n" +
				"RETURN this0",
		},
		{
			name: "unwind create",
			build: func() Clause {
				row := NewVariable()
				m := NewNode("Movie")
				return NewUnwind(NewParam([]string{"a", "b"}), row).
					Then(NewCreate(NewPattern(m)).Set(SetProperty(m.Property("id"), row))).
					Return(Count(m))
			},
			expected: "UNWIND $param0 AS var0\n" +
				"CREATE (this1:`Movie`)\n" +
				"SET\n" +
				"    this1.id = var0\n" +
				"RETURN count(this1)",
		},
		{
			name: "with distinct where",
			build: func() Clause {
				m := NewNode("Movie")
				total := NewNamedVariable("total")
				return NewMatch(NewPattern(m)).
					Then(NewWith(m, As(Count(m), "total")).Distinct().Where(Gt(total, NewLiteral(1)))).
					Return(m)
			},
			expected: "MATCH (this0:`Movie`)\n" +
				"WITH DISTINCT this0, count(this0) AS total\n" +
				"WHERE total > 1\n" +
				"RETURN this0",
		},
		{
			name: "return modifiers",
			build: func() Clause {
				m := NewNode("Movie")
				return NewMatch(NewPattern(m)).
					Then(NewReturn(m.Property("title")).
						Distinct().
						OrderBy(Desc(m.Property("year")), Asc(m.Property("title"))).
						Skip(NewParam(10)).
						Limit(NewParam(5)))
			},
			expected: "MATCH (this0:`Movie`)\n" +
				"RETURN DISTINCT this0.title\n" +
				"ORDER BY this0.year DESC, this0.title\n" +
				"SKIP $param0\n" +
				"LIMIT $param1",
		},
		{
			name:     "return star",
			build:    func() Clause { return NewMatch(NewPattern(NewNode())).Return() },
			expected: "MATCH (this0)\nRETURN *",
		},
		{
			name: "standalone set and delete",
			build: func() Clause {
				m := NewNode("Movie")
				return NewMatch(NewPattern(m)).
					Then(NewSet(SetProperty(m.Property("archived"), NewLiteral(true)))).
					Then(NewDelete(m))
			},
			expected: "MATCH (this0:`Movie`)\n" +
				"SET\n" +
				"    this0.archived = true\n" +
				"DELETE this0",
		},
		{
			name: "union all",
			build: func() Clause {
				a := NewNode("Actor")
				d := NewNode("Director")
				return NewUnionAll(
					NewMatch(NewPattern(a)).Return(As(a.Property("name"), "name")),
					NewMatch(NewPattern(d)).Return(As(d.Property("name"), "name")),
				)
			},
			expected: "MATCH (this0:`Actor`)\n" +
				"RETURN this0.name AS name\n" +
				"UNION ALL\n" +
				"MATCH (this1:`Director`)\n" +
				"RETURN this1.name AS name",
		},
		{
			name: "union inside call",
			build: func() Clause {
				a := NewNode("Actor")
				d := NewNode("Director")
				return NewCall(NewUnion(
					NewMatch(NewPattern(a)).Return(As(a, "p")),
					NewMatch(NewPattern(d)).Return(As(d, "p")),
				)).Return(NewNamedVariable("p"))
			},
			expected: "CALL {\n" +
				"    MATCH (this0:`Actor`)\n" +
				"    RETURN this0 AS p\n" +
				"    UNION\n" +
				"    MATCH (this1:`Director`)\n" +
				"    RETURN this1 AS p\n" +
				"}\n" +
				"RETURN p",
		},
		{
			name: "concat",
			build: func() Clause {
				a := NewNode("A")
				b := NewNode("B")
				return NewConcat(NewCreate(NewPattern(a)), NewCreate(NewPattern(b))).Then(NewReturn(a, b))
			},
			expected: "CREATE (this0:`A`)\nCREATE (this1:`B`)\nRETURN this0, this1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mustBuild(t, tt.build()).Cypher)
		})
	}
}

func TestClauses_ConstructionErrors(t *testing.T) {
	m := NewNode("Movie")
	tests := []struct {
		name   string
		clause Clause
	}{
		{"match without patterns", NewMatch()},
		{"match nil pattern", NewMatch(nil)},
		{"match nil set item", NewMatch(NewPattern(m)).Set(SetProperty(nil, NewLiteral(1)))},
		{"match empty delete", NewMatch(NewPattern(m)).Delete()},
		{"create without patterns", NewCreate()},
		{"merge nil pattern", NewMerge(nil)},
		{"merge dangling pattern", NewMerge(NewPattern(m).Related(NewRelationship("R")))},
		{"set without items", NewSet()},
		{"delete without targets", NewDelete()},
		{"unwind without variable", NewUnwind(NewLiteral([]int{1}), nil)},
		{"return nil item", NewReturn(nil)},
		{"return nil limit", NewReturn(m).Limit(nil)},
		{"with nil next", NewWith(m).Then(nil)},
		{"call nil import", NewCall(NewReturn(m)).InnerWith(nil)},
		{"concat nil", NewConcat(NewReturn(m), nil)},
		{"union nil", NewUnion(NewReturn(m), nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.clause.Err())
			assert.True(t, IsConstructionError(tt.clause.Err()))

			_, err := Build(tt.clause)
			assert.True(t, IsConstructionError(err))
		})
	}
}

func TestClauses_SharedClauseRejected(t *testing.T) {
	create := NewCreate(NewPattern(NewNode("Movie")))

	_, err := Build(NewConcat(create, create))
	var buildErr *Error
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, ErrCodeSharedClause, buildErr.Code)
	assert.Equal(t, "Create", buildErr.Node)
}
