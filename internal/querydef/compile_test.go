package querydef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherbuild/cypher"
)

func mustLoad(t *testing.T, src string) *Definition {
	t.Helper()
	def, err := LoadYAML([]byte(src))
	require.NoError(t, err)
	return def
}

func TestBuild_Queries(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
		params   map[string]any
	}{
		{
			name: "relationship pattern with properties",
			src: `
name: acted
variables:
  a: {kind: node, labels: [Person]}
params:
  title: The Matrix
query:
  - match:
      patterns: ["(a:Person)-[r:ACTED_IN]->(m:Movie {title: $title})"]
  - return:
      items: ["a.name", "r.role"]
`,
			expected: "MATCH (this0:`Person`)-[this1:`ACTED_IN`]->(this2:`Movie` { title: $param0 })\n" +
				"RETURN this0.name, this1.role",
			params: map[string]any{"param0": "The Matrix"},
		},
		{
			name: "directions and repeated nodes",
			src: `
name: knows
variables:
  a: {kind: node, labels: [Person]}
query:
  - match:
      patterns: ["(a:Person)<-[:KNOWS]-(b)", "(a)--(b)"]
  - return:
      items: ["b"]
`,
			expected: "MATCH (this0:`Person`)<-[this1:`KNOWS`]-(this2), (this0)-[this3]-(this2)\n" +
				"RETURN this2",
			params: map[string]any{},
		},
		{
			name: "boolean precedence",
			src: `
name: precedence
variables:
  a: {kind: node}
query:
  - match:
      patterns: ["(a)"]
      where: 'NOT a.x = 1 OR a.y STARTS WITH "ab" AND a.z IS NULL'
  - return:
      items: ["a"]
`,
			expected: "MATCH (this0)\n" +
				"WHERE NOT (this0.x = 1) OR (this0.y STARTS WITH \"ab\" AND this0.z IS NULL)\n" +
				"RETURN this0",
			params: map[string]any{},
		},
		{
			name: "arithmetic",
			src: `
name: arithmetic
variables:
  a: {kind: node}
query:
  - match:
      patterns: ["(a)"]
  - return:
      items: ["a.x + 2 * -3 AS v", "a.x ^ 2", "-a.x"]
`,
			expected: "MATCH (this0)\n" +
				"RETURN (this0.x + (2 * -3)) AS v, (this0.x ^ 2), (-1 * this0.x)",
			params: map[string]any{},
		},
		{
			name: "functions and collections",
			src: `
name: functions
variables:
  a: {kind: node}
query:
  - match:
      patterns: ["(a)"]
  - return:
      items:
        - 'coalesce(a.name, "n/a")'
        - 'size([1, 2.5, true, NULL])'
        - '{name: a.name, ` + "`full name`" + `: toUpper(a.name)} AS doc'
`,
			expected: "MATCH (this0)\n" +
				"RETURN coalesce(this0.name, \"n/a\"), size([1, 2.5, true, NULL]), " +
				"{`full name`: toUpper(this0.name), name: this0.name} AS doc",
			params: map[string]any{},
		},
		{
			name: "unwind binds a value variable",
			src: `
name: import
params:
  rows: [1, 2]
query:
  - unwind: {expr: $rows, as: row}
  - create:
      patterns: ["(m:Movie)"]
      set: ["m.id = row"]
  - return:
      items: ["count(m) AS created"]
`,
			expected: "UNWIND $param0 AS var0\n" +
				"CREATE (this1:`Movie`)\n" +
				"SET\n" +
				"    this1.id = var0\n" +
				"RETURN count(this1) AS created",
			params: map[string]any{"param0": []any{1, 2}},
		},
		{
			name: "aliases are visible to later clauses",
			src: `
name: totals
query:
  - match:
      patterns: ["(m:Movie)"]
  - with:
      items: ["m", "count(m) AS total"]
      distinct: true
      where: "total > 1"
  - return:
      items: ["total"]
      order_by: ["total DESC"]
`,
			expected: "MATCH (this0:`Movie`)\n" +
				"WITH DISTINCT this0, count(this0) AS total\n" +
				"WHERE total > 1\n" +
				"RETURN total\n" +
				"ORDER BY total DESC",
			params: map[string]any{},
		},
		{
			name: "merge with on create and on match",
			src: `
name: upsert
params:
  id: m-1
query:
  - merge:
      pattern: "(m:Movie {id: $id})"
      on_create: ["m.created = true"]
      on_match: ["m.seen = m.seen + 1"]
`,
			expected: "MERGE (this0:`Movie` { id: $param0 })\n" +
				"ON CREATE SET\n" +
				"    this0.created = true\n" +
				"ON MATCH SET\n" +
				"    this0.seen = (this0.seen + 1)",
			params: map[string]any{"param0": "m-1"},
		},
		{
			name: "detach delete",
			src: `
name: purge
query:
  - match:
      patterns: ["(m:Movie)"]
      where: "m.archived = true"
  - delete:
      items: ["m"]
      detach: true
`,
			expected: "MATCH (this0:`Movie`)\n" +
				"WHERE this0.archived = true\n" +
				"DETACH DELETE this0",
			params: map[string]any{},
		},
		{
			name: "union inside call with imports",
			src: `
name: credits
variables:
  p: {kind: node, labels: [Person]}
query:
  - match:
      patterns: ["(p:Person)"]
  - call:
      imports: [p]
      query:
        - union:
            all: true
            queries:
              - - match: {patterns: ["(p)-[:ACTED_IN]->(m:Movie)"]}
                - return: {items: ["m.title AS title"]}
              - - match: {patterns: ["(p)-[:DIRECTED]->(d:Movie)"]}
                - return: {items: ["d.title AS title"]}
  - return:
      items: ["p.name", "title"]
`,
			expected: "MATCH (this0:`Person`)\n" +
				"CALL {\n" +
				"    WITH this0\n" +
				"    MATCH (this0)-[this1:`ACTED_IN`]->(this2:`Movie`)\n" +
				"    RETURN this2.title AS title\n" +
				"    UNION ALL\n" +
				"    MATCH (this0)-[this3:`DIRECTED`]->(this4:`Movie`)\n" +
				"    RETURN this4.title AS title\n" +
				"}\n" +
				"RETURN this0.name, title",
			params: map[string]any{},
		},
		{
			name: "explicit variable names and named params",
			src: `
name: explicit
prefix: q_
variables:
  n: {kind: node, labels: [Movie], name: movie}
named_params:
  title: Heat
params:
  year: 1995
query:
  - match:
      patterns: ["(n:Movie)-[:HAS_GENRE]->(g:Genre)"]
      where: "n.title = $title AND n.year = $year"
  - return:
      items: ["n", "g"]
`,
			expected: "MATCH (movie:`Movie`)-[q_this0:`HAS_GENRE`]->(q_this1:`Genre`)\n" +
				"WHERE movie.title = $title AND movie.year = $q_param0\n" +
				"RETURN movie, q_this1",
			params: map[string]any{"title": "Heat", "q_param0": 1995},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Build(mustLoad(t, tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Cypher)
			assert.Equal(t, tt.params, result.Params)
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	src := `
name: stable
params:
  a: 1
  b: 2
query:
  - match:
      patterns: ["(m:Movie)"]
      where: "m.a = $a OR m.b = $b"
  - return:
      items: ["m"]
`
	first, err := Build(mustLoad(t, src))
	require.NoError(t, err)
	want, err := first.Fingerprint()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Build(mustLoad(t, src))
		require.NoError(t, err)
		assert.Equal(t, first.Cypher, again.Cypher)

		got, err := again.Fingerprint()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBuild_ExtraOptions(t *testing.T) {
	def := mustLoad(t, `
name: prefixed
prefix: a_
query:
  - match:
      patterns: ["(m)"]
  - return:
      items: ["m"]
`)
	result, err := Build(def, cypher.WithPrefix("b_"))
	require.NoError(t, err)
	assert.Equal(t, "MATCH (b_this0)\nRETURN b_this0", result.Cypher)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		field   string
		message string
	}{
		{
			name: "missing name",
			src: `
query:
  - return: {items: ["1"]}
`,
			field:   "name",
			message: "required",
		},
		{
			name: "empty query",
			src: `
name: x
query: []
`,
			field:   "query",
			message: "at least one clause",
		},
		{
			name: "two clause kinds",
			src: `
name: x
query:
  - match: {patterns: ["(m)"]}
    return: {items: ["m"]}
`,
			field:   "query[0]",
			message: "match, return",
		},
		{
			name: "union of one",
			src: `
name: x
query:
  - union:
      queries:
        - - return: {items: ["1"]}
`,
			field:   "query[0].union.queries",
			message: "at least two",
		},
		{
			name: "relationship with labels",
			src: `
name: x
variables:
  r: {kind: relationship, labels: [A]}
query:
  - return: {items: ["1"]}
`,
			field:   "variables.r",
			message: "type, not labels",
		},
		{
			name: "named param also in params",
			src: `
name: x
params: {id: 1}
named_params: {id: 2}
query:
  - return: {items: ["$id"]}
`,
			field:   "named_params.id",
			message: "also declared",
		},
		{
			name: "unknown variable",
			src: `
name: x
query:
  - return: {items: ["m.title"]}
`,
			field:   "query[0].return.items[0]",
			message: `unknown variable "m"`,
		},
		{
			name: "unknown parameter",
			src: `
name: x
query:
  - match:
      patterns: ["(m)"]
      where: "m.id = $missing"
`,
			field:   "query[0].match.where",
			message: "unknown parameter $missing",
		},
		{
			name: "syntax error",
			src: `
name: x
query:
  - match:
      patterns: ["(m)"]
      where: "m.id = = 1"
`,
			field:   "query[0].match.where",
			message: "column",
		},
		{
			name: "pattern syntax error",
			src: `
name: x
query:
  - match:
      patterns: ["(m"]
`,
			field:   "query[0].match.patterns[0]",
			message: `"(m"`,
		},
		{
			name: "arrow pointing both ways",
			src: `
name: x
query:
  - match:
      patterns: ["(a)<-->(b)"]
`,
			field:   "query[0].match.patterns[0]",
			message: "both ways",
		},
		{
			name: "label mismatch",
			src: `
name: x
variables:
  m: {kind: node, labels: [Movie]}
query:
  - match:
      patterns: ["(m:Person)"]
`,
			field:   "query[0].match.patterns[0]",
			message: "has labels",
		},
		{
			name: "value used as node",
			src: `
name: x
variables:
  m: {kind: value}
query:
  - match:
      patterns: ["(m)"]
`,
			field:   "query[0].match.patterns[0]",
			message: "is not a node",
		},
		{
			name: "node used as relationship",
			src: `
name: x
query:
  - match:
      patterns: ["(a)-[b]->(c)", "(b)"]
`,
			field:   "query[0].match.patterns[1]",
			message: "is not a node",
		},
		{
			name: "set target without property",
			src: `
name: x
query:
  - match:
      patterns: ["(m)"]
      set: ["m = 1"]
`,
			field:   "query[0].match.set[0]",
			message: "must be a property",
		},
		{
			name: "path has no properties",
			src: `
name: x
variables:
  p: {kind: path}
query:
  - return: {items: ["p.length"]}
`,
			field:   "query[0].return.items[0]",
			message: "has no properties",
		},
		{
			name: "unknown import",
			src: `
name: x
query:
  - call:
      imports: [ghost]
      query:
        - return: {items: ["1"]}
`,
			field:   "query[0].call.imports[0]",
			message: `unknown variable "ghost"`,
		},
		{
			name: "duplicate map key",
			src: `
name: x
query:
  - return: {items: ["{a: 1, a: 2}"]}
`,
			field:   "query[0].return.items[0]",
			message: "duplicate map key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(mustLoad(t, tt.src))
			require.Error(t, err)

			var defErr *DefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Equal(t, tt.field, defErr.Field)
			assert.Contains(t, defErr.Message, tt.message)
		})
	}
}

func TestBuild_CypherErrorsPassThrough(t *testing.T) {
	def := mustLoad(t, `
name: arity
variables:
  a: {kind: node}
query:
  - match:
      patterns: ["(a)"]
  - return:
      items: ["distance(a.location)"]
`)
	_, err := Build(def)
	require.Error(t, err)

	var cerr *cypher.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cypher.ErrCodeCompile, cerr.Code)
}

func TestValidate_Nil(t *testing.T) {
	err := Validate(nil)
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "definition", defErr.Field)
}

func TestDefinitionError_Format(t *testing.T) {
	err := fieldError("query[0].match.where", "unknown parameter $%s", "id")
	assert.Equal(t, "query[0].match.where: unknown parameter $id", err.Error())
}
