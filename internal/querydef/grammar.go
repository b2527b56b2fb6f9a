package querydef

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// queryLexer tokenizes expressions, patterns and projection items.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Keywords must precede Ident
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|XOR|NOT|IS|NULL|IN|CONTAINS|STARTS|ENDS|WITH|TRUE|FALSE|AS|ASC|DESC)\b`},

	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Float", Pattern: `\d+\.\d+(?:[eE][-+]?\d+)?`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Quoted", Pattern: "`(?:``|[^`])+`"},

	{Name: "Operator", Pattern: `<>|<=|>=|=~|[-+*/%^=<>]`},
	{Name: "Punct", Pattern: `[(){}\[\],.:$]`},

	{Name: "Whitespace", Pattern: `\s+`},
})

// Expression is OR-joined terms, the lowest precedence level.
type Expression struct {
	Terms []*XorTerm `@@ ( "OR" @@ )*`
}

type XorTerm struct {
	Terms []*AndTerm `@@ ( "XOR" @@ )*`
}

type AndTerm struct {
	Terms []*NotTerm `@@ ( "AND" @@ )*`
}

type NotTerm struct {
	Not        *NotTerm        `  "NOT" @@`
	Comparison *ComparisonTerm `| @@`
}

type ComparisonTerm struct {
	Left  *Additive `@@`
	Op    *CompOp   `( @@`
	Right *Additive `  @@`
	Null  *NullTest `| @@ )?`
}

type CompOp struct {
	Op string `  @( "=~" | "=" | "<>" | "<=" | ">=" | "<" | ">" | "IN" | "CONTAINS" )
	            | @( "STARTS" "WITH" )
	            | @( "ENDS" "WITH" )`
}

type NullTest struct {
	Is  string `@"IS"`
	Not bool   `@"NOT"? "NULL"`
}

type Additive struct {
	Left *Multiplicative `@@`
	Rest []*AddOp        `@@*`
}

type AddOp struct {
	Op    string          `@( "+" | "-" )`
	Right *Multiplicative `@@`
}

type Multiplicative struct {
	Left *Power   `@@`
	Rest []*MulOp `@@*`
}

type MulOp struct {
	Op    string `@( "*" | "/" | "%" )`
	Right *Power `@@`
}

type Power struct {
	Base     *Unary `@@`
	Exponent *Unary `( "^" @@ )?`
}

type Unary struct {
	Neg   bool     `@"-"?`
	Value *Primary `@@`
}

type Primary struct {
	Literal *LiteralValue `  @@`
	Param   *string       `| "$" @( Ident | Quoted )`
	Ref     *RefPath      `| @@`
	List    *ListValue    `| @@`
	Map     *MapValue     `| @@`
	Group   *Expression   `| "(" @@ ")"`
}

type LiteralValue struct {
	Float  *float64 `  @Float`
	Int    *int64   `| @Int`
	String *string  `| @String`
	Bool   *Boolean `| @( "TRUE" | "FALSE" )`
	Null   bool     `| @"NULL"`
}

// Boolean captures TRUE or FALSE in any case.
type Boolean bool

func (b *Boolean) Capture(values []string) error {
	*b = Boolean(strings.EqualFold(values[0], "true"))
	return nil
}

// RefPath is a variable, a property access or, with arguments, a
// function call such as point.distance(a, b).
type RefPath struct {
	Path []string  `@( Ident | Quoted ) ( "." @( Ident | Quoted ) )*`
	Call *ArgsList `@@?`
}

type ArgsList struct {
	Open string        `@"("`
	Args []*Expression `( @@ ( "," @@ )* )? ")"`
}

type ListValue struct {
	Open  string        `@"["`
	Items []*Expression `( @@ ( "," @@ )* )? "]"`
}

type MapValue struct {
	Open    string      `@"{"`
	Entries []*MapEntry `( @@ ( "," @@ )* )? "}"`
}

type MapEntry struct {
	Key   string      `@( Ident | Quoted | String ) ":"`
	Value *Expression `@@`
}

// PatternAST is (a)-[r]->(b)...
type PatternAST struct {
	Start *NodePattern `@@`
	Hops  []*HopAST    `@@*`
}

type NodePattern struct {
	Open   string    `@"("`
	Name   string    `@( Ident | Quoted )?`
	Labels []string  `( ":" @( Ident | Quoted ) )*`
	Props  *MapValue `@@? ")"`
}

type HopAST struct {
	Left  bool         `@"<"? "-"`
	Rel   *RelPattern  `@@?`
	Right bool         `"-" @">"?`
	Node  *NodePattern `@@`
}

type RelPattern struct {
	Open  string    `@"["`
	Name  string    `@( Ident | Quoted )?`
	Type  string    `( ":" @( Ident | Quoted ) )?`
	Props *MapValue `@@? "]"`
}

// ProjectionAST is <expr> [AS <alias>].
type ProjectionAST struct {
	Expr  *Expression `@@`
	Alias string      `( "AS" @( Ident | Quoted ) )?`
}

// OrderAST is <expr> [ASC|DESC].
type OrderAST struct {
	Expr      *Expression `@@`
	Direction string      `@( "ASC" | "DESC" )?`
}

// SetAST is <property> = <expr>.
type SetAST struct {
	Target *RefPath    `@@ "="`
	Value  *Expression `@@`
}

var parserOptions = []participle.Option{
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(4),
}

var (
	expressionParser = participle.MustBuild[Expression](parserOptions...)
	patternParser    = participle.MustBuild[PatternAST](parserOptions...)
	projectionParser = participle.MustBuild[ProjectionAST](parserOptions...)
	orderParser      = participle.MustBuild[OrderAST](parserOptions...)
	setParser        = participle.MustBuild[SetAST](parserOptions...)
)

// unquoteName strips backticks from a quoted identifier.
func unquoteName(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	}
	return s
}
