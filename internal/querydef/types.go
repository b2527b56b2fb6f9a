// Package querydef loads declarative query definitions from YAML or CUE
// files and compiles them into cypher clause trees.
//
// A definition names its variables and parameters with local handles.
// Handles never reach the output: variables are auto-named by the build
// (this0, var1, ...) unless the definition gives them an explicit name, and
// parameters become param0, param1, ... unless declared in named_params.
//
// Expressions, patterns and projection items are written as Cypher-like
// strings and parsed with a small grammar:
//
//	query:
//	  - match:
//	      patterns: ["(m:Movie)"]
//	      where: "m.year > $year"
//	  - return:
//	      items: ["m.title AS title"]
//	      order_by: ["title DESC"]
package querydef

// Variable kinds.
const (
	KindValue        = "value"
	KindNode         = "node"
	KindRelationship = "relationship"
	KindPath         = "path"
)

// Definition is one query definition file.
type Definition struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Prefix      string                 `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Variables   map[string]VariableDef `yaml:"variables,omitempty" json:"variables,omitempty"`
	Params      map[string]any         `yaml:"params,omitempty" json:"params,omitempty"`
	NamedParams map[string]any         `yaml:"named_params,omitempty" json:"named_params,omitempty"`
	Query       []ClauseDef            `yaml:"query" json:"query"`
}

// VariableDef declares a variable handle.
type VariableDef struct {
	Kind   string   `yaml:"kind,omitempty" json:"kind,omitempty"`
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Type   string   `yaml:"type,omitempty" json:"type,omitempty"`
	// Name keeps the variable's name in the output instead of an auto name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// ClauseDef holds exactly one clause.
type ClauseDef struct {
	Match         *MatchDef  `yaml:"match,omitempty" json:"match,omitempty"`
	OptionalMatch *MatchDef  `yaml:"optional_match,omitempty" json:"optional_match,omitempty"`
	Create        *CreateDef `yaml:"create,omitempty" json:"create,omitempty"`
	Merge         *MergeDef  `yaml:"merge,omitempty" json:"merge,omitempty"`
	Set           []string   `yaml:"set,omitempty" json:"set,omitempty"`
	Delete        *DeleteDef `yaml:"delete,omitempty" json:"delete,omitempty"`
	With          *WithDef   `yaml:"with,omitempty" json:"with,omitempty"`
	Return        *ReturnDef `yaml:"return,omitempty" json:"return,omitempty"`
	Unwind        *UnwindDef `yaml:"unwind,omitempty" json:"unwind,omitempty"`
	Call          *CallDef   `yaml:"call,omitempty" json:"call,omitempty"`
	Union         *UnionDef  `yaml:"union,omitempty" json:"union,omitempty"`
}

// MatchDef is MATCH or OPTIONAL MATCH with optional WHERE, SET and DELETE.
type MatchDef struct {
	Patterns []string `yaml:"patterns" json:"patterns"`
	Where    string   `yaml:"where,omitempty" json:"where,omitempty"`
	Set      []string `yaml:"set,omitempty" json:"set,omitempty"`
	Delete   []string `yaml:"delete,omitempty" json:"delete,omitempty"`
	Detach   bool     `yaml:"detach,omitempty" json:"detach,omitempty"`
}

// CreateDef is CREATE with optional SET.
type CreateDef struct {
	Patterns []string `yaml:"patterns" json:"patterns"`
	Set      []string `yaml:"set,omitempty" json:"set,omitempty"`
}

// MergeDef is MERGE with ON CREATE SET and ON MATCH SET.
type MergeDef struct {
	Pattern  string   `yaml:"pattern" json:"pattern"`
	OnCreate []string `yaml:"on_create,omitempty" json:"on_create,omitempty"`
	OnMatch  []string `yaml:"on_match,omitempty" json:"on_match,omitempty"`
}

// DeleteDef is a standalone DELETE.
type DeleteDef struct {
	Items  []string `yaml:"items" json:"items"`
	Detach bool     `yaml:"detach,omitempty" json:"detach,omitempty"`
}

// WithDef is WITH. No items means WITH *.
type WithDef struct {
	Items    []string `yaml:"items,omitempty" json:"items,omitempty"`
	Distinct bool     `yaml:"distinct,omitempty" json:"distinct,omitempty"`
	Where    string   `yaml:"where,omitempty" json:"where,omitempty"`
}

// ReturnDef is RETURN. No items means RETURN *.
type ReturnDef struct {
	Items    []string `yaml:"items,omitempty" json:"items,omitempty"`
	Distinct bool     `yaml:"distinct,omitempty" json:"distinct,omitempty"`
	OrderBy  []string `yaml:"order_by,omitempty" json:"order_by,omitempty"`
	Skip     string   `yaml:"skip,omitempty" json:"skip,omitempty"`
	Limit    string   `yaml:"limit,omitempty" json:"limit,omitempty"`
}

// UnwindDef is UNWIND <expr> AS <as>.
type UnwindDef struct {
	Expr string `yaml:"expr" json:"expr"`
	As   string `yaml:"as" json:"as"`
}

// CallDef is a CALL { ... } sub-query.
type CallDef struct {
	Imports []string    `yaml:"imports,omitempty" json:"imports,omitempty"`
	Query   []ClauseDef `yaml:"query" json:"query"`
}

// UnionDef joins complete statements with UNION or UNION ALL.
type UnionDef struct {
	All     bool          `yaml:"all,omitempty" json:"all,omitempty"`
	Queries [][]ClauseDef `yaml:"queries" json:"queries"`
}
