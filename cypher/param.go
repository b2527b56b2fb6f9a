package cypher

import (
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Param is a placeholder bound to a runtime value. It renders as $<key>
// and its value is extracted into the parameter table of the build.
//
// The key is assigned on first compilation and reused afterwards, so one
// Param instance may appear several times in a query.
type Param struct {
	name  string
	value any
}

// NewParam creates an anonymous parameter, keyed param<N> at build time.
func NewParam(value any) *Param {
	return &Param{value: value}
}

// NewNamedParam creates a parameter that renders with the given key.
// An empty name behaves like NewParam.
func NewNamedParam(name string, value any) *Param {
	return &Param{name: name, value: value}
}

// Value returns the bound value.
func (p *Param) Value() any { return p.value }

func (*Param) exprNode() {}

// Children returns nil; parameters are leaves.
func (*Param) Children() []Node { return nil }

// Compile registers the parameter and renders $<key>.
func (p *Param) Compile(env *Environment) (string, error) {
	key, err := env.ParameterKey(p)
	if err != nil {
		return "", err
	}
	return "$" + escapeName(key), nil
}

// Literal is a value inlined into the query text.
// Prefer Param for caller-supplied values.
type Literal struct {
	value any
}

// NewLiteral creates a literal. Supported values are nil, strings, bools,
// integers, finite floats, slices of those and maps with string keys.
func NewLiteral(value any) *Literal {
	return &Literal{value: value}
}

// Null is the NULL literal.
var Null = NewLiteral(nil)

func (*Literal) exprNode() {}

// Children returns nil.
func (*Literal) Children() []Node { return nil }

// Compile renders the literal value.
func (l *Literal) Compile(*Environment) (string, error) {
	return formatLiteral(reflect.ValueOf(l.value))
}

func formatLiteral(v reflect.Value) (string, error) {
	if !v.IsValid() {
		return "NULL", nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "NULL", nil
		}
		return formatLiteral(v.Elem())
	case reflect.String:
		return quoteString(v.String()), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return formatFloat(v.Float())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			s, err := formatLiteral(v.Index(i))
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return "", newCompileError("Literal", "map literal keys must be strings, got %s", v.Type().Key())
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := formatLiteral(v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())))
			if err != nil {
				return "", err
			}
			parts = append(parts, escapeName(k)+": "+s)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	default:
		return "", newCompileError("Literal", "unsupported literal type %s", v.Type())
	}
}

func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", newCompileError("Literal", "non-finite float %v", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quoteString(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}
