package cypher

// Function is a Cypher function call rendered as name(arg, arg, ...).
// All built-in wrappers below produce a Function.
type Function struct {
	name    string
	args    []Expr
	minArgs int
}

// NewFunction creates a call to a custom or built-in function.
func NewFunction(name string, args ...Expr) *Function {
	return &Function{name: name, args: args}
}

func newFunction(name string, minArgs int, args ...Expr) *Function {
	return &Function{name: name, args: args, minArgs: minArgs}
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

func (*Function) exprNode() {}

// Children returns the arguments.
func (f *Function) Children() []Node { return asNodes(f.args) }

// Compile renders the call.
func (f *Function) Compile(env *Environment) (string, error) {
	if f.name == "" {
		return "", newCompileError("Function", "function name is empty")
	}
	if len(f.args) < f.minArgs {
		return "", newCompileError("Function", "%s requires at least %d argument(s), got %d", f.name, f.minArgs, len(f.args))
	}
	for i, arg := range f.args {
		if isNil(arg) {
			return "", newCompileError("Function", "%s: argument %d is nil", f.name, i)
		}
	}
	args, err := compileJoined(env, f.args, ", ")
	if err != nil {
		return "", err
	}
	return f.name + "(" + args + ")", nil
}

// Coalesce returns the first non-null expression.
func Coalesce(expr Expr, optional ...Expr) *Function {
	return newFunction("coalesce", 1, append([]Expr{expr}, optional...)...)
}

// Point creates a spatial point from a map expression.
func Point(expr Expr) *Function {
	return newFunction("point", 1, expr)
}

// Distance is the Neo4j 4 spatial distance function.
//
// Deprecated: use PointDistance.
func Distance(left, right Expr) *Function {
	return newFunction("distance", 2, left, right)
}

// PointDistance renders point.distance(left, right).
func PointDistance(left, right Expr) *Function {
	return newFunction("point.distance", 2, left, right)
}

// RandomUUID renders randomUUID().
func RandomUUID() *Function {
	return newFunction("randomUUID", 0)
}

// ID renders id(expr).
func ID(expr Expr) *Function {
	return newFunction("id", 1, expr)
}

// ElementID renders elementId(expr).
func ElementID(expr Expr) *Function {
	return newFunction("elementId", 1, expr)
}

// Count renders count(expr).
func Count(expr Expr) *Function {
	return newFunction("count", 1, expr)
}

// Collect renders collect(expr).
func Collect(expr Expr) *Function {
	return newFunction("collect", 1, expr)
}

// Size renders size(expr).
func Size(expr Expr) *Function {
	return newFunction("size", 1, expr)
}

// ToLower renders toLower(expr).
func ToLower(expr Expr) *Function {
	return newFunction("toLower", 1, expr)
}

// ToUpper renders toUpper(expr).
func ToUpper(expr Expr) *Function {
	return newFunction("toUpper", 1, expr)
}

// ToString renders toString(expr).
func ToString(expr Expr) *Function {
	return newFunction("toString", 1, expr)
}

// Labels renders labels(expr).
func Labels(expr Expr) *Function {
	return newFunction("labels", 1, expr)
}

// Type renders type(expr).
func Type(expr Expr) *Function {
	return newFunction("type", 1, expr)
}

// Keys renders keys(expr).
func Keys(expr Expr) *Function {
	return newFunction("keys", 1, expr)
}

// builtinArity lists the minimum arity of the built-in wrappers by name.
// Used by callers that resolve functions by name, such as text front ends.
var builtinArity = map[string]int{
	"coalesce":       1,
	"point":          1,
	"distance":       2,
	"point.distance": 2,
	"randomUUID":     0,
	"id":             1,
	"elementId":      1,
	"count":          1,
	"collect":        1,
	"size":           1,
	"toLower":        1,
	"toUpper":        1,
	"toString":       1,
	"labels":         1,
	"type":           1,
	"keys":           1,
}

// CallFunction resolves name against the built-in catalog and returns a
// call with the catalog's arity check. Unknown names produce an unchecked
// custom function call.
func CallFunction(name string, args ...Expr) *Function {
	if minArgs, ok := builtinArity[name]; ok {
		return newFunction(name, minArgs, args...)
	}
	return NewFunction(name, args...)
}
