package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironment_VariableNamesShareCounter(t *testing.T) {
	env := newEnvironment("")

	names := make([]string, 0, 4)
	for _, ref := range []Reference{NewNode(), NewVariable(), NewRelationship(""), NewPath()} {
		name, err := env.VariableName(ref)
		require.NoError(t, err)
		names = append(names, name)
	}

	assert.Equal(t, []string{"this0", "var1", "this2", "p3"}, names)
}

func TestEnvironment_VariableNameIdempotent(t *testing.T) {
	env := newEnvironment("")
	node := NewNode("Movie")

	first, err := env.VariableName(node)
	require.NoError(t, err)
	second, err := env.VariableName(node)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := env.VariableName(NewNode("Movie"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEnvironment_RegisterVariable(t *testing.T) {
	env := newEnvironment("")

	a, err := env.RegisterVariable("")
	require.NoError(t, err)
	b, err := env.RegisterVariable("edge")
	require.NoError(t, err)

	assert.Equal(t, "this0", a)
	assert.Equal(t, "edge1", b)

	_, err = env.VariableName(NewNamedVariable("this0"))
	require.Error(t, err)
	assert.True(t, IsNamingConflict(err))
}

func TestEnvironment_ExplicitNamesShared(t *testing.T) {
	env := newEnvironment("")

	a, err := env.VariableName(NewNamedVariable("m"))
	require.NoError(t, err)
	b, err := env.VariableName(NewNamedNode("m", "Movie"))
	require.NoError(t, err)

	assert.Equal(t, "m", a)
	assert.Equal(t, "m", b)
}

func TestEnvironment_AliasConflicts(t *testing.T) {
	env := newEnvironment("")

	_, err := env.VariableName(NewNode("Movie"))
	require.NoError(t, err)
	_, err = env.VariableName(NewNamedVariable("title"))
	require.NoError(t, err)

	_, err = As(NewLiteral(1), "this0").Compile(env)
	require.Error(t, err)
	assert.True(t, IsNamingConflict(err))

	text, err := As(NewLiteral(1), "title").Compile(env)
	require.NoError(t, err)
	assert.Equal(t, "1 AS title", text)
}

func TestEnvironment_NilReference(t *testing.T) {
	env := newEnvironment("")

	_, err := env.VariableName((*NodeRef)(nil))
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
}

func TestEnvironment_AutoNameSkipsTaken(t *testing.T) {
	env := newEnvironment("")

	_, err := env.VariableName(NewNamedVariable("this0"))
	require.NoError(t, err)
	name, err := env.VariableName(NewNode())
	require.NoError(t, err)

	assert.Equal(t, "this1", name)
}

func TestEnvironment_ParameterKeys(t *testing.T) {
	env := newEnvironment("")
	p := NewParam("a")

	k1, err := env.ParameterKey(p)
	require.NoError(t, err)
	k2, err := env.ParameterKey(NewParam("b"))
	require.NoError(t, err)
	again, err := env.ParameterKey(p)
	require.NoError(t, err)
	k3, err := env.RegisterParameter(3)
	require.NoError(t, err)

	assert.Equal(t, "param0", k1)
	assert.Equal(t, "param1", k2)
	assert.Equal(t, k1, again)
	assert.Equal(t, "param2", k3)

	assert.Equal(t, []string{"param0", "param1", "param2"}, env.ParameterKeys())
	assert.Equal(t, map[string]any{"param0": "a", "param1": "b", "param2": 3}, env.ResolveParameters())
}

func TestEnvironment_NamedParamConflicts(t *testing.T) {
	env := newEnvironment("")

	_, err := env.RegisterParameter("x")
	require.NoError(t, err)

	_, err = env.ParameterKey(NewNamedParam("param0", "x"))
	require.Error(t, err)
	assert.True(t, IsNamingConflict(err))

	_, err = env.ParameterKey(NewNamedParam("id", 1))
	require.NoError(t, err)
	_, err = env.ParameterKey(NewNamedParam("id", []int{1}))
	require.Error(t, err)
	assert.True(t, IsNamingConflict(err))
}

func TestEnvironment_Prefix(t *testing.T) {
	env := newEnvironment("inner_")

	name, err := env.VariableName(NewNode())
	require.NoError(t, err)
	key, err := env.ParameterKey(NewParam(1))
	require.NoError(t, err)

	assert.Equal(t, "inner_this0", name)
	assert.Equal(t, "inner_param0", key)
}

func TestEnvironment_Depth(t *testing.T) {
	env := newEnvironment("")

	assert.Equal(t, "x", env.Pad("x"))
	env.Indent()
	env.Indent()
	assert.Equal(t, 2, env.Depth())
	assert.Equal(t, "        x", env.Pad("x"))

	env.Dedent()
	env.Dedent()
	env.Dedent()
	assert.Equal(t, 0, env.Depth())
	assert.Equal(t, 2, env.maxDepth)
}

func TestEnvironment_Sealed(t *testing.T) {
	env := newEnvironment("")
	_, err := env.RegisterParameter(1)
	require.NoError(t, err)

	params := env.ResolveParameters()
	params["param0"] = 99

	calls := map[string]func() error{
		"VariableName": func() error {
			_, err := env.VariableName(NewNode())
			return err
		},
		"RegisterVariable": func() error {
			_, err := env.RegisterVariable("")
			return err
		},
		"ParameterKey": func() error {
			_, err := env.ParameterKey(NewParam(2))
			return err
		},
		"RegisterParameter": func() error {
			_, err := env.RegisterParameter(2)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			var buildErr *Error
			require.ErrorAs(t, call(), &buildErr)
			assert.Equal(t, ErrCodeEnvironmentSealed, buildErr.Code)
		})
	}

	// The snapshot is detached from the environment.
	assert.Equal(t, map[string]any{"param0": 1}, env.ResolveParameters())
}
