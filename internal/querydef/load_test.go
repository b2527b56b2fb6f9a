package querydef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_YAML(t *testing.T) {
	def, err := LoadFile("testdata/movie_call.yaml")
	require.NoError(t, err)

	assert.Equal(t, "create-movie-in-call", def.Name)
	assert.Equal(t, KindNode, def.Variables["movie"].Kind)
	assert.Equal(t, []string{"Movie"}, def.Variables["movie"].Labels)
	require.Len(t, def.Query, 1)
	require.NotNil(t, def.Query[0].Call)
	assert.Len(t, def.Query[0].Call.Query, 2)

	result, err := Build(def)
	require.NoError(t, err)

	expected := "CALL {\n" +
		"    CREATE (this0:`Movie`)\n" +
		"    SET\n" +
		"        this0.id = $param0\n" +
		"    RETURN this0\n" +
		"}"
	assert.Equal(t, expected, result.Cypher)
	assert.Equal(t, map[string]any{"param0": "my-id"}, result.Params)
}

func TestLoadFile_CUE(t *testing.T) {
	def, err := LoadFile("testdata/movies_by_year.cue")
	require.NoError(t, err)

	assert.Equal(t, "movies-by-year", def.Name)
	require.Len(t, def.Query, 2)
	require.NotNil(t, def.Query[0].Match)
	require.NotNil(t, def.Query[1].Return)

	result, err := Build(def)
	require.NoError(t, err)

	expected := "MATCH (this0:`Movie`)\n" +
		"WHERE this0.year > $param0 AND this0.title IS NOT NULL\n" +
		"RETURN this0.title AS title, this0.year AS year\n" +
		"ORDER BY year DESC, title\n" +
		"LIMIT $param1"
	assert.Equal(t, expected, result.Cypher)
	assert.Equal(t, map[string]any{"param0": "2000", "param1": "10"}, result.Params)
}

func TestLoadFile_CUESchemaViolation(t *testing.T) {
	_, err := LoadFile("testdata/invalid_schema.cue")
	require.Error(t, err)

	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "cue", defErr.Field)
	assert.Contains(t, defErr.Message, "pattern")
}

func TestLoadFile_InvalidKind(t *testing.T) {
	def, err := LoadFile("testdata/invalid_kind.yaml")
	require.NoError(t, err)

	err = Validate(def)
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "variables.m", defErr.Field)
	assert.Contains(t, defErr.Message, "vertex")
}

func TestLoadYAML_UnknownField(t *testing.T) {
	_, err := LoadYAML([]byte("name: x\nquery: []\nbogus: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoadYAML_Empty(t *testing.T) {
	_, err := LoadYAML(nil)
	require.Error(t, err)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.cue", "notes.txt", ".hidden/c.yaml", "sub/d.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("name: x"), 0o644))
	}

	files, err := FindFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.cue"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "d.yml"),
	}, files)

	single, err := FindFiles(filepath.Join(dir, "b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, single)

	_, err = FindFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
