package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const movieByID = `name: movie-by-id
params:
  id: my-id
query:
  - match:
      patterns: ["(m:Movie)"]
      where: "m.id = $id"
  - return:
      items: ["m.title AS title"]
`

const movieByIDCypher = "MATCH (this0:`Movie`)\nWHERE this0.id = $param0\nRETURN this0.title AS title"

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execRoot runs the root command with args and returns stdout.
func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cypherbuild", cmd.Use)
	assert.Contains(t, cmd.Long, "Cypher")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"build", "validate", "test", "history", "watch"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
}

func TestBuildCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	buildCmd, _, err := cmd.Find([]string{"build"})
	require.NoError(t, err)

	outputFlag := buildCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	for _, name := range []string{"save", "prefix", "db"} {
		assert.NotNil(t, buildCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestRootInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "cb.yaml", "store: "+filepath.Join(dir, "b.db")+"\n")
	def := writeFile(t, dir, "q.yaml", movieByID)

	_, err := execRoot(t, "--config", cfg, "--format", "xml", "build", def)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootConfigSetsFormatAndPrefix(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "cb.yaml", "format: json\nprefix: cfg_\n")
	def := writeFile(t, dir, "q.yaml", movieByID)

	out, err := execRoot(t, "--config", cfg, "build", def)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   BuildOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "MATCH (cfg_this0:`Movie`)\nWHERE cfg_this0.id = $cfg_param0\nRETURN cfg_this0.title AS title", resp.Data.Cypher)
}

func TestRootFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "cb.yaml", "format: json\n")
	def := writeFile(t, dir, "q.yaml", movieByID)

	out, err := execRoot(t, "--config", cfg, "--format", "text", "build", def)
	require.NoError(t, err)
	assert.Contains(t, out, movieByIDCypher)
	assert.Contains(t, out, `params: {"param0":"my-id"}`)
}

func TestRootMissingConfig(t *testing.T) {
	_, err := execRoot(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
