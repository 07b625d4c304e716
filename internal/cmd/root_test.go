package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/storefront-cli/internal/output"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() {
		version, commit, date = origVersion, origCommit, origDate
		rootCmd.Version = origVersion
	}()

	SetVersionInfo("1.2.3", "abc123", "2025-01-01")

	assert.Equal(t, "1.2.3", version)
	assert.Equal(t, "abc123", commit)
	assert.Equal(t, "2025-01-01", date)

	e := newCLIEnv(t)
	res := e.run("--version")
	require.NoError(t, res.err)
	assert.Equal(t, "storefront version 1.2.3 (commit: abc123, built: 2025-01-01)\n", res.stdout)
}

func TestGetOutputFormat(t *testing.T) {
	prevType, prevFmt := outputType, outputFmt
	defer func() { outputType, outputFmt = prevType, prevFmt }()

	outputType, outputFmt = output.FormatYAML, "text"
	assert.Equal(t, output.FormatYAML, GetOutputFormat())

	outputType, outputFmt = "", "ndjson"
	assert.Equal(t, output.FormatNDJSON, GetOutputFormat())

	outputType, outputFmt = "", "bogus"
	assert.Equal(t, output.FormatText, GetOutputFormat())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
	assert.False(t, isTerminal(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}

func TestInSubtree(t *testing.T) {
	assert.True(t, inSubtree(commentsTreeCmd, "comments"))
	assert.True(t, inSubtree(commentsCmd, "comments"))
	assert.False(t, inSubtree(threadBuildCmd, "comments"))
	assert.True(t, inSubtree(configSetCmd, "config"))
	assert.False(t, inSubtree(rootCmd, "config"))

	// Only a direct child of the root counts as the top of a subtree.
	root := &cobra.Command{Use: "app"}
	group := &cobra.Command{Use: "admin"}
	nested := &cobra.Command{Use: "comments"}
	leaf := &cobra.Command{Use: "tree"}
	top := &cobra.Command{Use: "comments"}
	group.AddCommand(nested)
	top.AddCommand(leaf)
	root.AddCommand(group, top)

	assert.True(t, inSubtree(leaf, "comments"))
	assert.True(t, inSubtree(top, "comments"))
	assert.False(t, inSubtree(nested, "comments"))
	assert.False(t, inSubtree(root, "app"))
}

func TestRoot_ClientOnlyForComments(t *testing.T) {
	e := newCLIEnv(t)
	e.stdin = "[]"

	res := e.run("-o", "json", "thread", "stats")
	require.NoError(t, res.err)
	assert.Empty(t, res.token)
	assert.Empty(t, res.base)

	res = e.run("-o", "json", "--token", "t", "--base-url", "https://x.example.com", "comments", "tree", "1")
	require.NoError(t, res.err)
	assert.Equal(t, "t", res.token)
	assert.Equal(t, "https://x.example.com", res.base)
}

func TestRoot_InvalidFlags(t *testing.T) {
	e := newCLIEnv(t)

	res := e.run("-o", "xml", "thread", "stats")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "invalid --output format")

	res = e.run("-o", "json", "--error-format", "toml", "thread", "stats")
	require.Error(t, res.err)

	res = e.run("--query", ".", "--query-file", "q.jq", "thread", "stats")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "only one of")
}

func TestRoot_QueryFile(t *testing.T) {
	e := newCLIEnv(t)
	e.stdin = `[{"id":1}]`
	queryPath := t.TempDir() + "/q.jq"
	require.NoError(t, os.WriteFile(queryPath, []byte(".roots\n"), 0o600))

	res := e.run("-o", "json", "--query-file", queryPath, "thread", "stats")
	require.NoError(t, res.err)
	assert.Equal(t, "1\n", res.stdout)
}

func TestRoot_DebugLogsToStderr(t *testing.T) {
	e := newCLIEnv(t)
	res := e.run("-o", "json", "--debug", "--token", "t", "comments", "tree", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "api client ready")
	assert.Contains(t, res.stderr, "built thread")

	res = e.run("-o", "json", "--token", "t", "comments", "tree", "1")
	require.NoError(t, res.err)
	assert.NotContains(t, res.stderr, "api client ready")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true).Debug("shown")
	assert.True(t, strings.Contains(buf.String(), "shown"))
}

func TestCommandsHaveShortHelp(t *testing.T) {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		if c.Short == "" {
			t.Errorf("command %q has no short description", c.CommandPath())
		}
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}
