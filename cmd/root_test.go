package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	_, err = root.ExecuteC()
	return buf.String(), err
}

func writeFile(t *testing.T, name string, content string) string {
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o600))
	return filename
}

func TestCMD(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "")
	assert.Nil(t, err)
	assert.NotNil(t, output)
}

func TestVersion(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "version")
	assert.Nil(t, err)
	assert.Equal(t, "whinator dev (unknown)\n", output)

	output, err = executeCommand(NewRootCmd(), "version", "--short")
	assert.Nil(t, err)
	assert.Equal(t, "dev\n", output)
}

func TestEval(t *testing.T) {
	payload := writeFile(t, "payload.json", `{"pull_request": {"url": "https://example.com/pulls/1"}}`)
	cfg := writeFile(t, "config.yml", "status:\n  listen: \"off\"\n")

	output, err := executeCommand(NewRootCmd(), "eval", "--config", cfg, payload)
	assert.Nil(t, err)
	assert.Equal(t, "\"https://example.com/pulls/1\"\n", output)

	script := writeFile(t, "hook.js", `({action: body.action, labels: body.labels.map(l => l.name)})`)
	root := NewRootCmd()
	root.SetIn(strings.NewReader(`{"action": "labeled", "labels": [{"name": "bug"}]}`))
	output, err = executeCommand(root, "eval", "--config", cfg, "--script", script, "-")
	assert.Nil(t, err)
	assert.JSONEq(t, `{"action": "labeled", "labels": ["bug"]}`, output)
}

func TestEvalUndefined(t *testing.T) {
	cfg := writeFile(t, "config.yml", "script:\n  source: \"body.missing\"\n")
	root := NewRootCmd()
	root.SetIn(strings.NewReader(`{}`))
	output, err := executeCommand(root, "eval", "--config", cfg)
	assert.Nil(t, err)
	assert.Equal(t, "null\n", output)
}

func TestEvalFailure(t *testing.T) {
	cfg := writeFile(t, "config.yml", "script:\n  source: \"throw new Error('boom')\"\n")
	root := NewRootCmd()
	root.SetIn(strings.NewReader(`{}`))
	_, err := executeCommand(root, "eval", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation failed (runtime)")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, exitCode(err))

	root = NewRootCmd()
	root.SetIn(strings.NewReader(`{`))
	_, err = executeCommand(root, "eval", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation failed (payload)")
}

func TestInvalidConfiguration(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "eval", "--config", filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not load configuration")
	assert.Equal(t, 2, exitCode(err))

	cfg := writeFile(t, "config.yml", "listen: \"nope\"\n")
	_, err = executeCommand(NewRootCmd(), "start", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Equal(t, 2, exitCode(err))
}
