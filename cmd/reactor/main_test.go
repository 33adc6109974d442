package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

var cartScenario = filepath.Join("..", "..", "internal", "scenario", "testdata", "cart.yaml")

// execute runs the CLI with args against a quiet config file and returns
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		reactive.ProductionMode = false
		reactive.Debug = reactive.DefaultDebugConfig()
	})

	cfgPath := filepath.Join(t.TempDir(), "reactor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--config", cfgPath))
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run", cartScenario, "--metrics")
	require.NoError(t, err)

	assert.Contains(t, out, "watch get total = 5\nwatch get total = 8\nchange update apples: 2 -> 5\n")
	assert.Contains(t, out, "veto add locked")
	assert.Contains(t, out, "cart: 7 steps, 3 changes, 1 vetoes")
	// The declaration transaction and "restock".
	assert.Contains(t, out, "transactions:   2")
	assert.Contains(t, out, "vetoes add:")
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, "run", cartScenario, "--json")
	require.NoError(t, err)

	var report struct {
		Name    string         `json:"name"`
		Lines   []string       `json:"lines"`
		Keys    []string       `json:"keys"`
		Metrics map[string]any `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "cart", report.Name)
	assert.Len(t, report.Lines, 9)
	assert.Equal(t, []string{"apples", "pears", "total"}, report.Keys)
	assert.Nil(t, report.Metrics)
}

func TestRunCommandJSONError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readonly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: readonly
props:
  - key: a
    value: 1
computed:
  - key: double
    op: sum
    of: [a, a]
steps:
  - op: set
    key: double
    value: 5
`), 0644))

	out, err := execute(t, "run", path, "--json")
	require.Error(t, err)
	assert.Equal(t, "S003", errors.CodeOf(err))

	var report struct {
		Name  string `json:"name"`
		Error struct {
			Code   string `json:"code"`
			Detail string `json:"detail"`
			Cause  string `json:"cause"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "readonly", report.Name)
	assert.Equal(t, "S003", report.Error.Code)
	assert.Contains(t, report.Error.Detail, "steps[0]")
	assert.NotEmpty(t, report.Error.Cause)
}

func TestRunCommandQuiet(t *testing.T) {
	out, err := execute(t, "run", cartScenario, "--quiet")
	require.NoError(t, err)
	assert.NotContains(t, out, "watch get")
	assert.Contains(t, out, "cart: 7 steps")
}

func TestRunCommandErrors(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, "S001", errors.CodeOf(err))

	_, err = execute(t, "run", cartScenario, "--enhancer", "magic")
	require.Error(t, err)
	assert.Equal(t, "C003", errors.CodeOf(err))

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\nsteps: [{op: set}]\n"), 0644))

	out, err := execute(t, "check", cartScenario)
	require.NoError(t, err)
	assert.Contains(t, out, "cart (7 steps)")
	assert.Contains(t, out, "Totals follow the quantities")

	out, err = execute(t, "check", cartScenario, bad)
	require.Error(t, err)
	assert.Equal(t, "S002", errors.CodeOf(err))
	assert.Contains(t, out, "1 of 2 scenarios invalid")
}

func TestSchemaCommand(t *testing.T) {
	for _, kind := range []string{"config", "scenario"} {
		t.Run(kind, func(t *testing.T) {
			out, err := execute(t, "schema", kind)
			require.NoError(t, err)
			var schema map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &schema))
			assert.Contains(t, schema, "properties")
		})
	}

	_, err := execute(t, "schema", "other")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
