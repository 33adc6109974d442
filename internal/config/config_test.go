package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultMode, cfg.Mode)
	assert.Equal(t, DefaultEnhancer, cfg.Enhancer)
	assert.Equal(t, reactive.DefaultMaxFlushIterations, cfg.MaxFlushIterations)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, DefaultNamespace, cfg.Metrics.Namespace)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	require.Error(t, err)
	assert.Equal(t, "C001", errors.CodeOf(err))

	configYAML := `mode: production
enhancer: ref
logging:
  level: debug
  format: json
  transactions: true
metrics:
  enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configYAML), 0644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, "ref", cfg.Enhancer)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Transactions)
	assert.True(t, cfg.Metrics.Enabled)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultNamespace, cfg.Metrics.Namespace)
	assert.Equal(t, reactive.DefaultMaxFlushIterations, cfg.MaxFlushIterations)
	assert.Equal(t, tmpDir, cfg.Dir())
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("mode: development\ncolour: blue\n"))
	require.Error(t, err)
	assert.Equal(t, "C002", errors.CodeOf(err))
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("mode: [unclosed"))
	require.Error(t, err)
	assert.Equal(t, "C002", errors.CodeOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad mode", func(c *Config) { c.Mode = "staging" }, "mode"},
		{"bad enhancer", func(c *Config) { c.Enhancer = "magic" }, "enhancer"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative iterations", func(c *Config) { c.MaxFlushIterations = -1 }, "maxFlushIterations"},
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "has space" }, "metrics.namespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, "C003", errors.CodeOf(err))

			var rerr *errors.ReactorError
			require.ErrorAs(t, err, &rerr)
			assert.Contains(t, rerr.Detail, tt.field)
		})
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Enhancer = "struct"
	cfg.Tracing.Enabled = true

	require.Error(t, cfg.Save(), "Save without a path should fail")
	require.NoError(t, cfg.SaveTo(configPath))

	loaded, err := LoadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "struct", loaded.Enhancer)
	assert.True(t, loaded.Tracing.Enabled)

	loaded.Mode = "production"
	require.NoError(t, loaded.Save())

	reloaded, err := LoadFile(configPath)
	require.NoError(t, err)
	assert.True(t, reloaded.Production())
	assert.Equal(t, configPath, reloaded.Path())
}

func TestApply(t *testing.T) {
	defer func() {
		reactive.ProductionMode = false
		reactive.Debug = reactive.DefaultDebugConfig()
	}()

	cfg := New()
	cfg.Mode = "production"
	cfg.Logging.Reactions = true
	cfg.Apply()

	assert.True(t, reactive.ProductionMode)
	assert.True(t, reactive.Debug.LogReactions)
	assert.False(t, reactive.Debug.LogTransactions)
}

func TestEnhancerFunc(t *testing.T) {
	cfg := New()
	rt := reactive.NewRuntime()
	input := map[string]any{"a": 1}

	cfg.Enhancer = "ref"
	_, isMap := cfg.EnhancerFunc()(rt, input, reactive.Absent, "x").(map[string]any)
	assert.True(t, isMap, "ref keeps maps as-is")

	cfg.Enhancer = "deep"
	_, isView := cfg.EnhancerFunc()(rt, input, reactive.Absent, "x").(*reactive.DynamicView)
	assert.True(t, isView, "deep turns maps into views")

	cfg.Enhancer = "struct"
	old := []int{1}
	got := cfg.EnhancerFunc()(rt, []int{1}, old, "x")
	assert.True(t, reactive.IdentityComparer(got, old), "struct keeps equal values")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "schema should have properties")
	assert.Contains(t, props, "mode")
	assert.Contains(t, props, "maxFlushIterations")
	assert.Contains(t, props, "logging")
	assert.NotContains(t, props, "configPath")
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	_, err := FindProjectRoot(nested)
	assert.Error(t, err)

	require.NoError(t, New().SaveTo(filepath.Join(tmpDir, ConfigFileName)))
	root, err := FindProjectRoot(nested)
	require.NoError(t, err)

	want, _ := filepath.Abs(tmpDir)
	assert.Equal(t, want, root)
	assert.True(t, Exists(tmpDir))
}
