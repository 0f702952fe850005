package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "out.csv", cfg.Input)
	assert.Equal(t, "auto", cfg.Schema)
	assert.Equal(t, "below", cfg.Count.Variant)
	assert.Empty(t, cfg.Count.Value)
	assert.Equal(t, "spread_score", cfg.Correlate.Column)
	assert.Equal(t, "6in", cfg.Plot.Width)
	assert.Equal(t, 10_000_000, cfg.Generate.Trials)
	assert.Equal(t, runtime.NumCPU(), cfg.Generate.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.MinIO.Secure)
	assert.NoError(t, cfg.Validate())
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "packscore.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
input: runs/file.csv
schema: "5"
correlate:
  column: closeness
minio:
  endpoint: localhost:9000
  access_key: key
`), 0o644))

	t.Setenv("PACKSCORE_SCHEMA", "3")
	t.Setenv("PACKSCORE_MINIO_ACCESS_KEY", "env-key")

	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("input", "out.csv", "")
	fs.String("value", "", "")
	require.NoError(t, BindFlags(v, fs, map[string]string{"input": "input", "value": "count.value"}))
	require.NoError(t, fs.Parse([]string{"--value", "3"}))

	cfg, err := Load(v, file)
	require.NoError(t, err)

	assert.Equal(t, "runs/file.csv", cfg.Input, "unset flag does not override the file")
	assert.Equal(t, "3", cfg.Schema, "environment overrides the file")
	assert.Equal(t, "closeness", cfg.Correlate.Column)
	assert.Equal(t, "localhost:9000", cfg.MinIO.Endpoint)
	assert.Equal(t, "env-key", cfg.MinIO.AccessKey)
	assert.Equal(t, "3", cfg.Count.Value)
}

func TestBindUnknownFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	assert.Error(t, BindFlags(New(), fs, map[string]string{"nope": "input"}))
}

func TestMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	require.NoError(t, cfg.Generate.Validate())

	bad := cfg
	bad.Input = " "
	assert.ErrorIs(t, bad.Validate(), ErrInvalid)

	for _, tc := range []struct {
		name string
		edit func(*GenerateConfig)
	}{
		{name: "no trials", edit: func(g *GenerateConfig) { g.Trials = 0 }},
		{name: "negative workers", edit: func(g *GenerateConfig) { g.Workers = -1 }},
		{name: "no output", edit: func(g *GenerateConfig) { g.Output = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := cfg.Generate
			tc.edit(&g)
			assert.ErrorIs(t, g.Validate(), ErrInvalid)
		})
	}
}

func TestGenerateSettingsDoNotAffectValidate(t *testing.T) {
	t.Setenv("PACKSCORE_GENERATE_WORKERS", "0")
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.Generate.Validate(), ErrInvalid)
}
