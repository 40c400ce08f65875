package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/output"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coupling-lens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)

	opts, err := cfg.FilterOptions()
	require.NoError(t, err)
	assert.Equal(t, core.LevelBalanced, opts.Level)
	assert.Equal(t, core.LangTypeScript, opts.Language)

	types, err := cfg.OutTypes()
	require.NoError(t, err)
	assert.Equal(t, output.AllFormats(), types)
}

func TestLoad(t *testing.T) {
	t.Run("OverridesDefaults", func(t *testing.T) {
		path := writeConfig(t, `
language: java
source_path: ./src
jobs: 8
formats: [json, dot]
on_unresolved: abort
filter:
  ignore_classes: ["Legacy.*"]
  ignore_dependencies: ["Logger"]
  ignore_non_capitalised_types: true
  level: pure
watch:
  debounce: 2s
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "java", cfg.Language)
		assert.Equal(t, "./src", cfg.SourcePath)
		assert.Equal(t, 8, cfg.Jobs)
		assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
		// 未出现的字段保持默认值
		assert.Equal(t, "coupling-output", cfg.OutDir)
		assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)

		opts, err := cfg.FilterOptions()
		require.NoError(t, err)
		assert.Equal(t, core.FilterOptions{
			IgnoreClasses:             []string{"Legacy.*"},
			IgnoreDependencies:        []string{"Logger"},
			IgnoreNonCapitalisedTypes: true,
			Level:                     core.LevelPure,
			Language:                  core.LangJava,
		}, opts)

		types, err := cfg.OutTypes()
		require.NoError(t, err)
		assert.Equal(t, []output.OutType{output.JSON, output.DOT}, types)
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		_, err := Load(writeConfig(t, "jobs: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("InvalidValues", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
language: cobol
on_unresolved: retry
filter:
  level: strict
formats: [svg]
`))
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "cobol")
		assert.Contains(t, err.Error(), "retry")
		assert.Contains(t, err.Error(), "strict")
		assert.ErrorIs(t, err, output.ErrUnknownFormat)
	})
}

func TestParseLevels(t *testing.T) {
	for in, want := range map[string]core.FilterLevel{
		"raw": core.LevelRaw, "": core.LevelBalanced, "Balanced": core.LevelBalanced, " pure ": core.LevelPure,
	} {
		got, err := ParseFilterLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}
