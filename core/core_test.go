package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{
		"java": LangJava, "Go": LangGo, "golang": LangGo,
		"ts": LangTypeScript, " typescript ": LangTypeScript, "tsx": LangTSX,
	}
	for in, want := range cases {
		got, err := ParseLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLanguage("kotlin")
	assert.Error(t, err)
}

func TestLanguage_MatchFile(t *testing.T) {
	assert.True(t, LangTypeScript.MatchFile("src/plant.ts"))
	assert.True(t, LangTypeScript.MatchFile("src/view.tsx"))
	assert.False(t, LangTypeScript.MatchFile("src/types.d.ts"))
	assert.False(t, LangTypeScript.MatchFile("src/plant.js"))
	assert.True(t, LangGo.MatchFile("garden.go"))
	assert.False(t, LangGo.MatchFile("garden_test.go"))
	assert.True(t, LangJava.MatchFile("com/x/Ground.java"))

	assert.Equal(t, LangTSX, LangTypeScript.ForFile("view.tsx"))
	assert.Equal(t, LangTypeScript, LangTypeScript.ForFile("plant.ts"))
	assert.Equal(t, LangJava, LangJava.ForFile("Ground.java"))
}

func TestPatternFilter(t *testing.T) {
	const fake Language = "core-test"
	RegisterBuiltinTypes(fake, "String", "Promise")

	t.Run("ExactAndRegexPatterns", func(t *testing.T) {
		f, err := NewPatternFilter(FilterOptions{
			IgnoreClasses:      []string{"AppModule", "Legacy.*"},
			IgnoreDependencies: []string{"Logger"},
		})
		require.NoError(t, err)

		assert.True(t, f.ShouldIgnoreClass("AppModule"))
		assert.True(t, f.ShouldIgnoreClass("LegacyService"))
		// 整体匹配，不做子串匹配
		assert.False(t, f.ShouldIgnoreClass("MyAppModule"))
		assert.True(t, f.ShouldIgnoreDependency("Logger"))
		assert.False(t, f.ShouldIgnoreDependency("LoggerFactory"))
	})

	t.Run("GenericTypeText", func(t *testing.T) {
		raw, err := NewPatternFilter(FilterOptions{IgnoreDependencies: []string{"Promise<.*>"}, Language: fake, Level: LevelRaw})
		require.NoError(t, err)
		assert.True(t, raw.ShouldIgnoreDependency("Promise<Water>"))
		assert.False(t, raw.ShouldIgnoreDependency("Promise"))
		assert.False(t, raw.ShouldIgnoreDependency("Repository<Promise<Water>>"))

		balanced, err := NewPatternFilter(FilterOptions{Language: fake, Level: LevelBalanced})
		require.NoError(t, err)
		assert.True(t, balanced.ShouldIgnoreDependency("Promise<Water>"))
		assert.False(t, balanced.ShouldIgnoreDependency("Repository<Promise<Water>>"))
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		_, err := NewPatternFilter(FilterOptions{IgnoreDependencies: []string{"("}})
		assert.Error(t, err)
	})

	t.Run("BuiltinsOnlyFromBalanced", func(t *testing.T) {
		raw, err := NewPatternFilter(FilterOptions{Language: fake, Level: LevelRaw})
		require.NoError(t, err)
		assert.False(t, raw.ShouldIgnoreDependency("Promise"))

		balanced, err := NewPatternFilter(FilterOptions{Language: fake, Level: LevelBalanced})
		require.NoError(t, err)
		assert.True(t, balanced.ShouldIgnoreDependency("Promise"))
		assert.False(t, balanced.ShouldIgnoreDependency("Water"))
		assert.Equal(t, LevelBalanced, balanced.Level())

		pure, err := NewPatternFilter(FilterOptions{Language: fake, Level: LevelPure})
		require.NoError(t, err)
		assert.True(t, pure.ShouldIgnoreDependency("String"))
	})

	t.Run("NamingConvention", func(t *testing.T) {
		off, err := NewPatternFilter(FilterOptions{})
		require.NoError(t, err)
		assert.False(t, off.ShouldIgnoreByNamingConvention("string"))

		on, err := NewPatternFilter(FilterOptions{IgnoreNonCapitalisedTypes: true})
		require.NoError(t, err)
		assert.True(t, on.ShouldIgnoreByNamingConvention("string"))
		assert.True(t, on.ShouldIgnoreByNamingConvention("{"))
		assert.True(t, on.ShouldIgnoreByNamingConvention(""))
		assert.False(t, on.ShouldIgnoreByNamingConvention("Water"))
		assert.False(t, on.ShouldIgnoreByNamingConvention("Écrou"))
	})
}

func TestFilterLevel_String(t *testing.T) {
	assert.Equal(t, "raw", LevelRaw.String())
	assert.Equal(t, "balanced", LevelBalanced.String())
	assert.Equal(t, "pure", LevelPure.String())
}

func TestGetProvider_Unregistered(t *testing.T) {
	_, err := GetProvider(Language("core-test-missing"))
	assert.ErrorIs(t, err, ErrNoProvider)
}
