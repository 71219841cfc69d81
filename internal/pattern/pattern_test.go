package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, patterns ...string) *Matcher {
	t.Helper()
	m, err := Compile(patterns)
	require.NoError(t, err)
	return m
}

func TestMatchIsOrderDependent(t *testing.T) {
	assert.False(t, mustCompile(t, "*", "!foo").Match("foo"))
	assert.True(t, mustCompile(t, "!foo", "*").Match("foo"))
}

func TestLeadingNegationImpliesWildcard(t *testing.T) {
	m := mustCompile(t, "!foo")
	assert.False(t, m.Match("foo"))
	assert.True(t, m.Match("bar"))
}

func TestNegationVetoesPriorPositive(t *testing.T) {
	m := mustCompile(t, "v*", "!v1.0")
	assert.False(t, m.Match("v1.0"))
	assert.True(t, m.Match("v2.0"))
}

func TestNegationNeverMatchesIndependently(t *testing.T) {
	// `!v1.0` after a non-matching positive must not produce a match.
	m := mustCompile(t, "release/*", "!v1.0")
	assert.False(t, m.Match("v1.0"))
	assert.False(t, m.Match("v2.0"))
	assert.True(t, m.Match("release/2024"))
}

func TestEmptyMatcherMatchesNothing(t *testing.T) {
	m := mustCompile(t)
	assert.True(t, m.Empty())
	assert.False(t, m.Match("main"))
}

func TestBraceAlternatives(t *testing.T) {
	m := mustCompile(t, "{main,master}")
	assert.True(t, m.Match("main"))
	assert.True(t, m.Match("master"))
	assert.False(t, m.Match("develop"))
}

func TestNumericRangeExpansion(t *testing.T) {
	got := Expand("v{1..3}.x")
	assert.Equal(t, []string{"v1.x", "v2.x", "v3.x"}, got)
}

func TestAlphaRangeExpansion(t *testing.T) {
	got := Expand("{a..c}")
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestNestedBraces(t *testing.T) {
	got := Expand("{a,b{1,2}}")
	assert.Equal(t, []string{"a", "b1", "b2"}, got)
}

func TestUnterminatedBraceIsLiteral(t *testing.T) {
	got := Expand("v{1,2")
	assert.Equal(t, []string{"v{1,2"}, got)
}

func TestHiddenCandidates(t *testing.T) {
	// Bare `*` as an embedded wildcard skips dotfiles...
	assert.False(t, mustCompile(t, "*.adoc").Match(".hidden.adoc"))
	// ...but a whole-pattern wildcard matches everything.
	assert.True(t, mustCompile(t, "*").Match(".hidden"))
	assert.True(t, mustCompile(t, "**").Match(".hidden"))
	// Explicit dotted or literal patterns reach hidden names.
	assert.True(t, mustCompile(t, ".h*").Match(".hidden"))
	assert.True(t, mustCompile(t, ".hidden").Match(".hidden"))
}

func TestCompileWithResolver(t *testing.T) {
	m, err := CompileWithResolver([]string{"HEAD", "v*"}, func(p string) string {
		if p == "HEAD" {
			return "main"
		}
		return p
	})
	require.NoError(t, err)
	assert.True(t, m.Match("main"))
	assert.True(t, m.Match("v2.0"))
	assert.False(t, m.Match("HEAD"))
}

func TestMatchSegment(t *testing.T) {
	assert.True(t, MatchSegment("*.adoc", "page.adoc"))
	assert.False(t, MatchSegment("*.adoc", ".draft.adoc"))
	assert.True(t, MatchSegment(".d*", ".draft"))
	assert.True(t, MatchSegment("{a,b}", "b"))
	assert.False(t, MatchSegment("{a,b}", "c"))
}

func TestFilterPreservesOrder(t *testing.T) {
	m := mustCompile(t, "v*", "!v1.0")
	got := m.Filter([]string{"main", "v2.0", "v1.0", "v3.0"})
	assert.Equal(t, []string{"v2.0", "v3.0"}, got)
}
