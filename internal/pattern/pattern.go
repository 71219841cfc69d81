// Package pattern compiles ordered lists of include/exclude glob patterns into
// a single predicate. Patterns are evaluated left-to-right with last-match-wins
// semantics; a `!`-prefixed pattern can only veto an earlier positive match. A
// list whose first effective pattern is a negation gets an implicit
// match-everything pattern prepended.
package pattern

import (
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
)

// compiled is one pattern after brace expansion, cached by literal text.
type compiled struct {
	raw      string
	alts     []string // brace-expanded alternatives
	matchAll bool     // whole-pattern wildcard (`*` or `**`)
}

// compileCache avoids recompiling identical pattern strings across
// repositories. Keyed by the literal pattern text (without `!`).
var compileCache sync.Map // string -> *compiled

// Matcher is an ordered include/exclude predicate.
type Matcher struct {
	entries []entry
}

type entry struct {
	negated bool
	pat     *compiled
}

// Compile builds a Matcher from an ordered pattern list. Each pattern may be
// prefixed with `!` to negate it.
func Compile(patterns []string) (*Matcher, error) {
	return CompileWithResolver(patterns, nil)
}

// CompileWithResolver builds a Matcher, mapping each pattern through resolve
// first. This is how symbolic ref tokens (e.g. HEAD) are replaced with
// concrete names before matching.
func CompileWithResolver(patterns []string, resolve func(string) string) (*Matcher, error) {
	m := &Matcher{}
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		negated := strings.HasPrefix(raw, "!")
		text := strings.TrimPrefix(raw, "!")
		if resolve != nil {
			text = resolve(text)
		}
		c, err := compile(text)
		if err != nil {
			return nil, err
		}
		if negated && len(m.entries) == 0 {
			// Leading negation implies everything else is included.
			all, _ := compile("**")
			m.entries = append(m.entries, entry{pat: all})
		}
		m.entries = append(m.entries, entry{negated: negated, pat: c})
	}
	return m, nil
}

// Empty reports whether the matcher has no effective patterns. An empty
// matcher matches nothing (no implicit wildcard).
func (m *Matcher) Empty() bool { return m == nil || len(m.entries) == 0 }

// Match evaluates candidate against the ordered pattern list.
func (m *Matcher) Match(candidate string) bool {
	if m.Empty() {
		return false
	}
	verdict := false
	for _, e := range m.entries {
		if !e.pat.match(candidate) {
			continue
		}
		if e.negated {
			verdict = false
		} else {
			verdict = true
		}
	}
	return verdict
}

// Filter returns the candidates that match, preserving input order.
func (m *Matcher) Filter(candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if m.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

func compile(text string) (*compiled, error) {
	if v, ok := compileCache.Load(text); ok {
		return v.(*compiled), nil
	}
	c := &compiled{
		raw:      text,
		alts:     Expand(text),
		matchAll: text == "*" || text == "**",
	}
	for _, alt := range c.alts {
		if !doublestar.ValidatePattern(alt) {
			return nil, fnderrors.ValidationError("invalid glob pattern").
				WithContext("pattern", text).Build()
		}
	}
	compileCache.Store(text, c)
	return c, nil
}

func (c *compiled) match(candidate string) bool {
	// A whole-pattern wildcard matches everything, dotfiles included.
	if c.matchAll {
		return true
	}
	if hasHiddenSegment(candidate) && !coversHidden(c.raw) {
		return false
	}
	for _, alt := range c.alts {
		if ok, err := doublestar.Match(alt, candidate); err == nil && ok {
			return true
		}
	}
	return false
}

// MatchSegment matches a single path segment against a single-segment pattern
// (used by the glob resolver when filtering directory listings). Hidden names
// only match patterns that explicitly start with a dot or name them literally.
func MatchSegment(pat, name string) bool {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(pat, ".") && pat != name {
		return false
	}
	for _, alt := range Expand(pat) {
		if ok, err := doublestar.Match(alt, name); err == nil && ok {
			return true
		}
	}
	return false
}

// IsWildcard reports whether a path segment needs a directory listing to
// resolve (contains metacharacters).
func IsWildcard(segment string) bool {
	return strings.ContainsAny(segment, "*?[")
}

// HasBraces reports whether a segment contains a brace group.
func HasBraces(segment string) bool {
	return strings.ContainsRune(segment, '{') && strings.ContainsRune(segment, '}')
}

func hasHiddenSegment(candidate string) bool {
	for _, seg := range strings.Split(candidate, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

// coversHidden reports whether a pattern explicitly reaches into hidden names:
// it contains a `.`-prefixed segment or is fully literal.
func coversHidden(pat string) bool {
	if !strings.ContainsAny(pat, "*?[{") {
		return true
	}
	for _, seg := range strings.Split(pat, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
