// Package globber lazily resolves path-glob patterns against a git tree or a
// filesystem directory. Resolution is segment-by-segment: literal leading
// segments are resolved with single path lookups, and a directory listing is
// only requested at the first wildcard segment, keeping git-tree reads to a
// minimum.
package globber

import (
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/doccatalog/internal/pattern"
)

// Resolve evaluates an ordered list of glob patterns against tree and returns
// the matched paths. Patterns prefixed with `!` are applied after all positive
// patterns, filtering the accumulated result; a negation against an empty
// result is a no-op.
func Resolve(tree Tree, patterns []string) ([]string, error) {
	entries, err := ResolveEntries(tree, patterns)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out, nil
}

// ResolveEntries is Resolve with directory information preserved, sparing
// callers a second lookup per match.
func ResolveEntries(tree Tree, patterns []string) ([]Entry, error) {
	var positives, negatives []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "!") {
			negatives = append(negatives, strings.TrimPrefix(p, "!"))
		} else {
			positives = append(positives, p)
		}
	}

	seen := map[string]bool{}
	var acc []Entry
	add := func(e Entry) {
		if !seen[e.Path] {
			seen[e.Path] = true
			acc = append(acc, e)
		}
	}

	for _, p := range positives {
		segments := strings.Split(path.Clean(p), "/")
		if err := walk(tree, "", segments, add); err != nil {
			return nil, err
		}
	}

	if len(negatives) == 0 {
		return acc, nil
	}
	var out []Entry
	for _, e := range acc {
		if !matchesAny(negatives, e.Path) {
			out = append(out, e)
		}
	}
	return out, nil
}

func matchesAny(patterns []string, candidate string) bool {
	for _, p := range patterns {
		for _, alt := range pattern.Expand(p) {
			if ok, err := doublestar.Match(alt, candidate); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// walk resolves the remaining pattern segments below dir.
func walk(tree Tree, dir string, segments []string, add func(Entry)) error {
	if len(segments) == 0 {
		return nil
	}
	seg, rest := segments[0], segments[1:]
	last := len(rest) == 0

	switch {
	case seg == "**":
		return walkGlobstar(tree, dir, rest, add)

	case !pattern.IsWildcard(seg) && !pattern.HasBraces(seg):
		// Literal segment: a single path lookup, no listing.
		p := join(dir, seg)
		if last {
			if e, err := tree.Stat(p); err == nil {
				add(e)
			}
			return nil
		}
		return walk(tree, p, rest, add)

	case pattern.HasBraces(seg) && !pattern.IsWildcard(seg):
		// Literal brace group: expand without listing; alternatives are
		// assumed present until the final segment verifies existence.
		for _, alt := range pattern.Expand(seg) {
			p := join(dir, alt)
			if last {
				if e, err := tree.Stat(p); err == nil {
					add(e)
				}
				continue
			}
			if err := walk(tree, p, rest, add); err != nil {
				return err
			}
		}
		return nil

	default:
		// Wildcard segment: exactly one listing at this depth.
		entries, err := tree.List(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil // a missing intermediate directory is not an error
			}
			return err
		}
		for _, e := range entries {
			name := path.Base(e.Path)
			if !pattern.MatchSegment(seg, name) {
				continue
			}
			if last {
				add(e)
				continue
			}
			if e.IsDir {
				if err := walk(tree, e.Path, rest, add); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// walkGlobstar matches `**`: the remaining segments at this depth (zero
// directories) and at every subdirectory. Hidden directories are skipped; an
// explicit dotted segment is needed to descend into them.
func walkGlobstar(tree Tree, dir string, rest []string, add func(Entry)) error {
	if len(rest) == 0 {
		// Trailing `**` collects everything below dir.
		rest = []string{"*"}
	}
	if err := walk(tree, dir, rest, add); err != nil {
		return err
	}
	entries, err := tree.List(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.IsDir || strings.HasPrefix(path.Base(e.Path), ".") {
			continue
		}
		if err := walkGlobstar(tree, e.Path, rest, add); err != nil {
			return err
		}
	}
	return nil
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
