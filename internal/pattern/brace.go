package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Expand performs brace expansion on a pattern, returning every alternative.
// Supported forms: comma groups `{a,b,c}`, numeric ranges `{1..5}` and
// single-letter ranges `{a..e}`. Groups nest; an unterminated brace is kept
// literally. A pattern with no braces expands to itself.
func Expand(pattern string) []string {
	open := indexTopLevel(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}
	closing := matchingBrace(pattern, open)
	if closing < 0 {
		return []string{pattern}
	}

	prefix := pattern[:open]
	body := pattern[open+1 : closing]
	suffix := pattern[closing+1:]

	var out []string
	for _, alt := range expandBody(body) {
		for _, rest := range Expand(prefix + alt + suffix) {
			out = append(out, rest)
		}
	}
	return out
}

// expandBody expands the inside of one brace group into its alternatives.
func expandBody(body string) []string {
	if alts := rangeAlternatives(body); alts != nil {
		return alts
	}
	parts := splitTopLevel(body, ',')
	if len(parts) == 1 {
		// `{single}` is treated as the literal alternative.
		return parts
	}
	return parts
}

// rangeAlternatives handles `{1..5}` and `{a..e}`; returns nil when body is
// not a range.
func rangeAlternatives(body string) []string {
	sep := strings.Index(body, "..")
	if sep < 0 || strings.ContainsRune(body, ',') {
		return nil
	}
	lo, hi := body[:sep], body[sep+2:]
	if a, err1 := strconv.Atoi(lo); err1 == nil {
		if b, err2 := strconv.Atoi(hi); err2 == nil {
			return numericRange(a, b)
		}
		return nil
	}
	if len(lo) == 1 && len(hi) == 1 && isAlpha(lo[0]) && isAlpha(hi[0]) {
		return alphaRange(lo[0], hi[0])
	}
	return nil
}

func numericRange(a, b int) []string {
	step := 1
	if b < a {
		step = -1
	}
	out := make([]string, 0, abs(b-a)+1)
	for i := a; ; i += step {
		out = append(out, fmt.Sprintf("%d", i))
		if i == b {
			break
		}
	}
	return out
}

func alphaRange(a, b byte) []string {
	step := 1
	if b < a {
		step = -1
	}
	out := make([]string, 0, abs(int(b)-int(a))+1)
	for c := int(a); ; c += step {
		out = append(out, string(rune(c)))
		if c == int(b) {
			break
		}
	}
	return out
}

// indexTopLevel returns the index of the first occurrence of ch outside any
// nested brace group, or -1.
func indexTopLevel(s string, ch byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if s[i] == ch && depth == 0 {
				return i
			}
			depth++
		case '}':
			depth--
		default:
			if s[i] == ch && depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchingBrace returns the index of the brace closing the group opened at
// open, or -1 when unterminated.
func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep, ignoring separators inside nested braces.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
