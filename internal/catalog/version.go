package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// sortVersions orders component versions in descending precedence. Versions
// with a numeric (dotted) prefix compare numerically and rank above purely
// named versions such as "master" or "next"; named versions compare lexically
// descending. A prerelease sorts below a non-prerelease of the same number.
func sortVersions(versions []*ComponentVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) > 0
	})
}

func compareVersions(a, b *ComponentVersion) int {
	na, aNumeric := parseNumbers(a.Version)
	nb, bNumeric := parseNumbers(b.Version)
	switch {
	case aNumeric && !bNumeric:
		return 1
	case !aNumeric && bNumeric:
		return -1
	case aNumeric && bNumeric:
		if c := compareNumbers(na, nb); c != 0 {
			return c
		}
		return comparePrerelease(a, b)
	default:
		if c := strings.Compare(a.Version, b.Version); c != 0 {
			return c
		}
		return comparePrerelease(a, b)
	}
}

func comparePrerelease(a, b *ComponentVersion) int {
	switch {
	case !a.Prerelease && b.Prerelease:
		return 1
	case a.Prerelease && !b.Prerelease:
		return -1
	default:
		return 0
	}
}

// parseNumbers extracts the leading dotted numeric components of a version
// string, tolerating a "v" prefix and a trailing label ("2.1-beta" reads as
// [2 1]).
func parseNumbers(v string) ([]int, bool) {
	v = strings.TrimPrefix(v, "v")
	var out []int
	for _, part := range strings.Split(v, ".") {
		digits := part
		for i, r := range part {
			if r < '0' || r > '9' {
				digits = part[:i]
				break
			}
		}
		if digits == "" {
			break
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out, len(out) > 0
}

func compareNumbers(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}
