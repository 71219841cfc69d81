package gitsource

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

var nonPathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// CachePath derives the deterministic on-disk clone location for a remote URL.
// The layout is <cacheDir>/<slug>-<sha7>.git: the slug keeps the directory
// recognizable, the hash disambiguates URLs that slug identically.
func CachePath(cacheDir, url string) string {
	sum := sha1.Sum([]byte(url))
	return filepath.Join(cacheDir, slugify(url)+"-"+hex.EncodeToString(sum[:])[:7]+".git")
}

func slugify(url string) string {
	s := url
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	// Drop embedded credentials from the slug; they stay out of directory names.
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ".git")
	s = nonPathChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
