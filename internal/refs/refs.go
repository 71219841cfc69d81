// Package refs enumerates the branches and tags of a resolved repository and
// filters them through the configured ref patterns.
package refs

import (
	"log/slog"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/doccatalog/internal/logfields"
	"git.home.luguber.info/inful/doccatalog/internal/pattern"
)

// RefType discriminates branches from tags.
type RefType string

const (
	TypeBranch RefType = "branch"
	TypeTag    RefType = "tag"
)

// Ref is one candidate ref to aggregate content from.
type Ref struct {
	Name     string // short name (v2.0, main)
	Type     RefType
	FullName plumbing.ReferenceName
}

// Enumerate lists the repository's branches and tags matching the given
// pattern lists. A literal HEAD token in a branch pattern is replaced with
// defaultBranch before matching; an empty pattern list for a category yields
// zero refs from that category.
func Enumerate(repo *git.Repository, branchPatterns, tagPatterns []string, defaultBranch string) ([]Ref, error) {
	branches, tags, err := candidates(repo)
	if err != nil {
		return nil, err
	}

	resolveHead := func(p string) string {
		if defaultBranch == "" {
			return p
		}
		return substituteHead(p, defaultBranch)
	}

	var out []Ref
	if len(branchPatterns) > 0 {
		m, err := pattern.CompileWithResolver(branchPatterns, resolveHead)
		if err != nil {
			return nil, err
		}
		for _, b := range branches {
			if m.Match(b.Name) {
				out = append(out, b)
			}
		}
	}
	if len(tagPatterns) > 0 {
		m, err := pattern.Compile(tagPatterns)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			if m.Match(t.Name) {
				out = append(out, t)
			}
		}
	}

	slog.Debug("Enumerated refs",
		slog.Int("branches", len(branches)), slog.Int("tags", len(tags)),
		slog.Int("matched", len(out)))
	return out, nil
}

// substituteHead replaces each standalone HEAD token in a pattern with the
// branch name. A token is standalone when bounded by the pattern edges, brace
// punctuation, or a path separator, so a literal branch name like HEADLINE
// stays untouched.
func substituteHead(p, branch string) string {
	var b strings.Builder
	for i := 0; i < len(p); {
		j := strings.Index(p[i:], "HEAD")
		if j < 0 {
			b.WriteString(p[i:])
			break
		}
		j += i
		end := j + len("HEAD")
		b.WriteString(p[i:j])
		if tokenBoundary(p, j-1) && tokenBoundary(p, end) {
			b.WriteString(branch)
		} else {
			b.WriteString(p[j:end])
		}
		i = end
	}
	return b.String()
}

func tokenBoundary(p string, i int) bool {
	if i < 0 || i >= len(p) {
		return true
	}
	switch p[i] {
	case '{', '}', ',', '/':
		return true
	}
	return false
}

// candidates lists all branch and tag refs, deduplicating remote-tracking
// branches against local ones by short name (local preferred).
func candidates(repo *git.Repository) (branches, tags []Ref, err error) {
	iter, err := repo.References()
	if err != nil {
		return nil, nil, fnderrors.GitError("failed to list references").WithCause(err).Build()
	}
	defer iter.Close()

	seen := map[string]bool{}          // short branch name -> local seen
	remote := map[string]plumbing.ReferenceName{} // short name -> remote-tracking full name

	ferr := iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		switch {
		case name.IsBranch():
			short := name.Short()
			seen[short] = true
			branches = append(branches, Ref{Name: short, Type: TypeBranch, FullName: name})
		case name.IsRemote():
			short := strings.TrimPrefix(name.Short(), "origin/")
			if short == "HEAD" || short == name.Short() {
				return nil // origin/HEAD pointer or a non-origin remote
			}
			remote[short] = name
		case name.IsTag():
			tags = append(tags, Ref{Name: name.Short(), Type: TypeTag, FullName: name})
		}
		return nil
	})
	if ferr != nil {
		return nil, nil, fnderrors.GitError("failed to iterate references").WithCause(ferr).Build()
	}

	for short, full := range remote {
		if !seen[short] {
			branches = append(branches, Ref{Name: short, Type: TypeBranch, FullName: full})
		}
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return branches, tags, nil
}

// ResolveCommit returns the commit hash behind a ref, peeling annotated tags.
func ResolveCommit(repo *git.Repository, ref Ref) (plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref.FullName))
	if err != nil {
		slog.Debug("Failed to resolve ref", logfields.Refname(ref.Name), logfields.Error(err))
		return plumbing.ZeroHash, fnderrors.GitError("failed to resolve ref").
			WithCause(err).WithContext("refname", ref.Name).Build()
	}
	return *hash, nil
}
