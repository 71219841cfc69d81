package gitsource

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveGitDir inspects repoPath/.git and returns the real git directory.
// For a regular checkout that is repoPath/.git itself; for a linked worktree
// (.git is a file containing "gitdir: ..."), the pointer is followed and the
// common git-dir recovered via the worktree's commondir file, so that ref
// listings and HEAD resolution see the full repository.
func ResolveGitDir(repoPath string) (gitDir string, linked bool, err error) {
	dotGit := filepath.Join(repoPath, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", false, err
	}
	if info.IsDir() {
		return dotGit, false, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", false, err
	}
	line := strings.TrimSpace(string(data))
	ptr := strings.TrimSpace(strings.TrimPrefix(line, "gitdir:"))
	if ptr == line {
		return "", false, os.ErrInvalid
	}
	if !filepath.IsAbs(ptr) {
		ptr = filepath.Join(repoPath, ptr)
	}

	// A linked worktree's private git-dir carries a commondir file pointing at
	// the shared one.
	if common, cerr := os.ReadFile(filepath.Join(ptr, "commondir")); cerr == nil {
		dir := strings.TrimSpace(string(common))
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(ptr, dir)
		}
		return filepath.Clean(dir), true, nil
	}
	return filepath.Clean(ptr), true, nil
}

// ReadWorktreeBranch returns the branch name a worktree's own HEAD points at,
// or "" for a detached HEAD. Reading the file directly keeps linked worktrees
// honest: their HEAD lives in the private git-dir, not the common one.
func ReadWorktreeBranch(repoPath string) (string, error) {
	dotGit := filepath.Join(repoPath, ".git")
	headPath := filepath.Join(dotGit, "HEAD")
	if info, err := os.Stat(dotGit); err == nil && !info.IsDir() {
		data, rerr := os.ReadFile(dotGit)
		if rerr != nil {
			return "", rerr
		}
		ptr := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "gitdir:"))
		if !filepath.IsAbs(ptr) {
			ptr = filepath.Join(repoPath, ptr)
		}
		headPath = filepath.Join(ptr, "HEAD")
	}

	data, err := os.ReadFile(headPath)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	if strings.HasPrefix(line, "ref:") {
		ref := strings.TrimSpace(strings.TrimPrefix(line, "ref:"))
		return strings.TrimPrefix(ref, "refs/heads/"), nil
	}
	return "", nil // detached
}
