// Package gitsource resolves content-source URLs into local repository
// handles. Local sources (dot-relative or absolute paths, including linked
// worktrees) are used in place and never fetched; remote sources are cloned
// into a deterministic cache location and optionally refreshed, gated by the
// fetch limiter.
package gitsource

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/credentials"
	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/doccatalog/internal/limiter"
	"git.home.luguber.info/inful/doccatalog/internal/logfields"
)

// AuthStatus records how a source was authenticated.
type AuthStatus string

const (
	AuthStatusNone     AuthStatus = "none"
	AuthStatusRequired AuthStatus = "auth-required"
	AuthStatusAlways   AuthStatus = "always-auth"
)

// Resolved is a content source bound to a local repository.
type Resolved struct {
	Source        config.ContentSource
	Repo          *git.Repository
	GitDir        string
	WorktreePath  string // non-empty for local worktree sources
	Worktree      bool
	Remote        bool
	AuthStatus    AuthStatus
	DefaultBranch string
}

// Resolver turns content-source URLs into Resolved handles.
type Resolver struct {
	cacheDir string
	fetch    bool
	fetchLim *limiter.Limiter
	store    credentials.Store
}

// NewResolver creates a resolver. fetchLim gates every clone and fetch; store
// supplies credentials for remote sources.
func NewResolver(cfg *config.Config, fetchLim *limiter.Limiter, store credentials.Store) *Resolver {
	if store == nil {
		store = credentials.NoneStore{}
	}
	return &Resolver{
		cacheDir: cfg.Runtime.CacheDir,
		fetch:    cfg.Runtime.Fetch,
		fetchLim: fetchLim,
		store:    store,
	}
}

// Resolve resolves one content source. Failures carry the source URL so the
// aggregator can report the origin when several sources run concurrently.
func (r *Resolver) Resolve(ctx context.Context, src config.ContentSource) (*Resolved, error) {
	if IsLocal(src.URL) {
		return r.resolveLocal(src)
	}
	return r.resolveRemote(ctx, src)
}

// IsLocal reports whether a source URL names a filesystem path rather than a
// remote repository.
func IsLocal(sourceURL string) bool {
	if strings.Contains(sourceURL, "://") || strings.HasPrefix(sourceURL, "git@") {
		return false
	}
	if strings.HasPrefix(sourceURL, ".") || filepath.IsAbs(sourceURL) {
		return true
	}
	_, err := os.Stat(sourceURL)
	return err == nil
}

func (r *Resolver) resolveLocal(src config.ContentSource) (*Resolved, error) {
	path, err := filepath.Abs(src.URL)
	if err != nil {
		return nil, fnderrors.ConfigError("malformed local source path").
			WithCause(err).WithContext("url", src.URL).Build()
	}
	gitDir, linked, err := ResolveGitDir(path)
	if err != nil {
		return nil, fnderrors.ConfigError("local source is not a git repository").
			WithCause(err).WithContext("url", src.URL).Build()
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, fnderrors.GitError("failed to open local repository").
			WithCause(err).WithContext("url", src.URL).Build()
	}

	branch, err := ReadWorktreeBranch(path)
	if err != nil || branch == "" {
		// Detached HEAD or unreadable pointer: fall back to go-git's view.
		if head, herr := repo.Head(); herr == nil && head.Name().IsBranch() {
			branch = head.Name().Short()
		}
	}

	slog.Debug("Resolved local content source",
		logfields.URL(src.URL), logfields.Path(gitDir),
		slog.Bool("linked_worktree", linked), slog.String("branch", branch))

	return &Resolved{
		Source:        src,
		Repo:          repo,
		GitDir:        gitDir,
		WorktreePath:  path,
		Worktree:      true,
		AuthStatus:    AuthStatusNone,
		DefaultBranch: branch,
		Remote:        false,
	}, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, src config.ContentSource) (*Resolved, error) {
	cachePath := CachePath(r.cacheDir, src.URL)

	var repo *git.Repository
	var status AuthStatus
	if _, err := os.Stat(cachePath); err == nil {
		repo, err = git.PlainOpen(cachePath)
		if err != nil {
			return nil, fnderrors.GitError("failed to open cached repository").
				WithCause(err).WithContext("path", cachePath).Build()
		}
		status = AuthStatusNone
		if r.fetch {
			status, err = r.withAuth(ctx, src.URL, "fetch", func(ctx context.Context, auth transport.AuthMethod) error {
				return r.fetchOrigin(ctx, repo, auth)
			})
			if err != nil {
				return nil, err
			}
		}
	} else {
		var cloneErr error
		status, cloneErr = r.withAuth(ctx, src.URL, "clone", func(ctx context.Context, auth transport.AuthMethod) error {
			var err error
			repo, err = git.PlainCloneContext(ctx, cachePath, true, &git.CloneOptions{
				URL:        src.URL,
				Auth:       auth,
				Tags:       git.AllTags,
				NoCheckout: true,
			})
			return err
		})
		if cloneErr != nil {
			// A failed clone must not leave a half-populated cache entry behind.
			_ = os.RemoveAll(cachePath)
			return nil, cloneErr
		}
	}

	return &Resolved{
		Source:        src,
		Repo:          repo,
		GitDir:        cachePath,
		Remote:        true,
		AuthStatus:    status,
		DefaultBranch: defaultBranch(repo),
	}, nil
}

// fetchOrigin refreshes branches and tags from origin.
func (r *Resolver) fetchOrigin(ctx context.Context, repo *git.Repository, auth transport.AuthMethod) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Auth:       auth,
		RefSpecs: []gitcfg.RefSpec{
			"+refs/heads/*:refs/remotes/origin/*",
			"+refs/tags/*:refs/tags/*",
		},
		Tags:  git.AllTags,
		Force: true,
		Prune: true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// withAuth runs op under the fetch limiter with credentials from the store.
// On an auth failure it refreshes credentials exactly once and retries; the
// resolver never loops.
func (r *Resolver) withAuth(ctx context.Context, sourceURL, op string, fn func(context.Context, transport.AuthMethod) error) (AuthStatus, error) {
	status := AuthStatusNone
	if hasURLCredentials(sourceURL) {
		status = AuthStatusAlways
	}

	creds, err := r.store.Fill(sourceURL)
	if err != nil {
		return status, fnderrors.AuthError("credential store lookup failed").
			WithCause(err).WithContext("url", sourceURL).Build()
	}
	auth, err := authMethod(creds)
	if err != nil {
		return status, err
	}
	if auth != nil && status == AuthStatusNone {
		status = AuthStatusAlways
	}

	runErr := r.fetchLim.With(ctx, func() error { return fn(ctx, auth) })
	if runErr == nil {
		if creds != nil {
			r.store.Approved(sourceURL)
		}
		return status, nil
	}
	if !isAuthFailure(runErr) {
		return status, classifyTransportError(op, sourceURL, runErr)
	}

	// One retry with refreshed credentials, then fail with an auth error.
	if creds != nil {
		r.store.Rejected(sourceURL)
	}
	refreshed, err := r.store.Fill(sourceURL)
	if err != nil || refreshed == nil {
		return AuthStatusRequired, classifyTransportError(op, sourceURL, runErr)
	}
	auth, err = authMethod(refreshed)
	if err != nil {
		return AuthStatusRequired, err
	}
	slog.Debug("Retrying git operation with refreshed credentials",
		logfields.URL(sourceURL), slog.String("op", op))
	retryErr := r.fetchLim.With(ctx, func() error { return fn(ctx, auth) })
	if retryErr != nil {
		r.store.Rejected(sourceURL)
		return AuthStatusRequired, classifyTransportError(op, sourceURL, retryErr)
	}
	r.store.Approved(sourceURL)
	return AuthStatusRequired, nil
}

func authMethod(creds *credentials.Credentials) (transport.AuthMethod, error) {
	if creds == nil {
		return nil, nil
	}
	return creds.AuthMethod()
}

func hasURLCredentials(sourceURL string) bool {
	u, err := url.Parse(sourceURL)
	return err == nil && u.User != nil
}

// defaultBranch returns the branch a remote clone's HEAD points at.
func defaultBranch(repo *git.Repository) string {
	if ref, err := repo.Reference(plumbing.HEAD, false); err == nil &&
		ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short()
	}
	if ref, err := repo.Reference(plumbing.NewRemoteHEADReferenceName("origin"), false); err == nil &&
		ref.Type() == plumbing.SymbolicReference {
		return strings.TrimPrefix(ref.Target().Short(), "origin/")
	}
	return ""
}
