// Package aggregate orchestrates a run: it resolves every content source,
// enumerates matching refs, reads component descriptors and file trees, and
// merges the resulting buckets by component version.
//
// Runs are two-phased. Phase one resolves (clones or fetches) every source and
// waits for all of them to settle before anything is read; phase two fans the
// matched refs out under the read limiter. The phase barrier guarantees no
// repository is read while any fetch is still in flight.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/osfs"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/content"
	"git.home.luguber.info/inful/doccatalog/internal/extension"
	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/doccatalog/internal/gitsource"
	"git.home.luguber.info/inful/doccatalog/internal/globber"
	"git.home.luguber.info/inful/doccatalog/internal/limiter"
	"git.home.luguber.info/inful/doccatalog/internal/logfields"
	"git.home.luguber.info/inful/doccatalog/internal/metrics"
	"git.home.luguber.info/inful/doccatalog/internal/refs"
)

// Aggregator drives the fetch and read phases of a run.
type Aggregator struct {
	cfg      *config.Config
	resolver *gitsource.Resolver
	readLim  *limiter.Limiter
	hooks    *extension.Hooks
	rec      metrics.Recorder
}

// New creates an aggregator. The resolver owns the fetch limiter; readLim
// bounds concurrent tree reads. rec may be nil.
func New(cfg *config.Config, resolver *gitsource.Resolver, readLim *limiter.Limiter, hooks *extension.Hooks, rec metrics.Recorder) *Aggregator {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Aggregator{cfg: cfg, resolver: resolver, readLim: readLim, hooks: hooks, rec: rec}
}

// Run aggregates all configured sources into merged buckets, ordered by first
// appearance across sources and refs.
func (a *Aggregator) Run(ctx context.Context) ([]*content.Bucket, error) {
	resolved, err := a.resolveSources(ctx)
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(resolved))
	for i, r := range resolved {
		urls[i] = r.Source.URL
	}
	if err := a.hooks.FireSourcesResolved(ctx, &extension.SourcesResolvedContext{SourceURLs: urls}); err != nil {
		return nil, err
	}

	buckets, err := a.readSources(ctx, resolved)
	if err != nil {
		return nil, err
	}

	merged := mergeBuckets(buckets)
	for _, b := range merged {
		if err := a.hooks.FireBucketBuilt(ctx, &extension.BucketBuiltContext{Bucket: b}); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// resolveSources runs phase one. Every source is attempted even when some
// fail; the joined errors are returned only after all of them settle.
func (a *Aggregator) resolveSources(ctx context.Context) ([]*gitsource.Resolved, error) {
	start := time.Now()
	sources := a.cfg.Content.Sources
	resolved := make([]*gitsource.Resolved, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src config.ContentSource) {
			defer wg.Done()
			r, err := a.resolver.Resolve(ctx, src)
			if err != nil {
				a.rec.SourceResolved(metrics.ResultError)
				errs[i] = err
				return
			}
			a.rec.SourceResolved(metrics.ResultOK)
			resolved[i] = r
		}(i, src)
	}
	wg.Wait()
	a.rec.PhaseDuration("fetch", time.Since(start))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	slog.Info("Resolved content sources", slog.Int("sources", len(resolved)),
		slog.Duration("elapsed", time.Since(start)))
	return resolved, nil
}

type refTask struct {
	resolved *gitsource.Resolved
	ref      refs.Ref
}

// readSources runs phase two: one task per matched ref, bounded by the read
// limiter. Task order is the deterministic (source, ref) enumeration order,
// which the merge step relies on.
func (a *Aggregator) readSources(ctx context.Context, resolved []*gitsource.Resolved) ([]*content.Bucket, error) {
	start := time.Now()

	var tasks []refTask
	for _, r := range resolved {
		matched, err := refs.Enumerate(r.Repo, r.Source.Branches, r.Source.Tags, r.DefaultBranch)
		if err != nil {
			return nil, fnderrors.GitError("failed to enumerate refs").
				WithCause(err).WithContext("url", r.Source.URL).Build()
		}
		if len(matched) == 0 {
			slog.Warn("No refs matched for content source", logfields.URL(r.Source.URL))
		}
		for _, ref := range matched {
			tasks = append(tasks, refTask{resolved: r, ref: ref})
		}
	}

	buckets := make([]*content.Bucket, len(tasks))
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task refTask) {
			defer wg.Done()
			err := a.readLim.With(ctx, func() error {
				b, err := a.aggregateRef(task.resolved, task.ref)
				buckets[i] = b
				return err
			})
			if err != nil {
				a.rec.RefAggregated(metrics.ResultError)
				errs[i] = err
			} else if buckets[i] == nil {
				a.rec.RefAggregated(metrics.ResultSkip)
			} else {
				a.rec.RefAggregated(metrics.ResultOK)
			}
		}(i, task)
	}
	wg.Wait()
	a.rec.PhaseDuration("read", time.Since(start))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	out := make([]*content.Bucket, 0, len(buckets))
	for _, b := range buckets {
		if b != nil {
			out = append(out, b)
		}
	}
	slog.Info("Aggregated refs", slog.Int("refs", len(tasks)),
		slog.Int("buckets", len(out)), slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

// aggregateRef builds one bucket from one ref. A missing start path or
// descriptor skips the ref with a warning and returns (nil, nil); a malformed
// descriptor is an error for this ref only.
func (a *Aggregator) aggregateRef(r *gitsource.Resolved, ref refs.Ref) (*content.Bucket, error) {
	tree, err := a.openTree(r, ref)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		slog.Warn("Start path not present in ref, skipping",
			logfields.URL(r.Source.URL), logfields.Refname(ref.Name),
			logfields.StartPath(r.Source.StartPath))
		return nil, nil
	}

	data, err := tree.Read(content.DescriptorFilename)
	if err != nil {
		slog.Warn("No component descriptor in ref, skipping",
			logfields.URL(r.Source.URL), logfields.Refname(ref.Name),
			logfields.StartPath(r.Source.StartPath))
		return nil, nil
	}
	desc, err := content.ParseDescriptor(data)
	if err != nil {
		return nil, fnderrors.ConfigError("invalid component descriptor").
			WithCause(err).WithContext("url", r.Source.URL).WithContext("refname", ref.Name).Build()
	}

	origin := newOrigin(r, ref)
	entries, err := globber.ResolveEntries(tree, desc.FileGlobs())
	if err != nil {
		return nil, fnderrors.ContentError("failed to resolve file globs").
			WithCause(err).WithContext("url", r.Source.URL).WithContext("refname", ref.Name).Build()
	}

	var files []*content.File
	for _, e := range entries {
		if e.IsDir || e.Path == content.DescriptorFilename {
			continue
		}
		data, err := tree.Read(e.Path)
		if err != nil {
			return nil, fnderrors.ContentError("failed to read content file").
				WithCause(err).WithContext("url", r.Source.URL).
				WithContext("refname", ref.Name).WithContext("path", e.Path).Build()
		}
		files = append(files, content.NewFile(data, content.Coordinates{
			Component: desc.Name,
			Version:   desc.Version,
			Relative:  e.Path,
			Origin:    origin,
		}))
	}

	slog.Debug("Built bucket",
		logfields.Component(desc.Name), logfields.Version(desc.Version),
		logfields.Refname(ref.Name), slog.Int("files", len(files)))

	return &content.Bucket{
		Name:               desc.Name,
		Version:            desc.Version,
		DisplayVersion:     desc.EffectiveDisplayVersion(),
		Title:              desc.Title,
		StartPage:          desc.StartPage,
		Prerelease:         desc.Prerelease.Flag,
		PrereleaseLabel:    desc.Prerelease.Label,
		AsciidocAttributes: desc.Asciidoc.Attributes,
		NavPaths:           desc.Nav,
		Origins:            []*content.Origin{origin},
		Files:              files,
	}, nil
}

// openTree returns the ref's tree rooted at the source's start path, or nil
// when the start path does not exist in that ref. The checked-out branch of a
// worktree source is read straight from the filesystem so uncommitted changes
// are included.
func (a *Aggregator) openTree(r *gitsource.Resolved, ref refs.Ref) (globber.Tree, error) {
	startPath := strings.Trim(path.Clean(r.Source.StartPath), "/")
	if startPath == "." {
		startPath = ""
	}

	if r.Worktree && ref.Type == refs.TypeBranch && ref.Name == r.DefaultBranch {
		tree := globber.NewDirTree(osfs.New(r.WorktreePath), startPath)
		if startPath != "" {
			if _, err := tree.Stat(""); err != nil {
				return nil, nil
			}
		}
		return tree, nil
	}

	hash, err := refs.ResolveCommit(r.Repo, ref)
	if err != nil {
		return nil, err
	}
	commit, err := r.Repo.CommitObject(hash)
	if err != nil {
		return nil, fnderrors.GitError("failed to load commit").
			WithCause(err).WithContext("url", r.Source.URL).WithContext("refname", ref.Name).Build()
	}
	root, err := commit.Tree()
	if err != nil {
		return nil, fnderrors.GitError("failed to load commit tree").
			WithCause(err).WithContext("url", r.Source.URL).WithContext("refname", ref.Name).Build()
	}
	if startPath != "" {
		root, err = root.Tree(startPath)
		if err != nil {
			return nil, nil // start path absent in this ref
		}
	}
	return globber.NewGitTree(root), nil
}

func newOrigin(r *gitsource.Resolved, ref refs.Ref) *content.Origin {
	o := &content.Origin{
		URL:            r.Source.URL,
		GitDir:         r.GitDir,
		WorktreePath:   r.WorktreePath,
		Refname:        ref.Name,
		RefType:        string(ref.Type),
		StartPath:      r.Source.StartPath,
		Worktree:       r.Worktree,
		EditURLPattern: r.Source.EditURL,
		Order:          r.Source.Order,
	}
	if r.Worktree {
		root := r.WorktreePath
		if o.StartPath != "" {
			root = root + "/" + strings.Trim(o.StartPath, "/")
		}
		o.FileURIPattern = "file://" + root + "/{path}"
	}
	return o
}

// mergeBuckets folds buckets sharing a (component, version) key, preserving
// first-appearance order. Files from later sources land after earlier ones,
// which is the order the classifier's duplicate policy inspects.
func mergeBuckets(buckets []*content.Bucket) []*content.Bucket {
	byKey := map[content.VersionKey]*content.Bucket{}
	var order []*content.Bucket
	for _, b := range buckets {
		if existing, ok := byKey[b.Key()]; ok {
			existing.Merge(b)
			continue
		}
		byKey[b.Key()] = b
		order = append(order, b)
	}
	return order
}
