package aggregate

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/content"
	"git.home.luguber.info/inful/doccatalog/internal/credentials"
	"git.home.luguber.info/inful/doccatalog/internal/gitsource"
	"git.home.luguber.info/inful/doccatalog/internal/limiter"
	"git.home.luguber.info/inful/doccatalog/internal/metrics"
)

func commitFiles(t *testing.T, dir string, repo *git.Repository, files map[string]string, msg string) {
	t.Helper()
	w, err := repo.Worktree()
	require.NoError(t, err)
	for p, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
		_, err = w.Add(p)
		require.NoError(t, err)
	}
	_, err = w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.org", When: time.Now()},
	})
	require.NoError(t, err)
}

func initRepo(t *testing.T, files map[string]string) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFiles(t, dir, repo, files, "initial")
	return dir, repo
}

func descriptor(name, version string) string {
	return "name: " + name + "\nversion: \"" + version + "\"\nnav:\n  - modules/ROOT/nav.adoc\n"
}

func newAggregator(t *testing.T, sources ...config.ContentSource) *Aggregator {
	return newAggregatorWithRecorder(t, nil, sources...)
}

func newAggregatorWithRecorder(t *testing.T, rec metrics.Recorder, sources ...config.ContentSource) *Aggregator {
	t.Helper()
	cfg := &config.Config{}
	cfg.Runtime.CacheDir = t.TempDir()
	cfg.Content.Sources = sources
	for i := range cfg.Content.Sources {
		cfg.Content.Sources[i].Order = i
	}
	fetchLim := limiter.New("fetch", 1)
	resolver := gitsource.NewResolver(cfg, fetchLim, credentials.NoneStore{})
	return New(cfg, resolver, limiter.New("read", 0), nil, rec)
}

func TestRunAggregatesWorktreeHead(t *testing.T) {
	dir, _ := initRepo(t, map[string]string{
		"antora.yml":                    descriptor("server", "2.0"),
		"modules/ROOT/pages/index.adoc": "= Index",
		"modules/ROOT/nav.adoc":         "* xref:index.adoc[]",
	})

	agg := newAggregator(t, config.ContentSource{URL: dir, Branches: []string{"HEAD"}})
	buckets, err := agg.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	b := buckets[0]
	assert.Equal(t, "server", b.Name)
	assert.Equal(t, "2.0", b.Version)
	assert.Len(t, b.Files, 2)
	require.Len(t, b.Origins, 1)
	assert.True(t, b.Origins[0].Worktree)
	assert.Equal(t, "branch", b.Origins[0].RefType)
}

func TestRunAggregatesMultipleBranches(t *testing.T) {
	dir, repo := initRepo(t, map[string]string{
		"antora.yml":                    descriptor("server", "1.0"),
		"modules/ROOT/pages/index.adoc": "= One",
	})
	w, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("v2"),
		Create: true,
	}))
	commitFiles(t, dir, repo, map[string]string{
		"antora.yml":                    descriptor("server", "2.0"),
		"modules/ROOT/pages/index.adoc": "= Two",
	}, "bump version")

	agg := newAggregator(t, config.ContentSource{URL: dir, Branches: []string{"*"}})
	buckets, err := agg.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	versions := []string{buckets[0].Version, buckets[1].Version}
	assert.ElementsMatch(t, []string{"1.0", "2.0"}, versions)
}

// phaseClock timestamps the pipeline's per-source and per-ref observations.
// The sleep in SourceResolved stretches the resolve of every source, so any
// ref read that starts before all sources settle would finish first.
type phaseClock struct {
	metrics.Noop
	mu       sync.Mutex
	resolved []time.Time
	read     []time.Time
}

func (c *phaseClock) SourceResolved(string) {
	time.Sleep(150 * time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = append(c.resolved, time.Now())
}

func (c *phaseClock) RefAggregated(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.read = append(c.read, time.Now())
}

func TestRunResolvesEverySourceBeforeAnyRefIsRead(t *testing.T) {
	dirA, _ := initRepo(t, map[string]string{
		"antora.yml":                    descriptor("server", "1.0"),
		"modules/ROOT/pages/index.adoc": "= A",
	})
	dirB, _ := initRepo(t, map[string]string{
		"antora.yml":                    descriptor("client", "1.0"),
		"modules/ROOT/pages/index.adoc": "= B",
	})

	clock := &phaseClock{}
	agg := newAggregatorWithRecorder(t, clock,
		config.ContentSource{URL: dirA, Branches: []string{"HEAD"}},
		config.ContentSource{URL: dirB, Branches: []string{"HEAD"}},
	)
	buckets, err := agg.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	require.Len(t, clock.resolved, 2)
	require.Len(t, clock.read, 2)
	lastResolved := clock.resolved[0]
	for _, ts := range clock.resolved[1:] {
		if ts.After(lastResolved) {
			lastResolved = ts
		}
	}
	for _, ts := range clock.read {
		assert.False(t, ts.Before(lastResolved),
			"a ref was read before every source had resolved")
	}
}

func TestRunMergesSameComponentVersionAcrossSources(t *testing.T) {
	dirA, _ := initRepo(t, map[string]string{
		"antora.yml":                    descriptor("server", "2.0"),
		"modules/ROOT/pages/index.adoc": "= From A",
	})
	dirB, _ := initRepo(t, map[string]string{
		"antora.yml":                    descriptor("server", "2.0"),
		"modules/ROOT/pages/extra.adoc": "= From B",
	})

	agg := newAggregator(t,
		config.ContentSource{URL: dirA, Branches: []string{"HEAD"}},
		config.ContentSource{URL: dirB, Branches: []string{"HEAD"}},
	)
	buckets, err := agg.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0].Origins, 2)
	// Files from the later-declared source come after the earlier one's.
	assert.Equal(t, 0, buckets[0].Files[0].Src.Origin.Order)
}

func TestRunHonorsStartPath(t *testing.T) {
	dir, _ := initRepo(t, map[string]string{
		"docs/antora.yml":                    descriptor("server", "2.0"),
		"docs/modules/ROOT/pages/index.adoc": "= Index",
		"README.md":                          "not content",
	})

	agg := newAggregator(t, config.ContentSource{
		URL: dir, Branches: []string{"HEAD"}, StartPath: "docs",
	})
	buckets, err := agg.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Files, 1)
	assert.Equal(t, "modules/ROOT/pages/index.adoc", buckets[0].Files[0].Src.Relative)
}

func TestRunSkipsRefWithoutDescriptor(t *testing.T) {
	dir, _ := initRepo(t, map[string]string{
		"README.md": "no descriptor here",
	})

	agg := newAggregator(t, config.ContentSource{URL: dir, Branches: []string{"HEAD"}})
	buckets, err := agg.Run(t.Context())
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestRunReportsMalformedDescriptor(t *testing.T) {
	dir, _ := initRepo(t, map[string]string{
		"antora.yml": "version: \"2.0\"\n", // name missing
	})

	agg := newAggregator(t, config.ContentSource{URL: dir, Branches: []string{"HEAD"}})
	_, err := agg.Run(t.Context())
	require.Error(t, err)
}

func TestRunDescriptorFileGlobsNarrowSelection(t *testing.T) {
	dir, _ := initRepo(t, map[string]string{
		"antora.yml": "name: server\nversion: \"2.0\"\nfiles:\n  - modules/**/*.adoc\n",
		"modules/ROOT/pages/index.adoc": "= Index",
		"modules/ROOT/images/logo.png":  "binary",
	})

	agg := newAggregator(t, config.ContentSource{URL: dir, Branches: []string{"HEAD"}})
	buckets, err := agg.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Files, 1)
	assert.Equal(t, "modules/ROOT/pages/index.adoc", buckets[0].Files[0].Src.Relative)
}

func TestMergeBucketsPreservesFirstAppearanceOrder(t *testing.T) {
	b1 := &content.Bucket{Name: "a", Version: "1"}
	b2 := &content.Bucket{Name: "b", Version: "1"}
	b3 := &content.Bucket{Name: "a", Version: "1"}

	merged := mergeBuckets([]*content.Bucket{b1, b2, b3})
	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].Name)
	assert.Equal(t, "b", merged[1].Name)
}
