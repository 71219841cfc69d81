package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doccatalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
content:
  sources:
    - url: https://example.org/docs.git
      branches: [main, "v*"]
    - url: ./docs
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Git.FetchConcurrency)
	assert.Equal(t, 0, cfg.Git.ReadConcurrency)
	assert.Equal(t, "none", cfg.Git.Credentials.Store)
	assert.Equal(t, ExtensionStyleDefault, cfg.URLs.HTMLExtensionStyle)
	assert.Equal(t, LatestStrategyReplace, cfg.URLs.LatestVersionSegmentStrategy)
	assert.Equal(t, DuplicateLatestSourceWins, cfg.Aggregate.DuplicatePolicy)
	assert.NotEmpty(t, cfg.Runtime.CacheDir)

	require.Len(t, cfg.Content.Sources, 2)
	assert.Equal(t, 0, cfg.Content.Sources[0].Order)
	assert.Equal(t, 1, cfg.Content.Sources[1].Order)
	// A source without ref selection defaults to its current branch.
	assert.Equal(t, StringList{"HEAD"}, cfg.Content.Sources[1].Branches)
	assert.Equal(t, StringList{"main", "v*"}, cfg.Content.Sources[0].Branches)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCS_URL", "https://example.org/docs.git")
	path := writeConfig(t, `
content:
  sources:
    - url: ${DOCS_URL}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/docs.git", cfg.Content.Sources[0].URL)
}

func TestLoadScalarBranchValue(t *testing.T) {
	path := writeConfig(t, `
content:
  sources:
    - url: ./docs
      branches: main
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StringList{"main"}, cfg.Content.Sources[0].Branches)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []string{
		"content:\n  sources: []\n",
		"content:\n  sources:\n    - branches: [main]\n",
		"content:\n  sources:\n    - url: ./docs\nurls:\n  html_extension_style: strip\n",
		"content:\n  sources:\n    - url: ./docs\nurls:\n  latest_version_segment_strategy: rewrite\n",
		"content:\n  sources:\n    - url: ./docs\naggregate:\n  duplicate_policy: first-wins\n",
	}
	for _, body := range cases {
		_, err := Load(writeConfig(t, body))
		require.Error(t, err, body)
		assert.Equal(t, fnderrors.CategoryConfig, fnderrors.CategoryOf(err), body)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doccatalog.yaml")
	require.NoError(t, Init(path, false))

	// The starter config must load cleanly.
	_, err := Load(path)
	require.NoError(t, err)

	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}
