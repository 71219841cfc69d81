package config

import (
	"os"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
)

const starterConfig = `# doccatalog configuration
runtime:
  # cache_dir: ~/.cache/doccatalog
  fetch: true

git:
  fetch_concurrency: 1
  read_concurrency: 0
  credentials:
    store: none

content:
  sources:
    - url: https://example.org/docs.git
      branches: [main, "v*"]
      # tags: ["v*"]
      # start_path: docs
      # edit_url: https://example.org/docs/edit/{refname}/{path}
    - url: ./docs
      branches: [HEAD]

urls:
  html_extension_style: default
  latest_version_segment_strategy: replace
  latest_version_segment: ""

aggregate:
  duplicate_policy: latest-source-wins
`

// Init writes a starter configuration file. An existing file is only
// overwritten when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fnderrors.ConfigError("config file already exists, use --force to overwrite").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fnderrors.ConfigError("failed to write config file").
			WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
