package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
)

// Config is the validated run configuration consumed by the aggregation core.
// It is the subset of the site playbook this stage cares about; everything
// else (site metadata, output destinations, UI bundle) belongs to other tools.
type Config struct {
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Git       GitConfig       `yaml:"git"`
	Content   ContentConfig   `yaml:"content"`
	URLs      URLConfig       `yaml:"urls"`
	Aggregate AggregateConfig `yaml:"aggregate"`
}

// RuntimeConfig holds run-level switches.
type RuntimeConfig struct {
	CacheDir string `yaml:"cache_dir"`
	Fetch    bool   `yaml:"fetch"` // refresh previously cloned repositories
}

// GitConfig bounds git resource usage and selects the credential store.
type GitConfig struct {
	FetchConcurrency int               `yaml:"fetch_concurrency"` // simultaneous clones/fetches; default 1
	ReadConcurrency  int               `yaml:"read_concurrency"`  // simultaneous repository reads; 0 = unbounded
	Credentials      CredentialsConfig `yaml:"credentials"`
}

// CredentialsConfig selects a named credential store implementation.
type CredentialsConfig struct {
	Store  string             `yaml:"store"` // none | static | env
	Static []StaticCredential `yaml:"static,omitempty"`
}

// StaticCredential maps a URL prefix to fixed credentials.
type StaticCredential struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// ContentConfig declares where content comes from.
type ContentConfig struct {
	Sources []ContentSource `yaml:"sources"`
}

// ContentSource declares one repository to aggregate content from.
// Immutable once resolved; Order records the declaration position and drives
// deterministic duplicate-file resolution.
type ContentSource struct {
	URL       string     `yaml:"url"`
	Branches  StringList `yaml:"branches,omitempty"`
	Tags      StringList `yaml:"tags,omitempty"`
	StartPath string     `yaml:"start_path,omitempty"`
	EditURL   string     `yaml:"edit_url,omitempty"`
	Order     int        `yaml:"-"`
}

// URLConfig controls how publishable identities are computed.
type URLConfig struct {
	HTMLExtensionStyle           string `yaml:"html_extension_style"`            // default | drop | indexify
	LatestVersionSegmentStrategy string `yaml:"latest_version_segment_strategy"` // replace | redirect:to | redirect:from
	LatestVersionSegment         string `yaml:"latest_version_segment"`          // replacement segment; empty = omit
}

// AggregateConfig holds aggregation policies.
type AggregateConfig struct {
	DuplicatePolicy string `yaml:"duplicate_policy"` // latest-source-wins | error
}

// Extension style values.
const (
	ExtensionStyleDefault  = "default"
	ExtensionStyleDrop     = "drop"
	ExtensionStyleIndexify = "indexify"
)

// Latest-version segment strategies.
const (
	LatestStrategyReplace      = "replace"
	LatestStrategyRedirectTo   = "redirect:to"
	LatestStrategyRedirectFrom = "redirect:from"
)

// Duplicate-file policies.
const (
	DuplicateLatestSourceWins = "latest-source-wins"
	DuplicateError            = "error"
)

// Load reads, expands, defaults, and validates a configuration file.
func Load(configPath string) (*Config, error) {
	// Load .env if present so ${VAR} expansion sees it; absence is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fnderrors.ConfigError("failed to read config file").
			WithCause(err).WithContext("path", configPath).Build()
	}

	// Expand environment variables in the YAML content before unmarshalling.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fnderrors.ConfigError("failed to unmarshal config").
			WithCause(err).WithContext("path", configPath).Build()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in zero values with documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Runtime.CacheDir == "" {
		c.Runtime.CacheDir = defaultCacheDir()
	}
	if c.Git.FetchConcurrency <= 0 {
		c.Git.FetchConcurrency = 1
	}
	if c.Git.ReadConcurrency < 0 {
		c.Git.ReadConcurrency = 0
	}
	if c.Git.Credentials.Store == "" {
		c.Git.Credentials.Store = "none"
	}
	if c.URLs.HTMLExtensionStyle == "" {
		c.URLs.HTMLExtensionStyle = ExtensionStyleDefault
	}
	if c.URLs.LatestVersionSegmentStrategy == "" {
		c.URLs.LatestVersionSegmentStrategy = LatestStrategyReplace
	}
	if c.Aggregate.DuplicatePolicy == "" {
		c.Aggregate.DuplicatePolicy = DuplicateLatestSourceWins
	}
	for i := range c.Content.Sources {
		src := &c.Content.Sources[i]
		src.Order = i
		// A source with no ref selection processes its default branch only.
		if len(src.Branches) == 0 && len(src.Tags) == 0 {
			src.Branches = StringList{"HEAD"}
		}
	}
}

// Validate checks configuration invariants. Failures are fatal config errors.
func (c *Config) Validate() error {
	if len(c.Content.Sources) == 0 {
		return fnderrors.ConfigError("no content sources configured").Build()
	}
	for i, src := range c.Content.Sources {
		if src.URL == "" {
			return fnderrors.ConfigError("content source has no url").
				WithContext("index", i).Build()
		}
	}
	switch c.URLs.HTMLExtensionStyle {
	case ExtensionStyleDefault, ExtensionStyleDrop, ExtensionStyleIndexify:
	default:
		return fnderrors.ConfigError("unknown html_extension_style").
			WithContext("value", c.URLs.HTMLExtensionStyle).Build()
	}
	switch c.URLs.LatestVersionSegmentStrategy {
	case LatestStrategyReplace, LatestStrategyRedirectTo, LatestStrategyRedirectFrom:
	default:
		return fnderrors.ConfigError("unknown latest_version_segment_strategy").
			WithContext("value", c.URLs.LatestVersionSegmentStrategy).Build()
	}
	switch c.Aggregate.DuplicatePolicy {
	case DuplicateLatestSourceWins, DuplicateError:
	default:
		return fnderrors.ConfigError("unknown duplicate_policy").
			WithContext("value", c.Aggregate.DuplicatePolicy).Build()
	}
	return nil
}

func defaultCacheDir() string {
	if base, err := os.UserCacheDir(); err == nil {
		return base + string(os.PathSeparator) + "doccatalog"
	}
	return ".cache/doccatalog"
}
