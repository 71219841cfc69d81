package content

import (
	"fmt"

	"gopkg.in/yaml.v3"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
)

// DescriptorFilename is the component descriptor looked up at each source's
// start path.
const DescriptorFilename = "antora.yml"

// Prerelease accepts either a boolean flag or a string label. A label (for
// example "-beta.1") implies the version is a prerelease.
type Prerelease struct {
	Flag  bool
	Label string
}

func (p *Prerelease) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err == nil {
		p.Flag = b
		return nil
	}
	var s string
	if err := value.Decode(&s); err == nil {
		p.Flag = s != ""
		p.Label = s
		return nil
	}
	return fmt.Errorf("prerelease must be a boolean or a string label")
}

// Descriptor is the parsed component descriptor.
type Descriptor struct {
	Name           string     `yaml:"name"`
	Version        string     `yaml:"version"`
	DisplayVersion string     `yaml:"display_version"`
	Title          string     `yaml:"title"`
	StartPage      string     `yaml:"start_page"`
	Prerelease     Prerelease `yaml:"prerelease"`
	Nav            []string   `yaml:"nav"`
	Asciidoc       struct {
		Attributes map[string]any `yaml:"attributes"`
	} `yaml:"asciidoc"`
	// Files narrows which paths below the start path are aggregated. Empty
	// means the entire tree.
	Files []string `yaml:"files"`
}

// ParseDescriptor decodes and validates a component descriptor. A missing
// name or version is a configuration error and fatal for the ref.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fnderrors.ConfigError("malformed component descriptor").WithCause(err).Build()
	}
	if d.Name == "" {
		return nil, fnderrors.ConfigError("component descriptor is missing required key 'name'").Build()
	}
	if d.Version == "" {
		return nil, fnderrors.ConfigError("component descriptor is missing required key 'version'").Build()
	}
	return &d, nil
}

// EffectiveDisplayVersion returns the declared display version, or the
// version with the prerelease label appended when only a label is declared.
func (d *Descriptor) EffectiveDisplayVersion() string {
	if d.DisplayVersion != "" {
		return d.DisplayVersion
	}
	if d.Prerelease.Label != "" {
		return d.Version + d.Prerelease.Label
	}
	return ""
}

// FileGlobs returns the descriptor's file-inclusion patterns, defaulting to
// the whole tree. Navigation files are always included so they classify even
// when the declared globs exclude them.
func (d *Descriptor) FileGlobs() []string {
	globs := d.Files
	if len(globs) == 0 {
		globs = []string{"**/*"}
	}
	return append(globs, d.Nav...)
}
