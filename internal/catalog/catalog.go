// Package catalog classifies aggregated buckets into the content catalog:
// every file gets a family, an output path, and a public URL, duplicates are
// resolved deterministically, and the result is indexed by component, version,
// and family.
package catalog

import (
	"sort"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/doccatalog/internal/content"
)

// ComponentVersion is one classified component version.
type ComponentVersion struct {
	Name               string
	Version            string
	DisplayVersion     string
	Title              string
	StartPage          string
	Prerelease         bool
	PrereleaseLabel    string
	AsciidocAttributes map[string]any
	Files              []*content.File
	// Latest marks the version with the highest precedence in its component.
	Latest bool
}

// Component groups a component's versions in descending precedence order.
type Component struct {
	Name     string
	Versions []*ComponentVersion
	Latest   *ComponentVersion
}

// Criteria narrows a FindBy lookup. Zero-valued fields match anything.
type Criteria struct {
	Component string
	Version   string
	Module    string
	Family    content.Family
	Relative  string
}

// Catalog is the terminal structure consumed by rendering and publishing.
type Catalog struct {
	components map[string]*Component
	byVersion  map[content.VersionKey]*ComponentVersion
	byFamily   map[content.Family][]*content.File
	aliases    map[string]*content.File
	redirects  map[string]string

	// Warnings lists the recoverable problems encountered during
	// classification, in a deterministic order.
	Warnings []string
}

func newCatalog() *Catalog {
	return &Catalog{
		components: map[string]*Component{},
		byVersion:  map[content.VersionKey]*ComponentVersion{},
		byFamily:   map[content.Family][]*content.File{},
		aliases:    map[string]*content.File{},
		redirects:  map[string]string{},
	}
}

// GetComponents returns all components sorted by name.
func (c *Catalog) GetComponents() []*Component {
	names := make([]string, 0, len(c.components))
	for n := range c.components {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Component, len(names))
	for i, n := range names {
		out[i] = c.components[n]
	}
	return out
}

// GetComponent returns one component by name, or nil.
func (c *Catalog) GetComponent(name string) *Component {
	return c.components[name]
}

// GetComponentVersion returns one component version, or nil.
func (c *Catalog) GetComponentVersion(name, version string) *ComponentVersion {
	return c.byVersion[content.VersionKey{Component: name, Version: version}]
}

// FindBy returns all files matching the criteria, in classification order.
func (c *Catalog) FindBy(crit Criteria) []*content.File {
	var pool []*content.File
	if crit.Family != "" {
		pool = c.byFamily[crit.Family]
	} else {
		for _, fam := range []content.Family{
			content.FamilyPage, content.FamilyPartial, content.FamilyImage,
			content.FamilyExample, content.FamilyAttachment, content.FamilyNavigation,
			content.FamilyAlias,
		} {
			pool = append(pool, c.byFamily[fam]...)
		}
	}
	var out []*content.File
	for _, f := range pool {
		if crit.Component != "" && f.Src.Component != crit.Component {
			continue
		}
		if crit.Version != "" && f.Src.Version != crit.Version {
			continue
		}
		if crit.Module != "" && f.Src.Module != crit.Module {
			continue
		}
		if crit.Relative != "" && f.Src.Relative != crit.Relative {
			continue
		}
		out = append(out, f)
	}
	return out
}

// GetPages returns all pages satisfying the predicate (nil matches all).
func (c *Catalog) GetPages(predicate func(*content.File) bool) []*content.File {
	var out []*content.File
	for _, f := range c.byFamily[content.FamilyPage] {
		if predicate == nil || predicate(f) {
			out = append(out, f)
		}
	}
	return out
}

// RegisterPageAlias points an alias key at a target page. The synthetic alias
// file holds no contents, only the Rel pointer. Registering an already-taken
// key is a content error.
func (c *Catalog) RegisterPageAlias(spec string, target *content.File) (*content.File, error) {
	if _, taken := c.aliases[spec]; taken {
		return nil, fnderrors.ContentError("page alias is already registered").
			WithContext("alias", spec).Build()
	}
	alias := &content.File{
		Src: content.Coordinates{
			Component: target.Src.Component,
			Version:   target.Src.Version,
			Module:    target.Src.Module,
			Family:    content.FamilyAlias,
			Relative:  spec,
			Origin:    target.Src.Origin,
		},
		Rel: target,
	}
	c.aliases[spec] = alias
	c.byFamily[content.FamilyAlias] = append(c.byFamily[content.FamilyAlias], alias)
	return alias, nil
}

// ResolvePageAlias returns the aliased page's current public URL. The lookup
// follows the live Rel pointer, so a retargeted page is always reflected.
func (c *Catalog) ResolvePageAlias(spec string) (string, bool) {
	alias, ok := c.aliases[spec]
	if !ok || alias.Rel == nil || alias.Rel.Pub == nil {
		return "", false
	}
	return alias.Rel.Pub.URL, true
}

// Redirects maps non-canonical URLs to their canonical form, populated by the
// latest-version redirect strategies.
func (c *Catalog) Redirects() map[string]string {
	return c.redirects
}

func (c *Catalog) addVersion(cv *ComponentVersion) {
	comp, ok := c.components[cv.Name]
	if !ok {
		comp = &Component{Name: cv.Name}
		c.components[cv.Name] = comp
	}
	comp.Versions = append(comp.Versions, cv)
	c.byVersion[content.VersionKey{Component: cv.Name, Version: cv.Version}] = cv
}

// finalize orders each component's versions and marks the latest: the highest
// precedence non-prerelease version, or the highest precedence version when
// all are prereleases.
func (c *Catalog) finalize() {
	for _, comp := range c.components {
		sortVersions(comp.Versions)
		for _, cv := range comp.Versions {
			if !cv.Prerelease {
				comp.Latest = cv
				break
			}
		}
		if comp.Latest == nil && len(comp.Versions) > 0 {
			comp.Latest = comp.Versions[0]
		}
		if comp.Latest != nil {
			comp.Latest.Latest = true
		}
	}
}
