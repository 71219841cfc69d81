package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/content"
	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/doccatalog/internal/logfields"
	"git.home.luguber.info/inful/doccatalog/internal/metrics"
	"git.home.luguber.info/inful/doccatalog/internal/util/sets"
)

// familyDirs maps the directory below a module root to the family it holds.
var familyDirs = map[string]content.Family{
	"pages":       content.FamilyPage,
	"partials":    content.FamilyPartial,
	"images":      content.FamilyImage,
	"examples":    content.FamilyExample,
	"attachments": content.FamilyAttachment,
}

// Classifier turns merged buckets into a catalog.
type Classifier struct {
	cfg *config.Config
	rec metrics.Recorder
}

// NewClassifier creates a classifier. rec may be nil.
func NewClassifier(cfg *config.Config, rec metrics.Recorder) *Classifier {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Classifier{cfg: cfg, rec: rec}
}

// Classify assigns every file its family, resolves duplicates against the
// configured policy, computes output paths and public URLs, and indexes the
// result. Unrecognized files are dropped with a warning, never an error.
func (c *Classifier) Classify(buckets []*content.Bucket) (*Catalog, error) {
	cat := newCatalog()

	for _, b := range buckets {
		files, err := c.classifyBucket(cat, b)
		if err != nil {
			return nil, err
		}
		cv := &ComponentVersion{
			Name:               b.Name,
			Version:            b.Version,
			DisplayVersion:     b.DisplayVersion,
			Title:              b.Title,
			StartPage:          b.StartPage,
			Prerelease:         b.Prerelease,
			PrereleaseLabel:    b.PrereleaseLabel,
			AsciidocAttributes: b.AsciidocAttributes,
			Files:              files,
		}
		cat.addVersion(cv)
	}
	cat.finalize()

	for _, comp := range cat.GetComponents() {
		for _, cv := range comp.Versions {
			c.publish(cat, cv)
			c.checkStartPage(cat, cv)
			for fam, n := range countFamilies(cv.Files) {
				c.rec.FilesClassified(string(fam), n)
			}
		}
	}
	return cat, nil
}

// classifyBucket assigns module, family, and family-relative path to every
// file in the bucket and resolves duplicate keys.
func (c *Classifier) classifyBucket(cat *Catalog, b *content.Bucket) ([]*content.File, error) {
	navSet := sets.New(b.NavPaths...)

	kept := make([]*content.File, 0, len(b.Files))
	byKey := map[string]int{}
	for _, f := range b.Files {
		if !c.assignFamily(cat, f, navSet) {
			continue
		}
		key := f.Src.Key()
		idx, dup := byKey[key]
		if !dup {
			byKey[key] = len(kept)
			kept = append(kept, f)
			continue
		}

		if c.cfg.Aggregate.DuplicatePolicy == config.DuplicateError {
			return nil, fnderrors.ContentError("duplicate file in component version").
				WithContext("component", b.Name).WithContext("version", b.Version).
				WithContext("path", f.Src.Relative).Build()
		}
		existing := kept[idx]
		winner, loser := f, existing
		if f.Src.Origin.Order < existing.Src.Origin.Order {
			winner, loser = existing, f
		}
		kept[idx] = winner
		c.warn(cat, "duplicate-file", fmt.Sprintf(
			"duplicate file %s in %s@%s: kept copy from %s, dropped copy from %s",
			f.Src.Relative, b.Name, b.Version,
			originLabel(winner.Src.Origin), originLabel(loser.Src.Origin)))
	}
	return kept, nil
}

// originLabel identifies one copy of a duplicate file. The refname matters
// when both copies come from different refs of the same source.
func originLabel(o *content.Origin) string {
	if o.Refname == "" {
		return o.URL
	}
	return o.URL + " (" + o.Refname + ")"
}

// assignFamily derives module, family, and family-relative path from the
// file's start-path-relative location. Returns false when the file matches no
// recognized root.
func (c *Classifier) assignFamily(cat *Catalog, f *content.File, navSet sets.Set[string]) bool {
	p := f.Src.Relative

	if navSet.Has(p) {
		f.Src.Family = content.FamilyNavigation
		f.Src.Module, f.Src.Relative = splitModulePath(p)
		return true
	}

	module, rest := splitModulePath(p)
	dir, below, ok := strings.Cut(rest, "/")
	if ok {
		if fam, recognized := familyDirs[dir]; recognized {
			f.Src.Module = module
			f.Src.Family = fam
			f.Src.Relative = below
			return true
		}
	}

	c.warn(cat, "unrecognized-file", fmt.Sprintf(
		"file %s in %s@%s matches no recognized content root, ignoring",
		p, f.Src.Component, f.Src.Version))
	return false
}

// splitModulePath splits modules/<module>/<rest>; anything not below a
// modules directory belongs to the ROOT module.
func splitModulePath(p string) (module, rest string) {
	if after, ok := strings.CutPrefix(p, "modules/"); ok {
		if module, rest, ok = strings.Cut(after, "/"); ok {
			return module, rest
		}
		return "ROOT", after
	}
	return "ROOT", p
}

// publish computes out.path and pub.url for the publishable families and
// records latest-version redirects, then indexes the files by family.
func (c *Classifier) publish(cat *Catalog, cv *ComponentVersion) {
	for _, f := range cv.Files {
		switch f.Src.Family {
		case content.FamilyPage:
			c.publishPage(cat, cv, f)
		case content.FamilyImage:
			c.publishAsset(cat, cv, f, "_images")
		case content.FamilyAttachment:
			c.publishAsset(cat, cv, f, "_attachments")
		}
		cat.byFamily[f.Src.Family] = append(cat.byFamily[f.Src.Family], f)
	}
}

func (c *Classifier) publishPage(cat *Catalog, cv *ComponentVersion, f *content.File) {
	rel := strings.TrimSuffix(f.Src.Relative, f.Src.Extname) + ".html"
	canonical := c.versionSegment(cv)
	base := joinURL(cv.Name, canonical, modulePart(f.Src.Module))

	outPath, url := c.stylePage(base, rel)
	f.Out = &content.Out{Path: outPath}
	f.Pub = &content.Pub{URL: url, RootPath: rootPath(outPath)}

	if other, ok := c.redirectSegment(cv, canonical); ok {
		_, otherURL := c.stylePage(joinURL(cv.Name, other, modulePart(f.Src.Module)), rel)
		cat.redirects[otherURL] = url
	}
}

func (c *Classifier) publishAsset(cat *Catalog, cv *ComponentVersion, f *content.File, dir string) {
	canonical := c.versionSegment(cv)
	outPath := joinURL(cv.Name, canonical, modulePart(f.Src.Module), dir, f.Src.Relative)
	url := "/" + outPath
	f.Out = &content.Out{Path: outPath}
	f.Pub = &content.Pub{URL: url, RootPath: rootPath(outPath)}

	if other, ok := c.redirectSegment(cv, canonical); ok {
		otherURL := "/" + joinURL(cv.Name, other, modulePart(f.Src.Module), dir, f.Src.Relative)
		cat.redirects[otherURL] = url
	}
}

// versionSegment returns the URL segment used for this version's canonical
// URLs. The latest version's segment depends on the configured strategy:
// replace and redirect:from publish it under the symbolic segment,
// redirect:to keeps the actual version canonical.
func (c *Classifier) versionSegment(cv *ComponentVersion) string {
	if !cv.Latest {
		return cv.Version
	}
	switch c.cfg.URLs.LatestVersionSegmentStrategy {
	case config.LatestStrategyReplace, config.LatestStrategyRedirectFrom:
		return c.cfg.URLs.LatestVersionSegment
	default:
		return cv.Version
	}
}

// redirectSegment returns the non-canonical version segment to record a
// redirect for, if the strategy keeps both URL forms alive.
func (c *Classifier) redirectSegment(cv *ComponentVersion, canonical string) (string, bool) {
	if !cv.Latest {
		return "", false
	}
	switch c.cfg.URLs.LatestVersionSegmentStrategy {
	case config.LatestStrategyRedirectFrom:
		return cv.Version, true
	case config.LatestStrategyRedirectTo:
		if c.cfg.URLs.LatestVersionSegment == canonical {
			return "", false
		}
		return c.cfg.URLs.LatestVersionSegment, true
	default:
		return "", false
	}
}

// stylePage applies the configured HTML extension style to one page path.
func (c *Classifier) stylePage(base, rel string) (outPath, url string) {
	outPath = joinURL(base, rel)
	switch c.cfg.URLs.HTMLExtensionStyle {
	case config.ExtensionStyleDrop:
		return outPath, "/" + strings.TrimSuffix(outPath, ".html")
	case config.ExtensionStyleIndexify:
		if strings.HasSuffix(rel, "/index.html") || rel == "index.html" {
			return outPath, "/" + strings.TrimSuffix(outPath, "index.html")
		}
		stem := strings.TrimSuffix(outPath, ".html")
		return stem + "/index.html", "/" + stem + "/"
	default:
		return outPath, "/" + outPath
	}
}

func (c *Classifier) checkStartPage(cat *Catalog, cv *ComponentVersion) {
	if cv.StartPage == "" {
		return
	}
	module, page := "ROOT", cv.StartPage
	if m, rest, ok := strings.Cut(cv.StartPage, ":"); ok {
		module, page = m, rest
	}
	for _, f := range cv.Files {
		if f.Src.Family == content.FamilyPage && f.Src.Module == module && f.Src.Relative == page {
			return
		}
	}
	c.warn(cat, "missing-start-page", fmt.Sprintf(
		"start page %s not found in %s@%s", cv.StartPage, cv.Name, cv.Version))
}

func (c *Classifier) warn(cat *Catalog, kind, msg string) {
	cat.Warnings = append(cat.Warnings, msg)
	c.rec.Warning(kind)
	slog.Warn("Content warning", slog.String("kind", kind), logfields.Detail(msg))
}

func countFamilies(files []*content.File) map[content.Family]int {
	out := map[content.Family]int{}
	for _, f := range files {
		out[f.Src.Family]++
	}
	return out
}

func modulePart(module string) string {
	if module == "ROOT" {
		return ""
	}
	return module
}

func joinURL(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// rootPath is the relative path from the file's output directory back to the
// site root.
func rootPath(outPath string) string {
	depth := strings.Count(outPath, "/")
	if depth == 0 {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", depth), "/")
}
